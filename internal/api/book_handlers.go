package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/search"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List my books",
		Description: "Returns a page of the current user's books, newest first, optionally filtered by status",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a catalog entry to the current user's shelf",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search my library",
		Description: "Full-text search over the current user's books and reviews",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleSearchLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns one of the current user's books",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates book metadata. Omitted fields are left unchanged.",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeBookStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/status",
		Summary:     "Change reading status",
		Description: "Moves a book to want-to-read, reading or finished",
		Tags:        []string{"Books"},
		Security:    bearerSecurity,
	}, s.handleChangeStatus)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Removes a book and its review from the shelf",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)
}

// === DTOs ===

// ReviewResponse is a saved review.
type ReviewResponse struct {
	Text         string             `json:"text" doc:"Review body"`
	RatingType   string             `json:"rating_type" doc:"simple or detailed"`
	SimpleRating *float64           `json:"simple_rating" doc:"Overall stars for simple ratings, null otherwise"`
	Ratings      map[string]float64 `json:"ratings" doc:"Per-criterion stars for detailed ratings, null otherwise. Unrated criteria are absent."`
	Overall      float64            `json:"overall" doc:"Derived overall score, 0-5"`
	Stars        []domain.StarFill  `json:"stars" doc:"How each of the five stars of the overall score is drawn"`
	// CriterionStars is keyed by every criterion, rated or not.
	CriterionStars map[string][]domain.StarFill `json:"criterion_stars,omitempty" doc:"Star fills per criterion for detailed ratings. Unrated criteria are drawn empty."`
}

// BookResponse is a book on the shelf.
type BookResponse struct {
	ID            string          `json:"id" doc:"Book ID"`
	CatalogID     string          `json:"catalog_id,omitempty" doc:"Catalog volume ID"`
	Title         string          `json:"title" doc:"Title"`
	Authors       string          `json:"authors" doc:"Comma-separated authors"`
	PublishedDate string          `json:"published_date" doc:"Publication date as given by the catalog"`
	Thumbnail     string          `json:"thumbnail,omitempty" doc:"Cover thumbnail URL"`
	CoverBlurHash string          `json:"cover_blur_hash,omitempty" doc:"BlurHash placeholder for the cover"`
	Description   string          `json:"description,omitempty" doc:"Description"`
	Status        string          `json:"status" doc:"want-to-read, reading or finished"`
	StartDate     *time.Time      `json:"start_date,omitempty" doc:"When reading started"`
	CompletedDate *time.Time      `json:"completed_date,omitempty" doc:"When the book was last finished"`
	Review        *ReviewResponse `json:"review,omitempty" doc:"Review, once a rating was saved"`
	CreatedAt     time.Time       `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time       `json:"updated_at" doc:"Last update time"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body BookResponse
}

// BookListResponse is a page of books.
type BookListResponse struct {
	Books      []BookResponse `json:"books" doc:"Books on this page"`
	Page       int            `json:"page" doc:"Current page (1-based)"`
	PerPage    int            `json:"per_page" doc:"Page size"`
	Total      int            `json:"total" doc:"Total matching books"`
	TotalPages int            `json:"total_pages" doc:"Total pages"`
	HasMore    bool           `json:"has_more" doc:"Whether another page follows"`
}

// BookListOutput wraps a page of books for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Status  string `query:"status" doc:"Filter by status: want-to-read, reading or finished"`
	Page    int    `query:"page" default:"1" minimum:"1" maximum:"100000" doc:"Page number"`
	PerPage int    `query:"per_page" default:"10" minimum:"1" maximum:"100" doc:"Items per page"`
}

// ReviewRequest is a review as submitted by a client.
type ReviewRequest struct {
	Text         string             `json:"text,omitempty" maxLength:"10000" doc:"Review body"`
	RatingType   string             `json:"rating_type" doc:"simple or detailed"`
	SimpleRating *float64           `json:"simple_rating,omitempty" doc:"Overall stars (0-5, half steps) for simple ratings"`
	Ratings      map[string]float64 `json:"ratings,omitempty" doc:"Stars per criterion (Story, Language, Characters, Pacing, Originality) for detailed ratings"`
}

// AddBookRequest is the request body for adding a book.
type AddBookRequest struct {
	CatalogID     string         `json:"catalog_id,omitempty" doc:"Catalog volume ID"`
	Title         string         `json:"title" minLength:"1" doc:"Title"`
	Authors       string         `json:"authors,omitempty" doc:"Comma-separated authors"`
	PublishedDate string         `json:"published_date,omitempty" doc:"Publication date"`
	Thumbnail     string         `json:"thumbnail,omitempty" doc:"Cover thumbnail URL"`
	Description   string         `json:"description,omitempty" doc:"Description"`
	Status        string         `json:"status,omitempty" doc:"Initial status (default want-to-read)"`
	Review        *ReviewRequest `json:"review,omitempty" doc:"Optional initial review"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is the request body for a metadata update.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" doc:"Title"`
	Authors       *string `json:"authors,omitempty" doc:"Comma-separated authors"`
	PublishedDate *string `json:"published_date,omitempty" doc:"Publication date"`
	Thumbnail     *string `json:"thumbnail,omitempty" doc:"Cover thumbnail URL"`
	Description   *string `json:"description,omitempty" doc:"Description"`
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// ChangeStatusRequest is the request body for a status change.
type ChangeStatusRequest struct {
	Status string `json:"status" doc:"want-to-read, reading or finished"`
}

// ChangeStatusInput wraps the status change for Huma.
type ChangeStatusInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body ChangeStatusRequest
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// SearchLibraryInput contains parameters for searching the library.
type SearchLibraryInput struct {
	Query string `query:"q" doc:"Search query. Empty lists every book by title."`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits"`
}

// SearchLibraryOutput wraps search results for Huma.
type SearchLibraryOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Library.ListBooks(ctx, userID, service.ListBooksParams{
		Status:  input.Status,
		Page:    input.Page,
		PerPage: input.PerPage,
	})
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.AddBookRequest{
		CatalogID:     input.Body.CatalogID,
		Title:         input.Body.Title,
		Authors:       input.Body.Authors,
		PublishedDate: input.Body.PublishedDate,
		Thumbnail:     input.Body.Thumbnail,
		Description:   input.Body.Description,
		Status:        input.Body.Status,
	}
	if input.Body.Review != nil {
		review := toReviewInput(*input.Body.Review)
		req.Review = &review
	}

	book, err := s.services.Library.AddBook(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.GetBook(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.UpdateBook(ctx, userID, input.ID, service.UpdateBookRequest{
		Title:         input.Body.Title,
		Authors:       input.Body.Authors,
		PublishedDate: input.Body.PublishedDate,
		Thumbnail:     input.Body.Thumbnail,
		Description:   input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleChangeStatus(ctx context.Context, input *ChangeStatusInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Library.ChangeStatus(ctx, userID, input.ID, input.Body.Status)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.DeleteBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil //nolint:nilnil // 204 No Content
}

func (s *Server) handleSearchLibrary(ctx context.Context, input *SearchLibraryInput) (*SearchLibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Library.Search(ctx, userID, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchLibraryOutput{Body: result}, nil
}

// === Mapping ===

func toReviewInput(r ReviewRequest) service.ReviewInput {
	var ratings domain.Ratings
	if r.Ratings != nil {
		ratings = make(domain.Ratings, len(r.Ratings))
		for k, v := range r.Ratings {
			ratings[domain.Criterion(k)] = v
		}
	}
	return service.ReviewInput{
		Text:         r.Text,
		RatingType:   r.RatingType,
		SimpleRating: r.SimpleRating,
		Ratings:      ratings,
	}
}

func mapReviewResponse(r *domain.Review) *ReviewResponse {
	if r == nil {
		return nil
	}
	resp := &ReviewResponse{
		Text:         r.Text,
		RatingType:   string(r.RatingType),
		SimpleRating: r.SimpleRating,
		Overall:      r.Overall,
		Stars:        domain.StarFills(&r.Overall),
	}
	if r.Ratings != nil {
		resp.Ratings = make(map[string]float64, len(r.Ratings))
		for c, v := range r.Ratings {
			resp.Ratings[string(c)] = v
		}
	}
	if r.RatingType == domain.RatingDetailed {
		resp.CriterionStars = make(map[string][]domain.StarFill, len(domain.Criteria))
		for _, c := range domain.Criteria {
			resp.CriterionStars[string(c)] = domain.StarFills(r.Stars(c))
		}
	}
	return resp
}

func mapBookResponse(b *domain.BookRecord) BookResponse {
	return BookResponse{
		ID:            b.ID,
		CatalogID:     b.CatalogID,
		Title:         b.Title,
		Authors:       b.Authors,
		PublishedDate: b.PublishedDate,
		Thumbnail:     b.Thumbnail,
		CoverBlurHash: b.CoverBlurHash,
		Description:   b.Description,
		Status:        string(b.Status),
		StartDate:     b.StartDate,
		CompletedDate: b.CompletedDate,
		Review:        mapReviewResponse(b.Review),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func mapBookPage(page *store.Page[*domain.BookRecord]) BookListResponse {
	books := make([]BookResponse, len(page.Items))
	for i, b := range page.Items {
		books[i] = mapBookResponse(b)
	}
	return BookListResponse{
		Books:      books,
		Page:       page.Page,
		PerPage:    page.PerPage,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasMore:    page.HasMore,
	}
}
