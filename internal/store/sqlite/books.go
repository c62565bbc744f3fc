package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookclubapp/bookclub-server/internal/domain"
	"github.com/bookclubapp/bookclub-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, owner_id, catalog_id, title, authors, published_date, thumbnail, description,
	status, start_date, completed_date,
	review_text, rating_type, simple_rating, ratings_json, overall,
	cover_blur_hash, created_at, updated_at`

func scanBook(row scanner) (*domain.BookRecord, error) {
	var (
		b             domain.BookRecord
		catalogID     sql.NullString
		thumbnail     sql.NullString
		description   sql.NullString
		status        string
		startDate     sql.NullString
		completedDate sql.NullString
		reviewText    sql.NullString
		ratingType    sql.NullString
		simpleRating  sql.NullFloat64
		ratingsJSON   sql.NullString
		overall       sql.NullFloat64
		blurHash      sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(
		&b.ID, &b.OwnerID, &catalogID, &b.Title, &b.Authors, &b.PublishedDate, &thumbnail, &description,
		&status, &startDate, &completedDate,
		&reviewText, &ratingType, &simpleRating, &ratingsJSON, &overall,
		&blurHash, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CatalogID = catalogID.String
	b.Thumbnail = thumbnail.String
	b.Description = description.String
	b.Status = domain.BookStatus(status)
	b.CoverBlurHash = blurHash.String

	if b.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if b.CompletedDate, err = parseNullableTime(completedDate); err != nil {
		return nil, fmt.Errorf("parse completed_date: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if ratingType.Valid {
		review := &domain.Review{
			Text:       reviewText.String,
			RatingType: domain.RatingType(ratingType.String),
			Overall:    overall.Float64,
		}
		if simpleRating.Valid {
			v := simpleRating.Float64
			review.SimpleRating = &v
		}
		if ratingsJSON.Valid && ratingsJSON.String != "" {
			if err := json.Unmarshal([]byte(ratingsJSON.String), &review.Ratings); err != nil {
				return nil, fmt.Errorf("unmarshal ratings: %w", err)
			}
		}
		b.Review = review
	}

	return &b, nil
}

// reviewArgs flattens a review into its column values. A nil review clears all of them.
func reviewArgs(r *domain.Review) (text, ratingType sql.NullString, simple sql.NullFloat64, ratings sql.NullString, overall sql.NullFloat64, err error) {
	if r == nil {
		return
	}
	text = sql.NullString{String: r.Text, Valid: true}
	ratingType = sql.NullString{String: string(r.RatingType), Valid: true}
	if r.SimpleRating != nil {
		simple = sql.NullFloat64{Float64: *r.SimpleRating, Valid: true}
	}
	if r.Ratings != nil {
		data, mErr := json.Marshal(r.Ratings)
		if mErr != nil {
			err = fmt.Errorf("marshal ratings: %w", mErr)
			return
		}
		ratings = sql.NullString{String: string(data), Valid: true}
	}
	overall = sql.NullFloat64{Float64: r.Overall, Valid: true}
	return
}

// CreateBook inserts a new book record.
func (s *Store) CreateBook(ctx context.Context, book *domain.BookRecord) error {
	text, ratingType, simple, ratings, overall, err := reviewArgs(book.Review)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_books (
			id, owner_id, catalog_id, title, authors, published_date, thumbnail, description,
			status, start_date, completed_date,
			review_text, rating_type, simple_rating, ratings_json, overall,
			cover_blur_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.OwnerID, nullString(book.CatalogID), book.Title, book.Authors, book.PublishedDate,
		nullString(book.Thumbnail), nullString(book.Description),
		string(book.Status), nullTimeString(book.StartDate), nullTimeString(book.CompletedDate),
		text, ratingType, simple, ratings, overall,
		nullString(book.CoverBlurHash), formatTime(book.CreatedAt), formatTime(book.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if isForeignKeyViolation(err) {
		return store.ErrUserNotFound
	}
	return err
}

// GetBook retrieves a book record by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.BookRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM user_books WHERE id = ?`, id)
	b, err := scanBook(row)
	if isNoRows(err) {
		return nil, store.ErrBookNotFound
	}
	return b, err
}

// UpdateBook applies a partial update. Only non-nil patch fields are written;
// updated_at is refreshed unless the patch sets SkipTouch.
func (s *Store) UpdateBook(ctx context.Context, id string, patch store.BookPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Authors != nil {
		set("authors", *patch.Authors)
	}
	if patch.PublishedDate != nil {
		set("published_date", *patch.PublishedDate)
	}
	if patch.Thumbnail != nil {
		set("thumbnail", nullString(*patch.Thumbnail))
	}
	if patch.Description != nil {
		set("description", nullString(*patch.Description))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.StartDate != nil {
		set("start_date", nullTimeString(patch.StartDate))
	}
	if patch.CompletedDate != nil {
		set("completed_date", nullTimeString(patch.CompletedDate))
	}
	if patch.CoverBlurHash != nil {
		set("cover_blur_hash", nullString(*patch.CoverBlurHash))
	}
	if patch.Review != nil || patch.ClearReview {
		review := patch.Review
		if patch.ClearReview {
			review = nil
		}
		text, ratingType, simple, ratings, overall, err := reviewArgs(review)
		if err != nil {
			return err
		}
		set("review_text", text)
		set("rating_type", ratingType)
		set("simple_rating", simple)
		set("ratings_json", ratings)
		set("overall", overall)
	}

	if !patch.SkipTouch {
		updatedAt := patch.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = nowUTC()
		}
		set("updated_at", formatTime(updatedAt))
	}
	if len(sets) == 0 {
		// Nothing to write; still report a missing row.
		_, err := s.GetBook(ctx, id)
		return err
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		`UPDATE user_books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return expectAffected(result, store.ErrBookNotFound)
}

// DeleteBook hard-deletes a book record.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(result, store.ErrBookNotFound)
}

// ListBooksByOwner returns one page of an owner's shelf, newest first.
// Reviewed-only listings are ordered by most recently updated.
func (s *Store) ListBooksByOwner(ctx context.Context, ownerID string, filter store.BookFilter, params store.PageParams) (*store.Page[*domain.BookRecord], error) {
	params.Normalize()

	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	order := "created_at DESC, id DESC"
	if filter.ReviewedOnly {
		where = append(where, "rating_type IS NOT NULL")
		order = "updated_at DESC, id DESC"
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_books WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	pageArgs := append(append([]any{}, args...), params.PerPage, params.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM user_books WHERE `+whereClause+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	return store.NewPage(books, params, total), nil
}

// ListAllBooks returns every book record. Used to rebuild the search index.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.BookRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM user_books ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBooks(rows)
}

func collectBooks(rows *sql.Rows) ([]*domain.BookRecord, error) {
	var books []*domain.BookRecord
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
