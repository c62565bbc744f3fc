package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	domainerrors "github.com/bookclubapp/bookclub-server/internal/errors"
)

// MaxResultsLimit is the largest page the Google Books API returns.
const MaxResultsLimit = 40

// GoogleBooksConfig configures the Google Books client.
type GoogleBooksConfig struct {
	BaseURL    string // Empty uses the public endpoint
	APIKey     string // Empty calls the API without a key
	Language   string // Entries in other languages are dropped; empty keeps all
	MaxResults int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GoogleBooks searches the Google Books volumes API.
type GoogleBooks struct {
	svc         *books.Service
	apiKey      string
	language    string
	maxResults  int64
	rateLimiter *rate.Limiter
	tracer      trace.Tracer
	logger      *slog.Logger
}

var _ Searcher = (*GoogleBooks)(nil)

// NewGoogleBooks creates a client.
// Rate limited to one request per second with a burst of 3.
func NewGoogleBooks(ctx context.Context, cfg GoogleBooksConfig) (*GoogleBooks, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	// A custom HTTP client bypasses option.WithAPIKey, so the key is
	// attached per request instead.
	opts := []option.ClientOption{
		option.WithHTTPClient(httpClient),
		option.WithUserAgent("bookclub-server"),
	}
	if cfg.BaseURL != "" {
		endpoint := cfg.BaseURL
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create books service: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	return &GoogleBooks{
		svc:         svc,
		apiKey:      cfg.APIKey,
		language:    cfg.Language,
		maxResults:  int64(min(maxResults, MaxResultsLimit)),
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		tracer:      otel.Tracer("bookclub/catalog"),
		logger:      logger,
	}, nil
}

// Search returns a lazy sequence of matching volumes. The request is only
// issued once the sequence is ranged over. A blank query never reaches the API.
func (g *GoogleBooks) Search(ctx context.Context, query string) *Results {
	query = strings.TrimSpace(query)
	if query == "" {
		return Empty()
	}
	return NewResults(ctx, func(ctx context.Context, yield func(Entry) bool) error {
		volumes, err := g.fetch(ctx, query)
		if err != nil {
			return err
		}
		for _, v := range volumes {
			entry, ok := g.toEntry(v)
			if !ok {
				continue
			}
			if !yield(entry) {
				return nil
			}
		}
		return nil
	})
}

func (g *GoogleBooks) fetch(ctx context.Context, query string) ([]*books.Volume, error) {
	ctx, span := g.tracer.Start(ctx, "catalog.google_books.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("catalog.query", query),
			attribute.Int64("catalog.max_results", g.maxResults),
		),
	)
	defer span.End()

	if err := g.rateLimiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter")
		return nil, err
	}

	call := g.svc.Volumes.List(query).
		MaxResults(g.maxResults).
		PrintType("books").
		Context(ctx)
	if g.language != "" {
		call = call.LangRestrict(g.language)
	}

	var callOpts []googleapi.CallOption
	if g.apiKey != "" {
		callOpts = append(callOpts, googleapi.QueryParameter("key", g.apiKey))
	}

	start := time.Now()
	resp, err := call.Do(callOpts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "volumes.list")
		g.logger.Warn("catalog search failed", "query", query, "error", err, "duration", time.Since(start))
		return nil, classifyError(err)
	}

	span.SetAttributes(attribute.Int("catalog.items", len(resp.Items)))
	g.logger.Debug("catalog search", "query", query, "items", len(resp.Items), "duration", time.Since(start))
	return resp.Items, nil
}

// classifyError maps upstream failures onto domain errors.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return domainerrors.RateLimited("catalog quota exceeded, try again shortly").WithCause(err)
	}
	return domainerrors.UpstreamUnavailable(err, "book catalog is unavailable")
}

// toEntry maps a volume, dropping entries in another language.
func (g *GoogleBooks) toEntry(v *books.Volume) (Entry, bool) {
	if v == nil || v.VolumeInfo == nil {
		return Entry{}, false
	}
	info := v.VolumeInfo
	if g.language != "" && !strings.EqualFold(info.Language, g.language) {
		return Entry{}, false
	}

	entry := Entry{
		CatalogID:     v.Id,
		Title:         info.Title,
		Authors:       strings.Join(info.Authors, ", "),
		PublishedDate: info.PublishedDate,
		Description:   htmlToMarkdown(info.Description),
		Language:      info.Language,
	}
	if entry.Authors == "" {
		entry.Authors = UnknownAuthor
	}
	if entry.PublishedDate == "" {
		entry.PublishedDate = UnknownDate
	}
	entry.Year = PublishedYear(entry.PublishedDate)
	if entry.Year == "" {
		entry.Year = UnknownDate
	}
	if info.ImageLinks != nil {
		entry.Thumbnail = secureURL(info.ImageLinks.Thumbnail)
		if entry.Thumbnail == "" {
			entry.Thumbnail = secureURL(info.ImageLinks.SmallThumbnail)
		}
	}
	return entry, true
}

// secureURL upgrades Google's http image links to https.
func secureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts an HTML description to Markdown.
// Plain text is returned unchanged.
func htmlToMarkdown(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
