// Package covers computes BlurHash placeholders for catalog thumbnails.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxImageBytes caps how much of a thumbnail is downloaded.
const MaxImageBytes = 5 << 20

// ErrUnsupportedURL is returned for thumbnails that are not http(s).
var ErrUnsupportedURL = errors.New("covers: unsupported thumbnail url")

// Cache persists computed placeholders by thumbnail URL.
type Cache interface {
	GetCoverHash(ctx context.Context, url string) (string, bool, error)
	SetCoverHash(ctx context.Context, url, blurHash string) error
}

// Service fetches thumbnails and computes their placeholders.
type Service struct {
	httpClient *http.Client
	cache      Cache
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewService creates a cover service. cache may be nil.
func NewService(httpClient *http.Client, cache Cache, logger *slog.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		httpClient: httpClient,
		cache:      cache,
		tracer:     otel.Tracer("bookclub/covers"),
		logger:     logger,
	}
}

// BlurHash returns the placeholder for the thumbnail at rawURL,
// fetching and computing it on a cache miss.
func (s *Service) BlurHash(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrUnsupportedURL
	}

	if s.cache != nil {
		if hash, ok, err := s.cache.GetCoverHash(ctx, rawURL); err == nil && ok {
			return hash, nil
		} else if err != nil {
			s.logger.Warn("cover cache read failed", "url", rawURL, "error", err)
		}
	}

	ctx, span := s.tracer.Start(ctx, "covers.blurhash",
		trace.WithAttributes(attribute.String("cover.url", rawURL)))
	defer span.End()

	hash, err := s.fetchAndHash(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute blurhash")
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.SetCoverHash(ctx, rawURL, hash); err != nil {
			s.logger.Warn("cover cache write failed", "url", rawURL, "error", err)
		}
	}
	return hash, nil
}

func (s *Service) fetchAndHash(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch thumbnail: status %d", resp.StatusCode)
	}
	return ComputeBlurHash(io.LimitReader(resp.Body, MaxImageBytes))
}
