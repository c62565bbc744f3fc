package api

import (
	"context"

	"github.com/bookclubapp/bookclub-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Library *service.LibraryService
	Review  *service.ReviewService
	Profile *service.ProfileService
	Account *service.AccountService
	Catalog *service.CatalogService
}

// HealthChecks are the components probed by the health endpoint.
// Nil checks are skipped.
type HealthChecks struct {
	Database    func(ctx context.Context) error
	SearchIndex func() (uint64, error)
}
