package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/catalog"
	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/covers"
	"github.com/bookclubapp/bookclub-server/internal/logger"
)

// ProvideCatalog provides the Google Books client.
func ProvideCatalog(i do.Injector) (*catalog.GoogleBooks, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := catalog.NewGoogleBooks(context.Background(), catalog.GoogleBooksConfig{
		BaseURL:    cfg.Catalog.BaseURL,
		APIKey:     cfg.Catalog.APIKey,
		Language:   cfg.Catalog.Language,
		MaxResults: cfg.Catalog.MaxResults,
		Logger:     log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Book catalog configured",
		"language", cfg.Catalog.Language,
		"max_results", cfg.Catalog.MaxResults,
		"api_key", cfg.Catalog.APIKey != "",
	)
	return client, nil
}

// CoverServiceHandle holds the cover placeholder service, or nil when disabled.
type CoverServiceHandle struct {
	*covers.Service
}

// ProvideCoverService provides cover placeholder generation.
func ProvideCoverService(i do.Injector) (*CoverServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Covers.Enabled {
		log.Info("Cover placeholders disabled")
		return &CoverServiceHandle{}, nil
	}

	cache := do.MustInvoke[*CacheHandle](i)
	return &CoverServiceHandle{Service: covers.NewService(nil, cache.Cache, log.Logger)}, nil
}
