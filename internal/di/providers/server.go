package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/api"
	"github.com/bookclubapp/bookclub-server/internal/config"
	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/service"
	"github.com/bookclubapp/bookclub-server/internal/tracing"
)

// Version is the server version reported in the OpenAPI document and traces.
// Overridden at build time with -ldflags.
var Version = "dev"

// TracingHandle flushes spans on shutdown.
type TracingHandle struct {
	shutdown tracing.ShutdownFunc
}

// Shutdown implements do.Shutdownable.
func (h *TracingHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.shutdown(ctx)
}

// ProvideTracing installs the OpenTelemetry tracer provider.
func ProvideTracing(i do.Injector) (*TracingHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Endpoint:    cfg.Tracing.OTLPEndpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.App.Environment,
		Version:     Version,
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	return &TracingHandle{shutdown: shutdown}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	_ = do.MustInvoke[*TracingHandle](i)

	services := &api.Services{
		Auth:    do.MustInvoke[*service.AuthService](i),
		Library: do.MustInvoke[*service.LibraryService](i),
		Review:  do.MustInvoke[*service.ReviewService](i),
		Profile: do.MustInvoke[*service.ProfileService](i),
		Account: do.MustInvoke[*service.AccountService](i),
		Catalog: do.MustInvoke[*service.CatalogService](i),
	}

	handler := api.NewServer(services, api.HealthChecks{
		Database:    storeHandle.Ping,
		SearchIndex: indexHandle.DocumentCount,
	}, api.Config{
		Name:           cfg.Server.Name,
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
