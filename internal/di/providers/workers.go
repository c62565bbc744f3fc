package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/logger"
	"github.com/bookclubapp/bookclub-server/internal/service"
)

const (
	sessionCleanupInterval = time.Hour
	cacheGCInterval        = 10 * time.Minute

	// shutdownTimeout bounds how long the HTTP server and background
	// jobs get to drain.
	shutdownTimeout = 30 * time.Second
)

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// Initial cleanup on startup
		if _, err := sessions.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		}
		sessions.RunCleanup(ctx, sessionCleanupInterval)
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)
	return &SessionCleanupJob{cancel: cancel}, nil
}

// CacheGCJob reclaims space in the Badger value log.
type CacheGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CacheGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCacheGCJob provides the periodic cache garbage collection job.
func ProvideCacheGCJob(i do.Injector) (*CacheGCJob, error) {
	cache := do.MustInvoke[*CacheHandle](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cacheGCInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cache.CollectGarbage()
			case <-ctx.Done():
				return
			}
		}
	}()

	return &CacheGCJob{cancel: cancel}, nil
}

// LibraryHandle waits for background cover work on shutdown.
type LibraryHandle struct {
	*service.LibraryService
}

// Shutdown implements do.Shutdownable.
func (h *LibraryHandle) Shutdown() error {
	h.Wait()
	return nil
}

// ProvideLibraryHandle exposes the library service for lifecycle management.
func ProvideLibraryHandle(i do.Injector) (*LibraryHandle, error) {
	return &LibraryHandle{LibraryService: do.MustInvoke[*service.LibraryService](i)}, nil
}
