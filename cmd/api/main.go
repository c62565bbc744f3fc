// Package main runs the BookClub HTTP server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/bookclubapp/bookclub-server/internal/di"
	"github.com/bookclubapp/bookclub-server/internal/logger"
)

func main() {
	os.Exit(run())
}

// run starts the server and blocks until SIGINT or SIGTERM. It returns the
// process exit code.
func run() int {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "bookclub: startup failed: %v\n", err)
		return 1
	}
	log := do.MustInvoke[*logger.Logger](injector)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("Shutting down", "signal", sig.String())

	// Shutdownable handles stop in reverse dependency order, so the HTTP
	// server drains before the store and index close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
		return 1
	}
	log.Info("Shutdown complete")
	return 0
}
