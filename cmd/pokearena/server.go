package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ericogr/pokearena/internal/config"
	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/service"
	"github.com/ericogr/pokearena/internal/storage"
)

const sweepInterval = time.Minute

// startSweeper expires idle battles and stale PokeAPI cache rows in the
// background until ctx is done.
func startSweeper(ctx context.Context, battles *service.BattleService, repo storage.Repository, cfg *config.LoadedConfig) {
	battles.StartSweeper(ctx, sweepInterval, cfg.IdleTimeout, repo, cfg.CacheTTL)
}

// runServer serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func runServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serve runs the server, then waits for pending work and flushes telemetry
// whether or not the server failed. It returns the process exit code.
func serve(ctx context.Context, addr string, handler http.Handler, wait func(), flush func(context.Context) error) int {
	serveErr := runServer(ctx, addr, handler)
	if wait != nil {
		wait()
	}
	if flush != nil {
		if err := flush(context.Background()); err != nil {
			logging.Error("telemetry shutdown failed", err, nil)
		}
	}
	if serveErr != nil {
		logging.Error("Failed to start server", serveErr, logging.Fields{constants.LogFieldAddr: addr})
		return 1
	}
	logging.Info("Server stopped", nil)
	return 0
}
