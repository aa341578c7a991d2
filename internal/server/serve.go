package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lukastechs/twitch-ban/internal/config"
)

// Serve runs the HTTP server until SIGINT or SIGTERM arrives (or the parent
// context is cancelled), then drains in-flight requests within the
// configured shutdown timeout and executes the registered hooks. A listener
// failure is returned immediately, before any hooks run.
func Serve(ctx context.Context, cfg config.ServerConfig, server *http.Server, hooks *ShutdownHooks) error {
	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server: listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listener failed: %w", err)
		}
	case <-notifyCtx.Done():
	}

	stop()
	log.Info().Dur("timeout", cfg.ShutdownTimeout()).Msg("server: shutdown requested")

	// The shutdown deadline is independent of the triggering context, which
	// is already done by the time draining starts.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout())
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Msg("server: drain deadline exceeded, closing remaining connections")
		err = errors.Join(err, server.Close())
	}

	hooks.Execute(shutdownCtx)

	if err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info().Msg("server: shutdown complete")
	return nil
}
