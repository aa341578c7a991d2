// Package server runs the HTTP listener and owns the orderly teardown of
// everything the service holds open: in-flight requests first, then the
// registered shutdown hooks.
package server

import (
	"context"

	"github.com/rs/zerolog/log"
)

type namedHook struct {
	name string
	fn   func(context.Context) error
}

// ShutdownHooks collects cleanup work to run when the service stops. Hooks
// run in registration order, and a failing hook never prevents the ones
// after it from running.
type ShutdownHooks struct {
	hooks []namedHook
}

// AddContext registers a hook that receives the shutdown context, which may
// carry a deadline. Nil hooks are ignored with a warning.
func (s *ShutdownHooks) AddContext(name string, hook func(context.Context) error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}

	log.Debug().Str("hook", name).Msg("registering shutdown hook")
	s.hooks = append(s.hooks, namedHook{name: name, fn: hook})
}

// Add registers a hook that needs no context.
func (s *ShutdownHooks) Add(name string, hook func() error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}

	s.AddContext(name, func(context.Context) error {
		return hook()
	})
}

// AddClose registers the Close method of a resource as a hook.
func (s *ShutdownHooks) AddClose(name string, closer interface{ Close() }) {
	if closer == nil {
		log.Warn().Str("hook", name).Msg("ignoring nil shutdown hook")
		return
	}

	s.AddContext(name, func(context.Context) error {
		closer.Close()
		return nil
	})
}

// Execute runs every registered hook in order, logging the outcome of each.
func (s *ShutdownHooks) Execute(ctx context.Context) {
	l := log.Ctx(ctx)
	for _, hook := range s.hooks {
		hookLog := l.With().Str("hook", hook.name).Logger()

		hookLog.Info().Msg("shutdown started")
		if err := hook.fn(ctx); err != nil {
			hookLog.Warn().Err(err).Msg("shutdown failed")
		} else {
			hookLog.Info().Msg("shutdown complete")
		}
	}
}
