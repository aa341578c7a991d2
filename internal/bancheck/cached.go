package bancheck

import (
	"context"

	"github.com/lukastechs/twitch-ban/internal/cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Cached supplies a finder that caches the classifications of the wrapped
// finder in the given store. Lookups for the same login are single-flighted:
// concurrent requests share one upstream call and observe its outcome,
// success or failure. Errors are never cached, so a failed lookup is retried
// by the next request.
//
// Responses served from the store carry Cached=true; responses produced by
// the flight itself do not, including for the waiters that shared it.
func Cached(store cache.ResultCache[Status]) func(StatusFinder) StatusFinder {
	return func(f StatusFinder) StatusFinder {
		var group singleflight.Group

		return func(ctx context.Context, login string) (Status, error) {
			status, ok, err := store.Get(ctx, login)
			if err != nil {
				log.Warn().Err(err).Str("login", login).Msg("result cache read failed")
			} else if ok {
				status.Cached = true
				return status, nil
			}

			result, err, _ := group.Do(login, func() (any, error) {
				// The flight's outcome is shared by every waiter, so the
				// triggering caller's cancellation must not abort it.
				flightCtx := context.WithoutCancel(ctx)

				// Double-check inside the flight: a racing request may
				// have stored a classification while this one waited.
				status, ok, err := store.Get(flightCtx, login)
				if err != nil {
					log.Warn().Err(err).Str("login", login).Msg("result cache read failed")
				} else if ok {
					status.Cached = true
					return status, nil
				}

				status, err = f(flightCtx, login)
				if err != nil {
					return Status{}, err
				}

				if err := store.Set(flightCtx, login, status); err != nil {
					log.Warn().Err(err).Str("login", login).Msg("result cache write failed")
				}

				return status, nil
			})
			if err != nil {
				return Status{}, err
			}

			return result.(Status), nil
		}
	}
}
