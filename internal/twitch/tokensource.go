package twitch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// TokenExchanger mints app access tokens. Client implements this.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context) (AppToken, error)
}

// TokenSource holds the process-wide app token, refreshing it on demand.
// Concurrent callers racing on an absent or expired token are coalesced
// into a single exchange; every waiter observes the same token or the same
// error. Failed exchanges are never stored, so the next caller retries.
type TokenSource struct {
	exchanger TokenExchanger
	buffer    time.Duration

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	sf singleflight.Group

	now func() time.Time
}

// NewTokenSource creates a token source around the exchanger. The buffer is
// subtracted from each token's declared lifetime, retiring it before Twitch
// does.
func NewTokenSource(exchanger TokenExchanger, buffer time.Duration) *TokenSource {
	return &TokenSource{
		exchanger: exchanger,
		buffer:    buffer,
		now:       time.Now,
	}
}

// Token returns a currently valid app token, exchanging for a fresh one when
// the held token is absent or past its safety expiry.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := s.cached(); ok {
		return token, nil
	}

	result, err, _ := s.sf.Do("token", func() (any, error) {
		// Double-check inside the flight: another caller may have
		// refreshed while this one waited.
		if token, ok := s.cached(); ok {
			return token, nil
		}

		// The exchange outcome is shared by every waiter, so the
		// triggering caller's cancellation must not abort it. The
		// client's own timeout still bounds the call.
		minted, err := s.exchanger.ExchangeToken(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s.store(minted)

		log.Info().
			Time("expiresAt", s.expiry()).
			Msg("app token refreshed")

		return minted.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (s *TokenSource) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" || !s.now().Before(s.expiresAt) {
		return "", false
	}

	return s.token, true
}

func (s *TokenSource) store(minted AppToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A lifetime shorter than the buffer yields an expiry in the past:
	// such a token is used once and exchanged again on the next demand.
	s.token = minted.AccessToken
	s.expiresAt = s.now().Add(minted.Lifetime() - s.buffer)
}

func (s *TokenSource) expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.expiresAt
}
