package bancheck

import (
	"context"
	"fmt"

	"github.com/lukastechs/twitch-ban/internal/twitch"
	"github.com/rs/zerolog/log"
)

// StatusFinder classifies a normalized, validated login name.
type StatusFinder func(ctx context.Context, login string) (Status, error)

// TokenProvider supplies a currently valid app token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// UserLookup resolves a login via the Helix users endpoint.
type UserLookup interface {
	LookupUser(ctx context.Context, token string, login string) (*twitch.User, error)
}

// NewFinder creates a StatusFinder that acquires an app token and asks Helix
// about the login. A resolvable login is classified active; a login Helix
// will not resolve is classified banned or nonexistent. Token or transport
// failures propagate as errors and classify nothing.
func NewFinder(tokens TokenProvider, lookup UserLookup) StatusFinder {
	return func(ctx context.Context, login string) (Status, error) {
		token, err := tokens.Token(ctx)
		if err != nil {
			return Status{}, fmt.Errorf("could not acquire app token: %w", err)
		}

		user, err := lookup.LookupUser(ctx, token, login)
		if err != nil {
			return Status{}, fmt.Errorf("could not look up %s: %w", login, err)
		}

		if user == nil {
			log.Info().Str("login", login).Msg("login unresolvable upstream: classified banned or nonexistent")
			return NewBannedStatus(login), nil
		}

		return NewActiveStatus(user), nil
	}
}
