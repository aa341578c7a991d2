// This command is only used for local testing: it classifies one or more
// usernames directly against the Twitch API with the same logic the server
// uses, without starting the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"

	"github.com/lukastechs/twitch-ban/internal/bancheck"
	"github.com/lukastechs/twitch-ban/internal/config"
	"github.com/lukastechs/twitch-ban/internal/twitch"
)

type Config struct {
	Twitch config.TwitchConfig
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <username> [username ...]\n", os.Args[0])
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := Config{}
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Twitch.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	client, err := twitch.New(cfg.Twitch, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring twitch client: %v\n", err)
		os.Exit(1)
	}

	tokens := twitch.NewTokenSource(client, cfg.Twitch.TokenExpiryBuffer())
	find := bancheck.NewFinder(tokens, client)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	failed := false
	for _, raw := range os.Args[1:] {
		login := bancheck.NormalizeLogin(raw)

		status, err := checkOne(ctx, find, login)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error checking %q: %v\n", login, err)
			failed = true
			continue
		}

		if err := encoder.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "error writing result: %v\n", err)
			os.Exit(1)
		}
	}

	if failed {
		os.Exit(1)
	}
}

func checkOne(ctx context.Context, find bancheck.StatusFinder, login string) (bancheck.Status, error) {
	if err := bancheck.ValidateLogin(login); err != nil {
		return bancheck.NewInvalidStatus(login), nil
	}

	return find(ctx, login)
}
