package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukastechs/twitch-ban/internal/config"
)

func TestServe_ShutsDownOnContextCancel(t *testing.T) {
	cfg := config.ServerConfig{ShutdownTimeoutSeconds: 5}

	hooks := &ShutdownHooks{}
	hookRan := false
	hooks.Add("flush", func() error {
		hookRan = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	err := Serve(ctx, cfg, server, hooks)
	require.NoError(t, err)
	assert.True(t, hookRan, "hooks should run once the server has drained")
}

func TestServe_ReturnsListenerFailure(t *testing.T) {
	cfg := config.ServerConfig{ShutdownTimeoutSeconds: 5}

	hooks := &ShutdownHooks{}
	hookRan := false
	hooks.Add("flush", func() error {
		hookRan = true
		return nil
	})

	server := &http.Server{
		Addr:    "127.0.0.1:-1",
		Handler: http.NewServeMux(),
	}

	err := Serve(context.Background(), cfg, server, hooks)
	require.ErrorContains(t, err, "listener failed")
	assert.False(t, hookRan, "hooks should not run when the listener never started")
}
