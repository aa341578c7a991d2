package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownHooks_AddContext(t *testing.T) {
	t.Run("registers and runs hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		called := false

		hooks.AddContext("flush", func(ctx context.Context) error {
			called = true
			return nil
		})

		require.Len(t, hooks.hooks, 1)
		assert.Equal(t, "flush", hooks.hooks[0].name)

		hooks.Execute(context.Background())
		assert.True(t, called, "hook should have run")
	})

	t.Run("ignores nil hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.AddContext("nil-hook", nil)
		assert.Empty(t, hooks.hooks)
	})

	t.Run("passes the shutdown context through", func(t *testing.T) {
		type ctxKey struct{}

		hooks := &ShutdownHooks{}
		var seen string
		hooks.AddContext("ctx", func(ctx context.Context) error {
			seen, _ = ctx.Value(ctxKey{}).(string)
			return nil
		})

		hooks.Execute(context.WithValue(context.Background(), ctxKey{}, "deadline-ctx"))
		assert.Equal(t, "deadline-ctx", seen)
	})
}

func TestShutdownHooks_Add(t *testing.T) {
	t.Run("wraps a contextless hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		called := false

		hooks.Add("close-cache", func() error {
			called = true
			return nil
		})

		hooks.Execute(context.Background())
		assert.True(t, called, "hook should have run")
	})

	t.Run("ignores nil hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.Add("nil-hook", nil)
		assert.Empty(t, hooks.hooks)
	})

	t.Run("preserves the hook error", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		wantErr := errors.New("close failed")

		hooks.Add("failing", func() error { return wantErr })

		require.Len(t, hooks.hooks, 1)
		assert.Equal(t, wantErr, hooks.hooks[0].fn(context.Background()))
	})
}

func TestShutdownHooks_AddClose(t *testing.T) {
	t.Run("wraps a closer", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		closer := &recordingCloser{}

		hooks.AddClose("mock-server", closer)
		hooks.Execute(context.Background())

		assert.True(t, closer.closed, "Close should have been called")
	})

	t.Run("ignores nil closer", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.AddClose("nil-closer", nil)
		assert.Empty(t, hooks.hooks)
	})
}

func TestShutdownHooks_Execute(t *testing.T) {
	t.Run("runs hooks in registration order", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		var order []string

		hooks.AddContext("first", func(context.Context) error {
			order = append(order, "first")
			return nil
		})
		hooks.Add("second", func() error {
			order = append(order, "second")
			return nil
		})
		hooks.AddContext("third", func(context.Context) error {
			order = append(order, "third")
			return nil
		})

		hooks.Execute(context.Background())
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})

	t.Run("continues past a failing hook", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		var order []string

		hooks.Add("first", func() error {
			order = append(order, "first")
			return errors.New("first failed")
		})
		hooks.Add("second", func() error {
			order = append(order, "second")
			return nil
		})

		hooks.Execute(context.Background())
		assert.Equal(t, []string{"first", "second"}, order,
			"a failing hook should not stop the rest")
	})

	t.Run("tolerates an empty hook set", func(t *testing.T) {
		hooks := &ShutdownHooks{}
		hooks.Execute(context.Background())
	})
}

type recordingCloser struct {
	closed bool
}

func (c *recordingCloser) Close() {
	c.closed = true
}
