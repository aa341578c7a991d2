package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanName(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{
			name:     "method stripped from route",
			pattern:  "GET /api/twitch/{username}",
			expected: "/api/twitch/{username}",
		},
		{
			name:     "POST method stripped",
			pattern:  "POST /lookup",
			expected: "/lookup",
		},
		{
			name:     "bare path unchanged",
			pattern:  "/health",
			expected: "/health",
		},
		{
			name:     "unknown method kept",
			pattern:  "FETCH /api",
			expected: "FETCH /api",
		},
		{
			name:     "lowercase method kept",
			pattern:  "get /api",
			expected: "get /api",
		},
		{
			name:     "method without route",
			pattern:  "GET",
			expected: "GET",
		},
		{
			name:     "empty pattern",
			pattern:  "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SpanName(tc.pattern))
		})
	}
}

func TestMux_RoutesThroughInstrumentation(t *testing.T) {
	inner := http.NewServeMux()
	mux := NewMux(inner)

	called := false
	mux.Handle("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.True(t, called, "registered handler should be reachable through the mux")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
