package ratelimit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lukastechs/twitch-ban/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(t *testing.T, handler http.Handler, ip string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/twitch/streamer", nil)
	req.Header.Set("X-Forwarded-For", ip)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := ratelimit.New(3, time.Minute)
	handler := limiter.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := request(t, handler, "203.0.113.7")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiter_RefusesOverLimit(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	handler := limiter.Middleware()(okHandler())

	request(t, handler, "203.0.113.7")
	request(t, handler, "203.0.113.7")

	rec := request(t, handler, "203.0.113.7")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too many requests: slow down and retry in a minute", body.Error)
}

func TestLimiter_CountsClientsSeparately(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	handler := limiter.Middleware()(okHandler())

	rec := request(t, handler, "203.0.113.7")
	assert.Equal(t, http.StatusOK, rec.Code)

	// a different client is not affected by the first client's usage
	rec = request(t, handler, "198.51.100.23")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, handler, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiter_WindowRollsOver(t *testing.T) {
	limiter := ratelimit.New(1, 50*time.Millisecond)
	handler := limiter.Middleware()(okHandler())

	rec := request(t, handler, "203.0.113.7")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, handler, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	time.Sleep(60 * time.Millisecond)

	// fresh window, fresh allowance
	rec = request(t, handler, "203.0.113.7")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiter_UsesFirstForwardedAddress(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	handler := limiter.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/twitch/streamer", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// same originating client via a different proxy hop is still limited
	req = httptest.NewRequest(http.MethodGet, "/api/twitch/streamer", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiter_FallsBackToRemoteAddr(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	handler := limiter.Middleware()(okHandler())

	// httptest.NewRequest sets RemoteAddr to a fixed host:port
	req := httptest.NewRequest(http.MethodGet, "/api/twitch/streamer", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/twitch/streamer", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
