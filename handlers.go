package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lukastechs/twitch-ban/internal/bancheck"
	"github.com/lukastechs/twitch-ban/internal/cache"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

// handleGetBanStatus reports whether the login in the request path is
// sitewide banned (or nonexistent). A malformed login is answered with a
// structured payload rather than an error status: it is expected, frequent
// input, and clients read one response shape for every classification.
func handleGetBanStatus(find bancheck.StatusFinder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		login := bancheck.NormalizeLogin(r.PathValue("username"))

		if err := bancheck.ValidateLogin(login); err != nil {
			log.Ctx(r.Context()).Info().Str("login", login).Msgf("invalid login supplied: %v", err)
			writeJSON(w, http.StatusOK, bancheck.NewInvalidStatus(login))
			return
		}

		status, err := find(r.Context(), login)
		if err != nil {
			code, message := errorStatus(err)
			log.Ctx(r.Context()).Info().Msgf("ban status lookup failed: %v", err)
			writeJSONError(w, code, message)
			return
		}

		writeJSON(w, http.StatusOK, status)
	})
}

// handleRoot answers a plain-text liveness message.
func handleRoot() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Twitch Ban Checker API is running"))
	})
}

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	CacheEntries int    `json:"cache_entries"`
	Uptime       int64  `json:"uptime"`
}

// handleHealthCheck reports service health along with the result cache size
// and the process uptime in seconds.
func handleHealthCheck(store cache.ResultCache[bancheck.Status], started time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		entries, err := store.Size(r.Context())
		if err != nil {
			log.Info().Msgf("cache size unavailable: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "cache unavailable")
			return
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:       "ok",
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			CacheEntries: entries,
			Uptime:       int64(time.Since(started).Seconds()),
		})
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// requestID tags each request with an identifier, reusing one supplied by a
// proxy when present. The identifier travels on the response header and in
// the request's context logger.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", id)

		requestLog := log.Ctx(r.Context()).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(requestLog.WithContext(r.Context())))
	})
}

// statusRecorder captures the status and size of a response for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n

	return n, err
}

// requestLogger writes one access log line per request served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		log.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Int("size", recorder.size).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// the status code is already on the wire, so log and move on
		log.Info().Msgf("failed to write JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}
