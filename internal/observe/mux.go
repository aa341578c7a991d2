package observe

import (
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Multiplexer is the subset of http.ServeMux needed for route registration.
type Multiplexer interface {
	Handle(pattern string, handler http.Handler)
	http.Handler
}

// Mux registers handlers wrapped with OpenTelemetry HTTP instrumentation, so
// every route it serves reports spans and metrics named for its pattern.
// Routes that must stay out of telemetry (like healthchecks) are registered
// on the wrapped multiplexer directly.
type Mux struct {
	wrapped Multiplexer
}

func NewMux(wrapped Multiplexer) *Mux {
	return &Mux{
		wrapped: wrapped,
	}
}

// Handle registers the handler for the pattern, instrumented under the
// route's span name.
func (mux *Mux) Handle(pattern string, handler http.Handler) {
	mux.wrapped.Handle(pattern, otelhttp.NewHandler(handler, SpanName(pattern)))
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.wrapped.ServeHTTP(w, r)
}

var methods = []string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

// SpanName derives a span name from a ServeMux pattern. The leading method
// of a "METHOD /path" pattern is dropped so spans group by route; anything
// else is used verbatim.
func SpanName(pattern string) string {
	method, route, hasMethod := strings.Cut(pattern, " ")
	if hasMethod && slices.Contains(methods, method) {
		return route
	}
	return pattern
}
