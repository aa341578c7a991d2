package observe

import (
	"context"
	"net/http"
	"net/http/httptrace"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lukastechs/twitch-ban/internal/config"
)

// HTTPTransport instruments an outbound HTTP transport, creating client
// spans and propagating trace context on outgoing requests. Connection
// level events (DNS, dial, TLS) are annotated on the client span when
// connection tracing is enabled. The transport is returned unwrapped when
// telemetry or transport instrumentation is off.
func HTTPTransport(wrapped http.RoundTripper, cfg config.ObserveConfig) http.RoundTripper {
	if !cfg.Enabled || !cfg.HTTPTransportEnabled {
		return wrapped
	}

	opts := []otelhttp.Option{}
	if cfg.HTTPConnectionTraceEnabled {
		opts = append(opts, otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx, otelhttptrace.WithoutSubSpans())
		}))
	}

	return otelhttp.NewTransport(wrapped, opts...)
}
