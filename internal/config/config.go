package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Cache     CacheConfig
	Observe   ObserveConfig
	RateLimit RateLimitConfig
	Server    ServerConfig
	Twitch    TwitchConfig
}

type ServerConfig struct {
	Port                   int `env:"PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// TwitchConfig specifies the app credentials and the tuning for the two
// outbound Twitch calls: the client credentials exchange and the Helix
// user lookup.
type TwitchConfig struct {
	AuthURL string // internal only
	APIURL  string // internal only

	ClientID     string `env:"TWITCH_CLIENT_ID, required"`
	ClientSecret string `env:"TWITCH_CLIENT_SECRET, required"`

	// UpstreamTimeoutSeconds bounds every outbound call to Twitch.
	UpstreamTimeoutSeconds int `env:"TWITCH_UPSTREAM_TIMEOUT_SECS, default=8"`

	// TokenExpiryBufferSeconds is subtracted from the lifetime Twitch declares
	// for an app token, so a token near its true expiry is never presented.
	TokenExpiryBufferSeconds int `env:"TWITCH_TOKEN_EXPIRY_BUFFER_SECS, default=60"`
}

// CacheConfig specifies the ban status cache configuration.
type CacheConfig struct {
	// ResultTTLSeconds is the freshness window for a cached ban status.
	ResultTTLSeconds int `env:"CACHE_RESULT_TTL_SECS, default=300"`

	// MaxEntries caps the number of usernames held in the cache.
	MaxEntries int `env:"CACHE_MAX_ENTRIES, default=10000"`
}

// RateLimitConfig specifies the fixed window limiter applied to the
// API routes.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED, default=true"`
	RequestsPerWindow int  `env:"RATE_LIMIT_REQUESTS_PER_WINDOW, default=30"`
	WindowSeconds     int  `env:"RATE_LIMIT_WINDOW_SECS, default=60"`
}

type ObserveConfig struct {
	SDKLogLevel                string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=twitch-ban"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Cache.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid cache configuration: %w", err)
	}

	err = cfg.RateLimit.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid rate limit configuration: %w", err)
	}

	err = cfg.Twitch.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid twitch configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.ResultTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_RESULT_TTL_SECS must be positive")
	}

	if c.MaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive")
	}

	return nil
}

// Validate checks that the rate limit configuration is valid. Limits are
// only checked when the limiter is enabled.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.RequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS_PER_WINDOW must be positive")
	}

	if c.WindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}

	return nil
}

// Validate checks the Twitch settings that envconfig cannot express.
func (c *TwitchConfig) Validate() error {
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("TWITCH_UPSTREAM_TIMEOUT_SECS must be positive")
	}

	if c.TokenExpiryBufferSeconds < 0 {
		return fmt.Errorf("TWITCH_TOKEN_EXPIRY_BUFFER_SECS must not be negative")
	}

	return nil
}

// UpstreamTimeout returns the outbound call timeout as a duration.
func (c *TwitchConfig) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// TokenExpiryBuffer returns the token expiry safety margin as a duration.
func (c *TwitchConfig) TokenExpiryBuffer() time.Duration {
	return time.Duration(c.TokenExpiryBufferSeconds) * time.Second
}

// ResultTTL returns the ban status freshness window as a duration.
func (c *CacheConfig) ResultTTL() time.Duration {
	return time.Duration(c.ResultTTLSeconds) * time.Second
}

// Window returns the limiter window as a duration.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown allowance as a duration.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
