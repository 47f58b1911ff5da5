package http

import (
	"time"

	"duplex-server/pkg/ratelimit"
)

// Config holds the HTTP server configuration
type Config struct {
	// Port is the HTTP server port
	Port int `json:"port"`

	// EnableMetrics mounts the Prometheus endpoint
	EnableMetrics bool `json:"enable_metrics"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Session streams manage their own deadlines after the upgrade.
	WriteTimeout time.Duration `json:"write_timeout"`

	// AllowedOrigins lists the Origin values accepted on the session stream.
	// Empty means same host only; "*" accepts any origin.
	AllowedOrigins []string `json:"allowed_origins"`

	// RateLimit throttles requests per client IP. Nil disables it.
	RateLimit *ratelimit.Config `json:"rate_limit,omitempty"`
}

// DefaultConfig returns the default HTTP server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:          8080,
		EnableMetrics: true,
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  30 * time.Second,
	}
}
