// Package config holds the bridge's process-wide configuration. Values
// come from the environment (optionally seeded from a viper config file
// by cmd) and are read-only once loaded, so concurrent reads are safe.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

// ErrConfiguration marks missing or malformed endpoint configuration.
// Requests are rejected before any network call is made.
var ErrConfiguration = errors.New("invalid bridge configuration")

type Config struct {
	// EndpointURL is the AG-UI compatible agent endpoint.
	EndpointURL string `env:"AGUI_ENDPOINT_URL,default=http://host.docker.internal:8000"`

	// ThreadPrefix prefixes generated thread identifiers.
	ThreadPrefix string `env:"AGUI_THREAD_PREFIX,default=openwebui"`

	// DefaultModel is the model identifier requested from the endpoint
	// when the caller's model cannot be resolved.
	DefaultModel string `env:"AGUI_DEFAULT_MODEL,default=agui-agent"`

	ListenAddr string `env:"AGUI_LISTEN_ADDR,default=localhost:9090"`

	// ConnectTimeout bounds dialing the agent endpoint.
	ConnectTimeout time.Duration `env:"AGUI_CONNECT_TIMEOUT,default=5s"`

	// FrameTimeout bounds the wait for the next event frame.
	FrameTimeout time.Duration `env:"AGUI_FRAME_TIMEOUT,default=60s"`

	// CorruptThreshold is the number of consecutive undecodable frames
	// tolerated before the stream is abandoned.
	CorruptThreshold int `env:"AGUI_CORRUPT_THRESHOLD,default=5"`

	RateLimitRPS   float64 `env:"AGUI_RATE_LIMIT_RPS,default=10"`
	RateLimitBurst int     `env:"AGUI_RATE_LIMIT_BURST,default=20"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envdecode.StrictDecode(cfg); err != nil {
		return nil, fmt.Errorf("decode bridge config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces a well-formed http(s) endpoint URL.
func (c *Config) Validate() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("%w: endpoint URL is not set", ErrConfiguration)
	}
	u, err := url.Parse(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("%w: endpoint URL %q: %v", ErrConfiguration, c.EndpointURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: endpoint URL %q: scheme must be http or https", ErrConfiguration, c.EndpointURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: endpoint URL %q: missing host", ErrConfiguration, c.EndpointURL)
	}
	if c.CorruptThreshold < 1 {
		return fmt.Errorf("%w: corrupt threshold must be at least 1", ErrConfiguration)
	}
	return nil
}

// Models returns the model listing exposed to the front end. Models are
// passed through to the AG-UI endpoint, so the configured default is
// the only entry.
func (c *Config) Models() []types.ModelInfo {
	return []types.ModelInfo{
		{ID: c.DefaultModel, Name: c.DefaultModel},
	}
}

// ModelMapping maps front-end-safe model ids to endpoint model names.
func (c *Config) ModelMapping() map[string]string {
	return map[string]string{
		c.DefaultModel: c.DefaultModel,
	}
}
