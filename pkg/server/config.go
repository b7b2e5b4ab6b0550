package server

import (
	"slices"
	"time"

	"github.com/vango-dev/vmorph/internal/config"
	"github.com/vango-dev/vmorph/pkg/protocol"
)

// Config holds server configuration.
type Config struct {
	// Address is the address to listen on.
	// Default: "localhost:7070".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout is the HTTP read timeout.
	// Default: 10 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// IdleTimeout closes idle keep-alive connections.
	// Default: 60 seconds.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxBodyBytes limits POST /v1/reconcile bodies.
	// Default: 1MB.
	MaxBodyBytes int64

	// AllowedOrigins lists the origins accepted on /v1/stream. "*" accepts
	// any origin. Empty accepts same-origin requests only.
	AllowedOrigins []string

	// Plugins is the plugin stack used when a request names none.
	Plugins []string

	// Base holds the default reserved options.
	Base protocol.BaseOptions

	// TransitionDelay is the transition plugin's default delay. Zero keeps
	// the plugin default.
	TransitionDelay time.Duration

	// Tracing starts a span per request with the global tracer provider.
	Tracing bool

	// TracerName is the instrumentation scope name.
	TracerName string

	// Stream settings

	// StreamReadTimeout closes a stream that sent nothing, pongs included,
	// for this long.
	// Default: 60 seconds.
	StreamReadTimeout time.Duration

	// StreamWriteTimeout bounds each stream write.
	// Default: 10 seconds.
	StreamWriteTimeout time.Duration

	// HeartbeatInterval is the time between pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the largest accepted stream message.
	// Default: 1MB.
	MaxMessageSize int64

	// MaxInbox is the number of decoded messages buffered per stream.
	// Default: 64.
	MaxInbox int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:            "localhost:7070",
		ReadHeaderTimeout:  5 * time.Second,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    30 * time.Second,
		MaxBodyBytes:       1 << 20,
		Plugins:            append([]string(nil), config.DefaultPlugins...),
		TracerName:         "github.com/vango-dev/vmorph",
		StreamReadTimeout:  60 * time.Second,
		StreamWriteTimeout: 10 * time.Second,
		HeartbeatInterval:  30 * time.Second,
		MaxMessageSize:     1 << 20,
		MaxInbox:           64,
	}
}

// FromConfig builds a Config from vmorph.json. Enabling metrics or tracing
// appends hookmetrics or hooktrace to the plugin stack.
func FromConfig(c *config.Config) *Config {
	cfg := DefaultConfig()
	cfg.Address = c.Address()
	if d := c.ReadTimeout(); d > 0 {
		cfg.ReadTimeout = d
	}
	if d := c.WriteTimeout(); d > 0 {
		cfg.WriteTimeout = d
	}
	if d := c.ShutdownTimeout(); d > 0 {
		cfg.ShutdownTimeout = d
	}
	if c.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = c.Server.MaxBodyBytes
	}
	cfg.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	cfg.Plugins = append([]string(nil), c.Plugins...)
	if c.Metrics.Enabled && !slices.Contains(cfg.Plugins, "hookmetrics") {
		cfg.Plugins = append(cfg.Plugins, "hookmetrics")
	}
	if c.Tracing.Enabled && !slices.Contains(cfg.Plugins, "hooktrace") {
		cfg.Plugins = append(cfg.Plugins, "hooktrace")
	}
	cfg.Base = protocol.BaseOptions{
		ChildrenOnly: c.Base.ChildrenOnly,
		KeyAttribute: c.Base.KeyAttribute,
	}
	cfg.TransitionDelay = c.TransitionDelay()
	cfg.Tracing = c.Tracing.Enabled
	if c.Tracing.TracerName != "" {
		cfg.TracerName = c.Tracing.TracerName
	}
	return cfg
}

// applyDefaults fills zero fields from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.Plugins == nil {
		c.Plugins = d.Plugins
	}
	if c.TracerName == "" {
		c.TracerName = d.TracerName
	}
	if c.StreamReadTimeout <= 0 {
		c.StreamReadTimeout = d.StreamReadTimeout
	}
	if c.StreamWriteTimeout <= 0 {
		c.StreamWriteTimeout = d.StreamWriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MaxInbox <= 0 {
		c.MaxInbox = d.MaxInbox
	}
}
