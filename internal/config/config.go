package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/vmorph/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vmorph.json"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMetricsNamespace prefixes every exported metric.
	DefaultMetricsNamespace = "vmorph"

	// DefaultTransitionDelay is the pause between a transition's start class
	// and its active class.
	DefaultTransitionDelay = "65ms"
)

// DefaultPlugins is the plugin stack used when vmorph.json names none.
var DefaultPlugins = []string{"attrpersist", "inputpersist", "transition"}

// Config represents the complete vmorph.json configuration.
type Config struct {
	// Plugins lists registered plugin names in composition order.
	Plugins []string `json:"plugins,omitempty"`

	// Base configures the reconciliation pass itself.
	Base BaseConfig `json:"base,omitempty"`

	// Server contains HTTP and stream server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Transition contains defaults for the transition plugin.
	Transition TransitionConfig `json:"transition,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// BaseConfig holds the options only the base configuration may set.
type BaseConfig struct {
	// ChildrenOnly reconciles the children of the root but not the root.
	ChildrenOnly bool `json:"childrenOnly,omitempty"`

	// KeyAttribute names an attribute whose value keys child nodes. Empty
	// uses the node's own key.
	KeyAttribute string `json:"keyAttribute,omitempty"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// ReadTimeout is the HTTP read timeout (e.g., "10s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`

	// MaxBodyBytes limits reconcile request bodies.
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty"`

	// AllowedOrigins lists origins accepted for stream connections.
	// Empty allows same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and installs the hookmetrics plugin.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes metric names.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs the hooktrace plugin and per-request spans.
	Enabled bool `json:"enabled,omitempty"`

	// TracerName is the instrumentation scope name.
	TracerName string `json:"tracerName,omitempty"`
}

// TransitionConfig contains transition plugin defaults.
type TransitionConfig struct {
	// DefaultDelay applies when an element sets no delay attribute.
	DefaultDelay string `json:"defaultDelay,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Plugins: append([]string(nil), DefaultPlugins...),
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     "10s",
			WriteTimeout:    "10s",
			ShutdownTimeout: "30s",
			MaxBodyBytes:    1 << 20,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			TracerName: "github.com/vango-dev/vmorph",
		},
		Transition: TransitionConfig{
			DefaultDelay: DefaultTransitionDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for vmorph.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Keys missing
// from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("M040").
				WithDetail("No vmorph.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'vmorph init' to write a default configuration")
		}
		return nil, errors.New("M041").Wrap(err)
	}

	cfg := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, decodeError(path, data, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// decodeError points at the offending byte for syntax and type errors.
func decodeError(path string, data []byte, err error) error {
	me := errors.New("M041").Wrap(err)

	var offset int64 = -1
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
		me = errors.New("M042").Wrap(err).
			WithDetail("Field " + typeErr.Field + " expects a " + typeErr.Type.String())
	}
	if offset >= 0 {
		line, col := position(data, offset)
		me.WithLocation(path, line, col)
	}
	return me
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("M041").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("M041").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Plugins == nil {
		c.Plugins = d.Plugins
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Transition.DefaultDelay == "" {
		c.Transition.DefaultDelay = d.Transition.DefaultDelay
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "Port must be between 0 and 65535")
	}
	if c.Server.MaxBodyBytes < 0 {
		return invalid("server.maxBodyBytes", "The body limit cannot be negative")
	}
	for key, v := range map[string]string{
		"server.readTimeout":      c.Server.ReadTimeout,
		"server.writeTimeout":     c.Server.WriteTimeout,
		"server.shutdownTimeout":  c.Server.ShutdownTimeout,
		"transition.defaultDelay": c.Transition.DefaultDelay,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return invalid(key, "Expected a non-negative duration such as \"10s\" or \"65ms\", got "+strconv.Quote(v))
		}
	}

	seen := make(map[string]bool, len(c.Plugins))
	for _, name := range c.Plugins {
		if strings.TrimSpace(name) == "" {
			return invalid("plugins", "Plugin names cannot be empty")
		}
		if seen[name] {
			return invalid("plugins", "Plugin "+strconv.Quote(name)+" is listed twice")
		}
		seen[name] = true
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level", "Expected debug, info, warn or error")
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "Expected text or json")
	}
	return nil
}

func invalid(key, detail string) error {
	return errors.New("M042").
		WithDetail(key + ": " + detail)
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ReadTimeout returns the parsed server read timeout.
func (c *Config) ReadTimeout() time.Duration { return duration(c.Server.ReadTimeout) }

// WriteTimeout returns the parsed server write timeout.
func (c *Config) WriteTimeout() time.Duration { return duration(c.Server.WriteTimeout) }

// ShutdownTimeout returns the parsed graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration { return duration(c.Server.ShutdownTimeout) }

// TransitionDelay returns the parsed default transition delay.
func (c *Config) TransitionDelay() time.Duration { return duration(c.Transition.DefaultDelay) }

// duration parses a validated duration string. Invalid input yields zero.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// LogLevel returns the slog level for Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find vmorph.json.
// Returns the directory containing it, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("M040").
				WithDetail("No vmorph.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest vmorph.json at or
// above the working directory. Without one, defaults are returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
