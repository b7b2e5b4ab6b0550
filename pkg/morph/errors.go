package morph

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

var (
	// ErrReservedHook reports a plugin declaring getNodeKey or childrenOnly.
	ErrReservedHook = errors.New("hook is reserved for the base configuration")

	// ErrUnsupportedHook reports a name outside the fixed hook set.
	ErrUnsupportedHook = errors.New("unsupported hook")

	// ErrMalformedConfig reports a configuration value of the wrong shape.
	ErrMalformedConfig = errors.New("malformed configuration")
)

// Codes of the composition errors in the project error registry.
const (
	CodeReservedHook    = "M001"
	CodeUnsupportedHook = "M002"
	CodeMalformedConfig = "M003"
	CodeMissingReturn   = "M010"
)

// BasePlugin is the ConfigurationError.Plugin value for the base
// configuration.
const BasePlugin = -1

// ConfigurationError reports composition input that breaks a static rule.
// It is always returned before any composed callback exists.
type ConfigurationError struct {
	// Hook is the offending hook. Zero when Name is not a known hook.
	Hook Hook

	// Name is the configuration key as written, for dynamic configs.
	Name string

	// Plugin is the zero-based plugin index, or BasePlugin.
	Plugin int

	// Reason adds context, e.g. the Go type that was supplied.
	Reason string

	// Err is one of ErrReservedHook, ErrUnsupportedHook, ErrMalformedConfig.
	Err error
}

func (e *ConfigurationError) Error() string {
	where := "base config"
	if e.Plugin != BasePlugin {
		where = fmt.Sprintf("plugin %d", e.Plugin)
	}
	name := e.Name
	if name == "" {
		name = e.Hook.String()
	}
	msg := fmt.Sprintf("morph: %s: %s: %v", where, name, e.Err)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Code returns the registry code for the error.
func (e *ConfigurationError) Code() string {
	switch {
	case errors.Is(e.Err, ErrReservedHook):
		return CodeReservedHook
	case errors.Is(e.Err, ErrUnsupportedHook):
		return CodeUnsupportedHook
	default:
		return CodeMalformedConfig
	}
}

// ProtocolError reports a callback that broke its hook's return contract:
// a link of a value-threading chain returned the zero vdom.Decision.
type ProtocolError struct {
	Hook Hook
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("morph: %s: must return keep, veto or a replacement node", e.Hook)
}

// Unwrap lets errors.Is(err, vdom.ErrNoDecision) match.
func (e *ProtocolError) Unwrap() error { return vdom.ErrNoDecision }

// Code returns the registry code for the error.
func (e *ProtocolError) Code() string { return CodeMissingReturn }
