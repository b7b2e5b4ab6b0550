// Package hooktrace records reconciliation hooks as OpenTelemetry span
// events. Events go to the span carried by the context given to New, which
// is usually the span of the request that triggered the pass.
package hooktrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vmorph/pkg/morph"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// EventPrefix prefixes every event name.
const EventPrefix = "vmorph."

// Option configures the plugin.
type Option func(*config)

type config struct {
	attrs []attribute.KeyValue
}

// WithAttributes adds attributes to every event.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// New returns hooks recording an event per hook call. When ctx carries no
// recording span the plugin declares no hooks at all.
func New(ctx context.Context, opts ...Option) vdom.Hooks {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return vdom.Hooks{}
	}
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	event := func(h morph.Hook, n *vdom.VNode) {
		attrs := append(nodeAttributes(n), c.attrs...)
		span.AddEvent(EventPrefix+h.String(), trace.WithAttributes(attrs...))
	}

	return vdom.Hooks{
		BeforeNodeAdded: func(n *vdom.VNode) (vdom.Decision, error) {
			event(morph.HookBeforeNodeAdded, n)
			return vdom.Keep(), nil
		},
		NodeAdded: func(n *vdom.VNode) { event(morph.HookNodeAdded, n) },
		BeforeElementUpdated: func(from, _ *vdom.VNode) (vdom.Decision, error) {
			event(morph.HookBeforeElementUpdated, from)
			return vdom.Keep(), nil
		},
		ElementUpdated: func(n *vdom.VNode) { event(morph.HookElementUpdated, n) },
		BeforeElementChildrenUpdated: func(from, _ *vdom.VNode) (bool, error) {
			event(morph.HookBeforeElementChildrenUpdated, from)
			return true, nil
		},
		BeforeNodeDiscarded: func(n *vdom.VNode) (bool, error) {
			event(morph.HookBeforeNodeDiscarded, n)
			return true, nil
		},
		NodeDiscarded: func(n *vdom.VNode) { event(morph.HookNodeDiscarded, n) },
	}
}

func nodeAttributes(n *vdom.VNode) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("vmorph.kind", n.Kind.String())}
	if n.Tag != "" {
		attrs = append(attrs, attribute.String("vmorph.tag", n.Tag))
	}
	if n.HID != "" {
		attrs = append(attrs, attribute.String("vmorph.hid", n.HID))
	}
	if key := vdom.DefaultKey(n); key != "" {
		attrs = append(attrs, attribute.String("vmorph.key", key))
	}
	return attrs
}
