// Package hookmetrics exports Prometheus metrics for reconciliation.
//
// It contributes in two ways. Plugin returns hooks that count the nodes a
// pass adds, discards and updates; it composes like any other plugin.
// Instrument wraps an already composed configuration and counts every
// decision the before hooks reach, vetoes included. A vetoing plugin stops
// the chain, so only the composed result sees every outcome.
//
// Metrics collected (namespace "vmorph" by default):
//   - hook_calls_total{hook}
//   - hook_decisions_total{hook,decision}
//   - hook_errors_total{hook,code}
//   - nodes_total{event}
//   - passes_total{status}
//   - pass_duration_seconds
//   - patches_total{op,phase}
//   - active_streams
package hookmetrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vmorph/pkg/morph"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "vmorph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vmorph",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. Create it once per registry.
type Metrics struct {
	hookCalls     *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	hookErrors    *prometheus.CounterVec
	nodes         *prometheus.CounterVec
	passes        *prometheus.CounterVec
	passDuration  prometheus.Histogram
	patches       *prometheus.CounterVec
	activeStreams prometheus.Gauge
}

// New registers the collectors and returns them.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		hookCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_calls_total",
			Help:        "Total number of composed hook invocations",
			ConstLabels: config.ConstLabels,
		}, []string{"hook"}),

		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_decisions_total",
			Help:        "Total number of hook outcomes by decision",
			ConstLabels: config.ConstLabels,
		}, []string{"hook", "decision"}),

		hookErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_errors_total",
			Help:        "Total number of hook failures by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"hook", "code"}),

		nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_total",
			Help:        "Total number of nodes added, discarded or updated",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of reconciliation passes",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Reconciliation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches produced",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "phase"}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_streams",
			Help:        "Number of open reconcile streams",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Plugin returns hooks counting the nodes a pass changed.
func (m *Metrics) Plugin() vdom.Hooks {
	return vdom.Hooks{
		NodeAdded:      func(*vdom.VNode) { m.nodes.WithLabelValues("added").Inc() },
		NodeDiscarded:  func(*vdom.VNode) { m.nodes.WithLabelValues("discarded").Inc() },
		ElementUpdated: func(*vdom.VNode) { m.nodes.WithLabelValues("updated").Inc() },
	}
}

// Instrument returns h with its before hooks counted. Reserved options and
// notification hooks are passed through unchanged.
func (m *Metrics) Instrument(h vdom.Hooks) vdom.Hooks {
	if fn := h.BeforeNodeAdded; fn != nil {
		name := morph.HookBeforeNodeAdded.String()
		h.BeforeNodeAdded = func(node *vdom.VNode) (vdom.Decision, error) {
			d, err := fn(node)
			m.decide(name, d.String(), err)
			return d, err
		}
	}
	if fn := h.BeforeElementUpdated; fn != nil {
		name := morph.HookBeforeElementUpdated.String()
		h.BeforeElementUpdated = func(from, to *vdom.VNode) (vdom.Decision, error) {
			d, err := fn(from, to)
			m.decide(name, d.String(), err)
			return d, err
		}
	}
	if fn := h.BeforeElementChildrenUpdated; fn != nil {
		name := morph.HookBeforeElementChildrenUpdated.String()
		h.BeforeElementChildrenUpdated = func(from, to *vdom.VNode) (bool, error) {
			ok, err := fn(from, to)
			m.decide(name, gate(ok), err)
			return ok, err
		}
	}
	if fn := h.BeforeNodeDiscarded; fn != nil {
		name := morph.HookBeforeNodeDiscarded.String()
		h.BeforeNodeDiscarded = func(node *vdom.VNode) (bool, error) {
			ok, err := fn(node)
			m.decide(name, gate(ok), err)
			return ok, err
		}
	}
	return h
}

func (m *Metrics) decide(hook, decision string, err error) {
	m.hookCalls.WithLabelValues(hook).Inc()
	if err != nil {
		m.hookErrors.WithLabelValues(hook, errorCode(err)).Inc()
		return
	}
	m.decisions.WithLabelValues(hook, decision).Inc()
}

func gate(ok bool) string {
	if ok {
		return "allow"
	}
	return "deny"
}

// errorCode keeps the code label bounded: a registered code or "internal".
func errorCode(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return "internal"
}

// ObservePass records one pass and the patches it produced.
func (m *Metrics) ObservePass(d time.Duration, patches []vdom.Patch, err error) {
	m.passDuration.Observe(d.Seconds())
	if err != nil {
		m.passes.WithLabelValues("error").Inc()
		return
	}
	m.passes.WithLabelValues("success").Inc()
	m.countPatches("pass", patches)
}

// ObserveDeferred records patches produced by plugin work after a pass.
func (m *Metrics) ObserveDeferred(patches []vdom.Patch) {
	m.countPatches("deferred", patches)
}

func (m *Metrics) countPatches(phase string, patches []vdom.Patch) {
	for _, p := range patches {
		m.patches.WithLabelValues(p.Op.String(), phase).Inc()
	}
}

// StreamOpened records a new stream.
func (m *Metrics) StreamOpened() { m.activeStreams.Inc() }

// StreamClosed records a closed stream.
func (m *Metrics) StreamClosed() { m.activeStreams.Dec() }
