// Package plugins maps plugin names to factories so a configuration file or
// a request can name the plugins to compose.
package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vango-dev/vmorph/internal/errors"
	"github.com/vango-dev/vmorph/pkg/morph"
	"github.com/vango-dev/vmorph/pkg/plugins/attrpersist"
	"github.com/vango-dev/vmorph/pkg/plugins/hooklog"
	"github.com/vango-dev/vmorph/pkg/plugins/hookmetrics"
	"github.com/vango-dev/vmorph/pkg/plugins/hooktrace"
	"github.com/vango-dev/vmorph/pkg/plugins/inputpersist"
	"github.com/vango-dev/vmorph/pkg/plugins/transition"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Deps are the collaborators a factory may draw on. Which ones a plugin
// needs is listed in its Info.
type Deps struct {
	// Ctx carries the span hooktrace records on.
	Ctx context.Context

	Logger  *slog.Logger
	Metrics *hookmetrics.Metrics
	Focus   inputpersist.Focus

	// Sink and Scheduler drive transition's deferred steps.
	Sink            transition.Sink
	Scheduler       transition.Scheduler
	TransitionDelay time.Duration

	// OnTransitionGroup, when set, receives the transition group so the
	// owner can stop it.
	OnTransitionGroup func(*transition.Group)
}

// Factory builds a plugin.
type Factory func(deps Deps) (vdom.Hooks, error)

// Info describes a registered plugin.
type Info struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Hooks       []morph.Hook `json:"-"`
	Needs       []string     `json:"needs,omitempty"`
}

// HookNames returns the names of i.Hooks.
func (i Info) HookNames() []string {
	names := make([]string, len(i.Hooks))
	for j, h := range i.Hooks {
		names[j] = h.String()
	}
	return names
}

type entry struct {
	info    Info
	factory Factory
}

// Registry holds named plugin factories. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a plugin. Names are unique.
func (r *Registry) Register(info Info, f Factory) error {
	if info.Name == "" || f == nil {
		return fmt.Errorf("plugins: register: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[info.Name]; ok {
		return fmt.Errorf("plugins: %q already registered", info.Name)
	}
	r.entries[info.Name] = entry{info: info, factory: f}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(info Info, f Factory) {
	if err := r.Register(info, f); err != nil {
		panic(err)
	}
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.info, ok
}

// List returns every plugin sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build runs the factories of names in order. The result is ready for
// morph.Compose.
func (r *Registry) Build(names []string, deps Deps) ([]vdom.Hooks, error) {
	out := make([]vdom.Hooks, 0, len(names))
	for _, name := range names {
		r.mu.RLock()
		e, ok := r.entries[name]
		r.mu.RUnlock()
		if !ok {
			return nil, errors.New("M030").WithDetail(fmt.Sprintf("%q is not registered.", name))
		}
		h, err := e.factory(deps)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// Compose builds names and composes them over base. With deps.Metrics set
// the result is instrumented.
func (r *Registry) Compose(names []string, deps Deps, base *vdom.Hooks) (vdom.Hooks, error) {
	hooks, err := r.Build(names, deps)
	if err != nil {
		return vdom.Hooks{}, err
	}
	composed, err := morph.Compose(hooks, base)
	if err != nil {
		return vdom.Hooks{}, err
	}
	if deps.Metrics != nil {
		composed = deps.Metrics.Instrument(composed)
	}
	return composed, nil
}

func missing(dep string) error {
	return errors.New("M032").WithDetail(fmt.Sprintf("Deps.%s is nil.", dep))
}

// Default returns a registry holding the built-in plugins.
func Default() *Registry {
	r := NewRegistry()

	r.MustRegister(Info{
		Name:        "attrpersist",
		Description: "Keep classes and inline styles listed in data-persist-class and data-persist-css",
		Hooks:       []morph.Hook{morph.HookBeforeElementUpdated},
	}, func(Deps) (vdom.Hooks, error) {
		return attrpersist.New(), nil
	})

	r.MustRegister(Info{
		Name:        "inputpersist",
		Description: "Leave focused text and number inputs alone",
		Hooks:       []morph.Hook{morph.HookBeforeElementUpdated},
		Needs:       []string{"Focus"},
	}, func(d Deps) (vdom.Hooks, error) {
		if d.Focus == nil {
			return vdom.Hooks{}, missing("Focus")
		}
		return inputpersist.New(d.Focus), nil
	})

	r.MustRegister(Info{
		Name:        "transition",
		Description: "Animate entering and leaving elements with data-transition-name classes",
		Hooks: []morph.Hook{
			morph.HookBeforeNodeAdded,
			morph.HookBeforeElementUpdated,
			morph.HookBeforeNodeDiscarded,
		},
		Needs: []string{"Sink", "Scheduler"},
	}, func(d Deps) (vdom.Hooks, error) {
		if d.Sink == nil {
			return vdom.Hooks{}, missing("Sink")
		}
		if d.Scheduler == nil {
			return vdom.Hooks{}, missing("Scheduler")
		}
		opts := []transition.Option{transition.WithScheduler(d.Scheduler)}
		if d.TransitionDelay > 0 {
			opts = append(opts, transition.WithDefaultDelay(d.TransitionDelay))
		}
		if d.Logger != nil {
			opts = append(opts, transition.WithLogger(d.Logger))
		}
		g := transition.NewGroup(d.Sink, opts...)
		if d.OnTransitionGroup != nil {
			d.OnTransitionGroup(g)
		}
		return g.Hooks(), nil
	})

	r.MustRegister(Info{
		Name:        "hookmetrics",
		Description: "Count added, discarded and updated nodes in Prometheus",
		Hooks: []morph.Hook{
			morph.HookNodeDiscarded,
			morph.HookNodeAdded,
			morph.HookElementUpdated,
		},
		Needs: []string{"Metrics"},
	}, func(d Deps) (vdom.Hooks, error) {
		if d.Metrics == nil {
			return vdom.Hooks{}, missing("Metrics")
		}
		return d.Metrics.Plugin(), nil
	})

	r.MustRegister(Info{
		Name:        "hooktrace",
		Description: "Record every hook as an event on the request span",
		Hooks:       morph.Combinable,
	}, func(d Deps) (vdom.Hooks, error) {
		ctx := d.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		return hooktrace.New(ctx), nil
	})

	r.MustRegister(Info{
		Name:        "hooklog",
		Description: "Log every hook at debug level",
		Hooks: []morph.Hook{
			morph.HookBeforeNodeAdded,
			morph.HookBeforeElementUpdated,
			morph.HookBeforeNodeDiscarded,
			morph.HookNodeDiscarded,
			morph.HookNodeAdded,
			morph.HookElementUpdated,
		},
	}, func(d Deps) (vdom.Hooks, error) {
		return hooklog.New(d.Logger), nil
	})

	return r
}
