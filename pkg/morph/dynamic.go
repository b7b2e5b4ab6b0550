package morph

import (
	"fmt"
	"sort"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

// ParseHooks builds a vdom.Hooks from a map of hook names to callbacks.
// Names are those of Hook.String or their morphdom aliases. Values must have
// the exact callback type of the hook; childrenOnly takes a bool.
//
// A nil map is the empty configuration.
func ParseHooks(m map[string]any) (vdom.Hooks, error) {
	return parseHooks(BasePlugin, m)
}

// ComposeMaps is Compose for map-shaped configurations, e.g. plugin tables
// assembled at runtime. Reserved names in any plugin are rejected before
// any other entry is examined, whatever their value, so a plugin declaring
// childrenOnly: false fails here. Unknown names are an error in a plugin
// and ignored in base.
func ComposeMaps(plugins []map[string]any, base map[string]any) (vdom.Hooks, error) {
	for i, p := range plugins {
		for _, name := range sortedNames(p) {
			if h, ok := ParseHook(name); ok && h.Reserved() {
				return vdom.Hooks{}, &ConfigurationError{Hook: h, Name: name, Plugin: i, Err: ErrReservedHook}
			}
		}
	}

	b, err := parseHooks(BasePlugin, knownOnly(base))
	if err != nil {
		return vdom.Hooks{}, err
	}
	parsed := make([]vdom.Hooks, len(plugins))
	for i, p := range plugins {
		if parsed[i], err = parseHooks(i, p); err != nil {
			return vdom.Hooks{}, err
		}
	}
	return Compose(parsed, &b)
}

func parseHooks(plugin int, m map[string]any) (vdom.Hooks, error) {
	var out vdom.Hooks
	for _, name := range sortedNames(m) {
		h, ok := ParseHook(name)
		if !ok {
			return vdom.Hooks{}, &ConfigurationError{Name: name, Plugin: plugin, Err: ErrUnsupportedHook}
		}
		v := m[name]
		if v == nil {
			continue
		}
		if !assign(&out, h, v) {
			return vdom.Hooks{}, &ConfigurationError{
				Hook:   h,
				Name:   name,
				Plugin: plugin,
				Reason: fmt.Sprintf("got %T", v),
				Err:    ErrMalformedConfig,
			}
		}
	}
	return out, nil
}

// knownOnly drops the names that are not hooks.
func knownOnly(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for name, v := range m {
		if _, ok := ParseHook(name); ok {
			out[name] = v
		}
	}
	return out
}

// assign stores v in the field for h, reporting whether the type matched.
func assign(out *vdom.Hooks, h Hook, v any) bool {
	var ok bool
	switch h {
	case HookBeforeNodeAdded:
		out.BeforeNodeAdded, ok = v.(NodeDecider)
	case HookBeforeElementUpdated:
		out.BeforeElementUpdated, ok = v.(ElementDecider)
	case HookBeforeElementChildrenUpdated:
		out.BeforeElementChildrenUpdated, ok = v.(ElementGate)
	case HookBeforeNodeDiscarded:
		out.BeforeNodeDiscarded, ok = v.(NodeGate)
	case HookNodeDiscarded:
		out.NodeDiscarded, ok = v.(NodeListener)
	case HookNodeAdded:
		out.NodeAdded, ok = v.(NodeListener)
	case HookElementUpdated:
		out.ElementUpdated, ok = v.(NodeListener)
	case HookGetNodeKey:
		out.GetNodeKey, ok = v.(func(*vdom.VNode) string)
	case HookChildrenOnly:
		out.ChildrenOnly, ok = v.(bool)
	}
	return ok
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
