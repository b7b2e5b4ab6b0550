package morph

import (
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Hook identifies a vdom.Hooks field.
type Hook uint8

const (
	HookBeforeNodeAdded Hook = iota + 1
	HookBeforeElementUpdated
	HookBeforeElementChildrenUpdated
	HookBeforeNodeDiscarded
	HookNodeDiscarded
	HookNodeAdded
	HookElementUpdated

	// Reserved hooks. Plugins may not declare them.
	HookGetNodeKey
	HookChildrenOnly
)

// Combinable lists the hooks Compose folds, in fold order.
var Combinable = []Hook{
	HookBeforeNodeAdded,
	HookBeforeElementUpdated,
	HookBeforeElementChildrenUpdated,
	HookBeforeNodeDiscarded,
	HookNodeDiscarded,
	HookNodeAdded,
	HookElementUpdated,
}

// Reserved lists the hooks only a base configuration may set.
var Reserved = []Hook{HookGetNodeKey, HookChildrenOnly}

var hookNames = map[Hook]string{
	HookBeforeNodeAdded:              "beforeNodeAdded",
	HookBeforeElementUpdated:         "beforeElementUpdated",
	HookBeforeElementChildrenUpdated: "beforeElementChildrenUpdated",
	HookBeforeNodeDiscarded:          "beforeNodeDiscarded",
	HookNodeDiscarded:                "nodeDiscarded",
	HookNodeAdded:                    "nodeAdded",
	HookElementUpdated:               "elementUpdated",
	HookGetNodeKey:                   "getNodeKey",
	HookChildrenOnly:                 "childrenOnly",
}

// hookAliases accepts the option names of the morphdom family of engines.
var hookAliases = map[string]Hook{
	"onBeforeNodeAdded":         HookBeforeNodeAdded,
	"onBeforeElUpdated":         HookBeforeElementUpdated,
	"onBeforeElChildrenUpdated": HookBeforeElementChildrenUpdated,
	"onBeforeNodeDiscarded":     HookBeforeNodeDiscarded,
	"onNodeDiscarded":           HookNodeDiscarded,
	"onNodeAdded":               HookNodeAdded,
	"onElUpdated":               HookElementUpdated,
}

// String returns the hook's configuration name.
func (h Hook) String() string {
	if name, ok := hookNames[h]; ok {
		return name
	}
	return "unknown"
}

// Reserved reports whether h is reserved for the base configuration.
func (h Hook) Reserved() bool {
	return h == HookGetNodeKey || h == HookChildrenOnly
}

// Strategy returns how Compose combines callbacks for h. Reserved and
// unknown hooks have no strategy.
func (h Hook) Strategy() Strategy {
	switch h {
	case HookBeforeNodeAdded:
		return StrategyThreadNode
	case HookBeforeElementUpdated:
		return StrategyThreadElement
	case HookBeforeElementChildrenUpdated, HookBeforeNodeDiscarded:
		return StrategyGate
	case HookNodeDiscarded, HookNodeAdded, HookElementUpdated:
		return StrategyFanOut
	default:
		return StrategyNone
	}
}

// ParseHook resolves a configuration name, or its morphdom alias, to a Hook.
func ParseHook(name string) (Hook, bool) {
	for h, n := range hookNames {
		if n == name {
			return h, true
		}
	}
	h, ok := hookAliases[name]
	return h, ok
}

// Declared returns the hooks h sets, combinable hooks first.
func Declared(h vdom.Hooks) []Hook {
	var out []Hook
	set := map[Hook]bool{
		HookBeforeNodeAdded:              h.BeforeNodeAdded != nil,
		HookBeforeElementUpdated:         h.BeforeElementUpdated != nil,
		HookBeforeElementChildrenUpdated: h.BeforeElementChildrenUpdated != nil,
		HookBeforeNodeDiscarded:          h.BeforeNodeDiscarded != nil,
		HookNodeDiscarded:                h.NodeDiscarded != nil,
		HookNodeAdded:                    h.NodeAdded != nil,
		HookElementUpdated:               h.ElementUpdated != nil,
		HookGetNodeKey:                   h.GetNodeKey != nil,
		HookChildrenOnly:                 h.ChildrenOnly,
	}
	for hook := HookBeforeNodeAdded; hook <= HookChildrenOnly; hook++ {
		if set[hook] {
			out = append(out, hook)
		}
	}
	return out
}

// Strategy is a rule for folding two callbacks of the same hook into one.
type Strategy uint8

const (
	StrategyNone Strategy = iota
	StrategyThreadNode
	StrategyThreadElement
	StrategyGate
	StrategyFanOut
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyThreadNode:
		return "thread-node"
	case StrategyThreadElement:
		return "thread-element"
	case StrategyGate:
		return "gate"
	case StrategyFanOut:
		return "fan-out"
	default:
		return "none"
	}
}
