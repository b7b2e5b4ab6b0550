package morph

import (
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Callback shapes, one per strategy and arity. They are aliases so the
// fields of vdom.Hooks can be assigned directly.
type (
	NodeDecider    = func(node *vdom.VNode) (vdom.Decision, error)
	ElementDecider = func(from, to *vdom.VNode) (vdom.Decision, error)
	ElementGate    = func(from, to *vdom.VNode) (bool, error)
	NodeGate       = func(node *vdom.VNode) (bool, error)
	NodeListener   = func(node *vdom.VNode)
)

// Compose merges plugins into a single vdom.Hooks. base may be nil.
//
// The result starts as a copy of base. For every combinable hook, the
// callbacks of base and each plugin that defines it are folded in order
// (base first, then plugins by index) with the hook's Strategy. A hook
// defined by a single configuration is that configuration's callback.
//
// A plugin that sets GetNodeKey or ChildrenOnly fails the whole call with a
// *ConfigurationError before anything is composed. Neither base nor plugins
// are modified. A plugin with ChildrenOnly false cannot be told apart from
// one that leaves it unset; ComposeMaps rejects the name whatever its value.
func Compose(plugins []vdom.Hooks, base *vdom.Hooks) (vdom.Hooks, error) {
	for i, p := range plugins {
		if err := checkReserved(i, p); err != nil {
			return vdom.Hooks{}, err
		}
	}

	var out vdom.Hooks
	if base != nil {
		out = *base
	}
	for _, p := range plugins {
		for _, h := range Combinable {
			if err := combine(h, &out, p); err != nil {
				return vdom.Hooks{}, err
			}
		}
	}
	return out, nil
}

// MustCompose is like Compose but panics on error. It is meant for
// package-level plugin stacks whose inputs are fixed at compile time.
func MustCompose(plugins []vdom.Hooks, base *vdom.Hooks) vdom.Hooks {
	h, err := Compose(plugins, base)
	if err != nil {
		panic(err)
	}
	return h
}

func checkReserved(i int, p vdom.Hooks) error {
	switch {
	case p.GetNodeKey != nil:
		return &ConfigurationError{Hook: HookGetNodeKey, Plugin: i, Err: ErrReservedHook}
	case p.ChildrenOnly:
		return &ConfigurationError{Hook: HookChildrenOnly, Plugin: i, Err: ErrReservedHook}
	}
	return nil
}

// combine folds the p callback for h into acc.
func combine(h Hook, acc *vdom.Hooks, p vdom.Hooks) error {
	switch h {
	case HookBeforeNodeAdded:
		acc.BeforeNodeAdded = threadNode(h, acc.BeforeNodeAdded, p.BeforeNodeAdded)
	case HookBeforeElementUpdated:
		acc.BeforeElementUpdated = threadElement(h, acc.BeforeElementUpdated, p.BeforeElementUpdated)
	case HookBeforeElementChildrenUpdated:
		acc.BeforeElementChildrenUpdated = gateElement(acc.BeforeElementChildrenUpdated, p.BeforeElementChildrenUpdated)
	case HookBeforeNodeDiscarded:
		acc.BeforeNodeDiscarded = gateNode(acc.BeforeNodeDiscarded, p.BeforeNodeDiscarded)
	case HookNodeDiscarded:
		acc.NodeDiscarded = fanOut(acc.NodeDiscarded, p.NodeDiscarded)
	case HookNodeAdded:
		acc.NodeAdded = fanOut(acc.NodeAdded, p.NodeAdded)
	case HookElementUpdated:
		acc.ElementUpdated = fanOut(acc.ElementUpdated, p.ElementUpdated)
	default:
		return &ConfigurationError{Hook: h, Plugin: BasePlugin, Err: ErrUnsupportedHook}
	}
	return nil
}

// threadNode chains two beforeNodeAdded callbacks. The node each link
// resolves to is offered to the next.
func threadNode(h Hook, prev, next NodeDecider) NodeDecider {
	if next == nil {
		return prev
	}
	if prev == nil {
		return next
	}
	return func(node *vdom.VNode) (vdom.Decision, error) {
		d, err := prev(node)
		if err != nil {
			return vdom.Decision{}, err
		}
		if d.Vetoed() {
			return d, nil
		}
		if d.IsZero() {
			return vdom.Decision{}, &ProtocolError{Hook: h}
		}
		return keepOffered(node, d.Resolve(node), next)
	}
}

// keepOffered runs the next link on offered. A Keep from it keeps offered,
// so a replacement chosen upstream survives.
func keepOffered(node, offered *vdom.VNode, next NodeDecider) (vdom.Decision, error) {
	d, err := next(offered)
	if err != nil {
		return vdom.Decision{}, err
	}
	if d.Kept() && offered != node {
		return vdom.Replace(offered), nil
	}
	return d, nil
}

// threadElement chains two beforeElementUpdated callbacks. Only the
// candidate is threaded; from is passed to every link unchanged.
func threadElement(h Hook, prev, next ElementDecider) ElementDecider {
	if next == nil {
		return prev
	}
	if prev == nil {
		return next
	}
	return func(from, to *vdom.VNode) (vdom.Decision, error) {
		d, err := prev(from, to)
		if err != nil {
			return vdom.Decision{}, err
		}
		if d.Vetoed() {
			return d, nil
		}
		if d.IsZero() {
			return vdom.Decision{}, &ProtocolError{Hook: h}
		}
		return keepOffered(to, d.Resolve(to), func(n *vdom.VNode) (vdom.Decision, error) {
			return next(from, n)
		})
	}
}

// gateElement and gateNode short-circuit on false.
func gateElement(prev, next ElementGate) ElementGate {
	if next == nil {
		return prev
	}
	if prev == nil {
		return next
	}
	return func(from, to *vdom.VNode) (bool, error) {
		ok, err := prev(from, to)
		if err != nil || !ok {
			return false, err
		}
		return next(from, to)
	}
}

func gateNode(prev, next NodeGate) NodeGate {
	if next == nil {
		return prev
	}
	if prev == nil {
		return next
	}
	return func(node *vdom.VNode) (bool, error) {
		ok, err := prev(node)
		if err != nil || !ok {
			return false, err
		}
		return next(node)
	}
}

// fanOut always runs both listeners.
func fanOut(prev, next NodeListener) NodeListener {
	if next == nil {
		return prev
	}
	if prev == nil {
		return next
	}
	return func(node *vdom.VNode) {
		prev(node)
		next(node)
	}
}
