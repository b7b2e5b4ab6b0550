package morph

import "github.com/vango-dev/vmorph/pkg/vdom"

// KeyAttribute returns a GetNodeKey function that keys elements by the
// value of attr. Nodes without it fall back to vdom.DefaultKey.
func KeyAttribute(attr string) func(*vdom.VNode) string {
	return func(n *vdom.VNode) string {
		if v, ok := n.Attribute(attr); ok && v != "" {
			return v
		}
		return vdom.DefaultKey(n)
	}
}

// Base returns a base configuration holding only reserved options. An
// empty keyAttr leaves GetNodeKey unset.
func Base(childrenOnly bool, keyAttr string) vdom.Hooks {
	h := vdom.Hooks{ChildrenOnly: childrenOnly}
	if keyAttr != "" {
		h.GetNodeKey = KeyAttribute(keyAttr)
	}
	return h
}
