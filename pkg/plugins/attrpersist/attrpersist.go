// Package attrpersist keeps classes and inline styles that were applied to an
// element outside the render function (by client code or by deferred plugin
// work) from being wiped out by the next reconciliation.
//
// An element opts in with a comma separated list:
//
//	Div(Data("persist-class", "open,highlighted"), Data("persist-css", "top,left"))
//
// Listed classes are copied from the current element to its update
// candidate: present on the current element means present on the candidate,
// absent means absent. Listed style properties are copied only when the
// current element declares them inline.
package attrpersist

import (
	"strings"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

const (
	// ClassAttr lists the classes to persist.
	ClassAttr = "data-persist-class"

	// CSSAttr lists the inline style properties to persist.
	CSSAttr = "data-persist-css"
)

// New returns the plugin.
func New() vdom.Hooks {
	return vdom.Hooks{
		BeforeElementUpdated: func(from, to *vdom.VNode) (vdom.Decision, error) {
			PersistClasses(from, to)
			PersistStyles(from, to)
			return vdom.Keep(), nil
		},
	}
}

// PersistClasses copies the presence of every class listed in from's
// data-persist-class attribute onto to.
func PersistClasses(from, to *vdom.VNode) {
	for _, name := range list(from, ClassAttr) {
		to.ToggleClass(name, from.HasClass(name))
	}
}

// PersistStyles copies every property listed in from's data-persist-css
// attribute that from declares in its style attribute.
func PersistStyles(from, to *vdom.VNode) {
	props := list(from, CSSAttr)
	if len(props) == 0 {
		return
	}
	style := from.Style()
	for _, prop := range props {
		if v, ok := style[strings.ToLower(prop)]; ok {
			to.SetStyle(prop, v)
		}
	}
}

func list(n *vdom.VNode, attr string) []string {
	raw, ok := n.Attribute(attr)
	if !ok || raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
