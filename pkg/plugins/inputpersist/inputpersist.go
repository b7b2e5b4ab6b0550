// Package inputpersist stops reconciliation from overwriting text and number
// inputs the user is typing into.
//
// The server cannot see focus, so the client reports it (see the stream
// "focus" message) and a FocusTracker remembers it per connection. While an
// input[type=text] or input[type=number] has focus, updates to it are vetoed.
package inputpersist

import (
	"strings"
	"sync"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Focus reports which element currently has focus.
type Focus interface {
	Focused(hid string) bool
}

// FocusTracker records the focused element of one client. The zero value
// has nothing focused. It is safe for concurrent use.
type FocusTracker struct {
	mu  sync.RWMutex
	hid string
}

// Focus records hid as focused.
func (f *FocusTracker) Focus(hid string) {
	f.mu.Lock()
	f.hid = hid
	f.mu.Unlock()
}

// Blur clears focus if hid has it. An empty hid clears unconditionally.
func (f *FocusTracker) Blur(hid string) {
	f.mu.Lock()
	if hid == "" || f.hid == hid {
		f.hid = ""
	}
	f.mu.Unlock()
}

// Current returns the focused HID, or "".
func (f *FocusTracker) Current() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hid
}

// Focused implements Focus.
func (f *FocusTracker) Focused(hid string) bool {
	return hid != "" && f.Current() == hid
}

// New returns the plugin. focus may be nil, in which case nothing is ever
// considered focused.
func New(focus Focus) vdom.Hooks {
	return vdom.Hooks{
		BeforeElementUpdated: func(from, _ *vdom.VNode) (vdom.Decision, error) {
			if focus != nil && Protected(from) && focus.Focused(from.HID) {
				return vdom.Veto(), nil
			}
			return vdom.Keep(), nil
		},
	}
}

// Protected reports whether n is an input whose typed value would be lost
// by an update.
func Protected(n *vdom.VNode) bool {
	if !n.IsElement() || n.Tag != "input" {
		return false
	}
	typ, _ := n.Attribute("type")
	return strings.EqualFold(typ, "text") || strings.EqualFold(typ, "number")
}
