// Package hooklog writes a debug record for every reconciliation hook.
package hooklog

import (
	"context"
	"log/slog"

	"github.com/vango-dev/vmorph/pkg/morph"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// New returns hooks logging each call at debug level. A nil logger uses
// slog.Default().
func New(logger *slog.Logger) vdom.Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "hooklog")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return vdom.Hooks{}
	}

	log := func(h morph.Hook, n *vdom.VNode) {
		logger.Debug(h.String(), "kind", n.Kind.String(), "tag", n.Tag, "hid", n.HID)
	}

	return vdom.Hooks{
		BeforeNodeAdded: func(n *vdom.VNode) (vdom.Decision, error) {
			log(morph.HookBeforeNodeAdded, n)
			return vdom.Keep(), nil
		},
		NodeAdded: func(n *vdom.VNode) { log(morph.HookNodeAdded, n) },
		BeforeElementUpdated: func(from, _ *vdom.VNode) (vdom.Decision, error) {
			log(morph.HookBeforeElementUpdated, from)
			return vdom.Keep(), nil
		},
		ElementUpdated: func(n *vdom.VNode) { log(morph.HookElementUpdated, n) },
		BeforeNodeDiscarded: func(n *vdom.VNode) (bool, error) {
			log(morph.HookBeforeNodeDiscarded, n)
			return true, nil
		},
		NodeDiscarded: func(n *vdom.VNode) { log(morph.HookNodeDiscarded, n) },
	}
}
