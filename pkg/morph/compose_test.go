package morph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/vmorph/pkg/plugins/attrpersist"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

func TestComposeRejectsReservedHooks(t *testing.T) {
	called := false
	spy := func(*vdom.VNode) { called = true }

	tests := []struct {
		name    string
		plugins []vdom.Hooks
		hook    Hook
		plugin  int
	}{
		{
			name:    "getNodeKey",
			plugins: []vdom.Hooks{{NodeAdded: spy}, {GetNodeKey: func(*vdom.VNode) string { return "" }}},
			hook:    HookGetNodeKey,
			plugin:  1,
		},
		{
			name:    "childrenOnly",
			plugins: []vdom.Hooks{{ChildrenOnly: true, NodeAdded: spy}},
			hook:    HookChildrenOnly,
			plugin:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compose(tt.plugins, nil)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want *ConfigurationError", err)
			}
			if !errors.Is(err, ErrReservedHook) || cfgErr.Hook != tt.hook || cfgErr.Plugin != tt.plugin {
				t.Errorf("err = %+v, want reserved %s in plugin %d", cfgErr, tt.hook, tt.plugin)
			}
			if cfgErr.Code() != CodeReservedHook {
				t.Errorf("Code() = %s, want %s", cfgErr.Code(), CodeReservedHook)
			}
			if got.NodeAdded != nil {
				t.Error("no composed config should be returned on error")
			}
		})
	}
	if called {
		t.Error("no callback may run during a failed composition")
	}
}

func TestComposeBaseMayUseReservedHooks(t *testing.T) {
	base := &vdom.Hooks{
		ChildrenOnly: true,
		GetNodeKey:   func(n *vdom.VNode) string { return n.Key },
	}
	got, err := Compose([]vdom.Hooks{{NodeAdded: func(*vdom.VNode) {}}}, base)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ChildrenOnly || got.GetNodeKey == nil {
		t.Fatal("reserved base options must be carried over")
	}
	if k := got.GetNodeKey(&vdom.VNode{Key: "k"}); k != "k" {
		t.Errorf("GetNodeKey = %q, want the base callback", k)
	}
}

func TestFanOutOrder(t *testing.T) {
	var calls []string
	rec := func(name string) NodeListener {
		return func(n *vdom.VNode) { calls = append(calls, name+":"+n.Tag) }
	}

	got, err := Compose([]vdom.Hooks{
		{NodeAdded: rec("a"), NodeDiscarded: rec("a"), ElementUpdated: rec("a")},
		{NodeAdded: rec("b"), NodeDiscarded: rec("b"), ElementUpdated: rec("b")},
	}, &vdom.Hooks{NodeAdded: rec("base")})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   NodeListener
		want []string
	}{
		{"nodeAdded", got.NodeAdded, []string{"base:x", "a:x", "b:x"}},
		{"nodeDiscarded", got.NodeDiscarded, []string{"a:x", "b:x"}},
		{"elementUpdated", got.ElementUpdated, []string{"a:x", "b:x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			tt.fn(&vdom.VNode{Tag: "x"})
			if !reflect.DeepEqual(calls, tt.want) {
				t.Errorf("calls = %v, want %v", calls, tt.want)
			}
		})
	}
}

func TestGateShortCircuits(t *testing.T) {
	tests := []struct {
		name      string
		a         bool
		b         bool
		want      bool
		wantCalls int
	}{
		{"a false skips b", false, true, false, 1},
		{"a true returns b true", true, true, true, 2},
		{"a true returns b false", true, false, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			gate := func(v bool) NodeGate {
				return func(*vdom.VNode) (bool, error) { calls++; return v, nil }
			}
			elGate := func(v bool) ElementGate {
				return func(_, _ *vdom.VNode) (bool, error) { calls++; return v, nil }
			}

			got, err := Compose([]vdom.Hooks{
				{BeforeNodeDiscarded: gate(tt.a), BeforeElementChildrenUpdated: elGate(tt.a)},
				{BeforeNodeDiscarded: gate(tt.b), BeforeElementChildrenUpdated: elGate(tt.b)},
			}, nil)
			if err != nil {
				t.Fatal(err)
			}

			ok, err := got.BeforeNodeDiscarded(vdom.Div())
			if err != nil || ok != tt.want || calls != tt.wantCalls {
				t.Errorf("beforeNodeDiscarded = %v, %v after %d calls; want %v after %d", ok, err, calls, tt.want, tt.wantCalls)
			}

			calls = 0
			ok, err = got.BeforeElementChildrenUpdated(vdom.Div(), vdom.Div())
			if err != nil || ok != tt.want || calls != tt.wantCalls {
				t.Errorf("beforeElementChildrenUpdated = %v, %v after %d calls; want %v after %d", ok, err, calls, tt.want, tt.wantCalls)
			}
		})
	}
}

func TestGatePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	reached := false
	got, err := Compose([]vdom.Hooks{
		{BeforeNodeDiscarded: func(*vdom.VNode) (bool, error) { return true, boom }},
		{BeforeNodeDiscarded: func(*vdom.VNode) (bool, error) { reached = true; return true, nil }},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := got.BeforeNodeDiscarded(vdom.Div()); ok || !errors.Is(err, boom) {
		t.Errorf("got %v, %v; want false, boom", ok, err)
	}
	if reached {
		t.Error("second gate ran after an error")
	}
}

func TestThreadNode(t *testing.T) {
	offered := vdom.Div()
	replacement := vdom.Span()

	tests := []struct {
		name     string
		first    vdom.Decision
		wantSeen *vdom.VNode
		wantErr  bool
		vetoed   bool
	}{
		{name: "veto", first: vdom.Veto(), vetoed: true},
		{name: "keep", first: vdom.Keep(), wantSeen: offered},
		{name: "replace", first: vdom.Replace(replacement), wantSeen: replacement},
		{name: "no decision", first: vdom.Decision{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *vdom.VNode
			got, err := Compose([]vdom.Hooks{
				{BeforeNodeAdded: func(*vdom.VNode) (vdom.Decision, error) { return tt.first, nil }},
				{BeforeNodeAdded: func(n *vdom.VNode) (vdom.Decision, error) { seen = n; return vdom.Keep(), nil }},
			}, nil)
			if err != nil {
				t.Fatal(err)
			}

			d, err := got.BeforeNodeAdded(offered)
			if tt.wantErr {
				var protoErr *ProtocolError
				if !errors.As(err, &protoErr) || protoErr.Hook != HookBeforeNodeAdded {
					t.Fatalf("err = %v, want ProtocolError for beforeNodeAdded", err)
				}
				if !errors.Is(err, vdom.ErrNoDecision) {
					t.Error("ProtocolError should match vdom.ErrNoDecision")
				}
				if seen != nil {
					t.Error("next callback ran after a missing decision")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Vetoed() != tt.vetoed {
				t.Errorf("decision = %s, vetoed want %v", d, tt.vetoed)
			}
			if seen != tt.wantSeen {
				t.Errorf("next callback saw %v, want %v", seen, tt.wantSeen)
			}
			if !tt.vetoed && d.Resolve(offered) != tt.wantSeen {
				t.Errorf("decision %s resolves to %v, want %v", d, d.Resolve(offered), tt.wantSeen)
			}
		})
	}
}

func TestThreadNodeVetoNeverTags(t *testing.T) {
	got, err := Compose([]vdom.Hooks{
		{BeforeNodeAdded: func(*vdom.VNode) (vdom.Decision, error) { return vdom.Veto(), nil }},
		{BeforeNodeAdded: func(n *vdom.VNode) (vdom.Decision, error) {
			n.SetAttribute("data-tag", "1")
			return vdom.Replace(n), nil
		}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	n := vdom.Div()
	d, err := got.BeforeNodeAdded(n)
	if err != nil || !d.Vetoed() {
		t.Fatalf("got %s, %v; want veto", d, err)
	}
	if _, ok := n.Attribute("data-tag"); ok {
		t.Error("vetoed node was tagged")
	}
}

func TestThreadElementPassesExistingUnchanged(t *testing.T) {
	existing := vdom.Div(vdom.ID("old"))
	candidate := vdom.Div(vdom.ID("new"))
	swapped := vdom.Div(vdom.ID("swapped"))

	tests := []struct {
		name     string
		first    vdom.Decision
		wantTo   *vdom.VNode
		wantNext bool
	}{
		{"keep", vdom.Keep(), candidate, true},
		{"replace", vdom.Replace(swapped), swapped, true},
		{"veto", vdom.Veto(), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFrom, gotTo *vdom.VNode
			got, err := Compose([]vdom.Hooks{
				{BeforeElementUpdated: func(from, to *vdom.VNode) (vdom.Decision, error) { return tt.first, nil }},
				{BeforeElementUpdated: func(from, to *vdom.VNode) (vdom.Decision, error) {
					gotFrom, gotTo = from, to
					return vdom.Keep(), nil
				}},
			}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := got.BeforeElementUpdated(existing, candidate); err != nil {
				t.Fatal(err)
			}
			if !tt.wantNext {
				if gotFrom != nil {
					t.Error("next callback ran after a veto")
				}
				return
			}
			if gotFrom != existing || gotTo != tt.wantTo {
				t.Errorf("next saw (%v, %v), want (%v, %v)", gotFrom, gotTo, existing, tt.wantTo)
			}
		})
	}
}

func TestThreadElementMissingDecision(t *testing.T) {
	got, err := Compose([]vdom.Hooks{
		{BeforeElementUpdated: func(_, _ *vdom.VNode) (vdom.Decision, error) { return vdom.Decision{}, nil }},
		{BeforeElementUpdated: func(_, _ *vdom.VNode) (vdom.Decision, error) { return vdom.Keep(), nil }},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = got.BeforeElementUpdated(vdom.Div(), vdom.Div())
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Hook != HookBeforeElementUpdated {
		t.Fatalf("err = %v, want ProtocolError for beforeElementUpdated", err)
	}
	if protoErr.Code() != CodeMissingReturn {
		t.Errorf("Code() = %s", protoErr.Code())
	}
}

func TestComposeIdentity(t *testing.T) {
	marker := vdom.Span()
	cb := func(*vdom.VNode) (vdom.Decision, error) { return vdom.Replace(marker), nil }

	t.Run("base only", func(t *testing.T) {
		got, err := Compose(nil, &vdom.Hooks{BeforeNodeAdded: cb})
		if err != nil {
			t.Fatal(err)
		}
		d, err := got.BeforeNodeAdded(vdom.Div())
		if err != nil || d.Node() != marker {
			t.Errorf("got %s, %v; want the base result", d, err)
		}
	})

	t.Run("single plugin", func(t *testing.T) {
		got, err := Compose([]vdom.Hooks{{BeforeNodeAdded: cb}}, nil)
		if err != nil {
			t.Fatal(err)
		}
		d, err := got.BeforeNodeAdded(vdom.Div())
		if err != nil || d.Node() != marker {
			t.Errorf("got %s, %v; want the plugin result", d, err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got, err := Compose(nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(Declared(got)) != 0 {
			t.Errorf("Declared = %v, want none", Declared(got))
		}
	})
}

func TestComposeDoesNotMutateInputs(t *testing.T) {
	var calls []string
	a := func(*vdom.VNode) { calls = append(calls, "a") }
	b := func(*vdom.VNode) { calls = append(calls, "b") }
	base := &vdom.Hooks{NodeAdded: a, ChildrenOnly: true}
	plugins := []vdom.Hooks{{NodeAdded: b}}

	baseBefore := *base
	if _, err := Compose(plugins, base); err != nil {
		t.Fatal(err)
	}

	if base.ChildrenOnly != baseBefore.ChildrenOnly || len(Declared(*base)) != 2 {
		t.Error("base was modified")
	}
	base.NodeAdded(nil)
	plugins[0].NodeAdded(nil)
	if !reflect.DeepEqual(calls, []string{"a", "b"}) {
		t.Errorf("callbacks were rewired: calls = %v", calls)
	}
	if len(plugins) != 1 || len(Declared(plugins[0])) != 1 {
		t.Error("plugins were modified")
	}
}

func TestComposedHooksDriveReconcile(t *testing.T) {
	prev := vdom.Ul(vdom.Li(vdom.Text("a")))
	vdom.AssignHIDs(prev, vdom.NewHIDGenerator())
	next := vdom.Ul(vdom.Li(vdom.Text("a")), vdom.Li(vdom.Class("skip")), vdom.Li(vdom.Text("c")))

	var added []*vdom.VNode
	hooks, err := Compose([]vdom.Hooks{
		{BeforeNodeAdded: func(n *vdom.VNode) (vdom.Decision, error) {
			if n.HasClass("skip") {
				return vdom.Veto(), nil
			}
			return vdom.Keep(), nil
		}},
		{NodeAdded: func(n *vdom.VNode) { added = append(added, n) }},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	patches, err := vdom.Reconcile(prev, next, hooks)
	if err != nil {
		t.Fatal(err)
	}
	inserts := 0
	for _, p := range patches {
		if p.Op == vdom.PatchInsertNode {
			inserts++
		}
	}
	if inserts != 1 || len(added) != 1 || added[0] != next.Children[1] {
		t.Errorf("inserts=%d added=%v, want only the third item", inserts, added)
	}
	if len(next.Children) != 2 {
		t.Errorf("next children = %v, want the vetoed item dropped", next.Children)
	}
}

func TestReplacementSurvivesKeepingPlugin(t *testing.T) {
	prev := vdom.Div(vdom.Class("orig open"), vdom.Data("persist-class", "open"))
	prev.HID = "h1"
	next := vdom.Div(vdom.Class("orig"), vdom.Data("persist-class", "open"))
	swapped := vdom.Div(vdom.Class("swapped"), vdom.Data("persist-class", "open"))

	base := vdom.Hooks{
		BeforeElementUpdated: func(from, to *vdom.VNode) (vdom.Decision, error) { return vdom.Replace(swapped), nil },
	}
	hooks, err := Compose([]vdom.Hooks{attrpersist.New()}, &base)
	if err != nil {
		t.Fatal(err)
	}

	patches, err := vdom.Reconcile(prev, next, hooks)
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 || patches[0].Key != "class" || patches[0].Value != "swapped open" {
		t.Fatalf("patches = %+v, want class=\"swapped open\"", patches)
	}
	if !next.HasClass("swapped") || next.HID != "h1" {
		t.Errorf("next = %v, want the replacement on h1", next)
	}
}
