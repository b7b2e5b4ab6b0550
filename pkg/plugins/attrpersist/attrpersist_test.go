package attrpersist

import (
	"testing"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

func TestPersistClasses(t *testing.T) {
	tests := []struct {
		name string
		from *vdom.VNode
		to   *vdom.VNode
		want string
	}{
		{
			name: "present class is copied",
			from: vdom.Div(vdom.Data("persist-class", "open"), vdom.Class("menu", "open")),
			to:   vdom.Div(vdom.Class("menu")),
			want: "menu open",
		},
		{
			name: "absent class is removed",
			from: vdom.Div(vdom.Data("persist-class", "open"), vdom.Class("menu")),
			to:   vdom.Div(vdom.Class("menu", "open")),
			want: "menu",
		},
		{
			name: "unlisted classes are left alone",
			from: vdom.Div(vdom.Data("persist-class", "open"), vdom.Class("busy")),
			to:   vdom.Div(vdom.Class("idle")),
			want: "idle",
		},
		{
			name: "list with spaces",
			from: vdom.Div(vdom.Data("persist-class", "a, b"), vdom.Class("a", "b")),
			to:   vdom.Div(),
			want: "a b",
		},
		{
			name: "no attribute",
			from: vdom.Div(vdom.Class("open")),
			to:   vdom.Div(vdom.Class("x")),
			want: "x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PersistClasses(tt.from, tt.to)
			got, _ := tt.to.Attribute("class")
			if got != tt.want {
				t.Errorf("class = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersistStyles(t *testing.T) {
	tests := []struct {
		name string
		from *vdom.VNode
		to   *vdom.VNode
		want string
	}{
		{
			name: "declared property is copied",
			from: vdom.Div(vdom.Data("persist-css", "top"), vdom.StyleAttr("top: 10px; color: red")),
			to:   vdom.Div(vdom.StyleAttr("color: blue")),
			want: "color: blue; top: 10px;",
		},
		{
			name: "undeclared property is not touched",
			from: vdom.Div(vdom.Data("persist-css", "top")),
			to:   vdom.Div(vdom.StyleAttr("top: 3px")),
			want: "top: 3px",
		},
		{
			name: "property names are case-insensitive",
			from: vdom.Div(vdom.Data("persist-css", "Left"), vdom.StyleAttr("left: 4px")),
			to:   vdom.Div(),
			want: "left: 4px;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PersistStyles(tt.from, tt.to)
			got, _ := tt.to.Attribute("style")
			if got != tt.want {
				t.Errorf("style = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPluginDuringReconcile(t *testing.T) {
	prev := vdom.Div(vdom.Data("persist-class", "open"), vdom.Class("menu", "open"))
	prev.HID = "h1"
	next := vdom.Div(vdom.Data("persist-class", "open"), vdom.Class("menu"))

	patches, err := vdom.Reconcile(prev, next, New())
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 0 {
		t.Errorf("patches = %+v, want none: the client keeps its class", patches)
	}
	if !next.HasClass("open") {
		t.Error("next tree should carry the persisted class")
	}
}

func TestPluginOnlyDeclaresElementUpdates(t *testing.T) {
	h := New()
	if h.BeforeElementUpdated == nil || h.BeforeNodeAdded != nil || h.GetNodeKey != nil || h.ChildrenOnly {
		t.Errorf("unexpected hooks: %+v", h)
	}
	d, err := h.BeforeElementUpdated(vdom.Div(), vdom.Div())
	if err != nil || !d.Kept() {
		t.Errorf("got %s, %v; want keep", d, err)
	}
}
