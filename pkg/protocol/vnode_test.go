package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

func TestNodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
	}{
		{"text", vdom.Text("Hello, World!")},
		{"element", vdom.Div(vdom.Class("container"), vdom.Disabled())},
		{"nested", vdom.Ul(vdom.Li(vdom.Key("a"), "Milk"), vdom.Li(vdom.Key("b"), "Eggs"))},
		{"fragment", vdom.Fragment(vdom.Span("a"), vdom.Span("b"))},
		{"raw", vdom.Raw("<strong>Bold</strong>")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vdom.AssignHIDs(tt.node, vdom.NewHIDGenerator())
			wire := FromVNode(tt.node)
			back, err := wire.ToVNode()
			if err != nil {
				t.Fatal(err)
			}
			if got := FromVNode(back); !reflect.DeepEqual(got, wire) {
				t.Errorf("round trip changed the tree:\n got %+v\nwant %+v", got, wire)
			}
		})
	}
}

func TestFromVNodeStringifiesAttrs(t *testing.T) {
	n := FromVNode(vdom.Input(vdom.Disabled(), vdom.Key(7)))
	if n.Attrs["disabled"] != "true" || n.Attrs["key"] != "7" {
		t.Errorf("attrs = %v", n.Attrs)
	}
	if n.Kind != "element" || n.Tag != "input" {
		t.Errorf("node = %+v", n)
	}
}

func TestDecodeNode(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
		check   func(t *testing.T, v *vdom.VNode)
	}{
		{
			name: "kind inferred",
			json: `{"tag":"ul","children":[{"tag":"li","key":"a","children":[{"text":"x"}]}]}`,
			check: func(t *testing.T, v *vdom.VNode) {
				li := v.Children[0]
				if v.Kind != vdom.KindElement || li.Key != "a" || li.Children[0].Kind != vdom.KindText {
					t.Errorf("decoded %+v", v)
				}
			},
		},
		{
			name: "explicit kinds",
			json: `{"kind":"fragment","children":[{"kind":"raw","text":"<b>x</b>"}]}`,
			check: func(t *testing.T, v *vdom.VNode) {
				if v.Kind != vdom.KindFragment || v.Children[0].Kind != vdom.KindRaw {
					t.Errorf("decoded %+v", v)
				}
			},
		},
		{name: "bad json", json: `{"tag":`, wantErr: "decode node"},
		{name: "unknown kind", json: `{"kind":"comment"}`, wantErr: `unknown kind "comment"`},
		{name: "element without tag", json: `{"kind":"element"}`, wantErr: "element without tag"},
		{name: "text with children", json: `{"text":"x","children":[{"text":"y"}]}`, wantErr: "cannot have"},
		{name: "null child", json: `{"tag":"div","children":[null]}`, wantErr: "$.children[0]: null node"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeNode([]byte(tt.json))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, v)
		})
	}
}

func TestDepthLimit(t *testing.T) {
	deep := &Node{Tag: "div"}
	cur := deep
	for i := 0; i < MaxNodeDepth; i++ {
		child := &Node{Tag: "div"}
		cur.Children = []*Node{child}
		cur = child
	}
	if _, err := deep.ToVNode(); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("error = %v, want ErrMaxDepthExceeded", err)
	}

	ok := &Node{Tag: "div"}
	cur = ok
	for i := 0; i < MaxNodeDepth-1; i++ {
		child := &Node{Tag: "div"}
		cur.Children = []*Node{child}
		cur = child
	}
	if _, err := ok.ToVNode(); err != nil {
		t.Errorf("tree at the limit rejected: %v", err)
	}
}

func TestNodeCountLimit(t *testing.T) {
	wide := &Node{Tag: "ul", Children: make([]*Node, MaxNodes)}
	for i := range wide.Children {
		wide.Children[i] = &Node{Text: "x"}
	}
	if _, err := wide.ToVNode(); !errors.Is(err, ErrTooManyNodes) {
		t.Errorf("error = %v, want ErrTooManyNodes", err)
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range []vdom.VKind{vdom.KindElement, vdom.KindText, vdom.KindFragment, vdom.KindRaw} {
		got, ok := ParseKind(KindName(k))
		if !ok || got != k {
			t.Errorf("ParseKind(KindName(%v)) = %v, %v", k, got, ok)
		}
	}
}
