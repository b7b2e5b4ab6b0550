package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Node is the JSON form of a vdom.VNode:
//
//	{"kind": "element", "tag": "li", "hid": "h3", "key": "a",
//	 "attrs": {"class": "done"}, "children": [{"kind": "text", "text": "Milk"}]}
//
// kind defaults to "element" when a tag is present and to "text" otherwise.
type Node struct {
	Kind     string            `json:"kind,omitempty"`
	Tag      string            `json:"tag,omitempty"`
	HID      string            `json:"hid,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
	Text     string            `json:"text,omitempty"`
}

var kindNames = map[vdom.VKind]string{
	vdom.KindElement:  "element",
	vdom.KindText:     "text",
	vdom.KindFragment: "fragment",
	vdom.KindRaw:      "raw",
}

// KindName returns the wire name of k.
func KindName(k vdom.VKind) string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return strings.ToLower(k.String())
}

// ParseKind is the inverse of KindName.
func ParseKind(s string) (vdom.VKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// FromVNode converts a tree to its wire form. Attribute values are
// stringified the way patches carry them.
func FromVNode(v *vdom.VNode) *Node {
	if v == nil {
		return nil
	}
	n := &Node{
		Kind: KindName(v.Kind),
		Tag:  v.Tag,
		HID:  v.HID,
		Key:  v.Key,
		Text: v.Text,
	}
	if len(v.Props) > 0 {
		n.Attrs = make(map[string]string, len(v.Props))
		for k := range v.Props {
			if s, ok := v.Attribute(k); ok {
				n.Attrs[k] = s
			}
		}
	}
	if len(v.Children) > 0 {
		n.Children = make([]*Node, 0, len(v.Children))
		for _, child := range v.Children {
			if child != nil {
				n.Children = append(n.Children, FromVNode(child))
			}
		}
	}
	return n
}

// ToVNode converts n back to a tree, enforcing MaxNodeDepth and MaxNodes.
func (n *Node) ToVNode() (*vdom.VNode, error) {
	var l limiter
	return n.toVNode(&l, "$")
}

func (n *Node) toVNode(l *limiter, path string) (*vdom.VNode, error) {
	if n == nil {
		return nil, fmt.Errorf("protocol: %s: null node", path)
	}
	if err := l.enter(); err != nil {
		return nil, err
	}
	defer l.leave()

	kind, err := n.kind()
	if err != nil {
		return nil, fmt.Errorf("protocol: %s: %w", path, err)
	}
	v := &vdom.VNode{
		Kind: kind,
		Tag:  n.Tag,
		HID:  n.HID,
		Key:  n.Key,
		Text: n.Text,
	}
	switch kind {
	case vdom.KindElement:
		if n.Tag == "" {
			return nil, fmt.Errorf("protocol: %s: element without tag", path)
		}
	case vdom.KindText, vdom.KindRaw:
		if len(n.Children) > 0 || len(n.Attrs) > 0 {
			return nil, fmt.Errorf("protocol: %s: %s node cannot have attrs or children", path, KindName(kind))
		}
	}
	if len(n.Attrs) > 0 {
		v.Props = make(vdom.Props, len(n.Attrs))
		for k, val := range n.Attrs {
			v.Props[k] = val
		}
	}
	if len(n.Children) > 0 {
		v.Children = make([]*vdom.VNode, len(n.Children))
		for i, child := range n.Children {
			c, err := child.toVNode(l, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			v.Children[i] = c
		}
	}
	return v, nil
}

func (n *Node) kind() (vdom.VKind, error) {
	if n.Kind == "" {
		if n.Tag != "" {
			return vdom.KindElement, nil
		}
		return vdom.KindText, nil
	}
	k, ok := ParseKind(n.Kind)
	if !ok {
		return 0, fmt.Errorf("unknown kind %q", n.Kind)
	}
	return k, nil
}

// DecodeNode parses a JSON tree.
func DecodeNode(data []byte) (*vdom.VNode, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("protocol: decode node: %w", err)
	}
	return n.ToVNode()
}

// EncodeNode renders a tree as indented JSON.
func EncodeNode(v *vdom.VNode) ([]byte, error) {
	return json.MarshalIndent(FromVNode(v), "", "  ")
}
