package vdom

import (
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML (dangerous)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText and KindRaw
	HID      string   // Hydration ID, the patch target
}

// Props holds element attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// IsElement reports whether v is a non-nil element node.
func (v *VNode) IsElement() bool {
	return v != nil && v.Kind == KindElement
}

// Attribute returns the string form of the named attribute.
// The second result is false when the attribute is absent.
func (v *VNode) Attribute(key string) (string, bool) {
	if v == nil || v.Props == nil {
		return "", false
	}
	val, ok := v.Props[key]
	if !ok {
		return "", false
	}
	return propToString(val), true
}

// SetAttribute sets an attribute, allocating Props when needed.
func (v *VNode) SetAttribute(key string, value any) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[key] = value
}

// Classes returns the tokens of the class attribute in order.
func (v *VNode) Classes() []string {
	class, _ := v.Attribute("class")
	return strings.Fields(class)
}

// HasClass reports whether the class attribute contains name.
func (v *VNode) HasClass(name string) bool {
	for _, c := range v.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// ToggleClass adds name to the class attribute when on is true and removes
// it otherwise. Other tokens keep their order.
func (v *VNode) ToggleClass(name string, on bool) {
	classes := v.Classes()
	out := classes[:0]
	found := false
	for _, c := range classes {
		if c == name {
			if !on || found {
				continue
			}
			found = true
		}
		out = append(out, c)
	}
	if on && !found {
		out = append(out, name)
	}
	if len(out) == 0 {
		if v.Props != nil {
			delete(v.Props, "class")
		}
		return
	}
	v.SetAttribute("class", strings.Join(out, " "))
}

// Style parses the inline style attribute into property/value pairs.
func (v *VNode) Style() map[string]string {
	style, _ := v.Attribute("style")
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		val = strings.TrimSpace(val)
		if prop != "" && val != "" {
			out[strings.ToLower(prop)] = val
		}
	}
	return out
}

// SetStyle writes a single inline style declaration. An empty value removes
// the property.
func (v *VNode) SetStyle(prop, value string) {
	style := v.Style()
	prop = strings.ToLower(strings.TrimSpace(prop))
	if value == "" {
		delete(style, prop)
	} else {
		style[prop] = value
	}
	if len(style) == 0 {
		if v.Props != nil {
			delete(v.Props, "style")
		}
		return
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(style[k])
		b.WriteString(";")
	}
	v.SetAttribute("style", b.String())
}

// Clone returns a deep copy of the subtree. Prop values are copied
// shallowly.
func (v *VNode) Clone() *VNode {
	if v == nil {
		return nil
	}
	c := *v
	if v.Props != nil {
		c.Props = make(Props, len(v.Props))
		for k, val := range v.Props {
			c.Props[k] = val
		}
	}
	if v.Children != nil {
		c.Children = make([]*VNode, len(v.Children))
		for i, child := range v.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}
