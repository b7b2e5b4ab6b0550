package protocol

import (
	"fmt"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Patch is the JSON form of a vdom.Patch. Op is the name returned by
// vdom.PatchOp.String.
type Patch struct {
	Op     string `json:"op"`
	HID    string `json:"hid,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	Node   *Node  `json:"node,omitempty"`
	Index  int    `json:"index,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// FromPatch converts a patch to its wire form.
func FromPatch(p vdom.Patch) Patch {
	return Patch{
		Op:     p.Op.String(),
		HID:    p.HID,
		Key:    p.Key,
		Value:  p.Value,
		Node:   FromVNode(p.Node),
		Index:  p.Index,
		Parent: p.ParentID,
	}
}

// FromPatches converts patches to their wire form. The result is never nil
// so it encodes as an array.
func FromPatches(patches []vdom.Patch) []Patch {
	out := make([]Patch, len(patches))
	for i, p := range patches {
		out[i] = FromPatch(p)
	}
	return out
}

// ToPatch converts p back to a vdom.Patch.
func (p Patch) ToPatch() (vdom.Patch, error) {
	op, ok := vdom.ParsePatchOp(p.Op)
	if !ok {
		return vdom.Patch{}, fmt.Errorf("protocol: unknown patch op %q", p.Op)
	}
	out := vdom.Patch{
		Op:       op,
		HID:      p.HID,
		Key:      p.Key,
		Value:    p.Value,
		Index:    p.Index,
		ParentID: p.Parent,
	}
	if p.Node != nil {
		node, err := p.Node.ToVNode()
		if err != nil {
			return vdom.Patch{}, err
		}
		out.Node = node
	}
	return out, nil
}
