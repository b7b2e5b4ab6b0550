package vdom

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text content
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchMoveNode    PatchOp = 0x06 // Move node to new position
	PatchReplaceNode PatchOp = 0x07 // Replace node entirely
	PatchAddClass    PatchOp = 0x20 // Add a class token
	PatchRemoveClass PatchOp = 0x21 // Remove a class token
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	case PatchAddClass:
		return "AddClass"
	case PatchRemoveClass:
		return "RemoveClass"
	default:
		return "Unknown"
	}
}

// ParsePatchOp is the inverse of PatchOp.String.
func ParsePatchOp(s string) (PatchOp, bool) {
	for op := PatchSetText; op <= PatchReplaceNode; op++ {
		if op.String() == s {
			return op, true
		}
	}
	switch s {
	case "AddClass":
		return PatchAddClass, true
	case "RemoveClass":
		return PatchRemoveClass, true
	}
	return 0, false
}

// Patch represents a single DOM operation to apply.
type Patch struct {
	Op       PatchOp // Operation type
	HID      string  // Target element's hydration ID
	Key      string  // Attribute key or class name
	Value    string  // New value
	Node     *VNode  // For InsertNode/ReplaceNode
	Index    int     // Insert position
	ParentID string  // Parent for InsertNode
}

// AddClassPatch returns a patch adding class to the element with hid.
func AddClassPatch(hid, class string) Patch {
	return Patch{Op: PatchAddClass, HID: hid, Key: class}
}

// RemoveClassPatch returns a patch removing class from the element with hid.
func RemoveClassPatch(hid, class string) Patch {
	return Patch{Op: PatchRemoveClass, HID: hid, Key: class}
}

// RemoveNodePatch returns a patch removing the element with hid.
func RemoveNodePatch(hid string) Patch {
	return Patch{Op: PatchRemoveNode, HID: hid}
}
