package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Diff compares two VNode trees and returns the patches needed to transform
// prev into next.
func Diff(prev, next *VNode) []Patch {
	patches, _ := Reconcile(prev, next, Hooks{})
	return patches
}

// Reconcile is Diff with lifecycle hooks. The hooks run synchronously, in
// tree order, at the points documented on Hooks. Any hook error aborts the
// pass and no patches are returned.
//
// On success next mirrors the client: vetoed updates, inserts and discards
// leave the previous state in it, and replacements take their slots. A
// vetoed or replaced root is copied into next.
func Reconcile(prev, next *VNode, hooks Hooks) ([]Patch, error) {
	r := &reconciler{hooks: hooks}

	if hooks.ChildrenOnly && prev.IsElement() && next.IsElement() {
		next.HID = prev.HID
		if err := r.diffChildren(prev, next, prev.HID); err != nil {
			return nil, err
		}
		return r.patches, nil
	}

	root, err := r.diff(prev, next, "")
	if err != nil {
		return nil, err
	}
	if root != nil && next != nil && root != next {
		*next = *root
		for i := range r.patches {
			if r.patches[i].Node == root {
				r.patches[i].Node = next
			}
		}
	}
	return r.patches, nil
}

type reconciler struct {
	hooks   Hooks
	patches []Patch
}

func (r *reconciler) emit(p Patch) {
	r.patches = append(r.patches, p)
}

// diff recursively compares nodes and appends patches. It returns the node
// that holds the client's position afterwards, nil when it was removed.
// parentHID is the HID of the parent element, used for text patches that
// don't have their own HID.
func (r *reconciler) diff(prev, next *VNode, parentHID string) (*VNode, error) {
	// Node added (handled by parent via InsertNode)
	if prev == nil {
		return next, nil
	}

	if next == nil {
		kept, err := r.discard(prev)
		if err != nil || !kept {
			return nil, err
		}
		return prev, nil
	}

	if prev.Kind != next.Kind {
		return r.replace(prev, next, parentHID)
	}

	switch prev.Kind {
	case KindText:
		r.diffText(prev, next, parentHID)
	case KindElement:
		return r.diffElement(prev, next, parentHID)
	case KindFragment:
		// Fragments have no HID of their own; children patch the parent.
		next.HID = prev.HID
		if err := r.diffChildren(prev, next, parentHID); err != nil {
			return nil, err
		}
	case KindRaw:
		r.diffRaw(prev, next, parentHID)
	}
	return next, nil
}

// diffText compares text nodes.
func (r *reconciler) diffText(prev, next *VNode, parentHID string) {
	next.HID = prev.HID

	if prev.Text == next.Text {
		return
	}
	// Text nodes rarely carry HIDs; the client updates the parent's
	// textContent instead.
	targetHID := prev.HID
	if targetHID == "" {
		targetHID = parentHID
	}
	if targetHID != "" {
		r.emit(Patch{
			Op:    PatchSetText,
			HID:   targetHID,
			Value: next.Text,
		})
	}
}

// diffRaw compares raw HTML nodes.
func (r *reconciler) diffRaw(prev, next *VNode, parentHID string) {
	next.HID = prev.HID

	if prev.Text == next.Text {
		return
	}
	targetHID := prev.HID
	if targetHID == "" {
		targetHID = parentHID
	}
	if targetHID != "" {
		r.emit(Patch{
			Op:   PatchReplaceNode,
			HID:  targetHID,
			Node: next,
		})
	}
}

// diffElement compares element nodes. A vetoed update leaves prev in place.
func (r *reconciler) diffElement(prev, next *VNode, parentHID string) (*VNode, error) {
	if prev.Tag != next.Tag {
		return r.replace(prev, next, parentHID)
	}

	next.HID = prev.HID

	if fn := r.hooks.BeforeElementUpdated; fn != nil {
		d, err := fn(prev, next)
		if err != nil {
			return nil, &HookError{Hook: "beforeElementUpdated", Err: err}
		}
		if d.IsZero() {
			return nil, &HookError{Hook: "beforeElementUpdated", Err: ErrNoDecision}
		}
		if d.Vetoed() {
			return prev, nil
		}
		next = d.Resolve(next)
		next.HID = prev.HID
	}

	r.diffProps(prev, next)

	update := true
	if fn := r.hooks.BeforeElementChildrenUpdated; fn != nil {
		var err error
		if update, err = fn(prev, next); err != nil {
			return nil, &HookError{Hook: "beforeElementChildrenUpdated", Err: err}
		}
	}
	if update {
		if err := r.diffChildren(prev, next, prev.HID); err != nil {
			return nil, err
		}
	} else {
		next.Children = prev.Children
	}

	if fn := r.hooks.ElementUpdated; fn != nil {
		fn(next)
	}
	return next, nil
}

// replace swaps prev for next when their kind or tag differ. Both the
// discard of prev and the addition of next can be vetoed, which keeps prev.
func (r *reconciler) replace(prev, next *VNode, parentHID string) (*VNode, error) {
	ok, err := r.allowDiscard(prev)
	if err != nil {
		return nil, err
	}
	if !ok {
		return prev, nil
	}
	node, err := r.allowAdd(next)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return prev, nil
	}

	targetHID := prev.HID
	if targetHID == "" {
		targetHID = parentHID
	}
	r.emit(Patch{
		Op:   PatchReplaceNode,
		HID:  targetHID,
		Node: node,
	})

	if fn := r.hooks.NodeDiscarded; fn != nil {
		fn(prev)
	}
	if fn := r.hooks.NodeAdded; fn != nil {
		fn(node)
	}
	return node, nil
}

// insert adds node at index of the element parentHID. It returns the node
// that was inserted, a replacement chosen by BeforeNodeAdded, or nil when
// the insert was vetoed.
func (r *reconciler) insert(parentHID string, node *VNode, index int) (*VNode, error) {
	node, err := r.allowAdd(node)
	if err != nil || node == nil {
		return nil, err
	}

	r.emit(Patch{
		Op:       PatchInsertNode,
		ParentID: parentHID,
		Index:    index,
		Node:     node,
	})

	if fn := r.hooks.NodeAdded; fn != nil {
		fn(node)
	}
	return node, nil
}

// discard removes prev from the tree. kept reports a vetoed discard.
func (r *reconciler) discard(prev *VNode) (kept bool, err error) {
	ok, err := r.allowDiscard(prev)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	r.emit(Patch{
		Op:  PatchRemoveNode,
		HID: prev.HID,
	})

	if fn := r.hooks.NodeDiscarded; fn != nil {
		fn(prev)
	}
	return false, nil
}

// allowAdd runs BeforeNodeAdded. A nil node with a nil error means the
// addition was vetoed.
func (r *reconciler) allowAdd(node *VNode) (*VNode, error) {
	fn := r.hooks.BeforeNodeAdded
	if fn == nil {
		return node, nil
	}
	d, err := fn(node)
	if err != nil {
		return nil, &HookError{Hook: "beforeNodeAdded", Err: err}
	}
	if d.IsZero() {
		return nil, &HookError{Hook: "beforeNodeAdded", Err: ErrNoDecision}
	}
	if d.Vetoed() {
		return nil, nil
	}
	return d.Resolve(node), nil
}

func (r *reconciler) allowDiscard(node *VNode) (bool, error) {
	fn := r.hooks.BeforeNodeDiscarded
	if fn == nil {
		return true, nil
	}
	ok, err := fn(node)
	if err != nil {
		return false, &HookError{Hook: "beforeNodeDiscarded", Err: err}
	}
	return ok, nil
}

// diffProps compares and patches attributes. Keys are visited in sorted
// order so the patch stream is deterministic.
func (r *reconciler) diffProps(prev, next *VNode) {
	for _, key := range sortedKeys(prev.Props) {
		if key == "key" {
			continue // Key is not a real attribute
		}
		prevVal := prev.Props[key]
		nextVal, exists := next.Props[key]
		if !exists {
			r.emit(Patch{
				Op:  PatchRemoveAttr,
				HID: prev.HID,
				Key: key,
			})
		} else if !propsEqual(prevVal, nextVal) {
			r.emit(Patch{
				Op:    PatchSetAttr,
				HID:   prev.HID,
				Key:   key,
				Value: propToString(nextVal),
			})
		}
	}

	for _, key := range sortedKeys(next.Props) {
		if key == "key" {
			continue
		}
		if _, exists := prev.Props[key]; !exists {
			r.emit(Patch{
				Op:    PatchSetAttr,
				HID:   prev.HID,
				Key:   key,
				Value: propToString(next.Props[key]),
			})
		}
	}
}

// diffChildren compares and patches child nodes. next.Children is rebuilt
// from what the client holds: vetoed inserts are dropped, and children whose
// discard was vetoed are appended.
func (r *reconciler) diffChildren(prev, next *VNode, parentHID string) error {
	diff := r.diffUnkeyedChildren
	if r.hasKeys(prev.Children) || r.hasKeys(next.Children) {
		diff = r.diffKeyedChildren
	}
	children, kept, err := diff(prev, prev.Children, next.Children, parentHID)
	if err != nil {
		return err
	}
	next.Children = append(children, kept...)
	return nil
}

// diffUnkeyedChildren handles children without keys using positional matching.
// Insert indices count only the children the client holds.
func (r *reconciler) diffUnkeyedChildren(parent *VNode, prev, next []*VNode, parentHID string) (children, kept []*VNode, err error) {
	maxLen := len(prev)
	if len(next) > maxLen {
		maxLen = len(next)
	}

	for i := 0; i < maxLen; i++ {
		var prevChild, nextChild *VNode
		if i < len(prev) {
			prevChild = prev[i]
		}
		if i < len(next) {
			nextChild = next[i]
		}

		var node *VNode
		switch {
		case prevChild == nil && nextChild != nil:
			node, err = r.insert(parent.HID, nextChild, len(children))
		case prevChild != nil && nextChild == nil:
			var keep bool
			if keep, err = r.discard(prevChild); keep {
				kept = append(kept, prevChild)
			}
		default:
			node, err = r.diff(prevChild, nextChild, parentHID)
		}
		if err != nil {
			return nil, nil, err
		}
		if node != nil {
			children = append(children, node)
		}
	}
	return children, kept, nil
}

// diffKeyedChildren handles children with keys for efficient reordering.
func (r *reconciler) diffKeyedChildren(parent *VNode, prev, next []*VNode, parentHID string) (children, kept []*VNode, err error) {
	prevKeyMap := make(map[string]int, len(prev))
	for i, child := range prev {
		if key := r.key(child); key != "" {
			prevKeyMap[key] = i
		}
	}

	matched := make(map[int]bool)

	for _, nextChild := range next {
		var node *VNode
		key := r.key(nextChild)
		prevIdx, exists := prevKeyMap[key]
		if key == "" || !exists {
			// New keyed node, or an unkeyed node in a keyed list.
			node, err = r.insert(parent.HID, nextChild, len(children))
		} else {
			matched[prevIdx] = true
			prevChild := prev[prevIdx]

			if index := len(children); prevIdx != index {
				r.emit(Patch{
					Op:       PatchMoveNode,
					HID:      prevChild.HID,
					ParentID: parent.HID,
					Index:    index,
				})
			}
			node, err = r.diff(prevChild, nextChild, parentHID)
		}
		if err != nil {
			return nil, nil, err
		}
		if node != nil {
			children = append(children, node)
		}
	}

	for i, prevChild := range prev {
		if matched[i] {
			continue
		}
		keep, err := r.discard(prevChild)
		if err != nil {
			return nil, nil, err
		}
		if keep {
			kept = append(kept, prevChild)
		}
	}
	return children, kept, nil
}

// key extracts the reconciliation key, honouring Hooks.GetNodeKey.
func (r *reconciler) key(node *VNode) string {
	if node == nil {
		return ""
	}
	if r.hooks.GetNodeKey != nil {
		return r.hooks.GetNodeKey(node)
	}
	return DefaultKey(node)
}

func (r *reconciler) hasKeys(children []*VNode) bool {
	for _, child := range children {
		if r.key(child) != "" {
			return true
		}
	}
	return false
}

// DefaultKey is the key used for keyed matching when no GetNodeKey hook is
// set: the node's Key, or its "key" prop.
func DefaultKey(node *VNode) string {
	if node.Key != "" {
		return node.Key
	}
	if node.Props == nil {
		return ""
	}
	if key, ok := node.Props["key"].(string); ok {
		return key
	}
	return ""
}

func sortedKeys(p Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// propToString converts a prop value to a string for the patch.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
