package vdom

import (
	"errors"
	"fmt"
)

// Hooks are the lifecycle callbacks Reconcile invokes during a pass.
// Every field is optional. A zero Hooks reconciles exactly like Diff.
type Hooks struct {
	// BeforeNodeAdded is called before a node from the next tree is
	// inserted. Veto skips the insert; Replace inserts another node.
	BeforeNodeAdded func(node *VNode) (Decision, error)

	// NodeAdded is called after a node was inserted.
	NodeAdded func(node *VNode)

	// BeforeElementUpdated is called before an element of the previous tree
	// is updated to match its counterpart in the next tree. Veto leaves the
	// element (and its subtree) untouched; Replace changes the target.
	BeforeElementUpdated func(from, to *VNode) (Decision, error)

	// ElementUpdated is called after an element was updated.
	ElementUpdated func(el *VNode)

	// BeforeElementChildrenUpdated is called before the children of an
	// element are reconciled. Returning false skips them.
	BeforeElementChildrenUpdated func(from, to *VNode) (bool, error)

	// BeforeNodeDiscarded is called before a node of the previous tree is
	// removed. Returning false keeps it.
	BeforeNodeDiscarded func(node *VNode) (bool, error)

	// NodeDiscarded is called after a node was removed.
	NodeDiscarded func(node *VNode)

	// GetNodeKey overrides key extraction for keyed children.
	GetNodeKey func(node *VNode) string

	// ChildrenOnly reconciles the root's children but not the root itself.
	ChildrenOnly bool
}

type verdict uint8

const (
	verdictNone verdict = iota
	verdictKeep
	verdictVeto
	verdictReplace
)

// Decision is the result of the value-threading hooks BeforeNodeAdded and
// BeforeElementUpdated. The zero Decision means the callback produced no
// answer, which is a contract violation.
type Decision struct {
	verdict verdict
	node    *VNode
}

// Keep lets the operation proceed with the node it was offered. In a
// composed chain that is the node an earlier callback chose.
func Keep() Decision { return Decision{verdict: verdictKeep} }

// Veto cancels the pending operation.
func Veto() Decision { return Decision{verdict: verdictVeto} }

// Replace lets the operation proceed with n instead. Replace(nil) is the
// zero Decision.
func Replace(n *VNode) Decision {
	if n == nil {
		return Decision{}
	}
	return Decision{verdict: verdictReplace, node: n}
}

// IsZero reports whether the callback returned no answer.
func (d Decision) IsZero() bool { return d.verdict == verdictNone }

// Vetoed reports whether d cancels the operation.
func (d Decision) Vetoed() bool { return d.verdict == verdictVeto }

// Kept reports whether d passes the offered node through unchanged.
func (d Decision) Kept() bool { return d.verdict == verdictKeep }

// Node returns the replacement node, or nil unless d came from Replace.
func (d Decision) Node() *VNode { return d.node }

// Resolve returns the node the operation should proceed with: the
// replacement when there is one, otherwise offered.
func (d Decision) Resolve(offered *VNode) *VNode {
	if d.verdict == verdictReplace {
		return d.node
	}
	return offered
}

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d.verdict {
	case verdictKeep:
		return "keep"
	case verdictVeto:
		return "veto"
	case verdictReplace:
		return "replace"
	default:
		return "none"
	}
}

// ErrNoDecision reports a value-threading hook that returned the zero
// Decision to the engine.
var ErrNoDecision = errors.New("hook returned no decision")

// HookError is returned by Reconcile when a hook fails.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("vdom: %s: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
