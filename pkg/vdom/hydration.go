package vdom

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// HIDGenerator generates unique hydration IDs. Patches address elements
// by HID, so every element that can be the target of a patch needs one.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Reset resets the counter to 0.
func (g *HIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// Observe advances the counter past every "h<N>" HID in the tree, so HIDs
// generated afterwards do not collide with ones a client already holds.
func (g *HIDGenerator) Observe(node *VNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	Walk(node, func(n *VNode) bool {
		if !strings.HasPrefix(n.HID, "h") {
			return true
		}
		if v, err := strconv.ParseUint(n.HID[1:], 10, 32); err == nil && uint32(v) > g.counter {
			g.counter = uint32(v)
		}
		return true
	})
}

// AssignHIDs assigns HIDs to every element in the tree that lacks one.
// Existing HIDs are kept so a tree can be topped up after a pass.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	Walk(node, func(n *VNode) bool {
		if n.Kind == KindElement && n.HID == "" {
			n.HID = gen.Next()
		}
		return true
	})
}

// FindByHID finds a node by its HID in the tree.
func FindByHID(node *VNode, hid string) *VNode {
	var found *VNode
	Walk(node, func(n *VNode) bool {
		if found != nil {
			return false
		}
		if n.HID == hid {
			found = n
			return false
		}
		return true
	})
	return found
}
