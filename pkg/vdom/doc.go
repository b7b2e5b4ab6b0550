// Package vdom provides the virtual DOM used by vmorph.
//
// VNode is the in-memory representation of a document tree. Props holds
// element attributes. Element factories (Div, Span, Input, ...) and attribute
// helpers (Class, Data, Key, ...) build trees:
//
//	Ul(Class("todos"),
//	    Li(Key("a"), Data("transition-name", "fade"), Text("Write docs")),
//	)
//
// # Reconciliation
//
// Diff compares two trees and returns the Patch operations that turn the
// previous tree into the next one. Keyed reconciliation is used when
// children carry keys.
//
// Reconcile is Diff with lifecycle hooks. The Hooks value may veto, replace
// or observe node additions, element updates and node discards. Package
// morph composes many Hooks values into one.
//
// # Hydration IDs
//
// Patches address elements by HID. AssignHIDs gives every element of a tree
// an HID; Diff carries HIDs over from the previous tree to the next one.
package vdom
