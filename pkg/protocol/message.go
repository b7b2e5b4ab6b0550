package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates stream messages.
type MessageType string

// Client to server.
const (
	// MsgMount sets the tree the client currently shows. The server assigns
	// HIDs and answers with MsgMounted.
	MsgMount MessageType = "mount"

	// MsgReconcile carries the next tree. The server answers with
	// MsgPatches (phase "pass") and later sends deferred patches.
	MsgReconcile MessageType = "reconcile"

	// MsgFocus and MsgBlur report focus changes.
	MsgFocus MessageType = "focus"
	MsgBlur  MessageType = "blur"
)

// Server to client.
const (
	MsgMounted MessageType = "mounted"
	MsgPatches MessageType = "patches"
	MsgError   MessageType = "error"
)

// Patch phases.
const (
	PhasePass     = "pass"
	PhaseDeferred = "deferred"
)

// Message is one stream frame. Which fields are set depends on Type.
type Message struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"`
	Tree    *Node       `json:"tree,omitempty"`
	HID     string      `json:"hid,omitempty"`
	Phase   string      `json:"phase,omitempty"`
	Patches []Patch     `json:"patches,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// DecodeMessage parses a client frame and checks that the fields its type
// requires are present.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("protocol: decode message: %w", err)
	}
	switch m.Type {
	case MsgMount, MsgReconcile:
		if m.Tree == nil {
			return nil, fmt.Errorf("protocol: %s message without tree", m.Type)
		}
	case MsgFocus:
		if m.HID == "" {
			return nil, fmt.Errorf("protocol: focus message without hid")
		}
	case MsgBlur:
	default:
		return nil, fmt.Errorf("protocol: unknown message type %q", m.Type)
	}
	return &m, nil
}
