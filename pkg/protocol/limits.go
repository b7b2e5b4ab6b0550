package protocol

import "errors"

// Limits applied when decoding trees sent by clients.
const (
	// MaxNodeDepth limits the nesting depth of a tree.
	MaxNodeDepth = 256

	// MaxNodes limits the number of nodes in one tree.
	MaxNodes = 100_000
)

// ErrMaxDepthExceeded is returned for a tree nested deeper than MaxNodeDepth.
var ErrMaxDepthExceeded = errors.New("protocol: maximum tree depth exceeded")

// ErrTooManyNodes is returned for a tree with more than MaxNodes nodes.
var ErrTooManyNodes = errors.New("protocol: too many nodes")

// limiter counts nodes and depth while a tree is converted.
type limiter struct {
	depth int
	nodes int
}

func (l *limiter) enter() error {
	if l.depth >= MaxNodeDepth {
		return ErrMaxDepthExceeded
	}
	l.nodes++
	if l.nodes > MaxNodes {
		return ErrTooManyNodes
	}
	l.depth++
	return nil
}

func (l *limiter) leave() {
	l.depth--
}
