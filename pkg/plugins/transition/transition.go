// Package transition animates elements entering and leaving the tree with
// CSS classes, in the manner of a CSS transition group.
//
// An element opts in with data-transition-name. With name "fade":
//
//   - Enter: the inserted element carries fade-enter. After the enter delay
//     fade-enter-active is added, and after the enter duration both are
//     removed.
//   - Leave: removal is vetoed and fade-leave is added. After the leave delay
//     fade-leave-active is added, and after the leave duration the element
//     is removed.
//   - An update that matches a leaving element cancels the leave. The
//     element keeps fade-leave for the time the leave had left, so the
//     animation runs backwards.
//
// Durations and delays are integer milliseconds. Durations are required and
// delays default to 65ms. data-transition-enter="false" or
// data-transition-leave="false" turns one direction off.
//
// Class changes made after the pass are sent to a Sink as AddClass,
// RemoveClass and RemoveNode patches, and are applied to the nodes of the
// current tree so later passes see what the client sees.
package transition

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

// Attributes read by the plugin.
const (
	NameAttr          = "data-transition-name"
	EnterAttr         = "data-transition-enter"
	LeaveAttr         = "data-transition-leave"
	EnterDelayAttr    = "data-transition-enter-delay"
	EnterDurationAttr = "data-transition-enter-duration"
	LeaveDelayAttr    = "data-transition-leave-delay"
	LeaveDurationAttr = "data-transition-leave-duration"
)

// DefaultDelay is used when an element sets no delay.
const DefaultDelay = 65 * time.Millisecond

// CodeInvalidTiming is the error code of AttrError.
const CodeInvalidTiming = "M031"

// AttrError reports a timing attribute that is not an integer.
type AttrError struct {
	Attr  string
	Value string
}

func (e *AttrError) Error() string {
	return fmt.Sprintf("transition: %s must be an integer, got %q", e.Attr, e.Value)
}

// Code returns the error code.
func (e *AttrError) Code() string { return CodeInvalidTiming }

// Sink receives patches produced after the pass that caused them.
type Sink interface {
	Send(patches ...vdom.Patch)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(patches ...vdom.Patch)

// Send implements Sink.
func (f SinkFunc) Send(patches ...vdom.Patch) { f(patches...) }

// Option configures a Group.
type Option func(*Group)

// WithScheduler sets the scheduler. The default is a VirtualClock started
// at the current time, which only moves when driven.
func WithScheduler(s Scheduler) Option {
	return func(g *Group) { g.sched = s }
}

// WithDefaultDelay sets the delay used when an element sets none.
func WithDefaultDelay(d time.Duration) Option {
	return func(g *Group) {
		if d >= 0 {
			g.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Group) { g.logger = l }
}

// Group tracks the transitions of one tree.
type Group struct {
	sink   Sink
	sched  Scheduler
	delay  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	entering  map[*vdom.VNode]*step
	leaving   map[*vdom.VNode]*step
	reverting map[*vdom.VNode]*step
}

// step is one element's transition in flight. node follows the element
// from tree to tree.
type step struct {
	name  string
	node  *vdom.VNode
	timer Timer
	start time.Time
	total time.Duration
}

// NewGroup returns a Group sending deferred patches to sink. A nil sink
// drops them.
func NewGroup(sink Sink, opts ...Option) *Group {
	g := &Group{
		sink:      sink,
		delay:     DefaultDelay,
		entering:  make(map[*vdom.VNode]*step),
		leaving:   make(map[*vdom.VNode]*step),
		reverting: make(map[*vdom.VNode]*step),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sink == nil {
		g.sink = SinkFunc(func(...vdom.Patch) {})
	}
	if g.sched == nil {
		g.sched = NewVirtualClock(time.Now())
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// New returns the plugin hooks of a new Group.
func New(sink Sink, opts ...Option) vdom.Hooks {
	return NewGroup(sink, opts...).Hooks()
}

// Hooks returns the plugin hooks.
func (g *Group) Hooks() vdom.Hooks {
	return vdom.Hooks{
		BeforeNodeAdded: func(node *vdom.VNode) (vdom.Decision, error) {
			if err := g.enter(node); err != nil {
				return vdom.Decision{}, err
			}
			return vdom.Keep(), nil
		},
		BeforeNodeDiscarded: g.leave,
		BeforeElementUpdated: func(from, to *vdom.VNode) (vdom.Decision, error) {
			g.update(from, to)
			return vdom.Keep(), nil
		},
	}
}

// Pending returns the number of transitions in flight.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entering) + len(g.leaving) + len(g.reverting)
}

// Leaving reports whether node is waiting to be removed.
func (g *Group) Leaving(node *vdom.VNode) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.leaving[node]
	return ok
}

// Stop cancels every transition in flight. Nothing more is sent.
func (g *Group) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range []map[*vdom.VNode]*step{g.entering, g.leaving, g.reverting} {
		for node, st := range m {
			if st.timer != nil {
				st.timer.Stop()
			}
			delete(m, node)
		}
	}
}

func (g *Group) enter(node *vdom.VNode) error {
	name, ok := transitionName(node)
	if !ok || disabled(node, EnterAttr) {
		return nil
	}
	delay, err := millis(node, EnterDelayAttr, g.delay)
	if err != nil {
		return err
	}
	duration, err := millis(node, EnterDurationAttr, -1)
	if err != nil {
		return err
	}

	enter, active := name+"-enter", name+"-enter-active"
	node.ToggleClass(enter, true)

	st := &step{name: name, node: node}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entering[node] = st
	st.timer = g.sched.AfterFunc(delay, func() {
		g.mu.Lock()
		if g.entering[st.node] != st {
			g.mu.Unlock()
			return
		}
		n := st.node
		n.ToggleClass(active, true)
		st.timer = g.sched.AfterFunc(duration, func() {
			g.mu.Lock()
			if g.entering[st.node] != st {
				g.mu.Unlock()
				return
			}
			n := st.node
			delete(g.entering, n)
			n.ToggleClass(enter, false)
			n.ToggleClass(active, false)
			g.mu.Unlock()
			g.sink.Send(vdom.RemoveClassPatch(n.HID, enter), vdom.RemoveClassPatch(n.HID, active))
		})
		g.mu.Unlock()
		g.sink.Send(vdom.AddClassPatch(n.HID, active))
	})
	return nil
}

func (g *Group) leave(node *vdom.VNode) (bool, error) {
	name, ok := transitionName(node)
	if !ok || disabled(node, LeaveAttr) {
		return true, nil
	}
	delay, err := millis(node, LeaveDelayAttr, g.delay)
	if err != nil {
		return false, err
	}
	duration, err := millis(node, LeaveDurationAttr, -1)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	if _, ok := g.leaving[node]; ok {
		g.mu.Unlock()
		return false, nil
	}
	leave, active := name+"-leave", name+"-leave-active"
	node.ToggleClass(leave, true)

	st := &step{name: name, node: node, start: g.sched.Now(), total: delay + duration}
	g.leaving[node] = st
	st.timer = g.sched.AfterFunc(delay, func() {
		g.mu.Lock()
		if g.leaving[st.node] != st {
			g.mu.Unlock()
			return
		}
		n := st.node
		n.ToggleClass(active, true)
		st.timer = g.sched.AfterFunc(duration, func() {
			g.mu.Lock()
			if g.leaving[st.node] != st {
				g.mu.Unlock()
				return
			}
			delete(g.leaving, st.node)
			hid := st.node.HID
			g.mu.Unlock()
			g.logger.Debug("transition left", "name", st.name, "hid", hid)
			g.sink.Send(vdom.RemoveNodePatch(hid))
		})
		g.mu.Unlock()
		g.sink.Send(vdom.AddClassPatch(n.HID, active))
	})
	g.mu.Unlock()

	g.sink.Send(vdom.AddClassPatch(node.HID, leave))
	return false, nil
}

func (g *Group) update(from, to *vdom.VNode) {
	name, ok := transitionName(from)
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, m := range []map[*vdom.VNode]*step{g.entering, g.reverting} {
		if st, ok := m[from]; ok {
			delete(m, from)
			st.node = to
			m[to] = st
		}
	}
	persistClasses(name, from, to)

	st, ok := g.leaving[from]
	if !ok {
		return
	}
	delete(g.leaving, from)
	st.timer.Stop()

	leave := name + "-leave"
	to.ToggleClass(leave, true)
	to.ToggleClass(name+"-leave-active", false)

	remaining := st.total - g.sched.Now().Sub(st.start)
	if remaining < 0 {
		remaining = 0
	}
	rev := &step{name: name, node: to}
	g.reverting[to] = rev
	rev.timer = g.sched.AfterFunc(remaining, func() {
		g.mu.Lock()
		if g.reverting[rev.node] != rev {
			g.mu.Unlock()
			return
		}
		n := rev.node
		delete(g.reverting, n)
		n.ToggleClass(leave, false)
		g.mu.Unlock()
		g.sink.Send(vdom.RemoveClassPatch(n.HID, leave))
	})
}

// persistClasses copies the transition classes of from onto to, so a pass
// does not undo what deferred steps applied.
func persistClasses(name string, from, to *vdom.VNode) {
	for _, suffix := range []string{"-enter", "-enter-active", "-leave", "-leave-active"} {
		class := name + suffix
		to.ToggleClass(class, from.HasClass(class))
	}
}

func transitionName(n *vdom.VNode) (string, bool) {
	if !n.IsElement() {
		return "", false
	}
	name, ok := n.Attribute(NameAttr)
	name = strings.TrimSpace(name)
	return name, ok && name != ""
}

func disabled(n *vdom.VNode, attr string) bool {
	v, ok := n.Attribute(attr)
	return ok && v == "false"
}

// millis reads an integer millisecond attribute. A missing attribute yields
// def, or an error when def is negative.
func millis(n *vdom.VNode, attr string, def time.Duration) (time.Duration, error) {
	raw, ok := n.Attribute(attr)
	if !ok && def >= 0 {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &AttrError{Attr: attr, Value: raw}
	}
	return time.Duration(v) * time.Millisecond, nil
}
