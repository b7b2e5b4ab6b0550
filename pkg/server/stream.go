package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/vmorph/internal/errors"
	"github.com/vango-dev/vmorph/pkg/plugins"
	"github.com/vango-dev/vmorph/pkg/plugins/inputpersist"
	"github.com/vango-dev/vmorph/pkg/plugins/transition"
	"github.com/vango-dev/vmorph/pkg/protocol"
	"github.com/vango-dev/vmorph/pkg/vdom"
)

// stream is one WebSocket client. The run loop owns the tree, the
// transition group and every write; the read loop only decodes.
type stream struct {
	server *Server
	conn   *websocket.Conn
	logger *slog.Logger

	inbox chan inbound
	steps chan func()
	done  chan struct{}
	once  sync.Once

	focus *inputpersist.FocusTracker
	hooks vdom.Hooks
	group *transition.Group

	// Owned by the run loop.
	gen     *vdom.HIDGenerator
	tree    *vdom.VNode
	pending []vdom.Patch
}

type inbound struct {
	msg *protocol.Message
	err error
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", errors.New("M081").Wrap(err))
		return
	}

	st := &stream{
		server: s,
		conn:   conn,
		logger: s.logger.With("stream", middleware.GetReqID(r.Context()), "remote", r.RemoteAddr),
		inbox:  make(chan inbound, s.config.MaxInbox),
		steps:  make(chan func(), s.config.MaxInbox),
		done:   make(chan struct{}),
		focus:  &inputpersist.FocusTracker{},
	}
	hooks, err := s.compose(context.Background(), nil, nil, plugins.Deps{
		Focus:             st.focus,
		Sink:              transition.SinkFunc(st.send),
		Scheduler:         transition.NewLoopScheduler(st.post),
		OnTransitionGroup: func(g *transition.Group) { st.group = g },
	})
	if err != nil {
		st.logger.Error("stream plugins", "error", err)
		st.write(&protocol.Message{Type: protocol.MsgError, Error: protocol.NewError(err, "M020")})
		conn.Close()
		return
	}
	st.hooks = hooks

	if !s.addStream(st) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	if s.metrics != nil {
		s.metrics.StreamOpened()
	}
	st.logger.Debug("stream opened")

	go st.readLoop()
	st.run()
}

// readLoop decodes messages into the inbox until the connection fails.
func (st *stream) readLoop() {
	defer st.close()

	cfg := st.server.config
	st.conn.SetReadLimit(cfg.MaxMessageSize)
	st.conn.SetReadDeadline(time.Now().Add(cfg.StreamReadTimeout))
	st.conn.SetPongHandler(func(string) error {
		return st.conn.SetReadDeadline(time.Now().Add(cfg.StreamReadTimeout))
	})

	for {
		_, data, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				st.logger.Error("read error", "error", err)
			}
			return
		}
		st.conn.SetReadDeadline(time.Now().Add(cfg.StreamReadTimeout))

		msg, err := protocol.DecodeMessage(data)
		select {
		case st.inbox <- inbound{msg: msg, err: err}:
		case <-st.done:
			return
		}
	}
}

// run handles messages, deferred steps and heartbeats until the stream
// closes.
func (st *stream) run() {
	ticker := time.NewTicker(st.server.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		st.close()
		if st.group != nil {
			st.group.Stop()
		}
		st.conn.Close()
		st.server.removeStream(st)
		if st.server.metrics != nil {
			st.server.metrics.StreamClosed()
		}
		st.logger.Debug("stream closed")
	}()

	for {
		select {
		case in := <-st.inbox:
			if !st.safely(func() { st.handle(in) }) {
				return
			}

		case f := <-st.steps:
			if !st.safely(func() {
				f()
				st.flush()
			}) {
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(st.server.config.StreamWriteTimeout)
			if err := st.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

		case <-st.done:
			return
		}
	}
}

// safely runs fn and reports false if it panicked.
func (st *stream) safely(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			st.logger.Error("stream panic", "panic", r, "stack", string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}

func (st *stream) handle(in inbound) {
	if in.err != nil {
		st.fail("", errors.New("M012").Wrap(in.err))
		return
	}
	msg := in.msg
	switch msg.Type {
	case protocol.MsgMount:
		st.mount(msg)
	case protocol.MsgReconcile:
		st.reconcile(msg)
	case protocol.MsgFocus:
		st.focus.Focus(msg.HID)
	case protocol.MsgBlur:
		st.focus.Blur(msg.HID)
	}
}

// mount replaces the tree. Transitions of the previous tree are dropped.
func (st *stream) mount(msg *protocol.Message) {
	tree, err := msg.Tree.ToVNode()
	if err != nil {
		st.fail(msg.ID, errors.New("M011").Wrap(err))
		return
	}
	if st.group != nil {
		st.group.Stop()
	}
	st.pending = nil

	st.gen = vdom.NewHIDGenerator()
	st.gen.Observe(tree)
	vdom.AssignHIDs(tree, st.gen)
	st.tree = tree
	st.write(&protocol.Message{Type: protocol.MsgMounted, ID: msg.ID, Tree: protocol.FromVNode(tree)})
}

func (st *stream) reconcile(msg *protocol.Message) {
	if st.tree == nil {
		st.fail(msg.ID, errors.New("M012").WithDetail("reconcile received before mount."))
		return
	}
	next, err := msg.Tree.ToVNode()
	if err != nil {
		st.fail(msg.ID, errors.New("M011").Wrap(err))
		return
	}

	start := time.Now()
	patches, err := vdom.Reconcile(st.tree, next, st.hooks)
	if m := st.server.metrics; m != nil {
		m.ObservePass(time.Since(start), patches, err)
	}
	if err != nil {
		st.pending = nil
		st.fail(msg.ID, err)
		return
	}
	vdom.AssignHIDs(next, st.gen)
	st.tree = next

	st.write(&protocol.Message{
		Type:    protocol.MsgPatches,
		ID:      msg.ID,
		Phase:   protocol.PhasePass,
		Patches: protocol.FromPatches(patches),
	})
	st.flush()
}

// send is the transition sink. It runs on the run loop, during a pass or
// a step.
func (st *stream) send(patches ...vdom.Patch) {
	st.pending = append(st.pending, patches...)
}

// flush sends the deferred patches gathered so far. Removed nodes leave
// the tree here, since a vetoed discard kept them in it.
func (st *stream) flush() {
	if len(st.pending) == 0 {
		return
	}
	patches := st.pending
	st.pending = nil
	for _, p := range patches {
		if p.Op == vdom.PatchRemoveNode && st.tree != nil {
			vdom.Detach(st.tree, p.HID)
		}
	}
	if m := st.server.metrics; m != nil {
		m.ObserveDeferred(patches)
	}
	st.write(&protocol.Message{
		Type:    protocol.MsgPatches,
		Phase:   protocol.PhaseDeferred,
		Patches: protocol.FromPatches(patches),
	})
}

// post hands a due step to the run loop.
func (st *stream) post(f func()) {
	select {
	case st.steps <- f:
	case <-st.done:
	}
}

func (st *stream) fail(id string, err error) {
	st.logger.Debug("stream error", "error", err)
	st.write(&protocol.Message{Type: protocol.MsgError, ID: id, Error: protocol.NewError(err, "M020")})
}

func (st *stream) write(msg *protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		st.logger.Error("encode message", "error", err)
		return
	}
	st.conn.SetWriteDeadline(time.Now().Add(st.server.config.StreamWriteTimeout))
	if err := st.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		st.logger.Debug("write error", "error", err)
		st.close()
	}
}

func (st *stream) close() {
	st.once.Do(func() { close(st.done) })
}

// shutdown tells the client the server is going away and stops the stream.
func (st *stream) shutdown() {
	st.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	st.close()
}
