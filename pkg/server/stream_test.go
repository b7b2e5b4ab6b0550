package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vmorph/pkg/protocol"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func mount(t *testing.T, conn *websocket.Conn, tree *protocol.Node) *protocol.Node {
	t.Helper()
	send(t, conn, protocol.Message{Type: protocol.MsgMount, ID: "m", Tree: tree})
	msg := receive(t, conn)
	if msg.Type != protocol.MsgMounted || msg.ID != "m" {
		t.Fatalf("reply = %+v, want mounted", msg)
	}
	return msg.Tree
}

func text(s string) *protocol.Node { return &protocol.Node{Text: s} }

func TestStreamMountAndReconcile(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts)

	tree := mount(t, conn, &protocol.Node{Tag: "p", Children: []*protocol.Node{text("a")}})
	if tree.HID != "h1" {
		t.Errorf("mounted HID = %q, want h1", tree.HID)
	}

	send(t, conn, protocol.Message{
		Type: protocol.MsgReconcile,
		ID:   "1",
		Tree: &protocol.Node{Tag: "p", Children: []*protocol.Node{text("b")}},
	})
	msg := receive(t, conn)
	if msg.Type != protocol.MsgPatches || msg.ID != "1" || msg.Phase != protocol.PhasePass {
		t.Fatalf("reply = %+v, want pass patches for 1", msg)
	}
	if len(msg.Patches) != 1 || msg.Patches[0].Op != "SetText" || msg.Patches[0].Value != "b" {
		t.Errorf("patches = %+v, want SetText b", msg.Patches)
	}
}

func TestStreamReconcileBeforeMount(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts)

	send(t, conn, protocol.Message{Type: protocol.MsgReconcile, ID: "1", Tree: &protocol.Node{Tag: "p"}})
	msg := receive(t, conn)
	if msg.Type != protocol.MsgError || msg.ID != "1" || msg.Error == nil || msg.Error.Code != "M012" {
		t.Errorf("reply = %+v, want M012 error", msg)
	}
}

func TestStreamRejectsMalformedMessages(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts)

	tests := []string{
		`{"type": "shout"}`,
		`{"type": "mount"}`,
		`not json`,
	}
	for _, raw := range tests {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
		msg := receive(t, conn)
		if msg.Type != protocol.MsgError || msg.Error.Code != "M012" {
			t.Errorf("%s: reply = %+v, want M012 error", raw, msg)
		}
	}

	// The stream survives bad input.
	mount(t, conn, &protocol.Node{Tag: "div"})
}

func TestStreamFocusProtectsInput(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts)

	form := func(value string) *protocol.Node {
		return &protocol.Node{Tag: "form", Children: []*protocol.Node{
			{Tag: "input", Attrs: map[string]string{"type": "text", "value": value}},
		}}
	}
	tree := mount(t, conn, form("a"))
	input := tree.Children[0].HID

	send(t, conn, protocol.Message{Type: protocol.MsgFocus, HID: input})
	send(t, conn, protocol.Message{Type: protocol.MsgReconcile, ID: "1", Tree: form("b")})
	if msg := receive(t, conn); len(msg.Patches) != 0 {
		t.Errorf("focused patches = %+v, want none", msg.Patches)
	}

	send(t, conn, protocol.Message{Type: protocol.MsgBlur, HID: input})
	send(t, conn, protocol.Message{Type: protocol.MsgReconcile, ID: "2", Tree: form("b")})
	msg := receive(t, conn)
	if msg.ID != "2" || len(msg.Patches) == 0 {
		t.Errorf("blurred reply = %+v, want the value patched", msg)
	}
}

func TestStreamDeferredTransition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TransitionDelay = time.Millisecond
	_, ts := newTestServer(t, cfg)
	conn := dial(t, ts)

	item := &protocol.Node{Tag: "li", Attrs: map[string]string{
		"data-transition-name":           "fade",
		"data-transition-leave-duration": "20",
	}}
	tree := mount(t, conn, &protocol.Node{Tag: "ul", Children: []*protocol.Node{item}})
	li := tree.Children[0].HID

	send(t, conn, protocol.Message{Type: protocol.MsgReconcile, ID: "1", Tree: &protocol.Node{Tag: "ul"}})
	if msg := receive(t, conn); msg.Phase != protocol.PhasePass || len(msg.Patches) != 0 {
		t.Fatalf("pass = %+v, want no patches", msg)
	}

	var ops []string
	for len(ops) < 3 {
		msg := receive(t, conn)
		if msg.Phase != protocol.PhaseDeferred {
			t.Fatalf("message = %+v, want deferred patches", msg)
		}
		for _, p := range msg.Patches {
			if p.HID != li {
				t.Errorf("patch %+v targets %s, want %s", p, p.HID, li)
			}
			ops = append(ops, p.Op+" "+p.Key)
		}
	}
	want := []string{"AddClass fade-leave", "AddClass fade-leave-active", "RemoveNode "}
	if strings.Join(ops, "|") != strings.Join(want, "|") {
		t.Errorf("deferred = %q, want %q", ops, want)
	}

	// The element has left the model, so the same tree needs nothing.
	send(t, conn, protocol.Message{Type: protocol.MsgReconcile, ID: "2", Tree: &protocol.Node{Tag: "ul"}})
	if msg := receive(t, conn); msg.ID != "2" || len(msg.Patches) != 0 {
		t.Errorf("second pass = %+v, want no patches", msg)
	}
}

func TestStreamOriginRejected(t *testing.T) {
	_, ts := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial() succeeded, want origin rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestShutdownClosesStreams(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dial(t, ts)
	mount(t, conn, &protocol.Node{Tag: "div"})

	if got := s.StreamCount(); got != 1 {
		t.Fatalf("StreamCount() = %d, want 1", got)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadMessage() error = %v, want going away", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.StreamCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := s.StreamCount(); got != 0 {
		t.Errorf("StreamCount() = %d after shutdown, want 0", got)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := late.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("late stream error = %v, want going away", err)
	}
}
