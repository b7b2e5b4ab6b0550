package hooklog

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

func TestLogsEachHook(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	prev := vdom.Div(vdom.Span(), vdom.P())
	vdom.AssignHIDs(prev, vdom.NewHIDGenerator())
	next := vdom.Div(vdom.Span(), vdom.P(), vdom.Button())
	if _, err := vdom.Reconcile(prev, next, New(logger)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"msg=beforeElementUpdated",
		"msg=elementUpdated",
		"msg=beforeNodeAdded",
		"msg=nodeAdded",
		"tag=button",
		"component=hooklog",
		"hid=h1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "msg=beforeElementUpdated"); got != 3 {
		t.Errorf("beforeElementUpdated logged %d times, want 3", got)
	}
}

func TestDisabledAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if h := New(logger); !reflect.DeepEqual(h, vdom.Hooks{}) {
		t.Error("expected no hooks when debug is disabled")
	}
}
