package morph

import (
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/vmorph/pkg/vdom"
)

func TestParseHooks(t *testing.T) {
	keep := func(*vdom.VNode) (vdom.Decision, error) { return vdom.Keep(), nil }
	listener := func(*vdom.VNode) {}

	tests := []struct {
		name    string
		in      map[string]any
		want    []Hook
		wantErr error
	}{
		{name: "nil map", in: nil},
		{
			name: "canonical names",
			in:   map[string]any{"beforeNodeAdded": keep, "nodeAdded": listener},
			want: []Hook{HookBeforeNodeAdded, HookNodeAdded},
		},
		{
			name: "morphdom aliases",
			in:   map[string]any{"onBeforeNodeAdded": keep, "onElUpdated": listener},
			want: []Hook{HookBeforeNodeAdded, HookElementUpdated},
		},
		{
			name: "nil values are ignored",
			in:   map[string]any{"nodeAdded": nil},
		},
		{
			name: "reserved names in base",
			in:   map[string]any{"childrenOnly": true, "getNodeKey": func(*vdom.VNode) string { return "" }},
			want: []Hook{HookGetNodeKey, HookChildrenOnly},
		},
		{
			name:    "unknown name",
			in:      map[string]any{"onBeforeMorph": listener},
			wantErr: ErrUnsupportedHook,
		},
		{
			name:    "wrong callback type",
			in:      map[string]any{"nodeAdded": keep},
			wantErr: ErrMalformedConfig,
		},
		{
			name:    "childrenOnly not a bool",
			in:      map[string]any{"childrenOnly": "yes"},
			wantErr: ErrMalformedConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHooks(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) || cfgErr.Plugin != BasePlugin {
					t.Errorf("err = %+v, want a base ConfigurationError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			declared := Declared(got)
			if len(declared) != len(tt.want) {
				t.Fatalf("Declared = %v, want %v", declared, tt.want)
			}
			for i := range declared {
				if declared[i] != tt.want[i] {
					t.Errorf("Declared[%d] = %s, want %s", i, declared[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseHooksMalformedReason(t *testing.T) {
	_, err := ParseHooks(map[string]any{"beforeNodeDiscarded": 3})
	if err == nil || !strings.Contains(err.Error(), "got int") {
		t.Errorf("err = %v, want the supplied type named", err)
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Code() != CodeMalformedConfig {
		t.Errorf("Code() = %s, want %s", cfgErr.Code(), CodeMalformedConfig)
	}
}

func TestComposeMaps(t *testing.T) {
	var calls []string
	rec := func(name string) NodeListener {
		return func(*vdom.VNode) { calls = append(calls, name) }
	}

	got, err := ComposeMaps(
		[]map[string]any{{"onNodeAdded": rec("f")}, {"nodeAdded": rec("g")}},
		map[string]any{"childrenOnly": true},
	)
	if err != nil {
		t.Fatal(err)
	}
	got.NodeAdded(vdom.Div())
	if strings.Join(calls, ",") != "f,g" || !got.ChildrenOnly {
		t.Errorf("calls = %v childrenOnly = %v", calls, got.ChildrenOnly)
	}
}

func TestComposeMapsReservedCheckedFirst(t *testing.T) {
	// The unsupported name in plugin 0 sorts and comes first, but the
	// reserved name in plugin 1 must win.
	_, err := ComposeMaps([]map[string]any{
		{"aaa": 1},
		{"childrenOnly": false},
	}, map[string]any{"bogus": 1})

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrReservedHook) {
		t.Fatalf("err = %v, want ErrReservedHook", err)
	}
	if cfgErr.Plugin != 1 || cfgErr.Hook != HookChildrenOnly {
		t.Errorf("err = %+v, want plugin 1 childrenOnly", cfgErr)
	}
}

func TestComposeMapsMalformedBase(t *testing.T) {
	_, err := ComposeMaps(nil, map[string]any{"getNodeKey": "id"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrMalformedConfig) {
		t.Fatalf("err = %v, want ErrMalformedConfig", err)
	}
	if cfgErr.Plugin != BasePlugin {
		t.Errorf("Plugin = %d, want base", cfgErr.Plugin)
	}
	if !strings.Contains(err.Error(), "base config") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestComposeMapsUnknownNames(t *testing.T) {
	listener := func(*vdom.VNode) {}

	got, err := ComposeMaps(
		[]map[string]any{{"nodeAdded": listener}},
		map[string]any{"onBeforeMorph": listener, "childrenOnly": true},
	)
	if err != nil {
		t.Fatalf("unknown base name: err = %v, want nil", err)
	}
	if !got.ChildrenOnly || got.NodeAdded == nil {
		t.Errorf("composed = %+v, want childrenOnly and nodeAdded", got)
	}

	_, err = ComposeMaps([]map[string]any{{"onBeforeMorph": listener}}, nil)
	var cfgErr *ConfigurationError
	if !errors.Is(err, ErrUnsupportedHook) || !errors.As(err, &cfgErr) || cfgErr.Plugin != 0 {
		t.Errorf("unknown plugin name: err = %v, want unsupported in plugin 0", err)
	}
}

func TestComposeMapsRejectsChildrenOnlyFalse(t *testing.T) {
	_, err := ComposeMaps([]map[string]any{{"childrenOnly": false}}, nil)
	if !errors.Is(err, ErrReservedHook) {
		t.Errorf("err = %v, want ErrReservedHook", err)
	}
}
