package morph

import "testing"

func TestHookStrategy(t *testing.T) {
	tests := []struct {
		hook Hook
		name string
		want Strategy
	}{
		{HookBeforeNodeAdded, "beforeNodeAdded", StrategyThreadNode},
		{HookBeforeElementUpdated, "beforeElementUpdated", StrategyThreadElement},
		{HookBeforeElementChildrenUpdated, "beforeElementChildrenUpdated", StrategyGate},
		{HookBeforeNodeDiscarded, "beforeNodeDiscarded", StrategyGate},
		{HookNodeDiscarded, "nodeDiscarded", StrategyFanOut},
		{HookNodeAdded, "nodeAdded", StrategyFanOut},
		{HookElementUpdated, "elementUpdated", StrategyFanOut},
		{HookGetNodeKey, "getNodeKey", StrategyNone},
		{HookChildrenOnly, "childrenOnly", StrategyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hook.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.hook.Strategy(); got != tt.want {
				t.Errorf("Strategy() = %s, want %s", got, tt.want)
			}
			if tt.hook.Reserved() != (tt.want == StrategyNone) {
				t.Errorf("Reserved() = %v", tt.hook.Reserved())
			}
			parsed, ok := ParseHook(tt.name)
			if !ok || parsed != tt.hook {
				t.Errorf("ParseHook(%q) = %s, %v", tt.name, parsed, ok)
			}
		})
	}
}

func TestParseHookAliases(t *testing.T) {
	tests := map[string]Hook{
		"onBeforeElUpdated":         HookBeforeElementUpdated,
		"onBeforeElChildrenUpdated": HookBeforeElementChildrenUpdated,
		"onNodeDiscarded":           HookNodeDiscarded,
	}
	for name, want := range tests {
		if got, ok := ParseHook(name); !ok || got != want {
			t.Errorf("ParseHook(%q) = %s, %v; want %s", name, got, ok, want)
		}
	}
	if _, ok := ParseHook("onBeforeMorph"); ok {
		t.Error("unknown names must not parse")
	}
}

func TestCombinableAndReservedPartition(t *testing.T) {
	seen := map[Hook]bool{}
	for _, h := range Combinable {
		if h.Reserved() || h.Strategy() == StrategyNone {
			t.Errorf("%s listed as combinable", h)
		}
		seen[h] = true
	}
	for _, h := range Reserved {
		if !h.Reserved() || seen[h] {
			t.Errorf("%s listed as reserved", h)
		}
	}
	if len(Combinable) != 7 || len(Reserved) != 2 {
		t.Errorf("got %d combinable and %d reserved hooks", len(Combinable), len(Reserved))
	}
}
