package keymap

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for _, ctx := range []Context{ContextGlobal, ContextApps, ContextActions, ContextTopics, ContextForm, ContextHelp} {
		if len(r.bindings[ctx]) == 0 {
			t.Errorf("no bindings for %s", ctx)
		}
	}
	for _, b := range DefaultBindings() {
		if !b.Command.IsKnown() {
			t.Errorf("default binding %q uses unknown command %q", b.Key, b.Command)
		}
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	tests := []struct {
		name    string
		key     tea.KeyMsg
		context Context
		want    Command
		found   bool
	}{
		{"quit with q in apps", runeKey("q"), ContextApps, CmdQuit, true},
		{"ctrl+c quits anywhere", tea.KeyMsg{Type: tea.KeyCtrlC}, ContextTopics, CmdQuit, true},
		{"enter selects app", tea.KeyMsg{Type: tea.KeyEnter}, ContextApps, CmdSelect, true},
		{"enter chooses action", tea.KeyMsg{Type: tea.KeyEnter}, ContextActions, CmdSelect, true},
		{"enter cycles topic", tea.KeyMsg{Type: tea.KeyEnter}, ContextTopics, CmdCycleDisposition, true},
		{"space cycles topic", tea.KeyMsg{Type: tea.KeySpace}, ContextTopics, CmdCycleDisposition, true},
		{"t next type", runeKey("t"), ContextActions, CmdNextType, true},
		{"t unbound in apps", runeKey("t"), ContextApps, "", false},
		{"j falls back to global", runeKey("j"), ContextActions, CmdCursorDown, true},
		{"form swallows q", runeKey("q"), ContextForm, "", false},
		{"form ignores sequence start", runeKey("g"), ContextForm, "", false},
		{"form esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, ContextForm, CmdFormCancel, true},
		{"form ctrl+s applies", tea.KeyMsg{Type: tea.KeyCtrlS}, ContextForm, CmdFormSubmit, true},
		{"ctrl+s submits from apps", tea.KeyMsg{Type: tea.KeyCtrlS}, ContextApps, CmdSubmit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := r.Lookup(tt.key, tt.context)
			if found != tt.found || got != tt.want {
				t.Errorf("Lookup() = %q, %v; want %q, %v", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestLookupSequence(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	if _, found := r.Lookup(runeKey("g"), ContextApps); found {
		t.Fatal("first key of a sequence should not resolve")
	}
	if r.PendingKey() != "g" {
		t.Errorf("PendingKey() = %q", r.PendingKey())
	}
	cmd, found := r.Lookup(runeKey("g"), ContextApps)
	if !found || cmd != CmdCursorTop {
		t.Errorf("g g = %q, %v", cmd, found)
	}

	// Expired sequence falls through to the single key
	r.Lookup(runeKey("g"), ContextApps)
	now = now.Add(time.Second)
	cmd, found = r.Lookup(runeKey("j"), ContextApps)
	if !found || cmd != CmdCursorDown {
		t.Errorf("after timeout j = %q, %v", cmd, found)
	}
}

func TestUserOverridePrecedence(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	r.SetUserOverride(ContextActions, "x", CmdSubmit)
	r.SetUserOverride(ContextGlobal, "Q", CmdQuit)

	if cmd, _ := r.Lookup(runeKey("x"), ContextActions); cmd != CmdSubmit {
		t.Errorf("context override = %q", cmd)
	}
	if _, found := r.Lookup(runeKey("x"), ContextApps); found {
		t.Error("context override leaked into another context")
	}
	if cmd, _ := r.Lookup(runeKey("Q"), ContextTopics); cmd != CmdQuit {
		t.Errorf("global override = %q", cmd)
	}

	keys := r.KeysFor(ContextActions, CmdSubmit)
	if len(keys) == 0 || keys[0] != "x" {
		t.Errorf("KeysFor = %v", keys)
	}
}

func TestKeyToString(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, "tab"},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "shift+tab"},
		{tea.KeyMsg{Type: tea.KeyCtrlS}, "ctrl+s"},
		{tea.KeyMsg{Type: tea.KeySpace}, "space"},
		{runeKey(" "), "space"},
		{runeKey("G"), "G"},
	}
	for _, tt := range tests {
		if got := KeyToString(tt.key); got != tt.want {
			t.Errorf("KeyToString(%v) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGenerateHelp(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	r.SetUserOverride(ContextActions, "x", CmdSubmit)

	help := r.GenerateHelp()
	for _, want := range []string{"GLOBAL:", "ACTIONS:", "TOPICS:", "Space / Enter", "x*", "Ctrl+s"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}
