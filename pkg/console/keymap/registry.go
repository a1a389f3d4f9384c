package keymap

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const sequenceTimeout = 500 * time.Millisecond

// Context represents a UI context for keybindings
type Context string

const (
	ContextGlobal  Context = "global"
	ContextApps    Context = "apps"    // application list focused
	ContextActions Context = "actions" // action panel focused
	ContextTopics  Context = "topics"  // topic region focused
	ContextForm    Context = "form"    // destination/source form open
	ContextHelp    Context = "help"    // help overlay open
)

// Contexts lists every context that accepts bindings
var Contexts = []Context{ContextGlobal, ContextApps, ContextActions, ContextTopics, ContextForm, ContextHelp}

// Command represents a named command that can be triggered by key bindings
type Command string

const (
	// Global commands
	CmdQuit       Command = "quit"
	CmdToggleHelp Command = "toggle-help"
	CmdRefresh    Command = "refresh"

	// Navigation commands
	CmdNextPanel    Command = "next-panel"
	CmdPrevPanel    Command = "prev-panel"
	CmdCursorDown   Command = "cursor-down"
	CmdCursorUp     Command = "cursor-up"
	CmdCursorTop    Command = "cursor-top"
	CmdCursorBottom Command = "cursor-bottom"
	CmdSelect       Command = "select"
	CmdClose        Command = "close"

	// Workflow commands
	CmdNextType         Command = "next-type"
	CmdPrevType         Command = "prev-type"
	CmdEditFields       Command = "edit-fields"
	CmdFetchTopics      Command = "fetch-topics"
	CmdCycleDisposition Command = "cycle-disposition"
	CmdSubmit           Command = "submit"

	// Form commands
	CmdFormSubmit Command = "form-submit"
	CmdFormCancel Command = "form-cancel"
)

var knownCommands = map[Command]bool{
	CmdQuit: true, CmdToggleHelp: true, CmdRefresh: true,
	CmdNextPanel: true, CmdPrevPanel: true, CmdCursorDown: true, CmdCursorUp: true,
	CmdCursorTop: true, CmdCursorBottom: true, CmdSelect: true, CmdClose: true,
	CmdNextType: true, CmdPrevType: true, CmdEditFields: true, CmdFetchTopics: true,
	CmdCycleDisposition: true, CmdSubmit: true, CmdFormSubmit: true, CmdFormCancel: true,
}

// IsKnown reports whether c names a command the console implements
func (c Command) IsKnown() bool {
	return knownCommands[c]
}

// Binding maps a key or key sequence to a command in a specific context
type Binding struct {
	Key         string  // e.g., "tab", "ctrl+s", "g g"
	Command     Command // Command ID
	Context     Context
	Description string // Human-readable description for help text
}

// Registry manages key bindings and command dispatch
type Registry struct {
	bindings      map[Context][]Binding
	userOverrides map[string]Command // "context:key" -> command
	pendingKey    string
	pendingTime   time.Time
	now           func() time.Time
	mu            sync.RWMutex
}

// NewRegistry creates a new keymap registry
func NewRegistry() *Registry {
	return &Registry{
		bindings:      make(map[Context][]Binding),
		userOverrides: make(map[string]Command),
		now:           time.Now,
	}
}

// RegisterBinding adds a key binding
func (r *Registry) RegisterBinding(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.Context] = append(r.bindings[b.Context], b)
}

// RegisterBindings adds multiple key bindings
func (r *Registry) RegisterBindings(bindings []Binding) {
	for _, b := range bindings {
		r.RegisterBinding(b)
	}
}

// SetUserOverride sets a user-configured key override for a specific context
func (r *Registry) SetUserOverride(context Context, key string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userOverrides[string(context)+":"+key] = cmd
}

// Lookup finds the command for a key in the active context.
// Precedence: user overrides, then context bindings, then global bindings.
func (r *Registry) Lookup(key tea.KeyMsg, activeContext Context) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keyStr := KeyToString(key)

	if r.pendingKey != "" {
		pending := r.pendingKey
		r.pendingKey = ""
		if r.now().Sub(r.pendingTime) < sequenceTimeout {
			if cmd, found := r.findCommand(pending+" "+keyStr, activeContext); found {
				return cmd, true
			}
		}
	}

	if r.isSequenceStart(keyStr, activeContext) {
		r.pendingKey = keyStr
		r.pendingTime = r.now()
		return "", false
	}

	return r.findCommand(keyStr, activeContext)
}

func (r *Registry) findCommand(key string, activeContext Context) (Command, bool) {
	if activeContext != "" && activeContext != ContextGlobal {
		if cmd, ok := r.userOverrides[string(activeContext)+":"+key]; ok {
			return cmd, true
		}
	}
	// The fields form only answers to its own bindings
	if activeContext == ContextForm {
		return r.findInContext(key, ContextForm)
	}
	if cmd, ok := r.userOverrides[string(ContextGlobal)+":"+key]; ok {
		return cmd, true
	}

	if activeContext != "" && activeContext != ContextGlobal {
		if cmd, found := r.findInContext(key, activeContext); found {
			return cmd, true
		}
	}
	return r.findInContext(key, ContextGlobal)
}

func (r *Registry) findInContext(key string, context Context) (Command, bool) {
	for _, b := range r.bindings[context] {
		if b.Key == key {
			return b.Command, true
		}
	}
	return "", false
}

func (r *Registry) isSequenceStart(key string, activeContext Context) bool {
	prefix := key + " "

	contexts := []Context{ContextGlobal}
	if activeContext == ContextForm {
		contexts = []Context{ContextForm}
	} else if activeContext != "" && activeContext != ContextGlobal {
		contexts = append(contexts, activeContext)
	}
	for _, ctx := range contexts {
		for _, b := range r.bindings[ctx] {
			if strings.HasPrefix(b.Key, prefix) {
				return true
			}
		}
	}

	for k := range r.userOverrides {
		ctx, key := parseBinding(k)
		if activeContext == ContextForm && ctx != ContextForm {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// PendingKey returns the first key of an unfinished sequence, for the footer
func (r *Registry) PendingKey() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pendingKey != "" && r.now().Sub(r.pendingTime) < sequenceTimeout {
		return r.pendingKey
	}
	return ""
}

// KeysFor returns the keys bound to cmd in context, user overrides first
func (r *Registry) KeysFor(context Context, cmd Command) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for k, c := range r.userOverrides {
		ctx, key := parseBinding(k)
		if c == cmd && (ctx == context || ctx == ContextGlobal) {
			keys = append(keys, key)
		}
	}
	for _, ctx := range []Context{context, ContextGlobal} {
		for _, b := range r.bindings[ctx] {
			if b.Command == cmd {
				keys = append(keys, b.Key)
			}
		}
		if context == ContextGlobal {
			break
		}
	}
	return keys
}

// KeyToString converts a tea.KeyMsg to a string representation
func KeyToString(key tea.KeyMsg) string {
	switch key.Type {
	case tea.KeyCtrlC:
		return "ctrl+c"
	case tea.KeyCtrlD:
		return "ctrl+d"
	case tea.KeyCtrlF:
		return "ctrl+f"
	case tea.KeyCtrlR:
		return "ctrl+r"
	case tea.KeyCtrlS:
		return "ctrl+s"
	case tea.KeyCtrlU:
		return "ctrl+u"
	case tea.KeyTab:
		return "tab"
	case tea.KeyShiftTab:
		return "shift+tab"
	case tea.KeyEnter:
		return "enter"
	case tea.KeyEsc:
		return "esc"
	case tea.KeySpace:
		return "space"
	case tea.KeyBackspace:
		return "backspace"
	case tea.KeyUp:
		return "up"
	case tea.KeyDown:
		return "down"
	case tea.KeyLeft:
		return "left"
	case tea.KeyRight:
		return "right"
	case tea.KeyHome:
		return "home"
	case tea.KeyEnd:
		return "end"
	case tea.KeyRunes:
		if len(key.Runes) == 1 && key.Runes[0] == ' ' {
			return "space"
		}
		return string(key.Runes)
	default:
		return key.String()
	}
}
