package keymap

// DefaultBindings returns the default key bindings for the console.
// Bindings follow vim conventions where applicable.
func DefaultBindings() []Binding {
	return []Binding{
		// Global
		{Key: "q", Command: CmdQuit, Context: ContextGlobal, Description: "Quit"},
		{Key: "ctrl+c", Command: CmdQuit, Context: ContextGlobal, Description: "Quit"},
		{Key: "?", Command: CmdToggleHelp, Context: ContextGlobal, Description: "Toggle help"},
		{Key: "r", Command: CmdRefresh, Context: ContextGlobal, Description: "Reload application list"},
		{Key: "tab", Command: CmdNextPanel, Context: ContextGlobal, Description: "Next panel"},
		{Key: "shift+tab", Command: CmdPrevPanel, Context: ContextGlobal, Description: "Previous panel"},
		{Key: "j", Command: CmdCursorDown, Context: ContextGlobal, Description: "Move down"},
		{Key: "down", Command: CmdCursorDown, Context: ContextGlobal, Description: "Move down"},
		{Key: "k", Command: CmdCursorUp, Context: ContextGlobal, Description: "Move up"},
		{Key: "up", Command: CmdCursorUp, Context: ContextGlobal, Description: "Move up"},
		{Key: "g g", Command: CmdCursorTop, Context: ContextGlobal, Description: "Go to top"},
		{Key: "G", Command: CmdCursorBottom, Context: ContextGlobal, Description: "Go to bottom"},
		{Key: "ctrl+s", Command: CmdSubmit, Context: ContextGlobal, Description: "Submit action"},

		// Application list
		{Key: "enter", Command: CmdSelect, Context: ContextApps, Description: "Select application"},

		// Action panel
		{Key: "enter", Command: CmdSelect, Context: ContextActions, Description: "Choose action"},
		{Key: "t", Command: CmdNextType, Context: ContextActions, Description: "Next transfer type"},
		{Key: "T", Command: CmdPrevType, Context: ContextActions, Description: "Previous transfer type"},
		{Key: "e", Command: CmdEditFields, Context: ContextActions, Description: "Edit destination and source"},
		{Key: "f", Command: CmdFetchTopics, Context: ContextActions, Description: "Fetch topics"},
		{Key: "s", Command: CmdSubmit, Context: ContextActions, Description: "Submit action"},

		// Topic region
		{Key: "space", Command: CmdCycleDisposition, Context: ContextTopics, Description: "Cycle ignore/copy/link"},
		{Key: "enter", Command: CmdCycleDisposition, Context: ContextTopics, Description: "Cycle ignore/copy/link"},
		{Key: "e", Command: CmdEditFields, Context: ContextTopics, Description: "Edit destination and source"},
		{Key: "f", Command: CmdFetchTopics, Context: ContextTopics, Description: "Fetch topics"},
		{Key: "s", Command: CmdSubmit, Context: ContextTopics, Description: "Submit action"},

		// Destination/source form
		{Key: "ctrl+s", Command: CmdFormSubmit, Context: ContextForm, Description: "Apply fields"},
		{Key: "esc", Command: CmdFormCancel, Context: ContextForm, Description: "Discard changes"},

		// Help overlay
		{Key: "esc", Command: CmdClose, Context: ContextHelp, Description: "Close help"},
	}
}

// RegisterDefaults registers all default bindings with the registry
func RegisterDefaults(r *Registry) {
	r.RegisterBindings(DefaultBindings())
}
