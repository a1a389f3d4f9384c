package keymap

import (
	"fmt"
	"strings"
)

var helpSections = []struct {
	title   string
	context Context
}{
	{"GLOBAL", ContextGlobal},
	{"APPLICATIONS", ContextApps},
	{"ACTIONS", ContextActions},
	{"TOPICS", ContextTopics},
	{"FIELDS FORM", ContextForm},
}

// GenerateHelp renders the bindings of every context, merging keys that
// trigger the same command.
func (r *Registry) GenerateHelp() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("APPMAN CONSOLE - Key Bindings\n")

	for _, sec := range helpSections {
		var order []Command
		keys := map[Command][]string{}
		desc := map[Command]string{}
		for _, b := range r.bindings[sec.context] {
			if _, seen := keys[b.Command]; !seen {
				order = append(order, b.Command)
				desc[b.Command] = b.Description
			}
			keys[b.Command] = append(keys[b.Command], formatKey(b.Key))
		}
		for k, cmd := range r.userOverrides {
			ctx, key := parseBinding(k)
			if ctx != sec.context {
				continue
			}
			if _, seen := keys[cmd]; !seen {
				order = append(order, cmd)
				desc[cmd] = string(cmd)
			}
			keys[cmd] = append(keys[cmd], formatKey(key)+"*")
		}
		if len(order) == 0 {
			continue
		}

		sb.WriteString("\n" + sec.title + ":\n")
		for _, cmd := range order {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", strings.Join(keys[cmd], " / "), desc[cmd]))
		}
	}
	return sb.String()
}

// formatKey makes a binding key readable in help text
func formatKey(key string) string {
	switch key {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "enter":
		return "Enter"
	case "esc":
		return "Esc"
	case "space":
		return "Space"
	case "tab":
		return "Tab"
	case "shift+tab":
		return "Shift+Tab"
	}
	if strings.HasPrefix(key, "ctrl+") {
		return "Ctrl+" + strings.TrimPrefix(key, "ctrl+")
	}
	return key
}
