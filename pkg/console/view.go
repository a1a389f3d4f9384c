package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/pkg/console/keymap"
)

const (
	minLeftWidth  = 18
	defaultWidth  = 100
	defaultHeight = 30
)

func (m Model) size() (int, int) {
	w, h := m.Width, m.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m Model) leftWidth() int {
	w, _ := m.size()
	lw := w / 3
	if lw < minLeftWidth {
		lw = minLeftWidth
	}
	return lw
}

func (m Model) rightWidth() int {
	w, _ := m.size()
	return w - m.leftWidth()
}

// View implements tea.Model
func (m Model) View() string {
	_, h := m.size()
	bodyHeight := h - 1

	var body string
	if m.HelpOpen {
		body = m.renderHelp(bodyHeight)
	} else {
		left := m.renderApps(bodyHeight)
		right := m.renderPanel(bodyHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

// frame draws a titled panel box of the given outer size
func frame(title string, lines []string, width, height int, active bool) string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}
	content := []string{panelTitleStyle.Render(title)}
	for _, l := range lines {
		for _, part := range strings.Split(l, "\n") {
			content = append(content, ansi.Truncate(part, inner, "…"))
		}
	}
	maxLines := height - 2
	if maxLines > 0 && len(content) > maxLines {
		content = content[:maxLines]
	}

	style := panelStyle
	if active {
		style = activePanelStyle
	}
	return style.Width(width - 2).Height(height - 2).Render(strings.Join(content, "\n"))
}

func (m Model) renderApps(height int) string {
	var managed, unmanaged []string
	for i, app := range m.Apps {
		line := "  " + app.ID
		if !app.Managed() {
			line = "  " + subtleStyle.Render(app.ID)
		}
		if m.ActivePane == PaneApps && i == m.Cursor[PaneApps] {
			line = selectedRowStyle.Render("> " + app.ID)
		} else if app.ID == m.Panel.App {
			line = "• " + titleStyle.Render(app.ID)
		}
		if app.Managed() {
			managed = append(managed, line)
		} else {
			unmanaged = append(unmanaged, line)
		}
	}

	var lines []string
	if len(m.Apps) == 0 {
		lines = append(lines, subtleStyle.Render("No applications"))
	}
	lines = append(lines, managed...)
	if len(unmanaged) > 0 {
		lines = append(lines, sectionHeader.Render("Unmanaged"))
		lines = append(lines, unmanaged...)
	}
	return frame("Applications", lines, m.leftWidth(), height, m.ActivePane == PaneApps)
}

func (m Model) renderPanel(height int) string {
	width := m.rightWidth()
	p := m.Panel

	if m.Fields != nil {
		return frame("Edit fields", []string{m.Fields.Form.View()}, width, height, true)
	}

	var lines []string
	title := "Actions"
	if p.App == "" {
		lines = append(lines, subtleStyle.Render("Select a managed application"))
	} else {
		title = "Actions: " + p.App
		if desc, err := m.markdown.Render(p.Description, width-4); err == nil && desc != "" {
			lines = append(lines, desc)
		} else if p.Description != "" {
			lines = append(lines, p.Description)
		}

		lines = append(lines, sectionHeader.Render("Action"))
		for i, a := range p.Actions {
			lines = append(lines, m.actionLine(i, a.Name, a.Selectable, a.Selected, a.Toggle))
		}
		lines = append(lines, m.formLines()...)
	}

	if len(p.Output) > 0 {
		lines = append(lines, sectionHeader.Render("Output"))
		for _, msg := range p.Output {
			lines = append(lines, formatOutput(msg))
		}
	}

	return frame(title, lines, width, height, m.ActivePane != PaneApps)
}

func (m Model) actionLine(i int, name string, selectable, selected, toggle bool) string {
	label := name
	if !selectable {
		label = disabledStyle.Render(name)
	} else if toggle {
		label = name + subtleStyle.Render(" (no options)")
	}
	line := radio(selected) + " " + label
	if m.ActivePane == PaneActions && i == m.Cursor[PaneActions] {
		return selectedRowStyle.Render(">") + " " + line
	}
	return "  " + line
}

// formLines renders the fields of the chosen action
func (m Model) formLines() []string {
	fs := m.Panel.Form
	if fs == nil || fs.Form == nil {
		return nil
	}
	var lines []string

	if len(fs.Form.Types) > 0 {
		lines = append(lines, sectionHeader.Render("Transfer type"))
		var opts []string
		for _, t := range fs.Form.Types {
			opts = append(opts, radio(t == fs.Type)+" "+string(t))
		}
		lines = append(lines, "  "+strings.Join(opts, "  "))
	}

	if fs.Form.HasDestination {
		lines = append(lines, "", fieldLine("Destination", fs.Destination))
	}

	if fs.PartialLink() {
		lines = append(lines, fieldLine("Source", fs.Source))
		lines = append(lines, sectionHeader.Render("Topics"))
		if len(fs.Topics) == 0 {
			lines = append(lines, subtleStyle.Render("  enter a source and fetch its topics"))
		}
		for i, t := range fs.Topics {
			line := output.FormatDisposition(t.Disposition) + " " + t.ID
			if m.ActivePane == PaneTopics && i == m.Cursor[PaneTopics] {
				lines = append(lines, selectedRowStyle.Render(">")+" "+line)
			} else {
				lines = append(lines, "  "+line)
			}
		}
	}
	return lines
}

func fieldLine(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = subtleStyle.Render("<empty>")
	} else {
		value = fieldStyle.Render(value)
	}
	return fmt.Sprintf("  %-12s %s", label+":", value)
}

func formatOutput(msg models.Message) string {
	line := output.FormatMessage(msg)
	if !msg.At.IsZero() {
		line += subtleStyle.Render(" · " + output.FormatTimeAgo(msg.At))
	}
	return line
}

func (m Model) renderHelp(height int) string {
	w, _ := m.size()
	lines := strings.Split(strings.TrimRight(m.Keymap.GenerateHelp(), "\n"), "\n")
	return frame("Help", lines, w, height, true)
}

func (m Model) renderFooter() string {
	if m.Busy {
		return m.Spinner.View() + " " + helpStyle.Render("Working...")
	}
	if m.StatusMessage != "" {
		if m.StatusIsError {
			return errorStyle.Render(m.StatusMessage)
		}
		return successStyle.Render(m.StatusMessage)
	}
	if pending := m.Keymap.PendingKey(); pending != "" {
		return helpStyle.Render(pending + " …")
	}

	ctx := m.currentContext()
	var hints []string
	for _, h := range footerHints[ctx] {
		if keys := m.Keymap.KeysFor(ctx, h.cmd); len(keys) > 0 {
			hints = append(hints, keys[0]+" "+h.label)
		}
	}
	return helpStyle.Render(strings.Join(hints, "  "))
}

type footerHint struct {
	cmd   keymap.Command
	label string
}

var footerHints = map[keymap.Context][]footerHint{
	keymap.ContextApps: {
		{keymap.CmdSelect, "select"}, {keymap.CmdNextPanel, "panel"}, {keymap.CmdRefresh, "reload"},
		{keymap.CmdToggleHelp, "help"}, {keymap.CmdQuit, "quit"},
	},
	keymap.ContextActions: {
		{keymap.CmdSelect, "choose"}, {keymap.CmdNextType, "type"}, {keymap.CmdEditFields, "edit"},
		{keymap.CmdFetchTopics, "topics"}, {keymap.CmdSubmit, "submit"}, {keymap.CmdToggleHelp, "help"},
	},
	keymap.ContextTopics: {
		{keymap.CmdCycleDisposition, "cycle"}, {keymap.CmdFetchTopics, "refetch"},
		{keymap.CmdSubmit, "submit"}, {keymap.CmdNextPanel, "panel"},
	},
	keymap.ContextForm: {
		{keymap.CmdFormSubmit, "apply"}, {keymap.CmdFormCancel, "cancel"},
	},
	keymap.ContextHelp: {
		{keymap.CmdClose, "close"}, {keymap.CmdQuit, "quit"},
	},
}
