package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/pkg/console/keymap"
)

// currentContext returns the keymap context for the focused region
func (m Model) currentContext() keymap.Context {
	switch {
	case m.Fields != nil:
		return keymap.ContextForm
	case m.HelpOpen:
		return keymap.ContextHelp
	}
	switch m.ActivePane {
	case PaneActions:
		return keymap.ContextActions
	case PaneTopics:
		return keymap.ContextTopics
	default:
		return keymap.ContextApps
	}
}

// handleKey processes key input using the keymap registry
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, found := m.Keymap.Lookup(msg, m.currentContext())
	if !found {
		return m, nil
	}
	return m.executeCommand(cmd)
}

// executeCommand runs a keymap command
func (m Model) executeCommand(cmd keymap.Command) (tea.Model, tea.Cmd) {
	if m.HelpOpen && cmd != keymap.CmdQuit && cmd != keymap.CmdToggleHelp && cmd != keymap.CmdClose {
		return m, nil
	}

	switch cmd {
	case keymap.CmdQuit:
		return m, tea.Quit

	case keymap.CmdToggleHelp:
		m.HelpOpen = !m.HelpOpen
		return m, nil

	case keymap.CmdClose:
		m.HelpOpen = false
		return m, nil

	case keymap.CmdRefresh:
		return m, m.loadApps()

	case keymap.CmdNextPanel, keymap.CmdPrevPanel:
		m.cyclePane(cmd == keymap.CmdNextPanel)
		return m, nil

	case keymap.CmdCursorDown:
		m.moveCursor(1)
		return m, nil
	case keymap.CmdCursorUp:
		m.moveCursor(-1)
		return m, nil
	case keymap.CmdCursorTop:
		m.Cursor[m.ActivePane] = 0
		return m, nil
	case keymap.CmdCursorBottom:
		m.Cursor[m.ActivePane] = m.paneLen(m.ActivePane) - 1
		m.clampCursor(m.ActivePane, m.paneLen(m.ActivePane))
		return m, nil

	case keymap.CmdSelect:
		return m.selectCurrent()

	case keymap.CmdNextType, keymap.CmdPrevType:
		return m.stepType(cmd == keymap.CmdNextType)

	case keymap.CmdEditFields:
		return m.openFields()

	case keymap.CmdFetchTopics:
		return m, m.run("topics", m.ctrl.FetchTopics)

	case keymap.CmdCycleDisposition:
		if m.ActivePane != PaneTopics {
			return m, nil
		}
		m.apply(m.ctrl.CycleDisposition(m.Cursor[PaneTopics]))
		return m, nil

	case keymap.CmdSubmit:
		return m, m.run("submit", m.ctrl.Submit)

	case keymap.CmdFormSubmit:
		return m.applyFields()

	case keymap.CmdFormCancel:
		m.Fields = nil
		return m, nil
	}
	return m, nil
}

// run executes a blocking controller call off the update loop
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return panelMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) loadApps() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return appsLoadedMsg{err: ctrl.LoadApplications(ctx)}
	}
}

// apply refreshes the panel after a synchronous controller call
func (m *Model) apply(err error) {
	m.refresh()
	if err != nil {
		m.noteError("panel", err)
	} else {
		m.StatusMessage = ""
	}
}

func (m Model) paneLen(p Pane) int {
	switch p {
	case PaneApps:
		return len(m.Apps)
	case PaneActions:
		return len(m.Panel.Actions)
	case PaneTopics:
		if m.Panel.Form != nil {
			return len(m.Panel.Form.Topics)
		}
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	m.Cursor[m.ActivePane] += delta
	m.clampCursor(m.ActivePane, m.paneLen(m.ActivePane))
}

// cyclePane moves focus between panes that currently have content
func (m *Model) cyclePane(forward bool) {
	panes := []Pane{PaneApps}
	if m.Panel.App != "" {
		panes = append(panes, PaneActions)
	}
	if m.paneLen(PaneTopics) > 0 {
		panes = append(panes, PaneTopics)
	}
	idx := 0
	for i, p := range panes {
		if p == m.ActivePane {
			idx = i
		}
	}
	if forward {
		idx = (idx + 1) % len(panes)
	} else {
		idx = (idx - 1 + len(panes)) % len(panes)
	}
	m.ActivePane = panes[idx]
}

// selectCurrent acts on the row under the cursor
func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	switch m.ActivePane {
	case PaneApps:
		if len(m.Apps) == 0 {
			return m, nil
		}
		app := m.Apps[m.Cursor[PaneApps]]
		if !app.Managed() {
			return m, nil
		}
		return m, m.run("select", func(ctx context.Context) error {
			return m.ctrl.SelectApp(ctx, app.ID)
		})

	case PaneActions:
		if len(m.Panel.Actions) == 0 {
			return m, nil
		}
		choice := m.Panel.Actions[m.Cursor[PaneActions]]
		m.apply(m.ctrl.ChooseAction(choice.Name))
		return m, nil
	}
	return m, nil
}

// stepType selects the next or previous offered transfer type
func (m Model) stepType(forward bool) (tea.Model, tea.Cmd) {
	fs := m.Panel.Form
	if fs == nil || fs.Form == nil || len(fs.Form.Types) == 0 {
		return m, nil
	}
	types := fs.Form.Types
	idx := 0
	for i, t := range types {
		if t == fs.Type {
			idx = i
		}
	}
	if forward {
		idx = (idx + 1) % len(types)
	} else {
		idx = (idx - 1 + len(types)) % len(types)
	}
	m.apply(m.ctrl.ChooseType(types[idx]))
	return m, nil
}

// openFields opens the destination/source form for the current action
func (m Model) openFields() (tea.Model, tea.Cmd) {
	ff := NewFieldsForm(m.Panel.Form, m.theme)
	if ff == nil {
		m.StatusMessage = "This action has no fields to edit"
		m.StatusIsError = false
		return m, nil
	}
	ff.Width = m.rightWidth() - 4
	ff.Form.WithWidth(ff.Width)
	m.Fields = ff
	return m, ff.Form.Init()
}

// applyFields copies the form values into the controller. A changed
// source triggers a topic fetch.
func (m Model) applyFields() (tea.Model, tea.Cmd) {
	ff := m.Fields
	m.Fields = nil
	if ff == nil {
		return m, nil
	}
	if ff.DestinationChanged() {
		if err := m.ctrl.SetDestination(ff.Destination); err != nil {
			m.apply(err)
			return m, nil
		}
	}
	if ff.HasSource {
		if err := m.ctrl.SetSource(ff.Source); err != nil {
			m.apply(err)
			return m, nil
		}
	}
	m.apply(nil)
	if ff.SourceChanged() && m.Panel.Form != nil && m.Panel.Form.Type == models.TransferLinkPartial {
		return m, m.run("topics", m.ctrl.FetchTopics)
	}
	return m, nil
}
