// Package console implements the interactive application manager: an
// application list and an action panel driven by the workflow controller.
package console

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/marcus/appman/internal/logging"
	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/marcus/appman/pkg/console/keymap"
)

// Options configures a console Model
type Options struct {
	Context   context.Context
	Logger    *slog.Logger
	Theme     string          // huh theme name
	Keymap    *keymap.Config  // user overrides, may be nil
	Preloaded bool            // application list already loaded by Bootstrap
	Markdown  string          // glamour style; empty detects from the terminal
}

// Model is the Bubble Tea model of the console
type Model struct {
	ctrl   *workflow.Controller
	ctx    context.Context
	logger *slog.Logger
	theme  string

	// Window dimensions
	Width  int
	Height int

	// Cached controller state, refreshed after every controller call
	Apps  []models.Application
	Panel workflow.Panel

	// UI state
	ActivePane Pane
	Cursor     map[Pane]int
	HelpOpen   bool
	Fields     *FieldsForm // open destination/source form
	Busy       bool
	Spinner    spinner.Model
	preloaded  bool

	// Status message (temporary feedback, e.g., "Busy")
	StatusMessage string
	StatusIsError bool

	Keymap   *keymap.Registry
	markdown *output.MarkdownCache
}

// NewModel creates a console model bound to ctrl
func NewModel(ctrl *workflow.Controller, opts Options) Model {
	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if skipped := keymap.ApplyConfig(km, opts.Keymap); len(skipped) > 0 {
		logger.Warn("ignoring keymap entries", "bindings", skipped)
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctrl:       ctrl,
		ctx:        ctx,
		logger:     logger,
		theme:      opts.Theme,
		ActivePane: PaneApps,
		Cursor:     make(map[Pane]int),
		Spinner:    sp,
		preloaded:  opts.Preloaded,
		Keymap:     km,
		markdown:   output.NewMarkdownCache(opts.Markdown),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.preloaded {
		return func() tea.Msg { return appsLoadedMsg{} }
	}
	return m.loadApps()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case busyMsg:
		m.Busy = msg.on
		if m.Busy {
			return m, m.Spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	// Form mode: forward all messages to huh form first
	if m.Fields != nil && m.Fields.Form != nil {
		return m.handleFormUpdate(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case appsLoadedMsg:
		m.Apps = m.ctrl.Applications()
		m.refresh()
		m.clampCursor(PaneApps, len(m.Apps))
		if msg.err != nil {
			m.noteError("load applications", msg.err)
		}
		return m, nil

	case panelMsg:
		m.refresh()
		if msg.err != nil {
			m.noteError(msg.op, msg.err)
			return m, nil
		}
		m.StatusMessage = ""
		switch msg.op {
		case "select":
			if m.Panel.App != "" {
				m.ActivePane = PaneActions
				m.Cursor[PaneActions] = 0
			}
		case "topics":
			m.ActivePane = PaneTopics
			m.Cursor[PaneTopics] = 0
		case "submit":
			m.ActivePane = PaneActions
			m.Cursor[PaneActions] = 0
		}
		return m, nil
	}

	return m, nil
}

// refresh re-reads the panel from the controller
func (m *Model) refresh() {
	m.Panel = m.ctrl.Snapshot()
	m.clampCursor(PaneActions, len(m.Panel.Actions))
	if m.Panel.Form == nil || !m.Panel.Form.PartialLink() || len(m.Panel.Form.Topics) == 0 {
		m.Cursor[PaneTopics] = 0
		if m.ActivePane == PaneTopics {
			m.ActivePane = PaneActions
		}
	} else {
		m.clampCursor(PaneTopics, len(m.Panel.Form.Topics))
	}
}

// noteError records controller errors. Errors already shown in the output
// region only go to the log; ErrBusy goes to the footer.
func (m *Model) noteError(op string, err error) {
	if errors.Is(err, workflow.ErrBusy) {
		m.StatusMessage = "Busy: a request is still in progress"
		m.StatusIsError = true
		return
	}
	m.logger.Debug("console operation failed", "op", op, "err", err)
}

func (m *Model) clampCursor(p Pane, n int) {
	switch {
	case n == 0:
		m.Cursor[p] = 0
	case m.Cursor[p] >= n:
		m.Cursor[p] = n - 1
	case m.Cursor[p] < 0:
		m.Cursor[p] = 0
	}
}

// handleFormUpdate routes messages to the open fields form
func (m Model) handleFormUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if cmd, found := m.Keymap.Lookup(keyMsg, keymap.ContextForm); found {
			return m.executeCommand(cmd)
		}
	}

	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = sizeMsg.Width
		m.Height = sizeMsg.Height
		m.Fields.Width = m.rightWidth() - 4
		m.Fields.Form.WithWidth(m.Fields.Width)
	}

	form, cmd := m.Fields.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.Fields.Form = f
	}

	switch m.Fields.Form.State {
	case huh.StateCompleted:
		return m.executeCommand(keymap.CmdFormSubmit)
	case huh.StateAborted:
		return m.executeCommand(keymap.CmdFormCancel)
	}
	return m, cmd
}
