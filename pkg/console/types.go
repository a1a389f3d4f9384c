package console

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Pane identifies a focusable region of the console
type Pane int

const (
	PaneApps Pane = iota
	PaneActions
	PaneTopics
)

// appsLoadedMsg is sent when the application list load completes
type appsLoadedMsg struct{ err error }

// panelMsg is sent when a controller call completes; the panel is re-read
// from the controller snapshot
type panelMsg struct {
	op  string
	err error
}

// busyMsg mirrors the controller's busy indicator
type busyMsg struct{ on bool }

// BusyIndicator forwards the controller's busy signal to a running program.
// It is created before the program and attached once the program exists.
type BusyIndicator struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach sets the function used to deliver busy messages, usually tea.Program.Send
func (b *BusyIndicator) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *BusyIndicator) post(on bool) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(busyMsg{on: on})
	}
}

// BeginBusy shows the busy footer
func (b *BusyIndicator) BeginBusy() { b.post(true) }

// EndBusy hides the busy footer
func (b *BusyIndicator) EndBusy() { b.post(false) }
