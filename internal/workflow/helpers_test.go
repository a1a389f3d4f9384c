package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcus/appman/internal/models"
)

func descEntry(name string, d models.ActionDescriptor) models.ActionEntry {
	raw, _ := json.Marshal(d)
	dd := d
	return models.ActionEntry{Name: name, Descriptor: &dd, Raw: raw}
}

func rawEntry(name, raw string) models.ActionEntry {
	var d models.ActionDescriptor
	_ = json.Unmarshal([]byte(raw), &d)
	return models.ActionEntry{Name: name, Descriptor: &d, Raw: []byte(raw)}
}

func boolEntry(name string, v bool) models.ActionEntry {
	return models.ActionEntry{Name: name, Toggle: v}
}

func wikiDetail(installed bool) *models.AppDetail {
	return &models.AppDetail{
		Name:        "wiki",
		Description: "A **wiki** application",
		Actions: []models.ActionEntry{
			descEntry("install", models.ActionDescriptor{
				Installed:          installed,
				DefaultDestination: "Sandbox",
				AllowsCopy:         true,
			}),
			descEntry("uninstall", models.ActionDescriptor{Installed: installed}),
			boolEntry("reindex", true),
		},
	}
}

type fakeHost struct {
	mu sync.Mutex

	apps     []models.Application
	appsErr  error
	details  map[string]*models.AppDetail
	detailFn func(name string) (*models.AppDetail, error)
	topics   map[string][]string
	topicErr error
	runResp  *models.ActionResponse
	runErr   error

	detailCalls int
	topicCalls  int
	runs        []models.ActionRequest

	// gate, when set, blocks AppDetail until released
	gate    chan struct{}
	entered chan struct{}
}

func (h *fakeHost) ListApplications(ctx context.Context) ([]models.Application, error) {
	if h.appsErr != nil {
		return nil, h.appsErr
	}
	return append([]models.Application(nil), h.apps...), nil
}

func (h *fakeHost) AppDetail(ctx context.Context, name string) (*models.AppDetail, error) {
	h.mu.Lock()
	h.detailCalls++
	gate, entered := h.gate, h.entered
	h.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if h.detailFn != nil {
		return h.detailFn(name)
	}
	d, ok := h.details[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func (h *fakeHost) ListTopics(ctx context.Context, webname string) ([]string, error) {
	h.mu.Lock()
	h.topicCalls++
	h.mu.Unlock()
	if h.topicErr != nil {
		return nil, h.topicErr
	}
	return h.topics[webname], nil
}

func (h *fakeHost) RunAction(ctx context.Context, req models.ActionRequest) (*models.ActionResponse, error) {
	h.mu.Lock()
	h.runs = append(h.runs, req)
	h.mu.Unlock()
	if h.runErr != nil {
		return nil, h.runErr
	}
	return h.runResp, nil
}

type countingBusy struct {
	mu     sync.Mutex
	begins int
	ends   int
	depth  int
	max    int
}

func (b *countingBusy) BeginBusy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.begins++
	b.depth++
	if b.depth > b.max {
		b.max = b.depth
	}
}

func (b *countingBusy) EndBusy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends++
	b.depth--
}

// sendBusy delivers each signal on an unbuffered channel, so BeginBusy and
// EndBusy block until the receiver reads them, the way tea.Program.Send
// waits for the event loop. It only blocks once armed.
type sendBusy struct {
	armed   bool
	waiting chan struct{}
	msgs    chan bool
}

func newSendBusy() *sendBusy {
	return &sendBusy{waiting: make(chan struct{}, 1), msgs: make(chan bool)}
}

func (b *sendBusy) post(on bool) {
	if !b.armed {
		return
	}
	b.waiting <- struct{}{}
	b.msgs <- on
}

func (b *sendBusy) BeginBusy() { b.post(true) }
func (b *sendBusy) EndBusy()   { b.post(false) }

// within fails the test if f does not return promptly
func within(t *testing.T, what string, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		f()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s blocked while a busy signal was pending", what)
	}
}
