package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/marcus/appman/internal/logging"
	"github.com/marcus/appman/internal/models"
)

// Host is everything the controller needs from the host server
type Host interface {
	CatalogSource
	TopicSource
	ActionRunner
	ListApplications(ctx context.Context) ([]models.Application, error)
}

// Busy shows and hides the busy indicator around host requests
type Busy interface {
	BeginBusy()
	EndBusy()
}

type noBusy struct{}

func (noBusy) BeginBusy() {}
func (noBusy) EndBusy()   {}

// Option configures a Controller
type Option func(*Controller)

// WithBusy sets the busy indicator
func WithBusy(b Busy) Option {
	return func(c *Controller) { c.busy = b }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock sets the time source used to stamp output messages
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the action panel and the pending message. At most one
// host request is outstanding; triggers arriving meanwhile get ErrBusy.
type Controller struct {
	mu       sync.Mutex
	inFlight bool

	host      Host
	loader    CatalogLoader
	fetcher   TopicFetcher
	submitter ActionSubmitter
	machine   *StateMachine
	busy      Busy
	logger    *slog.Logger
	now       func() time.Time

	apps    []models.Application
	app     string
	catalog *Catalog
	form    *FormState
	output  []models.Message
	pending *models.Message
}

// NewController creates a controller in StateIdle
func NewController(host Host, opts ...Option) *Controller {
	c := &Controller{
		host:      host,
		loader:    CatalogLoader{Source: host},
		fetcher:   TopicFetcher{Source: host},
		submitter: ActionSubmitter{Runner: host},
		machine:   NewStateMachine(),
		busy:      noBusy{},
		logger:    logging.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ActionChoice is one entry of the action list
type ActionChoice struct {
	Name       string
	Selectable bool
	Selected   bool
	Toggle     bool // boolean entry without options
}

// Panel is a point-in-time copy of the action panel
type Panel struct {
	App         string
	Description string
	Actions     []ActionChoice
	Form        *FormState
	Output      []models.Message
	State       State
	Busy        bool
}

// Snapshot returns a copy of the panel for rendering
func (c *Controller) Snapshot() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Panel{
		App:    c.app,
		Form:   c.form.Clone(),
		Output: append([]models.Message(nil), c.output...),
		State:  c.machine.Current(),
		Busy:   c.inFlight,
	}
	if c.catalog != nil {
		p.Description = c.catalog.Description
		for _, name := range c.catalog.Names() {
			e, _ := c.catalog.Entry(name)
			p.Actions = append(p.Actions, ActionChoice{
				Name:       name,
				Selectable: c.catalog.Selectable(name),
				Selected:   c.form != nil && c.form.Action == name,
				Toggle:     e.IsBool(),
			})
		}
	}
	return p
}

// Applications returns the loaded application list
func (c *Controller) Applications() []models.Application {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Application(nil), c.apps...)
}

// State returns the current workflow state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// begin marks a request in flight, releases c.mu and raises the busy
// indicator. Callers hold c.mu. The indicator may block until the UI loop
// reads it, so it is never signalled under the lock.
func (c *Controller) begin() {
	c.inFlight = true
	c.mu.Unlock()
	c.busy.BeginBusy()
}

// end clears the in-flight flag and lifts the busy indicator.
func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
	c.busy.EndBusy()
}

// lockIdle takes c.mu unless a request is in flight.
func (c *Controller) lockIdle() error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	return nil
}

func (c *Controller) moveTo(to State) {
	from := c.machine.Current()
	if from == to {
		return
	}
	if err := c.machine.MoveTo(to); err != nil {
		c.logger.Warn("workflow transition rejected", "err", err)
		return
	}
	c.logger.Debug("workflow transition", "from", string(from), "to", string(to), "app", c.app)
}

func (c *Controller) show(text string, isErr bool) {
	c.output = append(c.output, models.Message{Text: text, Error: isErr, At: c.now()})
}

func (c *Controller) showErr(err error) {
	var fe *FetchError
	if errors.As(err, &fe) {
		c.show(fe.UserMessage(), true)
		return
	}
	c.show(err.Error(), true)
}

// LoadApplications fetches the application list
func (c *Controller) LoadApplications(ctx context.Context) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	c.begin()
	defer c.end()

	ctx, _ = logging.WithRequestID(ctx)
	apps, err := c.host.ListApplications(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		fe := &FetchError{Op: "applications", Err: err}
		c.showErr(fe)
		return fe
	}
	models.SortApplications(apps)
	c.apps = apps
	return nil
}

func (c *Controller) lookupApp(id string) (models.Application, bool) {
	for _, a := range c.apps {
		if a.ID == id {
			return a, true
		}
	}
	return models.Application{}, false
}

// SelectApp clears the panel and loads the catalog of id. Unmanaged
// applications are not selectable and the call is a no-op.
func (c *Controller) SelectApp(ctx context.Context, id string) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	if a, ok := c.lookupApp(id); ok && !a.Managed() {
		c.mu.Unlock()
		return nil
	} else if !ok && c.apps != nil {
		c.mu.Unlock()
		return fmt.Errorf("unknown application %q", id)
	}
	c.begin()
	defer c.end()

	return c.reload(ctx, id)
}

// reload runs a catalog load for id. Callers hold the in-flight flag.
// A pending message is moved to the output whether or not the load succeeds.
func (c *Controller) reload(ctx context.Context, id string) error {
	c.mu.Lock()
	c.app = id
	c.catalog = nil
	c.form = nil
	c.output = nil
	c.moveTo(StateAppSelected)
	c.mu.Unlock()

	ctx = logging.WithAppID(ctx, id)
	ctx, _ = logging.WithRequestID(ctx)
	cat, err := c.loader.Load(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.output = append(c.output, *c.pending)
		c.pending = nil
	}
	if err != nil {
		c.app = ""
		c.moveTo(StateIdle)
		c.showErr(err)
		return err
	}
	c.catalog = cat
	c.moveTo(StateCatalogLoaded)
	return nil
}

// ChooseAction selects an action of the loaded catalog and renders its form.
// Disabled actions are ignored. Misconfigured actions are reported in the
// output and de-selected.
func (c *Controller) ChooseAction(name string) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if c.catalog == nil {
		return ErrNoApplication
	}
	if !c.catalog.Selectable(name) {
		return nil
	}

	desc, err := RenderForm(name, c.catalog)
	if err != nil {
		c.form = nil
		c.moveTo(StateCatalogLoaded)
		c.output = nil
		c.showErr(err)
		return nil
	}
	c.form = NewFormState(c.app, desc)
	c.moveTo(StateActionChosen)
	if c.form.Type != "" {
		c.moveTo(StateTypeChosen)
	}
	return nil
}

// ChooseType selects a transfer type for the install form
func (c *Controller) ChooseType(t models.TransferType) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if c.form == nil {
		return ErrNoActionSelected
	}
	if t == c.form.Type {
		return nil
	}
	if err := c.form.SetType(t); err != nil {
		return err
	}
	c.moveTo(StateTypeChosen)
	return nil
}

// SetDestination updates the destination field
func (c *Controller) SetDestination(dest string) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.form == nil {
		return ErrNoActionSelected
	}
	c.form.Destination = dest
	return nil
}

// SetSource updates the source field. Fetched topics stay until the next fetch.
func (c *Controller) SetSource(src string) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.form == nil {
		return ErrNoActionSelected
	}
	c.form.Source = src
	return nil
}

// FetchTopics loads the topics of the current source. It does nothing
// unless the partial-link type is selected and the source is non-blank.
func (c *Controller) FetchTopics(ctx context.Context) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	if c.form == nil || !c.form.PartialLink() || isBlank(c.form.Source) {
		c.mu.Unlock()
		return nil
	}
	source := c.form.Source
	app := c.app
	c.moveTo(StateTopicsLoading)
	c.begin()
	defer c.end()

	ctx = logging.WithAppID(ctx, app)
	ctx, _ = logging.WithRequestID(ctx)
	topics, err := c.fetcher.Fetch(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.form.SetTopics(nil)
		c.moveTo(StateTypeChosen)
		c.output = nil
		c.showErr(err)
		return err
	}
	c.form.SetTopics(topics)
	c.moveTo(StateTopicsReady)
	return nil
}

// SetDisposition sets the disposition of a fetched topic
func (c *Controller) SetDisposition(id string, d models.Disposition) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.form == nil {
		return ErrNoActionSelected
	}
	return c.form.SetDisposition(id, d)
}

// CycleDisposition advances the disposition of the topic at index i
func (c *Controller) CycleDisposition(i int) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	defer c.mu.Unlock()
	if c.form == nil {
		return ErrNoActionSelected
	}
	c.form.CycleDisposition(i)
	return nil
}

// Submit validates the form and sends it. Validation failures are shown
// without any host request. On success the application is reloaded and the
// host's message is shown once after the reload.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.lockIdle(); err != nil {
		return err
	}
	req, err := BuildRequest(c.form)
	if err != nil {
		c.output = nil
		c.showErr(err)
		c.mu.Unlock()
		return nil
	}
	c.output = nil
	c.moveTo(StateSubmitting)
	c.begin()
	defer c.end()

	ctx = logging.WithAppID(ctx, req.App)
	ctx, _ = logging.WithRequestID(ctx)
	out, err := c.submitter.Submit(ctx, req)

	c.mu.Lock()
	if err != nil {
		c.moveTo(StateActionChosen)
		if out.Result.Error {
			c.show(out.Result.Message, true)
		} else {
			c.showErr(err)
		}
		c.mu.Unlock()
		return err
	}
	c.logger.Info("action submitted", "app", req.App, "action", req.Action, "type", string(req.Type))
	c.pending = &models.Message{Text: out.Result.Message, At: c.now()}
	c.mu.Unlock()

	return c.reload(ctx, req.App)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
