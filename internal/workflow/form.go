package workflow

import (
	"fmt"

	"github.com/marcus/appman/internal/models"
)

// FormDescription lists the fields the selected action needs
type FormDescription struct {
	Action         string
	HasDestination bool
	Types          []models.TransferType // offered transfer types, display order
	DefaultType    models.TransferType
	Destination    string // pre-filled value
}

// Fieldless reports whether the action is submitted with its name only
func (d *FormDescription) Fieldless() bool {
	return !d.HasDestination && len(d.Types) == 0
}

// Offers reports whether t is one of the offered transfer types
func (d *FormDescription) Offers(t models.TransferType) bool {
	for _, o := range d.Types {
		if o == t {
			return true
		}
	}
	return false
}

// RenderForm builds the form description for an action of cat.
func RenderForm(action string, cat *Catalog) (*FormDescription, error) {
	entry, ok := cat.Entry(action)
	if !ok {
		return nil, &ConfigurationError{Action: action, Reason: "action not in catalog"}
	}

	desc := &FormDescription{Action: action}
	if action != models.ActionInstall {
		if err := cat.Problem(action); err != nil {
			return nil, &ConfigurationError{Action: action, Reason: err.Error()}
		}
		return desc, nil
	}

	if entry.IsBool() {
		return nil, &ConfigurationError{Action: action, Reason: "missing descriptor"}
	}
	if err := cat.Problem(action); err != nil {
		return nil, &ConfigurationError{Action: action, Reason: err.Error()}
	}

	d := entry.Descriptor
	for _, t := range models.AllTransferTypes {
		if (t.CopyLike() && d.AllowsCopy) || (!t.CopyLike() && d.AllowsLink) {
			desc.Types = append(desc.Types, t)
		}
	}
	if len(desc.Types) == 0 {
		return nil, &ConfigurationError{Action: action, Reason: "no transfer type allowed"}
	}
	desc.DefaultType = desc.Types[0]
	if d.AllowsCopy {
		desc.DefaultType = models.TransferMove
	}
	desc.HasDestination = true
	desc.Destination = d.DefaultDestination
	return desc, nil
}

// FormState is the editable state of the rendered form. It is rebuilt
// whenever the selected application or action changes.
type FormState struct {
	App         string
	Action      string
	Form        *FormDescription
	Type        models.TransferType
	Destination string
	Source      string
	Topics      []models.Topic // non-nil only while Type is linkpartial
}

// NewFormState starts a form from its description with defaults applied
func NewFormState(app string, desc *FormDescription) *FormState {
	fs := &FormState{App: app, Action: desc.Action, Form: desc}
	fs.Destination = desc.Destination
	if desc.DefaultType != "" {
		fs.SetType(desc.DefaultType)
	}
	return fs
}

// SetType selects a transfer type. Leaving or entering linkpartial resets
// the topic region; choosing the current type again keeps it.
func (fs *FormState) SetType(t models.TransferType) error {
	if fs.Form == nil || !fs.Form.Offers(t) {
		return fmt.Errorf("transfer type %q is not offered for %s", t, fs.Action)
	}
	if t == fs.Type {
		return nil
	}
	fs.Type = t
	if t == models.TransferLinkPartial {
		fs.Topics = []models.Topic{}
	} else {
		fs.Topics = nil
	}
	return nil
}

// PartialLink reports whether the topic region is attached
func (fs *FormState) PartialLink() bool {
	return fs.Type == models.TransferLinkPartial
}

// SetTopics replaces the topic region with freshly fetched topics
func (fs *FormState) SetTopics(topics []models.Topic) {
	if !fs.PartialLink() {
		return
	}
	fs.Topics = append([]models.Topic{}, topics...)
}

// SetDisposition sets the disposition of a topic by id
func (fs *FormState) SetDisposition(id string, d models.Disposition) error {
	for i := range fs.Topics {
		if fs.Topics[i].ID == id {
			fs.Topics[i].Disposition = d
			return nil
		}
	}
	return fmt.Errorf("topic %q not found", id)
}

// CycleDisposition advances the disposition of the topic at index i
func (fs *FormState) CycleDisposition(i int) {
	if i < 0 || i >= len(fs.Topics) {
		return
	}
	fs.Topics[i].Disposition = fs.Topics[i].Disposition.Next()
}

// Clone returns a deep copy safe to hand to renderers
func (fs *FormState) Clone() *FormState {
	if fs == nil {
		return nil
	}
	c := *fs
	if fs.Topics != nil {
		c.Topics = append([]models.Topic{}, fs.Topics...)
	}
	if fs.Form != nil {
		f := *fs.Form
		f.Types = append([]models.TransferType(nil), fs.Form.Types...)
		c.Form = &f
	}
	return &c
}
