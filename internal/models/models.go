package models

import (
	"sort"
	"time"
)

// ManagementState represents whether the host manages an application
type ManagementState string

const (
	StateManaged   ManagementState = "managed"
	StateUnmanaged ManagementState = "unmanaged"
)

// TransferType represents how an application's content is relocated
type TransferType string

const (
	TransferCopy        TransferType = "copy"
	TransferMove        TransferType = "move"
	TransferLink        TransferType = "link"
	TransferLinkPartial TransferType = "linkpartial"
)

// AllTransferTypes lists transfer types in display order
var AllTransferTypes = []TransferType{TransferCopy, TransferMove, TransferLink, TransferLinkPartial}

// IsValid reports whether t is a known transfer type
func (t TransferType) IsValid() bool {
	switch t {
	case TransferCopy, TransferMove, TransferLink, TransferLinkPartial:
		return true
	}
	return false
}

// CopyLike reports whether t is offered through allowsCopy
func (t TransferType) CopyLike() bool {
	return t == TransferCopy || t == TransferMove
}

// Disposition represents what happens to a single topic during a partial link
type Disposition string

const (
	DispositionIgnore Disposition = "ignore"
	DispositionCopy   Disposition = "copy"
	DispositionLink   Disposition = "link"
)

// Next cycles ignore -> copy -> link -> ignore
func (d Disposition) Next() Disposition {
	switch d {
	case DispositionIgnore:
		return DispositionCopy
	case DispositionCopy:
		return DispositionLink
	default:
		return DispositionIgnore
	}
}

// ActionInstall is the only action that is always selectable
const ActionInstall = "install"

// Application represents an application registered with the host
type Application struct {
	ID    string          `json:"id" yaml:"id"`
	State ManagementState `json:"state" yaml:"state"`
}

// Managed reports whether the application can be selected in the console
func (a Application) Managed() bool {
	return a.State == StateManaged
}

// SortApplications orders applications alphabetically by id
func SortApplications(apps []Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].ID < apps[j].ID
	})
}

// ActionDescriptor carries the configurable options of a single action
type ActionDescriptor struct {
	Installed          bool   `json:"installed" yaml:"installed"`
	DefaultDestination string `json:"defaultDestination" yaml:"defaultDestination"`
	AllowsCopy         bool   `json:"allowsCopy" yaml:"allowsCopy"`
	AllowsLink         bool   `json:"allowsLink" yaml:"allowsLink"`
}

// ActionEntry is one value of the actions mapping: either a descriptor or a bare boolean
type ActionEntry struct {
	Name       string            `json:"name" yaml:"name"`
	Descriptor *ActionDescriptor `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Toggle     bool              `json:"toggle,omitempty" yaml:"toggle,omitempty"` // value of a boolean entry
	Raw        []byte            `json:"-" yaml:"-"`                             // original JSON of a descriptor entry
}

// IsBool reports whether the entry was a boolean in the host response
func (e ActionEntry) IsBool() bool {
	return e.Descriptor == nil
}

// AppDetail is the decoded application detail response
type AppDetail struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Actions     []ActionEntry `json:"actions" yaml:"actions"` // in response order
}

// Topic is a sub-item of a source location and its chosen disposition
type Topic struct {
	ID          string      `json:"id" yaml:"id"`
	Disposition Disposition `json:"disposition" yaml:"disposition"`
}

// ActionRequest is the validated payload of a single submission
type ActionRequest struct {
	App         string       `json:"name" yaml:"name"`
	Action      string       `json:"action" yaml:"action"`
	Type        TransferType `json:"type,omitempty" yaml:"type,omitempty"`
	Source      string       `json:"from,omitempty" yaml:"from,omitempty"`
	Destination string       `json:"to,omitempty" yaml:"to,omitempty"`
	CopyList    []string     `json:"copylist" yaml:"copylist"`
	LinkList    []string     `json:"linklist" yaml:"linklist"`
}

// ActionResponse is the raw body returned by the run action handler
type ActionResponse struct {
	Result string `json:"result" yaml:"result"`
	Data   string `json:"data" yaml:"data"`
}

// ActionResult is the host's answer to a submitted action
type ActionResult struct {
	Error   bool   `json:"error" yaml:"error"`
	Message string `json:"message" yaml:"message"`
}

// Message is a line shown in the output region
type Message struct {
	Text  string    `json:"text" yaml:"text"`
	Error bool      `json:"error" yaml:"error"`
	At    time.Time `json:"at" yaml:"at"`
}

// Config represents the console configuration file
type Config struct {
	ScriptURL    string `json:"script_url,omitempty"`
	ScriptSuffix string `json:"script_suffix,omitempty"`
	RestPrefix   string `json:"rest_prefix,omitempty"`
	Plugin       string `json:"plugin,omitempty"`
	Timeout      string `json:"timeout,omitempty"` // Go duration string
	LogLevel     string `json:"log_level,omitempty"`
	LogFormat    string `json:"log_format,omitempty"`
	Theme        string `json:"theme,omitempty"` // huh theme: dracula, charm, base16, catppuccin
}
