package workflow

import (
	"errors"
	"fmt"

	"github.com/marcus/appman/internal/hostclient"
)

// ErrBusy is returned when a trigger arrives while a request is outstanding.
var ErrBusy = errors.New("a request is already in progress")

// ErrNoApplication is returned by panel operations before an application is loaded.
var ErrNoApplication = errors.New("no application selected")

// FetchError reports a failed or unparseable host call.
type FetchError struct {
	Op     string // "applications", "catalog", "topics", "submit"
	Target string // application id or source location
	Err    error
}

func (e *FetchError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage prefers the text the host put in its error body.
func (e *FetchError) UserMessage() string {
	var hostErr *hostclient.HostError
	if errors.As(e.Err, &hostErr) && hostErr.Message != "" {
		return hostErr.Message
	}
	return e.Error()
}

// ValidationCode identifies the first form check that failed
type ValidationCode string

const (
	NoActionSelected   ValidationCode = "NoActionSelected"
	NoTypeSelected     ValidationCode = "NoTypeSelected"
	MissingDestination ValidationCode = "MissingDestination"
	MissingSource      ValidationCode = "MissingSource"
	NoTopicsSelected   ValidationCode = "NoTopicsSelected"
)

var validationMessages = map[ValidationCode]string{
	NoActionSelected:   "Please select an action",
	NoTypeSelected:     "Please select a transfer type",
	MissingDestination: "Please enter a destination",
	MissingSource:      "Please enter a source web",
	NoTopicsSelected:   "Please mark at least one topic as copy or link",
}

// ValidationError is a client-side form check failure. Nothing is sent.
type ValidationError struct {
	Code ValidationCode
}

func (e *ValidationError) Error() string {
	if msg, ok := validationMessages[e.Code]; ok {
		return msg
	}
	return string(e.Code)
}

// Is matches any ValidationError with the same code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNoActionSelected   = &ValidationError{Code: NoActionSelected}
	ErrNoTypeSelected     = &ValidationError{Code: NoTypeSelected}
	ErrMissingDestination = &ValidationError{Code: MissingDestination}
	ErrMissingSource      = &ValidationError{Code: MissingSource}
	ErrNoTopicsSelected   = &ValidationError{Code: NoTopicsSelected}
)

// ActionError is a failure the host reported for a submitted action.
type ActionError struct {
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

// ConfigurationError reports action metadata that cannot be turned into a form.
type ConfigurationError struct {
	Action string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("action %q is misconfigured: %s", e.Action, e.Reason)
}

// TransitionError reports a state change the workflow does not allow.
type TransitionError struct {
	From   State
	To     State
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s → %s: %s", e.From, e.To, e.Reason)
}
