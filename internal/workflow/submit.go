package workflow

import (
	"context"

	"github.com/marcus/appman/internal/models"
)

const resultError = "error"

// ActionRunner posts an action request to the host
type ActionRunner interface {
	RunAction(ctx context.Context, req models.ActionRequest) (*models.ActionResponse, error)
}

// Outcome tells the controller what to do with a submission's result
type Outcome struct {
	Result   models.ActionResult
	Reselect bool // stage Result and reload the application
}

// ActionSubmitter sends requests and interprets the host's answer
type ActionSubmitter struct {
	Runner ActionRunner
}

// Submit sends req. A host-reported failure returns an *ActionError with the
// outcome to display in place; success asks for a reselect.
func (s ActionSubmitter) Submit(ctx context.Context, req models.ActionRequest) (Outcome, error) {
	resp, err := s.Runner.RunAction(ctx, req)
	if err != nil {
		return Outcome{}, &FetchError{Op: "submit", Target: req.App, Err: err}
	}
	if resp.Result == resultError {
		out := Outcome{Result: models.ActionResult{Error: true, Message: resp.Data}}
		return out, &ActionError{Message: resp.Data}
	}
	return Outcome{
		Result:   models.ActionResult{Message: resp.Data},
		Reselect: true,
	}, nil
}
