package workflow

import (
	"strings"

	"github.com/marcus/appman/internal/models"
)

// BuildRequest validates fs and derives the submission payload. The first
// failing check is returned and nothing else is evaluated.
func BuildRequest(fs *FormState) (models.ActionRequest, error) {
	if fs == nil || fs.Action == "" {
		return models.ActionRequest{}, &ValidationError{Code: NoActionSelected}
	}

	req := models.ActionRequest{
		App:      fs.App,
		Action:   fs.Action,
		CopyList: []string{},
		LinkList: []string{},
	}

	if fs.Action == models.ActionInstall {
		if fs.Type == "" {
			return models.ActionRequest{}, &ValidationError{Code: NoTypeSelected}
		}
		req.Type = fs.Type
	}

	if fs.Form != nil && fs.Form.HasDestination {
		dest := strings.TrimSpace(fs.Destination)
		if dest == "" {
			return models.ActionRequest{}, &ValidationError{Code: MissingDestination}
		}
		req.Destination = dest
	}

	if req.Type == models.TransferLinkPartial {
		src := strings.TrimSpace(fs.Source)
		if src == "" {
			return models.ActionRequest{}, &ValidationError{Code: MissingSource}
		}
		req.Source = src
		for _, t := range fs.Topics {
			switch t.Disposition {
			case models.DispositionCopy:
				req.CopyList = append(req.CopyList, t.ID)
			case models.DispositionLink:
				req.LinkList = append(req.LinkList, t.ID)
			}
		}
		if len(req.CopyList)+len(req.LinkList) == 0 {
			return models.ActionRequest{}, &ValidationError{Code: NoTopicsSelected}
		}
	}

	return req, nil
}
