package console

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/appman/internal/workflow"
)

var (
	errDestinationRequired = errors.New("destination is required")
	errSourceRequired      = errors.New("source web is required")
)

// FieldsForm edits the free-text fields of the current action form
type FieldsForm struct {
	Form  *huh.Form
	Width int

	HasDestination bool
	HasSource      bool

	// Bound form values
	Destination string
	Source      string

	original struct{ destination, source string }
}

// NewFieldsForm creates a form prefilled from the action form state.
// Returns nil when the action has no editable fields.
func NewFieldsForm(fs *workflow.FormState, theme string) *FieldsForm {
	if fs == nil || fs.Form == nil {
		return nil
	}
	ff := &FieldsForm{
		HasDestination: fs.Form.HasDestination,
		HasSource:      fs.PartialLink(),
		Destination:    fs.Destination,
		Source:         fs.Source,
	}
	if !ff.HasDestination && !ff.HasSource {
		return nil
	}
	ff.original.destination = fs.Destination
	ff.original.source = fs.Source
	ff.buildForm(fs.App+" / "+fs.Action, theme)
	return ff
}

// buildForm constructs the huh.Form for the fields present
func (ff *FieldsForm) buildForm(title, theme string) {
	var fields []huh.Field
	if ff.HasDestination {
		fields = append(fields, huh.NewInput().
			Title("Destination").
			Value(&ff.Destination).
			Placeholder("Target web...").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errDestinationRequired
				}
				return nil
			}))
	}
	if ff.HasSource {
		fields = append(fields, huh.NewInput().
			Title("Source").
			Description("Web whose topics are linked or copied").
			Value(&ff.Source).
			Placeholder("Source web...").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errSourceRequired
				}
				return nil
			}))
	}

	ff.Form = huh.NewForm(huh.NewGroup(fields...).Title(title)).
		WithTheme(themeByName(theme)).
		WithShowHelp(true)
}

// SourceChanged reports whether the source differs from the prefilled value
func (ff *FieldsForm) SourceChanged() bool {
	return ff.HasSource && strings.TrimSpace(ff.Source) != strings.TrimSpace(ff.original.source)
}

// DestinationChanged reports whether the destination differs from the prefilled value
func (ff *FieldsForm) DestinationChanged() bool {
	return ff.HasDestination && ff.Destination != ff.original.destination
}

// themeByName maps the configured theme to a huh theme
func themeByName(name string) *huh.Theme {
	switch strings.ToLower(name) {
	case "charm":
		return huh.ThemeCharm()
	case "base16":
		return huh.ThemeBase16()
	case "catppuccin":
		return huh.ThemeCatppuccin()
	case "base":
		return huh.ThemeBase()
	default:
		return huh.ThemeDracula()
	}
}
