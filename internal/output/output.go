// Package output provides styled terminal output helpers (success, error,
// warning, application and action formatting) using lipgloss, plus
// structured JSON and YAML rendering for scripted use.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/itchyny/gojq"
	"github.com/marcus/appman/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	// Styles
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Strikethrough(true)
	stateStyles   = map[models.ManagementState]lipgloss.Style{
		models.StateManaged:   lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StateUnmanaged: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
	dispositionStyles = map[models.Disposition]lipgloss.Style{
		models.DispositionIgnore: lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		models.DispositionCopy:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.DispositionLink:   lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	}
)

// Format selects how command results are written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an --output flag value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// WriteJSON writes data as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteYAML writes data as YAML
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write writes v in the structured format f. Text output is left to callers.
func Write(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return WriteJSON(w, v)
	}
}

// WriteJQ runs a jq expression over the JSON form of v and writes each
// result on its own line. String results are written unquoted.
func WriteJQ(w io.Writer, expr string, v interface{}) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("compile jq expression: %w", err)
	}

	// gojq only accepts plain JSON values
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	iter := code.Run(input)
	for {
		res, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := res.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		if s, isStr := res.(string); isStr {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		out, err := json.Marshal(res)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(out)); err != nil {
			return err
		}
	}
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeValidation    = "validation_failed"
	ErrCodeMisconfigured = "misconfigured_action"
	ErrCodeFetchFailed   = "fetch_failed"
	ErrCodeActionFailed  = "action_failed"
	ErrCodeUnauthorized  = "unauthorized"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	JSONErrorWithDetails(code, message, nil)
}

// JSONErrorWithDetails outputs an error as JSON with additional context
func JSONErrorWithDetails(code, message string, details map[string]interface{}) {
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		errObj["details"] = details
	}
	result := map[string]interface{}{
		"error": errObj,
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// FormatState formats a management state with color
func FormatState(s models.ManagementState) string {
	style, ok := stateStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatApplication formats an application list entry. Unmanaged entries are muted.
func FormatApplication(app models.Application) string {
	if !app.Managed() {
		return subtleStyle.Render(app.ID) + "  " + FormatState(app.State)
	}
	return titleStyle.Render(app.ID) + "  " + FormatState(app.State)
}

// FormatActionLine formats one action of a catalog. Actions that cannot be
// chosen are struck through.
func FormatActionLine(name string, selectable, toggle bool) string {
	label := name
	if toggle {
		label += subtleStyle.Render(" (no options)")
	}
	if !selectable {
		return "  " + disabledStyle.Render(name)
	}
	return "  " + label
}

// FormatDescriptor summarizes the options of an action descriptor
func FormatDescriptor(d *models.ActionDescriptor) string {
	if d == nil {
		return ""
	}
	var parts []string
	if d.Installed {
		parts = append(parts, "installed")
	} else {
		parts = append(parts, "not installed")
	}
	if d.DefaultDestination != "" {
		parts = append(parts, "destination: "+d.DefaultDestination)
	}
	var allows []string
	if d.AllowsCopy {
		allows = append(allows, "copy", "move")
	}
	if d.AllowsLink {
		allows = append(allows, "link", "linkpartial")
	}
	if len(allows) > 0 {
		parts = append(parts, "types: "+strings.Join(allows, ", "))
	}
	return subtleStyle.Render(strings.Join(parts, " | "))
}

// FormatDisposition formats a topic disposition with color
func FormatDisposition(d models.Disposition) string {
	style, ok := dispositionStyles[d]
	if !ok {
		return string(d)
	}
	return style.Render(fmt.Sprintf("[%s]", d))
}

// FormatMessage formats an output message as error or success
func FormatMessage(m models.Message) string {
	if m.Error {
		return errorStyle.Render(m.Text)
	}
	return successStyle.Render(m.Text)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nACTIONS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
