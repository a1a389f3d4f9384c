package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/marcus/appman/internal/config"
	"github.com/marcus/appman/internal/hostclient"
	"github.com/marcus/appman/internal/logging"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	version string

	flagConfig    string
	flagLogFile   string
	flagLogLevel  string
	flagScriptURL string
	flagOutput    string
	flagJQ        string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "appman",
	Short: "Install and configure host applications",
	Long: `appman - manage the applications of a content-management host.

Run "appman console" for the interactive action panel, or use the
apps/show/topics/run commands from scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !reported(err) {
			output.Error("%v", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default <user config dir>/appman/config.json)")
	pf.StringVar(&flagLogFile, "log-file", "", `log destination, "-" for stderr`)
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagScriptURL, "script-url", "", "host script URL (overrides config and APPMAN_SCRIPT_URL)")
	pf.StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml")
	pf.StringVar(&flagJQ, "jq", "", "filter JSON output through a jq expression")

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// session is what a command needs to talk to the host
type session struct {
	configPath string
	settings   config.Settings
	logger     *slog.Logger
	client     *hostclient.Client
	logCloser  io.Closer
}

// configPath returns --config or the default location
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// openSession resolves settings and opens the log. defaultLog is used when
// --log-file is not given; "-" means stderr.
func openSession(defaultLog string) (*session, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	settings, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagScriptURL != "" {
		settings.ScriptURL = flagScriptURL
	}
	if flagLogLevel != "" {
		settings.LogLevel = flagLogLevel
	}
	if settings.ScriptURL == "" {
		return nil, errors.New("script_url is not configured (set it with: appman config set script_url <url>)")
	}

	dest := flagLogFile
	if dest == "" {
		dest = defaultLog
	}
	if dest == "" {
		dest = config.LogPath(path)
	}

	s := &session{configPath: path, settings: settings}
	var w io.Writer = os.Stderr
	if dest != "-" {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		s.logCloser = f
	}

	s.logger = logging.New(w, settings.LogLevel, settings.LogFormat)
	s.client = hostclient.New(settings, s.logger)
	s.logger.Debug("session opened", "config", path, "endpoint", settings.Endpoint(""), "version", version)
	return s, nil
}

func (s *session) Close() {
	if s.logCloser != nil {
		s.logCloser.Close()
	}
}

// emit writes v in the requested structured format, or calls text for
// the default human output.
func emit(v interface{}, text func()) error {
	if flagJQ != "" {
		return output.WriteJQ(os.Stdout, flagJQ, v)
	}
	f, err := output.ParseFormat(flagOutput)
	if err != nil {
		return err
	}
	if f == output.FormatText {
		text()
		return nil
	}
	return output.Write(os.Stdout, f, v)
}

func structuredOutput() bool {
	f, err := output.ParseFormat(flagOutput)
	return flagJQ != "" || (err == nil && f != output.FormatText)
}

// reportedError marks an error that was already printed
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// report prints err the way the selected output format expects and returns it
func report(err error) error {
	if err == nil || reported(err) {
		return err
	}
	if structuredOutput() {
		output.JSONErrorWithDetails(errorCode(err), userMessage(err), errorDetails(err))
	} else {
		output.Error("%s", userMessage(err))
	}
	return &reportedError{err: err}
}

func userMessage(err error) string {
	var fe *workflow.FetchError
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return err.Error()
}

// errorDetails carries the machine-readable parts of workflow errors
func errorDetails(err error) map[string]interface{} {
	var (
		ve *workflow.ValidationError
		ce *workflow.ConfigurationError
		fe *workflow.FetchError
	)
	switch {
	case errors.As(err, &ve):
		return map[string]interface{}{"check": string(ve.Code)}
	case errors.As(err, &ce):
		return map[string]interface{}{"action": ce.Action, "reason": ce.Reason}
	case errors.As(err, &fe):
		d := map[string]interface{}{"op": fe.Op}
		if fe.Target != "" {
			d["target"] = fe.Target
		}
		return d
	}
	return nil
}

// errorCode classifies err for structured error output
func errorCode(err error) string {
	var (
		ve *workflow.ValidationError
		ce *workflow.ConfigurationError
		ae *workflow.ActionError
		fe *workflow.FetchError
	)
	switch {
	case errors.As(err, &ve):
		return output.ErrCodeValidation
	case errors.As(err, &ce):
		return output.ErrCodeMisconfigured
	case errors.As(err, &ae):
		return output.ErrCodeActionFailed
	case errors.Is(err, hostclient.ErrUnauthorized), errors.Is(err, hostclient.ErrForbidden):
		return output.ErrCodeUnauthorized
	case errors.Is(err, hostclient.ErrNotFound):
		return output.ErrCodeNotFound
	case errors.As(err, &fe):
		return output.ErrCodeFetchFailed
	}
	return output.ErrCodeInvalidInput
}
