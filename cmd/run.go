package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcus/appman/internal/logging"
	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// transferTypeValue is a pflag.Value accepting copy, move, link or linkpartial
type transferTypeValue models.TransferType

var _ pflag.Value = (*transferTypeValue)(nil)

func (v *transferTypeValue) String() string { return string(*v) }

func (v *transferTypeValue) Set(s string) error {
	t := models.TransferType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return fmt.Errorf("must be one of copy, move, link, linkpartial")
	}
	*v = transferTypeValue(t)
	return nil
}

func (v *transferTypeValue) Type() string { return "type" }

// topicList is a repeatable, comma-separated list of topic ids
type topicList []string

var _ pflag.Value = (*topicList)(nil)

func (l *topicList) String() string { return strings.Join(*l, ",") }

func (l *topicList) Set(s string) error {
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*l = append(*l, id)
		}
	}
	return nil
}

func (l *topicList) Type() string { return "topics" }

// runOptions carries the flags of the run command
type runOptions struct {
	Type        transferTypeValue
	Destination string
	DestSet     bool
	Source      string
	Copy        topicList
	Link        topicList
}

// runHost is the part of the host a run request is prepared against
type runHost interface {
	workflow.CatalogSource
	workflow.TopicSource
}

// prepareRun fills a form the way the console does and validates it
func prepareRun(ctx context.Context, host runHost, app, action string, opts runOptions) (models.ActionRequest, error) {
	cat, err := workflow.CatalogLoader{Source: host}.Load(ctx, app)
	if err != nil {
		return models.ActionRequest{}, err
	}
	if _, ok := cat.Entry(action); ok && !cat.Selectable(action) {
		return models.ActionRequest{}, fmt.Errorf("action %q is not available until %s is installed", action, app)
	}
	desc, err := workflow.RenderForm(action, cat)
	if err != nil {
		return models.ActionRequest{}, err
	}

	fs := workflow.NewFormState(app, desc)
	if opts.Type != "" {
		if err := fs.SetType(models.TransferType(opts.Type)); err != nil {
			return models.ActionRequest{}, err
		}
	}
	if opts.DestSet {
		fs.Destination = opts.Destination
	}

	if !fs.PartialLink() {
		if opts.Source != "" || len(opts.Copy)+len(opts.Link) > 0 {
			return models.ActionRequest{}, fmt.Errorf("--from, --copy and --link need --type linkpartial")
		}
		return workflow.BuildRequest(fs)
	}

	fs.Source = opts.Source
	if strings.TrimSpace(fs.Source) != "" {
		topics, err := workflow.TopicFetcher{Source: host}.Fetch(ctx, fs.Source)
		if err != nil {
			return models.ActionRequest{}, err
		}
		fs.SetTopics(topics)
		if err := applyDispositions(fs, opts.Copy, opts.Link); err != nil {
			return models.ActionRequest{}, err
		}
	}
	return workflow.BuildRequest(fs)
}

func applyDispositions(fs *workflow.FormState, copyIDs, linkIDs []string) error {
	seen := make(map[string]models.Disposition)
	set := func(ids []string, d models.Disposition) error {
		for _, id := range ids {
			if prev, ok := seen[id]; ok && prev != d {
				return fmt.Errorf("topic %q cannot be both copied and linked", id)
			}
			seen[id] = d
			if err := fs.SetDisposition(id, d); err != nil {
				return err
			}
		}
		return nil
	}
	if err := set(copyIDs, models.DispositionCopy); err != nil {
		return err
	}
	return set(linkIDs, models.DispositionLink)
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <app> <action>",
	Short: "Submit an action for an application",
	Long: `Submit an action with the same checks the console applies.
The exit status is non-zero when validation fails, the host reports an
error, or the host cannot be reached.

Examples:
  appman run wiki install                           # default type and destination
  appman run wiki install --type copy --to Main
  appman run wiki install --type linkpartial --to Main --from Sandbox \
      --copy WebHome --link WebPreferences,WebNotify
  appman run wiki uninstall
  appman run wiki install --dry-run -o json         # print the request only`,
	GroupID: "core",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession("-")
		if err != nil {
			return report(err)
		}
		defer s.Close()

		ctx, _ := logging.WithRequestID(logging.WithAppID(cmd.Context(), args[0]))
		runOpts.DestSet = cmd.Flags().Changed("to")

		req, err := prepareRun(ctx, s.client, args[0], args[1], runOpts)
		if err != nil {
			return report(err)
		}
		s.logger.DebugContext(ctx, "prepared action request", "action", req.Action, "type", req.Type)

		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			return emit(req, func() {
				_ = output.WriteJSON(cmd.OutOrStdout(), req)
			})
		}

		outcome, err := workflow.ActionSubmitter{Runner: s.client}.Submit(ctx, req)
		if err != nil {
			s.logger.WarnContext(ctx, "action failed", "action", req.Action, "err", err)
			if structuredOutput() && outcome.Result.Error {
				_ = emit(outcome.Result, func() {})
				return &reportedError{err: err}
			}
			return report(err)
		}
		s.logger.InfoContext(ctx, "action submitted", "action", req.Action)

		return emit(outcome.Result, func() {
			if outcome.Result.Message == "" {
				output.Success("%s %s: done", req.App, req.Action)
				return
			}
			output.Success("%s", outcome.Result.Message)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.Var(&runOpts.Type, "type", "transfer type: copy, move, link, linkpartial (install only)")
	f.StringVar(&runOpts.Destination, "to", "", "destination web (defaults to the action's default destination)")
	f.StringVar(&runOpts.Source, "from", "", "source web for linkpartial")
	f.Var(&runOpts.Copy, "copy", "topics to copy from the source (repeatable, comma-separated)")
	f.Var(&runOpts.Link, "link", "topics to link from the source (repeatable, comma-separated)")
	f.Bool("dry-run", false, "validate and print the request without submitting it")
}
