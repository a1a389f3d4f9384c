package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/appman/internal/config"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/marcus/appman/pkg/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Interactive application manager",
	Long: `Launch the interactive console: the application list on the left and
the action panel of the selected application on the right.

Key bindings (override them in keymap.json next to the config file):
  Tab/Shift+Tab  Switch panes
  j/k            Move cursor
  Enter          Select application / choose action
  t/T            Next/previous transfer type
  e              Edit destination and source
  f              Fetch topics of the source web
  Space          Cycle topic disposition
  s, Ctrl+S      Submit
  r              Reload application list
  ?              Toggle help
  q              Quit

Logs go to the appman.log file next to the config file unless --log-file is set.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return report(errors.New("console needs an interactive terminal; use apps, show and run from scripts"))
		}

		s, err := openSession("")
		if err != nil {
			return report(err)
		}
		defer s.Close()

		ctx := cmd.Context()
		busy := &console.BusyIndicator{}
		ctrl := workflow.NewController(s.client,
			workflow.WithBusy(busy),
			workflow.WithLogger(s.logger),
		)

		km, err := console.Bootstrap(ctx, ctrl, config.KeymapPath(s.configPath))
		if err != nil {
			output.Warning("%v (using default key bindings)", err)
			km = nil
		}

		markdownStyle, _ := cmd.Flags().GetString("markdown-style")
		model := console.NewModel(ctrl, console.Options{
			Context:   ctx,
			Logger:    s.logger,
			Theme:     s.settings.Theme,
			Keymap:    km,
			Preloaded: true,
			Markdown:  markdownStyle,
		})

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		busy.Attach(p.Send)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return report(fmt.Errorf("error running console: %w", err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("markdown-style", "", "glamour style for descriptions: dark, light, notty (default detects)")
}
