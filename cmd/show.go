package cmd

import (
	"fmt"

	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/spf13/cobra"
)

// actionView is the structured form of one catalog entry
type actionView struct {
	Name       string                   `json:"name" yaml:"name"`
	Selectable bool                     `json:"selectable" yaml:"selectable"`
	Toggle     *bool                    `json:"toggle,omitempty" yaml:"toggle,omitempty"`
	Descriptor *models.ActionDescriptor `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Types      []models.TransferType    `json:"types,omitempty" yaml:"types,omitempty"`
	Default    models.TransferType      `json:"default_type,omitempty" yaml:"default_type,omitempty"`
	Problem    string                   `json:"problem,omitempty" yaml:"problem,omitempty"`
}

// appView is the structured form of an application catalog
type appView struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Installed   bool         `json:"installed" yaml:"installed"`
	Actions     []actionView `json:"actions" yaml:"actions"`
}

func newAppView(cat *workflow.Catalog) appView {
	v := appView{Name: cat.App, Description: cat.Description, Installed: cat.Installed()}
	for _, name := range cat.Names() {
		e, _ := cat.Entry(name)
		av := actionView{Name: name, Selectable: cat.Selectable(name), Descriptor: e.Descriptor}
		if e.IsBool() {
			toggle := e.Toggle
			av.Toggle = &toggle
		}
		if desc, err := workflow.RenderForm(name, cat); err != nil {
			av.Problem = err.Error()
		} else {
			av.Types = desc.Types
			av.Default = desc.DefaultType
		}
		v.Actions = append(v.Actions, av)
	}
	return v
}

var showCmd = &cobra.Command{
	Use:     "show <app>",
	Aliases: []string{"catalog"},
	Short:   "Display the action catalog of an application",
	Long: `Display an application's description and the actions it offers.
Actions that cannot be chosen yet are struck through.

Examples:
  appman show wiki
  appman show wiki -o yaml`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession("-")
		if err != nil {
			return report(err)
		}
		defer s.Close()

		cat, err := workflow.CatalogLoader{Source: s.client}.Load(cmd.Context(), args[0])
		if err != nil {
			return report(err)
		}
		view := newAppView(cat)

		return emit(view, func() {
			fmt.Println(output.SectionHeader(view.Name))
			if view.Description != "" {
				if rendered, err := output.RenderMarkdown(view.Description); err == nil {
					fmt.Print(rendered)
				} else {
					fmt.Println(view.Description)
				}
			}
			fmt.Print(output.SectionHeader("Actions"))
			for _, a := range view.Actions {
				fmt.Println(output.FormatActionLine(a.Name, a.Selectable, a.Toggle != nil))
				if a.Descriptor != nil {
					fmt.Println(output.IndentString(output.FormatDescriptor(a.Descriptor), 4))
				}
				if a.Problem != "" {
					fmt.Println(output.IndentString(output.FormatMessage(models.Message{Text: a.Problem, Error: true}), 4))
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
