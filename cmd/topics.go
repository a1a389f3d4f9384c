package cmd

import (
	"fmt"

	"github.com/marcus/appman/internal/workflow"
	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics <web>",
	Short: "List the topics of a source web",
	Long: `List the topics a partial link can copy or link from a source web.

Examples:
  appman topics Sandbox
  appman topics Sandbox -o json --jq '.[].id'`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession("-")
		if err != nil {
			return report(err)
		}
		defer s.Close()

		topics, err := workflow.TopicFetcher{Source: s.client}.Fetch(cmd.Context(), args[0])
		if err != nil {
			return report(err)
		}
		if topics == nil {
			return report(&workflow.ValidationError{Code: workflow.MissingSource})
		}

		return emit(topics, func() {
			for _, t := range topics {
				fmt.Println(t.ID)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
