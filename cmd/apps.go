package cmd

import (
	"fmt"

	"github.com/marcus/appman/internal/models"
	"github.com/marcus/appman/internal/output"
	"github.com/marcus/appman/internal/workflow"
	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"ls"},
	Short:   "List the applications registered with the host",
	Long: `List the applications registered with the host, managed ones first.

Examples:
  appman apps                       # Managed and unmanaged sections
  appman apps --managed             # Only applications the console can select
  appman apps -o json --jq '.[].id' # Ids for scripting`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession("-")
		if err != nil {
			return report(err)
		}
		defer s.Close()

		apps, err := s.client.ListApplications(cmd.Context())
		if err != nil {
			return report(&workflow.FetchError{Op: "applications", Err: err})
		}
		models.SortApplications(apps)

		managedOnly, _ := cmd.Flags().GetBool("managed")
		managed, unmanaged := splitApplications(apps)
		if managedOnly {
			apps, unmanaged = managed, nil
		}

		return emit(apps, func() {
			if len(apps) == 0 {
				fmt.Println("No applications")
				return
			}
			for _, a := range managed {
				fmt.Println(output.FormatApplication(a))
			}
			if len(unmanaged) > 0 {
				fmt.Print(output.SectionHeader("Unmanaged"))
				for _, a := range unmanaged {
					fmt.Println(output.FormatApplication(a))
				}
			}
		})
	},
}

// splitApplications partitions a sorted list, keeping order within each part
func splitApplications(apps []models.Application) (managed, unmanaged []models.Application) {
	for _, a := range apps {
		if a.Managed() {
			managed = append(managed, a)
		} else {
			unmanaged = append(unmanaged, a)
		}
	}
	return managed, unmanaged
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().Bool("managed", false, "only list managed applications")
}
