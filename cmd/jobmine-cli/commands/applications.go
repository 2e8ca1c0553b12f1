package commands

import (
	"github.com/hkpeprah/jerbminer/lib/osutil"

	"github.com/spf13/cobra"
)

var (
	applicationsInactive *bool
	applicationsRemove   *string
)

func init() {
	applicationsInactive = applicationsCmd.Flags().Bool("inactive", false, "List inactive applications instead of active ones.")
	applicationsRemove = applicationsCmd.Flags().String("remove", "", "Withdraw the active application for this job id.")
	rootCmd.AddCommand(applicationsCmd)
}

var applicationsCmd = &cobra.Command{
	Use:   "applications [--inactive] [--remove <job_id>]",
	Short: "Lists or withdraws job applications.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		if *applicationsRemove != "" {
			err := client.RemoveApplication(cmd.Context(), *applicationsRemove)
			if err != nil {
				osutil.Fatal("failed to remove application", err)
			}
			return
		}

		records, err := client.ListApplications(cmd.Context(), !*applicationsInactive)
		if err != nil {
			osutil.Fatal("failed to list applications", err)
		}
		renderRecords(records)
	},
}
