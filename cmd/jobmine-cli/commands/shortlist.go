package commands

import (
	"log/slog"

	"github.com/hkpeprah/jerbminer/lib/osutil"

	"github.com/spf13/cobra"
)

var (
	shortlistAdd    *string
	shortlistRemove *string
)

func init() {
	shortlistAdd = shortlistCmd.Flags().String("add", "", "Add the job with this id to the shortlist.")
	shortlistRemove = shortlistCmd.Flags().String("remove", "", "Remove the job with this id from the shortlist.")
	rootCmd.AddCommand(shortlistCmd)
}

var shortlistCmd = &cobra.Command{
	Use:   "shortlist [--add <job_id>] [--remove <job_id>]",
	Short: "Lists the job shortlist, or adds/removes a job.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		if *shortlistAdd != "" {
			added, err := client.AddToShortlist(cmd.Context(), *shortlistAdd, nil)
			if err != nil {
				osutil.Fatal("failed to add to shortlist", err)
			}
			if !added {
				slog.Info("job not added, missing or already shortlisted", "job", *shortlistAdd)
			}
			return
		}
		if *shortlistRemove != "" {
			removed, err := client.RemoveFromShortlist(cmd.Context(), *shortlistRemove)
			if err != nil {
				osutil.Fatal("failed to remove from shortlist", err)
			}
			if !removed {
				slog.Info("job was not on the shortlist", "job", *shortlistRemove)
			}
			return
		}

		records, err := client.ListShortlist(cmd.Context())
		if err != nil {
			osutil.Fatal("failed to list shortlist", err)
		}
		renderRecords(records)
	},
}
