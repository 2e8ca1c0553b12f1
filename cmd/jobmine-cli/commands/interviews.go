package commands

import (
	"github.com/hkpeprah/jerbminer/lib/osutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/browse"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(interviewsCmd)
}

var interviewsCmd = &cobra.Command{
	Use:       "interviews [normal|group|special|cancelled]",
	Short:     "Lists scheduled interviews, normal ones by default.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"normal", "group", "special", "cancelled"},
	Run: func(cmd *cobra.Command, args []string) {
		kind := browse.InterviewNormal
		if len(args) == 1 {
			kind = browse.InterviewKind(args[0])
		}

		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		records, err := client.ListInterviews(cmd.Context(), kind)
		if err != nil {
			osutil.Fatal("failed to list interviews", err)
		}
		renderRecords(records)
	},
}
