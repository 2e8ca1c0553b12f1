package commands

import (
	"log/slog"

	"github.com/hkpeprah/jerbminer/lib/jobstore"
	"github.com/hkpeprah/jerbminer/lib/osutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/browse"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/query"

	"github.com/spf13/cobra"
)

var (
	jobsView        *string
	jobsSave        *bool
	jobsLimit       *int
	jobsTitle       *string
	jobsEmployer    *string
	jobsLocation    *string
	jobsTerm        *string
	jobsStatus      *string
	jobsLevels      *[]string
	jobsDisciplines *[]string
)

func init() {
	jobsView = jobsCmd.Flags().String("view", "", "View the details of a single job by id instead of searching.")
	jobsSave = jobsCmd.Flags().Bool("save", false, "Persist search results (with details) to the local database.")
	jobsLimit = jobsCmd.Flags().Int("limit", 0, "Stop after this many results, 0 for no limit.")
	jobsTitle = jobsCmd.Flags().String("title", "", "Filter by job title.")
	jobsEmployer = jobsCmd.Flags().String("employer", "", "Filter by employer name.")
	jobsLocation = jobsCmd.Flags().String("location", "", "Filter by work location.")
	jobsTerm = jobsCmd.Flags().String("term", "", "Work term, e.g. 'fall 2014'.")
	jobsStatus = jobsCmd.Flags().String("status", "", "Posting status: approved, available, cancelled or posted.")
	jobsLevels = jobsCmd.Flags().StringSlice("levels", nil, "Co-op levels, e.g. jr,int,sr.")
	jobsDisciplines = jobsCmd.Flags().StringSlice("disciplines", nil, "Up to three program names, fuzzy matched.")
	rootCmd.AddCommand(jobsCmd)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [--view <job_id>] [--save] [filter flags]",
	Short: "Searches job postings, or views a single posting's details.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		if *jobsView != "" {
			detail, err := client.ViewJob(cmd.Context(), *jobsView)
			if err != nil {
				osutil.Fatal("failed to view job", err)
			}
			renderRecord(detail)
			return
		}

		listings, err := client.ListJobs(cmd.Context(), browse.SearchOptions{
			Limit: *jobsLimit,
			Filters: &query.Filters{
				Title:       *jobsTitle,
				Employer:    *jobsEmployer,
				Location:    *jobsLocation,
				Term:        *jobsTerm,
				Status:      *jobsStatus,
				Levels:      *jobsLevels,
				Disciplines: *jobsDisciplines,
			},
		})
		if err != nil {
			osutil.Fatal("job search failed", err)
		}
		renderRecords(listings)

		if !*jobsSave {
			return
		}
		store, err := jobstore.Open(cfg.Database)
		if err != nil {
			osutil.Fatal("failed to open database", err)
		}
		defer store.Close()

		for _, listing := range listings {
			jobId := listing.Get("Job Identifier")
			detail, err := client.ViewJob(cmd.Context(), jobId)
			if err != nil {
				slog.Warn("failed to fetch job details", "job", jobId, "err", err)
				continue
			}
			job, err := jobstore.FromListing(listing, detail)
			if err != nil {
				slog.Warn("skipping unusable listing", "err", err)
				continue
			}
			err = store.Put(cmd.Context(), job)
			if err != nil {
				osutil.Fatal("failed to save job", err)
			}
		}
		slog.Info("saved search results", "database", cfg.Database)
	},
}
