package commands

import (
	"encoding/json"
	"os"

	"github.com/hkpeprah/jerbminer/lib/configutil"
	"github.com/hkpeprah/jerbminer/lib/osutil"

	"github.com/spf13/cobra"
)

var (
	userUsername *string
	userPassword *string
	userRankings *bool
)

func init() {
	userUsername = setCmd.Flags().String("username", "", "Portal username to store.")
	userPassword = setCmd.Flags().String("password", "", "Portal password to store.")
	userRankings = userCmd.Flags().Bool("rankings", false, "Show employer rankings instead of the co-op profile.")

	userCmd.AddCommand(setCmd)
	userCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(userCmd)
}

func writeConfig(cfg Config) {
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		osutil.Fatal("failed to encode config", err)
	}
	err = os.WriteFile(*configFile, content, 0600)
	if err != nil {
		osutil.Fatal("failed to write config", err)
	}
}

var userCmd = &cobra.Command{
	Use:   "user [--rankings]",
	Short: "Shows the student's co-op profile, see subcommands for credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		list := client.ListProfile
		if *userRankings {
			list = client.ListRankings
		}
		records, err := list(cmd.Context())
		if err != nil {
			osutil.Fatal("failed to list profile", err)
		}
		renderRecords(records)
	},
}

var setCmd = &cobra.Command{
	Use:   "set --username <username> --password <password>",
	Short: "Stores portal credentials in the config file.",
	Run: func(cmd *cobra.Command, args []string) {
		// start from the existing config when there is one
		cfg, err := configutil.ReadConfig[Config](*configFile)
		if err != nil && !os.IsNotExist(err) {
			osutil.Fatal("failed to read config", err)
		}
		if *userUsername != "" {
			cfg.Username = *userUsername
		}
		if *userPassword != "" {
			cfg.Password = *userPassword
		}
		writeConfig(cfg)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Removes stored credentials from the config file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*configFile)
		if err != nil && !os.IsNotExist(err) {
			osutil.Fatal("failed to read config", err)
		}
		cfg.Username = ""
		cfg.Password = ""
		writeConfig(cfg)
	},
}
