package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/hkpeprah/jerbminer/lib/configutil"
	"github.com/hkpeprah/jerbminer/lib/osutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/browse"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/core"

	"github.com/spf13/cobra"
)

const defaultBaseUrl = "https://jobmine.ccol.uwaterloo.ca"

type Config struct {
	BaseUrl    string `json:"base_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	CookieFile string `json:"cookie_file"`
	Database   string `json:"database"`
}

var configFile *string

var rootCmd = &cobra.Command{
	Use:   "jobmine-cli",
	Short: "jobmine-cli browses and automates the Jobmine co-op portal.",
}

func init() {
	configFile = rootCmd.PersistentFlags().String("config", "jobmine.json5", "The config file holding portal credentials.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configFile)
	if err != nil && !os.IsNotExist(err) {
		osutil.Fatal("failed to read config", err)
	}
	if cfg.BaseUrl == "" {
		cfg.BaseUrl = defaultBaseUrl
	}
	if cfg.CookieFile == "" {
		cfg.CookieFile = ".jobmine-cookies.json"
	}
	if cfg.Database == "" {
		cfg.Database = "jerbminer.db"
	}
	return cfg
}

// createClient logs into the portal with the configured credentials.
func createClient(ctx context.Context, cfg Config) browse.Client {
	coreClient, err := core.NewClient(ctx, core.ClientOptions{
		BaseUrl:    cfg.BaseUrl,
		CookieFile: cfg.CookieFile,
	})
	if err != nil {
		osutil.Fatal("failed to initialize core jobmine client", err)
	}

	if cfg.Username == "" || cfg.Password == "" {
		osutil.Fatal("no credentials configured",
			fmt.Errorf("run `jobmine-cli user set` first"))
	}
	err = coreClient.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		osutil.Fatal("failed to login to jobmine", err)
	}

	return browse.NewClient(coreClient)
}
