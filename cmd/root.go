// Package cmd is the shipscore command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"shipscore/config"
	"shipscore/utils"
)

var (
	// v collects defaults, the environment, the config file and flags.
	v = config.NewViper()

	configFile string
	cfg        *config.Config
	logger     = utils.NewLogger()
)

var rootCmd = &cobra.Command{
	Use:   "shipscore",
	Short: "Score App Store and Google Play listings for launch readiness.",
	Long: `shipscore fetches a store listing, scores it across ten dimensions
(discoverability, screenshots, reviews, update cadence and more) and keeps
every result in a gallery that can be served over HTTP or exported.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = utils.NewLoggerTo(os.Stderr, cfg.LogLevel)
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("store", config.StoreSQLite, "gallery backend: sqlite, postgres or json")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("country", "us", "App Store storefront country")
	flags.Bool("use-browser", false, "render Google Play pages in headless Chrome")
	flags.String("tuning-file", "", "JSON5 file overriding the scoring weights and thresholds")

	for key, flag := range map[string]string{
		"store":       "store",
		"log_level":   "log-level",
		"country":     "country",
		"use_browser": "use-browser",
		"tuning_file": "tuning-file",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(serveCmd, analyzeCmd, galleryCmd)
}
