package main

import (
	"fmt"
	"os"

	"github.com/prebuiltcheck/backend/config"
	"github.com/prebuiltcheck/backend/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prebuiltcheck",
	Short: "Compare a prebuilt PC's price against its parts bought separately.",
	Long: `prebuiltcheck reads a prebuilt gaming PC listing from Newegg, Canadian Computers or Best Buy,
finds each component at retail and reports how much the prebuilt costs over (or under) the parts.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./config, $HOME/.prebuiltcheck, /etc/prebuiltcheck)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Override log level. Available: debug, info, warn, error, fatal")
}

// loadConfig reads configuration and builds the logger, applying flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if level, _ := cmd.Flags().GetString("loglevel"); level != "" {
		cfg.Log.Level = level
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
