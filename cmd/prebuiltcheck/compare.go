package main

import (
	"encoding/json"
	"os"
	"os/signal"

	"github.com/prebuiltcheck/backend/internal/app"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/prebuiltcheck/backend/internal/logging"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <url>",
	Short: "Run one comparison and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logging.Close(log)

		// Logs go to stderr so stdout stays valid JSON
		if cfg.Log.File == "" {
			log.SetOutput(os.Stderr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		application, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer application.Close()

		currency, _ := cmd.Flags().GetString("currency")
		userAgent, _ := cmd.Flags().GetString("user-agent")

		result, err := application.Service.Compare(ctx, &domain.CompareRequest{
			URL:       args[0],
			UserAgent: userAgent,
			Currency:  currency,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringP("currency", "c", "", "Report prices in this ISO 4217 currency (default: geolocated)")
	compareCmd.Flags().String("user-agent", "", "User-Agent for the product page request")
}
