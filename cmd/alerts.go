package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/alerts"
	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Derive behavioral alerts from an analysis result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		resultPath, _ := cmd.Flags().GetString("result")
		notify, _ := cmd.Flags().GetBool("notify")

		if resultPath == "" {
			return eris.New("--result is required")
		}

		result, err := analysis.Load(resultPath)
		if err != nil {
			return err
		}

		derived := alerts.Derive(result)
		if err := printJSON(os.Stdout, derived); err != nil {
			return err
		}

		if notify {
			n := alerts.NewNotifier(alerts.NotifierConfig{
				WebhookURL:    cfg.Alerts.WebhookURL,
				RatePerMinute: cfg.Alerts.RatePerMinute,
			})
			sent := n.Send(ctx, derived)
			zap.L().Info("alerts dispatched",
				zap.Int("derived", len(derived)),
				zap.Int("sent", sent),
			)
		}
		return nil
	},
}

func init() {
	alertsCmd.Flags().String("result", "", "path to an analysis result JSON file (required)")
	alertsCmd.Flags().Bool("notify", false, "send derived alerts to the configured webhook")
	rootCmd.AddCommand(alertsCmd)
}
