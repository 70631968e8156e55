package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "abraxas",
	Short: "Behavioral metric governance toolkit",
	Long:  "Manages candidate-metric proposals through shadow evaluation, promotion gating, signed result export, and alert derivation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
