package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/promote"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <id>",
	Short: "Write a promotion patch for a gated proposal",
	Long:  "Check the proposal's evaluation snapshot against the promotion gates, write an immutable promotion patch, and move the record to ready_to_promote.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		lc, st, err := openLifecycle(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		patchDir, _ := cmd.Flags().GetString("patch-dir")
		if patchDir == "" {
			patchDir = cfg.Governance.PatchDir
		}

		res, err := promote.NewWorkflow(lc, patchDir).Promote(ctx, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("promotion prepared",
			zap.String("id", args[0]),
			zap.String("patch", res.PatchPath),
		)
		return printJSON(os.Stdout, res)
	},
}

func init() {
	promoteCmd.Flags().String("patch-dir", "", "patch output directory (default from config)")
	rootCmd.AddCommand(promoteCmd)
}
