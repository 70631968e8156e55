package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/export"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <artifact>",
	Short: "Verify a signed export artifact",
	Long:  "Recompute the artifact signature and check the expiry window. Exits non-zero when the artifact is tampered or expired.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		b, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read artifact %s", args[0])
		}

		artifact, err := export.Parse(b)
		if err != nil {
			return err
		}

		signer, err := export.NewSigner(cfg.Env, cfg.Export.SigningSecret)
		if err != nil {
			return err
		}

		ok, err := signer.VerifySignature(artifact)
		if err != nil {
			return err
		}
		if !ok {
			return eris.Errorf("artifact %s: signature verification failed", args[0])
		}
		if signer.IsExpired(artifact) {
			return eris.Errorf("artifact %s: expired at %s", args[0], artifact.Meta.ExpiresAt)
		}

		zap.L().Info("artifact verified",
			zap.String("run_id", artifact.Meta.RunID),
			zap.String("tier", artifact.Meta.Tier),
			zap.Time("expires_at", artifact.Meta.ExpiresAt),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
