package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
	"github.com/scrimshawlife-ctrl/abraxas/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Create a signed export artifact from an analysis result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		resultPath, _ := cmd.Flags().GetString("result")
		tier, _ := cmd.Flags().GetString("tier")
		outPath, _ := cmd.Flags().GetString("out")
		compact, _ := cmd.Flags().GetBool("compact")

		if resultPath == "" {
			return eris.New("--result is required")
		}

		result, err := analysis.Load(resultPath)
		if err != nil {
			return err
		}

		signer, err := export.NewSigner(cfg.Env, cfg.Export.SigningSecret)
		if err != nil {
			return err
		}

		opts := export.DefaultOptions()
		opts.TTLHours = float64(cfg.Export.DefaultTTLHours)
		if cmd.Flags().Changed("ttl-hours") {
			opts.TTLHours, _ = cmd.Flags().GetFloat64("ttl-hours")
		}
		if cmd.Flags().Changed("include-provenance") {
			opts.IncludeProvenance, _ = cmd.Flags().GetBool("include-provenance")
		}

		artifact, err := signer.CreateSignedExport(result, tier, opts)
		if err != nil {
			return err
		}

		var b []byte
		if compact {
			b, err = export.MarshalCompact(artifact)
		} else {
			b, err = export.MarshalPretty(artifact)
		}
		if err != nil {
			return err
		}

		if outPath == "" {
			_, err = os.Stdout.Write(append(b, '\n'))
			return eris.Wrap(err, "write artifact")
		}
		if err := os.WriteFile(outPath, b, 0o644); err != nil {
			return eris.Wrapf(err, "write artifact %s", outPath)
		}

		zap.L().Info("export created",
			zap.String("run_id", artifact.Meta.RunID),
			zap.String("tier", tier),
			zap.String("out", outPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("result", "", "path to an analysis result JSON file (required)")
	exportCmd.Flags().String("tier", "standard", "access tier recorded in the artifact")
	exportCmd.Flags().Float64("ttl-hours", 24, "artifact validity window in hours")
	exportCmd.Flags().Bool("include-provenance", true, "embed the decay context in the artifact")
	exportCmd.Flags().String("out", "", "output path (default stdout)")
	exportCmd.Flags().Bool("compact", false, "emit compact JSON")
	rootCmd.AddCommand(exportCmd)
}
