package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scrimshawlife-ctrl/abraxas/internal/cache"
	"github.com/scrimshawlife-ctrl/abraxas/internal/evaluate"
	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [id]",
	Short: "Score shadow-run series and attach evaluation snapshots",
	Long:  "Compute stability, utility, failure, and promotion scores for one proposal from a shadow-run series, or for every in_shadow proposal with --all.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		if all {
			return evaluateAll(ctx, cmd)
		}

		if len(args) != 1 {
			return eris.New("a proposal id is required unless --all is set")
		}

		seriesPath, _ := cmd.Flags().GetString("series")
		if seriesPath == "" {
			return eris.New("--series is required")
		}

		lc, st, err := openLifecycle(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ev, err := newEvaluator(lc)
		if err != nil {
			return err
		}

		series, err := evaluate.LoadSeries(seriesPath)
		if err != nil {
			return err
		}

		fp, fn, err := goldenRates(cmd)
		if err != nil {
			return err
		}

		rec, err := ev.Evaluate(ctx, args[0], series, fp, fn, evaluateOptions(cmd))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, rec.Eval)
	},
}

// evaluateAll scores every in_shadow proposal whose series file exists under
// --series-dir, a few at a time.
func evaluateAll(ctx context.Context, cmd *cobra.Command) error {
	seriesDir, _ := cmd.Flags().GetString("series-dir")
	if seriesDir == "" {
		return eris.New("--series-dir is required with --all")
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	lc, st, err := openLifecycle(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ev, err := newEvaluator(lc)
	if err != nil {
		return err
	}

	recs, err := st.List(ctx, proposal.Filter{Status: proposal.StatusInShadow, Limit: 1000})
	if err != nil {
		return eris.Wrap(err, "evaluate: list in_shadow proposals")
	}

	fp, fn, err := goldenRates(cmd)
	if err != nil {
		return err
	}
	opts := evaluateOptions(cmd)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	evaluated := 0
	for _, rec := range recs {
		rec := rec
		path := filepath.Join(seriesDir, rec.ID+".json")
		if _, err := os.Stat(path); err != nil {
			zap.L().Debug("no series file, skipping",
				zap.String("id", rec.ID),
				zap.String("path", path),
			)
			continue
		}
		evaluated++

		g.Go(func() error {
			series, err := evaluate.LoadSeries(path)
			if err != nil {
				return err
			}
			_, err = ev.Evaluate(gctx, rec.ID, series, fp, fn, opts)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	zap.L().Info("batch evaluation complete", zap.Int("evaluated", evaluated))
	return nil
}

// newEvaluator builds an evaluator with the configured hash cache and a
// performance monitor.
func newEvaluator(lc *proposal.Lifecycle) (*evaluate.Evaluator, error) {
	c, err := cache.New(cfg.Cache.MaxSize, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return evaluate.NewEvaluator(lc, c, cache.NewMonitor(256)), nil
}

// goldenRates resolves false-positive/false-negative rates from a golden case
// file when given, otherwise from the explicit flags.
func goldenRates(cmd *cobra.Command) (fp, fn float64, err error) {
	goldenPath, _ := cmd.Flags().GetString("golden")
	if goldenPath != "" {
		return evaluate.LoadGolden(goldenPath)
	}
	fp, _ = cmd.Flags().GetFloat64("fp")
	fn, _ = cmd.Flags().GetFloat64("fn")
	return fp, fn, nil
}

func evaluateOptions(cmd *cobra.Command) evaluate.Options {
	alertAssoc, _ := cmd.Flags().GetFloat64("alert-assoc")
	strainRed, _ := cmd.Flags().GetFloat64("strain-reduction")
	return evaluate.Options{AlertAssoc: alertAssoc, StrainReduction: strainRed}
}

func init() {
	evaluateCmd.Flags().String("series", "", "path to a shadow-run series JSON file")
	evaluateCmd.Flags().String("golden", "", "path to a golden case YAML file")
	evaluateCmd.Flags().Float64("fp", 0, "false-positive rate (ignored when --golden is set)")
	evaluateCmd.Flags().Float64("fn", 0, "false-negative rate (ignored when --golden is set)")
	evaluateCmd.Flags().Float64("alert-assoc", 0, "alert association signal in [-1,1]")
	evaluateCmd.Flags().Float64("strain-reduction", 0, "strain reduction signal in [-1,1]")
	evaluateCmd.Flags().Bool("all", false, "evaluate every in_shadow proposal")
	evaluateCmd.Flags().String("series-dir", "", "directory of <id>.json series files (with --all)")
	evaluateCmd.Flags().Int("concurrency", 4, "parallel evaluations (with --all)")
	rootCmd.AddCommand(evaluateCmd)
}
