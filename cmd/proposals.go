package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Manage candidate-metric proposals",
}

var proposalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List proposal records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		f := proposal.Filter{Limit: limit}
		if status != "" {
			f.Status = proposal.Status(status)
			if !f.Status.Valid() {
				return eris.Errorf("unknown status: %s", status)
			}
		}

		recs, err := st.List(ctx, f)
		if err != nil {
			return eris.Wrap(err, "proposals list")
		}
		if len(recs) == 0 {
			zap.L().Info("no proposals found")
			return nil
		}

		formatProposals(os.Stdout, recs)
		return nil
	},
}

var proposalsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one proposal record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, rec)
	},
}

var proposalsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new candidate-metric proposal",
	Long:  "Create a proposal record in the queued state. The metric ID must be unique among open proposals.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		metricID, _ := cmd.Flags().GetString("metric-id")
		axis, _ := cmd.Flags().GetString("axis")
		owner, _ := cmd.Flags().GetString("owner")
		inputs, _ := cmd.Flags().GetStringSlice("input")
		plan, _ := cmd.Flags().GetString("validation-plan")

		if name == "" || metricID == "" {
			return eris.New("--name and --metric-id are required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		now := time.Now().UTC()
		rec := &proposal.Record{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
			Status:    proposal.StatusQueued,
			Owner:     owner,
			Payload: proposal.Payload{
				WorkingName:    name,
				MetricID:       metricID,
				Axis:           axis,
				RequiredInputs: inputs,
				ValidationPlan: plan,
			},
		}

		if err := st.Upsert(ctx, rec); err != nil {
			return eris.Wrap(err, "proposals submit")
		}

		zap.L().Info("proposal submitted",
			zap.String("id", rec.ID),
			zap.String("metric_id", metricID),
		)
		fmt.Fprintln(os.Stdout, rec.ID)
		return nil
	},
}

var proposalsTransitionCmd = &cobra.Command{
	Use:   "transition <id> <status>",
	Short: "Move a proposal to a new status",
	Args:  cobra.ExactArgs(2),
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

		note, _ := cmd.Flags().GetString("note")

		rec, err := lc.Transition(ctx, args[0], proposal.Status(args[1]), note)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, rec)
	},
}

func init() {
	proposalsListCmd.Flags().String("status", "", "filter by status")
	proposalsListCmd.Flags().Int("limit", 50, "maximum records to list")

	proposalsSubmitCmd.Flags().String("name", "", "working name of the metric (required)")
	proposalsSubmitCmd.Flags().String("metric-id", "", "stable metric identifier (required)")
	proposalsSubmitCmd.Flags().String("axis", "", "behavioral axis the metric measures")
	proposalsSubmitCmd.Flags().String("owner", "", "proposal owner")
	proposalsSubmitCmd.Flags().StringSlice("input", nil, "required input signal (repeatable)")
	proposalsSubmitCmd.Flags().String("validation-plan", "", "how the metric will be validated in shadow")

	proposalsTransitionCmd.Flags().String("note", "", "note to append with the transition")

	proposalsCmd.AddCommand(proposalsListCmd)
	proposalsCmd.AddCommand(proposalsShowCmd)
	proposalsCmd.AddCommand(proposalsSubmitCmd)
	proposalsCmd.AddCommand(proposalsTransitionCmd)
	rootCmd.AddCommand(proposalsCmd)
}

func formatProposals(out io.Writer, recs []proposal.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMETRIC\tSTATUS\tRUNS\tPROMOTION\tBLOCKERS\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t----\t---------\t--------\t-------")

	for _, r := range recs {
		runs, promo, blockers := "-", "-", "-"
		if r.Eval != nil {
			runs = fmt.Sprintf("%d", r.Eval.ShadowRuns)
			promo = fmt.Sprintf("%.3f", r.Eval.Promotion)
			blockers = fmt.Sprintf("%d", len(r.Eval.Blockers))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			r.Payload.MetricID,
			r.Status,
			runs,
			promo,
			blockers,
			r.UpdatedAt.Format(time.RFC3339),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
