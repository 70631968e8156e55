// Package promote turns a fully gated proposal into an immutable promotion
// patch. The machine prepares the patch; applying it to the live catalog is
// a separate, reviewed step, so the record ends at ready_to_promote rather
// than promoted.
package promote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

// InitialVersion is the semantic version stamped on a freshly promoted metric.
var InitialVersion = semver.New(0, 1, 0, "", "")

// PreconditionError reports why a promotion could not proceed. Blockers is
// populated when the evaluation snapshot still gates the record, so the
// caller can remediate without a second lookup.
type PreconditionError struct {
	ID       string
	Reason   string
	Blockers []string
}

func (e *PreconditionError) Error() string {
	if len(e.Blockers) > 0 {
		return fmt.Sprintf("promote %s: %s: [%s]", e.ID, e.Reason, strings.Join(e.Blockers, ", "))
	}
	return fmt.Sprintf("promote %s: %s", e.ID, e.Reason)
}

// Patch is the write-once artifact consumed by the external apply step.
type Patch struct {
	MetricID  string          `json:"metric_id"`
	Status    proposal.Status `json:"status"`
	Version   string          `json:"version"`
	Notes     []string        `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Result reports a successful promotion.
type Result struct {
	Record    *proposal.Record `json:"record"`
	Patch     Patch            `json:"patch"`
	PatchPath string           `json:"patch_path"`
}

// Workflow writes promotion patches and advances proposal records.
type Workflow struct {
	lifecycle *proposal.Lifecycle
	outDir    string
	now       func() time.Time
}

// NewWorkflow creates a workflow writing patches into outDir.
func NewWorkflow(lc *proposal.Lifecycle, outDir string) *Workflow {
	return &Workflow{lifecycle: lc, outDir: outDir, now: time.Now}
}

// Promote validates the preconditions, writes the patch artifact, then moves
// the record to ready_to_promote with a pointer provenance entry referencing
// the patch file.
func (w *Workflow) Promote(ctx context.Context, id string) (*Result, error) {
	rec, err := w.lifecycle.Store().Get(ctx, id)
	if err != nil {
		if eris.Is(err, proposal.ErrNotFound) {
			return nil, &PreconditionError{ID: id, Reason: "proposal not found"}
		}
		return nil, err
	}

	if rec.Eval == nil {
		return nil, &PreconditionError{ID: id, Reason: "no evaluation snapshot"}
	}
	if len(rec.Eval.Blockers) > 0 {
		return nil, &PreconditionError{
			ID:       id,
			Reason:   "evaluation has outstanding blockers",
			Blockers: append([]string(nil), rec.Eval.Blockers...),
		}
	}

	createdAt := w.now().UTC()
	patch := Patch{
		MetricID:  rec.Payload.MetricID,
		Status:    proposal.StatusPromoted,
		Version:   InitialVersion.String(),
		Notes:     append([]string(nil), rec.Notes...),
		CreatedAt: createdAt,
	}

	path, err := w.writePatch(patch, createdAt)
	if err != nil {
		return nil, err
	}

	updated, err := w.lifecycle.Update(ctx, id, func(r *proposal.Record) error {
		if !proposal.CanTransition(r.Status, proposal.StatusReadyToPromote) {
			return &proposal.IllegalTransitionError{
				ID: id, From: r.Status, To: proposal.StatusReadyToPromote,
			}
		}
		r.Status = proposal.StatusReadyToPromote
		r.AppendProvenance(proposal.Provenance{
			Kind: proposal.ProvenancePromotionPatch,
			Ref:  path,
			At:   createdAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("promotion patch written",
		zap.String("id", id),
		zap.String("metric_id", patch.MetricID),
		zap.String("patch", path),
	)

	return &Result{Record: updated, Patch: patch, PatchPath: path}, nil
}

// writePatch persists the artifact create-once: an existing file at the same
// path fails rather than being overwritten.
func (w *Workflow) writePatch(patch Patch, createdAt time.Time) (string, error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "promote: create patch dir %s", w.outDir)
	}

	name := fmt.Sprintf("promote_%s_%d.json", patch.MetricID, createdAt.Unix())
	path := filepath.Join(w.outDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", eris.Wrapf(err, "promote: create patch %s", path)
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(patch); err != nil {
		return "", eris.Wrapf(err, "promote: write patch %s", path)
	}
	return path, nil
}
