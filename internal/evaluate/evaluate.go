package evaluate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/cache"
	"github.com/scrimshawlife-ctrl/abraxas/internal/canon"
	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

// Evaluator runs a shadow-series evaluation against a proposal record and
// persists the resulting snapshot with provenance hashes of the registry
// state and the proposal payload.
type Evaluator struct {
	lifecycle *proposal.Lifecycle
	cache     *cache.Cache
	monitor   *cache.Monitor
	now       func() time.Time
}

// NewEvaluator wires the evaluator to the lifecycle wrapper, a hash
// memoization cache and a performance monitor. cache and monitor may be nil.
func NewEvaluator(lc *proposal.Lifecycle, c *cache.Cache, m *cache.Monitor) *Evaluator {
	return &Evaluator{lifecycle: lc, cache: c, monitor: m, now: time.Now}
}

// Evaluate scores the series, attaches the snapshot to the record and stamps
// registry-state and payload provenance hashes. The record status is left
// untouched; moving it through the lifecycle is an explicit separate call.
func (e *Evaluator) Evaluate(ctx context.Context, id string, series []Sample, goldenFP, goldenFN float64, opts Options) (*proposal.Record, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}

	start := e.now()
	scores, blockers := Compute(series, goldenFP, goldenFN, opts)
	if e.monitor != nil {
		e.monitor.Record("evaluate.compute", e.now().Sub(start), nil)
	}

	registryHash, err := e.registryHash(ctx)
	if err != nil {
		return nil, err
	}

	evaluatedAt := e.now().UTC()
	rec, err := e.lifecycle.Update(ctx, id, func(r *proposal.Record) error {
		payloadHash, err := canon.Hash(r.Payload)
		if err != nil {
			return err
		}

		r.Eval = &proposal.EvalSnapshot{
			EvaluatedAt: evaluatedAt,
			ShadowRuns:  len(series),
			Stability:   scores.Stability,
			Utility:     scores.Utility,
			Failure:     scores.Failure,
			Promotion:   scores.Promotion,
			Blockers:    blockers,
		}
		r.AppendProvenance(proposal.Provenance{
			Kind: proposal.ProvenanceRegistryState,
			Hash: registryHash,
			At:   evaluatedAt,
		})
		r.AppendProvenance(proposal.Provenance{
			Kind: proposal.ProvenanceProposalHash,
			Hash: payloadHash,
			At:   evaluatedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("evaluation complete",
		zap.String("id", id),
		zap.Int("shadow_runs", len(series)),
		zap.Float64("promotion", scores.Promotion),
		zap.Strings("blockers", blockers),
	)
	return rec, nil
}

// registrySnapshot is the minimal catalog state stamped onto records so a
// decision can be audited against the catalog it was made under.
type registrySnapshot struct {
	ID        string          `json:"id"`
	Status    proposal.Status `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// registryHash canonically hashes the catalog state, memoized on a cheap
// fingerprint of the listing so repeated evaluations against an unchanged
// catalog skip the full canonicalization.
func (e *Evaluator) registryHash(ctx context.Context) (string, error) {
	recs, err := e.lifecycle.Store().List(ctx, proposal.Filter{Limit: 10000})
	if err != nil {
		return "", err
	}

	snap := make([]registrySnapshot, len(recs))
	var latest time.Time
	for i, r := range recs {
		snap[i] = registrySnapshot{ID: r.ID, Status: r.Status, UpdatedAt: r.UpdatedAt}
		if r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}

	key := fmt.Sprintf("registry:%d:%d", len(snap), latest.UnixNano())
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			if e.monitor != nil {
				hit := true
				e.monitor.Record("evaluate.registry_hash", 0, &hit)
			}
			return v.(string), nil
		}
	}

	start := e.now()
	h, err := canon.Hash(snap)
	if err != nil {
		return "", err
	}
	if e.cache != nil {
		e.cache.Set(key, h)
	}
	if e.monitor != nil {
		hit := false
		e.monitor.Record("evaluate.registry_hash", e.now().Sub(start), &hit)
	}
	return h, nil
}
