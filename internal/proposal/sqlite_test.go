package proposal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_UpsertGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	evalAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{
		ID:     "prop-42",
		Status: StatusInShadow,
		Payload: Payload{
			WorkingName:    "Load fatigue coefficient",
			MetricID:       "lfc",
			Axis:           "strain",
			RequiredInputs: []string{"session_length", "pause_frequency"},
			ValidationPlan: "shadow against 90d history",
		},
		Owner: "metrics-team",
		Notes: []string{"compiled from intake form"},
		Provenance: []Provenance{
			{Kind: ProvenanceProposalHash, Hash: "abc123", At: evalAt},
		},
		Eval: &EvalSnapshot{
			EvaluatedAt: evalAt,
			ShadowRuns:  60,
			Stability:   0.8,
			Utility:     0.7,
			Failure:     0.05,
			Promotion:   0.68,
			Blockers:    []string{},
		},
	}

	require.NoError(t, s.Upsert(ctx, rec))

	got, err := s.Get(ctx, "prop-42")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Status, got.Status)
	assert.Equal(t, rec.Payload, got.Payload)
	assert.Equal(t, rec.Owner, got.Owner)
	assert.Equal(t, rec.Notes, got.Notes)
	require.Len(t, got.Provenance, 1)
	assert.Equal(t, "abc123", got.Provenance[0].Hash)
	require.NotNil(t, got.Eval)
	assert.Equal(t, 60, got.Eval.ShadowRuns)
	assert.InDelta(t, 0.68, got.Eval.Promotion, 1e-9)
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := seedRecord(t, s, "prop-1", StatusQueued)
	rec.Status = StatusApproved
	rec.AppendNote("approved after triage")
	require.NoError(t, s.Upsert(ctx, rec))

	got, err := s.Get(ctx, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	assert.Equal(t, []string{"approved after triage"}, got.Notes)
}

func TestSQLiteStore_ListFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedRecord(t, s, "a", StatusQueued)
	seedRecord(t, s, "b", StatusInShadow)
	seedRecord(t, s, "c", StatusInShadow)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	shadow, err := s.List(ctx, Filter{Status: StatusInShadow})
	require.NoError(t, err)
	require.Len(t, shadow, 2)
	for _, r := range shadow {
		assert.Equal(t, StatusInShadow, r.Status)
	}
}

func TestSQLiteStore_ListLimitOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedRecord(t, s, "a", StatusQueued)
	seedRecord(t, s, "b", StatusQueued)
	seedRecord(t, s, "c", StatusQueued)

	page, err := s.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.List(ctx, Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
