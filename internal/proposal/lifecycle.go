package proposal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// transitions is the complete legal transition graph. Terminal states are
// rejected and deprecated; promoted can still move to deprecated.
var transitions = map[Status][]Status{
	StatusQueued:         {StatusApproved, StatusRejected},
	StatusApproved:       {StatusInShadow},
	StatusInShadow:       {StatusNeedsMoreData, StatusReadyToPromote, StatusRejected},
	StatusNeedsMoreData:  {StatusInShadow},
	StatusReadyToPromote: {StatusPromoted},
	StatusPromoted:       {StatusDeprecated},
}

// CanTransition reports whether moving a record from one status to another
// is legal.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IllegalTransitionError is returned when a status change is not in the
// legal transition graph.
type IllegalTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("proposal %s: illegal transition %s -> %s", e.ID, e.From, e.To)
}

// Lifecycle wraps a Store with transition-legality enforcement and per-record
// write serialization. The store itself is a dumb persistence contract;
// reading a record, checking legality, then upserting is a check-then-act
// sequence, so all writes for one proposal ID go through the same mutex to
// prevent lost updates under concurrent callers.
type Lifecycle struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewLifecycle wraps store with lifecycle enforcement.
func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{
		store: store,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// Store exposes the wrapped store for read-only access.
func (l *Lifecycle) Store() Store {
	return l.store
}

func (l *Lifecycle) lockFor(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Transition moves the record to a new status, appending an optional note.
// Illegal transitions fail with IllegalTransitionError before anything is
// written.
func (l *Lifecycle) Transition(ctx context.Context, id string, to Status, note string) (*Record, error) {
	if !to.Valid() {
		return nil, eris.Errorf("proposal: unknown status %q", to)
	}

	return l.Update(ctx, id, func(rec *Record) error {
		if !CanTransition(rec.Status, to) {
			return &IllegalTransitionError{ID: id, From: rec.Status, To: to}
		}
		zap.L().Info("proposal transition",
			zap.String("id", id),
			zap.String("from", string(rec.Status)),
			zap.String("to", string(to)),
		)
		rec.Status = to
		if note != "" {
			rec.AppendNote(note)
		}
		return nil
	})
}

// Update performs a serialized read-modify-write on one record. The mutate
// callback may change any field except ID and may not move the status
// outside the legal graph.
func (l *Lifecycle) Update(ctx context.Context, id string, mutate func(*Record) error) (*Record, error) {
	lock := l.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	before := rec.Status
	notesBefore := len(rec.Notes)

	if err := mutate(rec); err != nil {
		return nil, err
	}

	if rec.ID != id {
		return nil, eris.Errorf("proposal %s: identifier is immutable", id)
	}
	if len(rec.Notes) < notesBefore {
		return nil, eris.Errorf("proposal %s: notes list is append-only", id)
	}
	if rec.Status != before && !CanTransition(before, rec.Status) {
		return nil, &IllegalTransitionError{ID: id, From: before, To: rec.Status}
	}

	rec.UpdatedAt = l.now().UTC()
	if err := l.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
