package proposal

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no record exists for an identifier.
var ErrNotFound = eris.New("proposal: not found")

// Filter narrows a List call.
type Filter struct {
	Status Status `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines persistence for proposal records. It is a plain contract:
// legality of status transitions is enforced by the Lifecycle wrapper, not
// here. Implementations assume a single writer per store instance and do not
// guarantee global ID uniqueness across distributed writers.
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Migrate(ctx context.Context) error
	Close() error
}
