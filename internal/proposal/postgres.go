package proposal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore on an existing pool.
func NewPostgres(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS proposals (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	payload    JSONB NOT NULL,
	owner      TEXT NOT NULL DEFAULT '',
	notes      JSONB NOT NULL DEFAULT '[]',
	provenance JSONB NOT NULL DEFAULT '[]',
	eval       JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Upsert inserts or replaces a record by identifier.
func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) error {
	payload, notes, prov, eval, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: encode record")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO proposals (id, status, payload, owner, notes, provenance, eval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			owner = EXCLUDED.owner,
			notes = EXCLUDED.notes,
			provenance = EXCLUDED.provenance,
			eval = EXCLUDED.eval,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, string(rec.Status), payload, rec.Owner, notes, prov, eval,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert proposal %s", rec.ID)
	}
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, payload, owner, notes, provenance, eval, created_at, updated_at
		FROM proposals WHERE id = $1`, id)

	rec, err := scanPostgresRecord(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get proposal %s", id)
	}
	return rec, nil
}

// List returns records, optionally filtered by status.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}

	var rows pgx.Rows
	var err error
	if f.Status != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, status, payload, owner, notes, provenance, eval, created_at, updated_at
			FROM proposals WHERE status = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
			string(f.Status), limit, f.Offset)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, status, payload, owner, notes, provenance, eval, created_at, updated_at
			FROM proposals ORDER BY created_at, id LIMIT $1 OFFSET $2`,
			limit, f.Offset)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list proposals")
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan proposal")
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanPostgresRecord(row rowScanner) (*Record, error) {
	var rec Record
	var status string
	var payload, notes, prov []byte
	var eval []byte

	if err := row.Scan(&rec.ID, &status, &payload, &rec.Owner, &notes, &prov,
		&eval, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.Status = Status(status)
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &rec.Notes); err != nil {
			return nil, err
		}
	}
	if len(prov) > 0 {
		if err := json.Unmarshal(prov, &rec.Provenance); err != nil {
			return nil, err
		}
	}
	if len(eval) > 0 {
		rec.Eval = &EvalSnapshot{}
		if err := json.Unmarshal(eval, rec.Eval); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}
