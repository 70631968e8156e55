package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS proposals (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	payload    TEXT NOT NULL,
	owner      TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '[]',
	provenance TEXT NOT NULL DEFAULT '[]',
	eval       TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces a record by identifier.
func (s *SQLiteStore) Upsert(ctx context.Context, rec *Record) error {
	payload, notes, prov, eval, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode record")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, status, payload, owner, notes, provenance, eval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			owner = excluded.owner,
			notes = excluded.notes,
			provenance = excluded.provenance,
			eval = excluded.eval,
			updated_at = excluded.updated_at`,
		rec.ID, string(rec.Status), payload, rec.Owner, notes, prov, eval,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert proposal %s", rec.ID)
	}
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, payload, owner, notes, provenance, eval, created_at, updated_at
		FROM proposals WHERE id = ?`, id)

	rec, err := scanSQLiteRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get proposal %s", id)
	}
	return rec, nil
}

// List returns records, optionally filtered by status.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := `
		SELECT id, status, payload, owner, notes, provenance, eval, created_at, updated_at
		FROM proposals`
	args := []any{}
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list proposals")
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan proposal")
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*Record, error) {
	var rec Record
	var status, payload, notes, prov string
	var eval sql.NullString

	if err := row.Scan(&rec.ID, &status, &payload, &rec.Owner, &notes, &prov,
		&eval, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	rec.Status = Status(status)
	if err := decodeRecord(&rec, payload, notes, prov, eval.String); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeRecord(rec *Record) (payload, notes, prov string, eval any, err error) {
	p, err := json.Marshal(rec.Payload)
	if err != nil {
		return "", "", "", nil, err
	}
	n, err := json.Marshal(rec.Notes)
	if err != nil {
		return "", "", "", nil, err
	}
	pr, err := json.Marshal(rec.Provenance)
	if err != nil {
		return "", "", "", nil, err
	}
	if rec.Eval != nil {
		e, err := json.Marshal(rec.Eval)
		if err != nil {
			return "", "", "", nil, err
		}
		eval = string(e)
	}
	return string(p), string(n), string(pr), eval, nil
}

func decodeRecord(rec *Record, payload, notes, prov, eval string) error {
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return err
	}
	if notes != "" {
		if err := json.Unmarshal([]byte(notes), &rec.Notes); err != nil {
			return err
		}
	}
	if prov != "" {
		if err := json.Unmarshal([]byte(prov), &rec.Provenance); err != nil {
			return err
		}
	}
	if eval != "" {
		rec.Eval = &EvalSnapshot{}
		if err := json.Unmarshal([]byte(eval), rec.Eval); err != nil {
			return err
		}
	}
	return nil
}
