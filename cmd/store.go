package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

// openStore opens the configured proposal store and runs migrations.
func openStore(ctx context.Context) (proposal.Store, error) {
	var st proposal.Store
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := proposal.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		st = proposal.NewPostgres(pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// openLifecycle opens the store wrapped with transition enforcement.
func openLifecycle(ctx context.Context) (*proposal.Lifecycle, proposal.Store, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return proposal.NewLifecycle(st), st, nil
}
