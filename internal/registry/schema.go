package registry

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// registryVersion is stored in PRAGMA user_version. Bump it with every change
// to schema.sql.
const registryVersion = 1

// ErrSchemaMismatch reports a registry written by an incompatible mvnd.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate creates the tables in a fresh database and refuses to touch one
// stamped with a different version. A zero user_version means a new file.
// Processes opening a fresh registry together serialize on the write lock;
// the loser re-reads the version and finds the tables already created.
func (s *Store) migrate(ctx context.Context) error {
	return retryBusy(ctx, func() error { return s.migrateOnce(ctx) })
}

func (s *Store) migrateOnce(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read registry version: %w", err)
	}
	switch version {
	case registryVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s has version %d, this build expects %d (run mvnd --stop and delete the file)",
			ErrSchemaMismatch, s.path, version, registryVersion)
	}

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create registry tables: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", registryVersion)); err != nil {
		return fmt.Errorf("stamp registry version: %w", err)
	}
	return tx.Commit()
}
