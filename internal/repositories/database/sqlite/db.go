// Package sqlite implements the local persistence primitives over an
// embedded sqlite database: typed document stores for questions, sessions
// and users, the binary payload store for images, and the migration state
// table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/repositories/database/sqlite/migrations"
)

// Store bundles every repository backed by one sqlite database.
type Store struct {
	db *sql.DB

	Questions      repositories.DocumentStore[models.Question]
	Sessions       repositories.DocumentStore[models.PracticeSession]
	Users          repositories.UserStore
	Images         repositories.ImageRepository
	MigrationState repositories.MigrationStateRepository
}

// Open opens (creating if needed) the database at dsn and applies schema
// migrations. Use "file:NAME?mode=memory&cache=shared" for an ephemeral
// store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if strings.Contains(dsn, "memory") {
		// Every connection to an in-memory database sees its own copy
		// unless the pool is pinned to one.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to local store: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wires repositories over an already-migrated database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:             db,
		Questions:      newDocStore[models.Question](db, "questions"),
		Sessions:       newDocStore[models.PracticeSession](db, "sessions"),
		Users:          newUserStore(db),
		Images:         newImageRepository(db),
		MigrationState: newMigrationStateRepository(db),
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply local store migrations: %w", err)
	}
	return nil
}
