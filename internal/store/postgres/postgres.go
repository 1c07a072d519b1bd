// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alderglen/lookout/internal/model"
	"github.com/alderglen/lookout/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertEvent(ctx context.Context, e *model.Event) error {
	return queryInsertEvent(ctx, s.db, e)
}

func (s *PostgresStore) ListEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, limit)
}

func (s *PostgresStore) UpsertReview(ctx context.Context, r *model.Review) error {
	return queryUpsertReview(ctx, s.db, r)
}

func (s *PostgresStore) GetReview(ctx context.Context, reviewID string) (*model.Review, error) {
	return queryGetReview(ctx, s.db, reviewID)
}

func (s *PostgresStore) ListReviews(ctx context.Context, limit int) ([]*model.Review, error) {
	return queryListReviews(ctx, s.db, limit)
}

func (s *PostgresStore) InsertTrackedObject(ctx context.Context, o *model.TrackedObject) error {
	return queryInsertTrackedObject(ctx, s.db, o)
}

func (s *PostgresStore) ListTrackedObjects(ctx context.Context, limit int) ([]*model.TrackedObject, error) {
	return queryListTrackedObjects(ctx, s.db, limit)
}
