// Package sqlite stores observations in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "observation_schema_migrations"

// MigrationProvider returns the embedded observation schema migrations
func MigrationProvider() *migrate.FSProvider {
	return migrate.NewFSProvider(migrationFS, "migrations", migrationTable, "sqlite")
}

// Store reads and writes observations in SQLite. Timestamps are kept as UTC unix milliseconds.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and migrates its schema
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := migrate.NewMigrator(db, MigrationProvider()).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate observation schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Cities lists every city with observations in alphabetical order
func (s *Store) Cities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT city FROM observations ORDER BY city")
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}

	return cities, rows.Err()
}

// Series returns the city's observations ordered by timestamp
func (s *Store) Series(ctx context.Context, city string) ([]climate.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ts_ms, temperature FROM observations WHERE city = ? ORDER BY ts_ms", city)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for %s: %w", city, err)
	}
	defer rows.Close()

	var series []climate.Observation
	for rows.Next() {
		var (
			tsMillis    int64
			temperature float64
		)
		if err := rows.Scan(&tsMillis, &temperature); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		series = append(series, climate.NewObservation(city, time.UnixMilli(tsMillis).UTC(), temperature))
	}

	return series, rows.Err()
}

// Insert writes observations in a single transaction. A repeated (city, timestamp) pair
// keeps the temperature stored first.
func (s *Store) Insert(ctx context.Context, observations []climate.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO observations (city, ts_ms, temperature) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err := stmt.ExecContext(ctx, o.City, o.Timestamp.UTC().UnixMilli(), o.Temperature); err != nil {
			return fmt.Errorf("failed to insert observation for %s at %s: %w",
				o.City, o.Timestamp.Format(time.RFC3339), err)
		}
	}

	return tx.Commit()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
