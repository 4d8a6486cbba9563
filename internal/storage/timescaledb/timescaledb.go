// Package timescaledb reads and writes observations in a TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/database"
)

const insertBatchSize = 1000

// Store is an observation store backed by TimescaleDB
type Store struct {
	db *gorm.DB
}

// New connects to TimescaleDB and migrates the observation tables
func New(ctx context.Context, connectionString string) (*Store, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for callers sharing it, such as live reading logging
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Cities lists every city with observations in alphabetical order
func (s *Store) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	err := s.db.WithContext(ctx).
		Model(&database.ObservationRecord{}).
		Distinct("city").
		Order("city").
		Pluck("city", &cities).Error
	if err != nil {
		return nil, fmt.Errorf("error querying cities: %w", err)
	}
	return cities, nil
}

// Series returns the city's observations ordered by timestamp
func (s *Store) Series(ctx context.Context, city string) ([]climate.Observation, error) {
	var records []database.ObservationRecord
	err := s.db.WithContext(ctx).
		Where("city = ?", city).
		Order("ts").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying observations for %s: %w", city, err)
	}

	series := make([]climate.Observation, 0, len(records))
	for _, r := range records {
		series = append(series, r.Observation())
	}
	return series, nil
}

// Insert writes observations in batches, skipping rows that already exist
func (s *Store) Insert(ctx context.Context, observations []climate.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	records := make([]database.ObservationRecord, 0, len(observations))
	for _, o := range observations {
		records = append(records, database.NewObservationRecord(o))
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(records, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("error inserting observations: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
