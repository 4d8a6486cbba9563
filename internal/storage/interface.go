// Package storage defines the historical observation stores and selects one from configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/storage/csvfile"
	"github.com/chrissnell/tempwatch/internal/storage/sqlite"
	"github.com/chrissnell/tempwatch/internal/storage/timescaledb"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// ObservationStore provides read access to historical observations
type ObservationStore interface {
	// Cities lists every city with at least one observation
	Cities(ctx context.Context) ([]string, error)

	// Series returns the observations for city ordered by timestamp. An unknown city
	// yields an empty series.
	Series(ctx context.Context, city string) ([]climate.Observation, error)

	Close() error
}

// ObservationWriter is implemented by stores that accept new observations
type ObservationWriter interface {
	Insert(ctx context.Context, observations []climate.Observation) error
}

// New opens the observation store described by cfg. TimescaleDB is preferred over SQLite,
// and SQLite over CSV.
func New(ctx context.Context, cfg config.StorageData, logger *zap.SugaredLogger) (ObservationStore, error) {
	switch {
	case cfg.TimescaleDB.GetConnectionString() != "":
		logger.Info("using TimescaleDB observation store")
		s, err := timescaledb.New(ctx, cfg.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("error opening TimescaleDB store: %w", err)
		}
		return s, nil
	case cfg.SQLite != nil && cfg.SQLite.Path != "":
		logger.Infof("using SQLite observation store at %s", cfg.SQLite.Path)
		s, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("error opening SQLite store: %w", err)
		}
		return s, nil
	case cfg.CSV != nil && cfg.CSV.Path != "":
		logger.Infof("loading observations from %s", cfg.CSV.Path)
		s, err := csvfile.Open(cfg.CSV.Path)
		if err != nil {
			return nil, fmt.Errorf("error opening CSV store: %w", err)
		}
		return s, nil
	default:
		return nil, errors.New("no observation storage configured")
	}
}
