// Package database manages GORM connections to TimescaleDB and the record types stored there.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/tempwatch/internal/log"
	"go.uber.org/zap"
)

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warnf("warning: unable to create a TimescaleDB connection: %v", err)
		return nil, err
	}
	log.Info("TimescaleDB connection successful")

	return db, nil
}

// EnableHypertable turns table into a TimescaleDB hypertable partitioned on timeColumn.
// Plain PostgreSQL servers without the extension are tolerated: the table keeps working as
// an ordinary table and a warning is logged.
func EnableHypertable(ctx context.Context, db *gorm.DB, table, timeColumn string) {
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		log.Warnf("could not create TimescaleDB extension, continuing with a plain table: %v", err)
		return
	}

	err := db.WithContext(ctx).Exec(
		"SELECT create_hypertable(?, ?, if_not_exists => TRUE, migrate_data => TRUE)",
		table, timeColumn,
	).Error
	if err != nil {
		log.Warnf("could not create hypertable %s: %v", table, err)
	}
}

// Migrate creates or updates the tables for every record type in this package
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&ObservationRecord{}, &LiveReadingRecord{}); err != nil {
		return fmt.Errorf("error migrating TimescaleDB tables: %w", err)
	}
	EnableHypertable(ctx, db, ObservationRecord{}.TableName(), "ts")
	return nil
}

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`
