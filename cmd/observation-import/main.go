package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/database"
	"github.com/chrissnell/tempwatch/internal/ingest"
	"github.com/chrissnell/tempwatch/internal/log"
	"github.com/chrissnell/tempwatch/internal/storage"
	"github.com/chrissnell/tempwatch/internal/storage/sqlite"
)

type Config struct {
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	SSLMode   string
	CSVFile    string
	SQLitePath string
	BatchSize  int
	Migrate    bool
}

const stagingTable = "observations_import"

var observationColumns = []string{"city", "ts", "temperature"}

func main() {
	var cfg Config

	flag.StringVar(&cfg.Host, "host", "localhost", "Database host")
	flag.IntVar(&cfg.Port, "port", 5432, "Database port")
	flag.StringVar(&cfg.Database, "database", "tempwatch", "Database name")
	flag.StringVar(&cfg.User, "user", "postgres", "Database user")
	flag.StringVar(&cfg.Password, "password", "", "Database password")
	flag.StringVar(&cfg.SSLMode, "sslmode", "disable", "SSL mode (disable, require, etc)")
	flag.StringVar(&cfg.CSVFile, "file", "", "CSV file to import (required)")
	flag.StringVar(&cfg.SQLitePath, "sqlite", "", "Import into this SQLite observation database instead of PostgreSQL")
	flag.IntVar(&cfg.BatchSize, "batch", 1000, "Number of rows to copy per batch")
	flag.BoolVar(&cfg.Migrate, "migrate", true, "Create the observations table if it does not exist")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.CSVFile == "" {
		log.Fatalf("CSV file is required. Use -file flag")
	}
	if cfg.BatchSize < 1 {
		log.Fatalf("batch size must be at least 1")
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Info("Import completed successfully!")
}

func (c Config) connectionString() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode)
}

func run(ctx context.Context, cfg Config) error {
	file, err := os.Open(cfg.CSVFile)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// The whole file is validated before anything is written
	pr := &progressReader{reader: file, total: fileInfo.Size()}
	observations, err := ingest.ParseCSV(pr)
	if err != nil {
		return err
	}
	log.Infof("Parsed %d observations for %d cities", len(observations), len(ingest.Cities(observations)))

	if cfg.SQLitePath != "" {
		store, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		return writeObservations(ctx, store, observations, cfg.BatchSize)
	}

	if cfg.Migrate {
		db, err := database.CreateConnection(cfg.connectionString())
		if err != nil {
			return err
		}
		err = database.Migrate(ctx, db)
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		if err != nil {
			return err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.connectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Infof("Connected to database %s@%s:%d", cfg.Database, cfg.Host, cfg.Port)

	inserted, err := importObservations(ctx, pool, observations, cfg.BatchSize)
	if err != nil {
		return err
	}
	log.Infof("Inserted %d new observations", inserted)
	if skipped := int64(len(observations)) - inserted; skipped > 0 {
		log.Warnw("skipped observations already present", "count", skipped)
	}
	return nil
}

// writeObservations inserts observations through w in batches. Stores keep the first
// observation of a repeated (city, timestamp), so re-running an import is harmless.
func writeObservations(ctx context.Context, w storage.ObservationWriter, observations []climate.Observation, batchSize int) error {
	for start := 0; start < len(observations); start += batchSize {
		end := start + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		if err := w.Insert(ctx, observations[start:end]); err != nil {
			return fmt.Errorf("failed to write observations: %w", err)
		}
		log.Debugw("wrote batch", "written", end, "total", len(observations))
	}
	return nil
}

// importObservations copies observations into a staging table in batches and merges them
// into observations, skipping rows whose (city, ts) already exists
func importObservations(ctx context.Context, pool *pgxpool.Pool, observations []climate.Observation, batchSize int) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "CREATE TEMP TABLE "+stagingTable+" (LIKE observations INCLUDING DEFAULTS) ON COMMIT DROP")
	if err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	copied := 0
	for _, batch := range batchRows(observations, batchSize) {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, observationColumns, pgx.CopyFromRows(batch))
		if err != nil {
			return 0, fmt.Errorf("failed to copy batch: %w", err)
		}
		copied += int(n)
		log.Infof("Copied %d of %d rows", copied, len(observations))
	}

	tag, err := tx.Exec(ctx, "INSERT INTO observations (city, ts, temperature) "+
		"SELECT city, ts, temperature FROM "+stagingTable+" ON CONFLICT (city, ts) DO NOTHING")
	if err != nil {
		return 0, fmt.Errorf("failed to merge observations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}

// batchRows converts observations into CopyFrom rows of at most size rows each
func batchRows(observations []climate.Observation, size int) [][][]any {
	var batches [][][]any
	for start := 0; start < len(observations); start += size {
		end := start + size
		if end > len(observations) {
			end = len(observations)
		}

		batch := make([][]any, 0, end-start)
		for _, o := range observations[start:end] {
			batch = append(batch, []any{o.City, o.Timestamp.UTC(), o.Temperature})
		}
		batches = append(batches, batch)
	}
	return batches
}

type progressReader struct {
	reader   io.Reader
	total    int64
	progress int64
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	pr.progress += int64(n)
	if pr.total > 0 && err == io.EOF {
		log.Debugf("Read %d of %d bytes", pr.progress, pr.total)
	}
	return n, err
}
