package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/ingest"
	"github.com/chrissnell/tempwatch/internal/log"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Format   ExportFormat
	Output   string
	City     string
}

func main() {
	var cfg Config

	flag.StringVar(&cfg.Host, "host", "localhost", "Database host")
	flag.IntVar(&cfg.Port, "port", 5432, "Database port")
	flag.StringVar(&cfg.Database, "database", "tempwatch", "Database name")
	flag.StringVar(&cfg.User, "user", "postgres", "Database user")
	flag.StringVar(&cfg.Password, "password", "", "Database password")
	flag.StringVar(&cfg.SSLMode, "sslmode", "disable", "SSL mode (disable, require, etc)")
	formatStr := flag.String("format", "csv", "Export format: csv or json")
	flag.StringVar(&cfg.Output, "output", "observations", "Output file base name (extension added automatically), or - for stdout")
	flag.StringVar(&cfg.City, "city", "", "Only export this city")
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	switch ExportFormat(*formatStr) {
	case FormatCSV, FormatJSON:
		cfg.Format = ExportFormat(*formatStr)
	default:
		log.Fatalf("Invalid format: %s. Must be csv or json", *formatStr)
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Infof("Connected to database %s@%s:%d", cfg.Database, cfg.Host, cfg.Port)

	observations, err := fetchObservations(ctx, pool, cfg.City)
	if err != nil {
		log.Fatalf("Failed to read observations: %v", err)
	}
	log.Infof("Found %d observations to export", len(observations))

	var out io.Writer = os.Stdout
	if cfg.Output != "-" {
		filename := cfg.Output + "." + string(cfg.Format)
		file, err := os.Create(filename)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}
		defer file.Close()
		out = file
		log.Infof("Writing %s", filename)
	}

	if err := export(out, cfg.Format, observations); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Info("Export completed successfully")
}

func fetchObservations(ctx context.Context, pool *pgxpool.Pool, city string) ([]climate.Observation, error) {
	query := "SELECT city, ts, temperature FROM observations"
	var args []any
	if city != "" {
		query += " WHERE city = $1"
		args = append(args, city)
	}
	query += " ORDER BY city, ts"

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []climate.Observation
	for rows.Next() {
		var (
			name        string
			ts          time.Time
			temperature float64
		)
		if err := rows.Scan(&name, &ts, &temperature); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, climate.NewObservation(name, ts.UTC(), temperature))
	}
	return observations, rows.Err()
}

func export(w io.Writer, format ExportFormat, observations []climate.Observation) error {
	switch format {
	case FormatJSON:
		if observations == nil {
			observations = []climate.Observation{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(observations)
	default:
		return ingest.WriteCSV(w, observations)
	}
}
