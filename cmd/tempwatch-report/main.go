package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/controllers/openweathermap"
	"github.com/chrissnell/tempwatch/internal/log"
	"github.com/chrissnell/tempwatch/internal/storage/csvfile"
	"github.com/chrissnell/tempwatch/internal/storage/memory"
)

func main() {
	var (
		csvPath     = flag.String("csv", "", "CSV file with city,timestamp,temperature[,season] columns")
		postgresURL = flag.String("postgres", "", "PostgreSQL/TimescaleDB connection string to read observations from")
		cities      = flag.String("city", "", "Comma-separated cities to report on (default: all)")
		apiKey      = flag.String("api-key", "", "OpenWeatherMap API key; when set, the current temperature is compared with its season")
		apiEndpoint = flag.String("api-endpoint", openweathermap.DefaultEndpoint, "OpenWeatherMap API endpoint")
		window      = flag.Int("window", climate.DefaultDetectorParams().WindowSize, "Rolling window size")
		sigma       = flag.Float64("sigma", climate.DefaultDetectorParams().Sigma, "Rolling envelope width in standard deviations")
		format      = flag.String("format", "text", "Output format: text or json")
		debug       = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if (*csvPath == "") == (*postgresURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: %s (-csv <file> | -postgres <connection string>) [-city Berlin,Cairo] [-api-key KEY]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *format != "text" && *format != "json" {
		log.Fatalf("unsupported format %q", *format)
	}

	ctx := context.Background()

	source, err := openSource(ctx, *csvPath, *postgresURL)
	if err != nil {
		log.Fatalf("Failed to load observations: %v", err)
	}

	analyzer := analysis.NewAnalyzer(source, climate.DetectorParams{WindowSize: *window, Sigma: *sigma}, log.GetSugaredLogger())

	names := splitCities(*cities)
	if len(names) == 0 {
		if names, err = analyzer.Cities(ctx); err != nil {
			log.Fatalf("Failed to list cities: %v", err)
		}
	}

	reports, err := analyzer.AnalyzeCities(ctx, names)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	verdicts := make(map[string]*analysis.VerdictResult)
	if *apiKey != "" {
		client := openweathermap.NewClient(*apiKey, *apiEndpoint, nil)
		for _, city := range names {
			reading, err := client.Current(ctx, city)
			if err != nil {
				log.Warnf("no live reading for %s: %v", city, err)
				continue
			}
			v, err := analyzer.Verdict(ctx, reading.LiveReading)
			if err != nil {
				log.Warnf("cannot compare the live reading for %s: %v", city, err)
				continue
			}
			verdicts[city] = v
		}
	}

	if *format == "json" {
		out := make([]cityReport, 0, len(reports))
		for _, r := range reports {
			out = append(out, cityReport{Report: r, Live: verdicts[r.City]})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		return
	}

	for _, r := range reports {
		if err := writeReport(os.Stdout, r, verdicts[r.City]); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}
}

type cityReport struct {
	*analysis.Report
	Live *analysis.VerdictResult `json:"live,omitempty"`
}

func splitCities(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func openSource(ctx context.Context, csvPath, postgresURL string) (analysis.SeriesSource, error) {
	if csvPath != "" {
		store, err := csvfile.Open(csvPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := loadPostgres(ctx, postgresURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loadPostgres reads the whole observations table into memory
func loadPostgres(ctx context.Context, connStr string) (*memory.Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT city, ts, temperature FROM observations ORDER BY city, ts")
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []climate.Observation
	for rows.Next() {
		var (
			city        string
			ts          time.Time
			temperature float64
		)
		if err := rows.Scan(&city, &ts, &temperature); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, climate.NewObservation(city, ts.UTC(), temperature))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Infof("Loaded %d observations from PostgreSQL", len(observations))
	return memory.New(observations), nil
}
