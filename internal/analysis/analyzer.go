// Package analysis runs the temperature statistics pipeline over stored observations.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownCity is returned when a city has no stored observations
var ErrUnknownCity = errors.New("unknown city")

// SeriesSource supplies ordered historical observations per city
type SeriesSource interface {
	Cities(ctx context.Context) ([]string, error)
	Series(ctx context.Context, city string) ([]climate.Observation, error)
}

// Report is the full analysis of one city's series
type Report struct {
	RunID        uuid.UUID                       `json:"run_id" msgpack:"run_id"`
	City         string                          `json:"city" msgpack:"city"`
	GeneratedAt  time.Time                       `json:"generated_at" msgpack:"generated_at"`
	Params       climate.DetectorParams          `json:"params" msgpack:"params"`
	Summary      climate.SeriesSummary           `json:"summary" msgpack:"summary"`
	Seasons      []climate.SeasonalStats         `json:"seasons" msgpack:"seasons"`
	Observations []climate.ClassifiedObservation `json:"observations" msgpack:"observations"`
	BandCounts   map[climate.Band]int            `json:"band_counts" msgpack:"band_counts"`
}

// VerdictResult is the outcome of comparing a live reading with its seasonal baseline
type VerdictResult struct {
	Reading  climate.LiveReading   `json:"reading" msgpack:"reading"`
	Season   climate.Season        `json:"season" msgpack:"season"`
	Baseline climate.SeasonalStats `json:"baseline" msgpack:"baseline"`
	Verdict  climate.Verdict       `json:"verdict" msgpack:"verdict"`
}

// Analyzer runs the summary, seasonal profile and anomaly detection for cities held in a
// SeriesSource
type Analyzer struct {
	source   SeriesSource
	detector *climate.Detector
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewAnalyzer creates an analyzer reading from source
func NewAnalyzer(source SeriesSource, params climate.DetectorParams, logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{
		source:   source,
		detector: climate.NewDetector(params),
		logger:   logger,
		now:      time.Now,
	}
}

// Cities lists the cities available for analysis
func (a *Analyzer) Cities(ctx context.Context) ([]string, error) {
	return a.source.Cities(ctx)
}

// Series loads a city's observations, returning ErrUnknownCity when there are none
func (a *Analyzer) Series(ctx context.Context, city string) ([]climate.Observation, error) {
	series, err := a.source.Series(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("error loading series for %s: %w", city, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return series, nil
}

// Summary returns the min, max and mean of a city's series
func (a *Analyzer) Summary(ctx context.Context, city string) (climate.SeriesSummary, error) {
	series, err := a.Series(ctx, city)
	if err != nil {
		return climate.SeriesSummary{}, err
	}
	return climate.SummarizeCity(series)
}

// Seasons returns the seasonal profile of a city
func (a *Analyzer) Seasons(ctx context.Context, city string) ([]climate.SeasonalStats, error) {
	series, err := a.Series(ctx, city)
	if err != nil {
		return nil, err
	}
	return climate.Profile(series)
}

// Anomalies classifies every observation of a city against its rolling window
func (a *Analyzer) Anomalies(ctx context.Context, city string) ([]climate.ClassifiedObservation, error) {
	series, err := a.Series(ctx, city)
	if err != nil {
		return nil, err
	}
	return a.detector.Classify(series)
}

// AnalyzeCity produces a full report for city
func (a *Analyzer) AnalyzeCity(ctx context.Context, city string) (*Report, error) {
	series, err := a.Series(ctx, city)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	a.logger.Debugw("analyzing city", "run_id", runID.String(), "city", city, "observations", len(series))

	summary, err := climate.SummarizeCity(series)
	if err != nil {
		return nil, fmt.Errorf("error summarizing %s: %w", city, err)
	}

	seasons, err := climate.Profile(series)
	if err != nil {
		return nil, fmt.Errorf("error profiling %s: %w", city, err)
	}

	classified, err := a.detector.Classify(series)
	if err != nil {
		return nil, fmt.Errorf("error classifying %s: %w", city, err)
	}

	return &Report{
		RunID:        runID,
		City:         city,
		GeneratedAt:  a.now().UTC(),
		Params:       a.detector.Params(),
		Summary:      summary,
		Seasons:      seasons,
		Observations: classified,
		BandCounts:   climate.BandCounts(classified),
	}, nil
}

// AnalyzeCities analyzes each city concurrently. Reports are returned in the order of cities,
// and the first failure cancels the remaining work.
func (a *Analyzer) AnalyzeCities(ctx context.Context, cities []string) ([]*Report, error) {
	reports := make([]*Report, len(cities))

	g, gctx := errgroup.WithContext(ctx)
	for i, city := range cities {
		i, city := i, city
		g.Go(func() error {
			report, err := a.AnalyzeCity(gctx, city)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Verdict compares a live reading with the seasonal baseline of its city
func (a *Analyzer) Verdict(ctx context.Context, reading climate.LiveReading) (*VerdictResult, error) {
	stats, err := a.Seasons(ctx, reading.City)
	if err != nil {
		return nil, err
	}

	verdict, season, err := climate.CompareLiveReading(reading, stats)
	if err != nil {
		return nil, err
	}

	// CompareLiveReading succeeded, so the lookup cannot fail.
	baseline, _ := climate.LookupSeason(stats, reading.City, season)

	a.logger.Debugw("compared live reading", "city", reading.City, "season", season.String(),
		"value", reading.Value, "verdict", string(verdict))

	return &VerdictResult{
		Reading:  reading,
		Season:   season,
		Baseline: baseline,
		Verdict:  verdict,
	}, nil
}
