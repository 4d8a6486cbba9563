package climate

import (
	"math"
)

// Verdict is the classification of a single reading against a seasonal baseline.
type Verdict string

const (
	Normal        Verdict = "normal"
	AnomalousLow  Verdict = "anomalous_low"
	AnomalousHigh Verdict = "anomalous_high"
)

// BaselineSigma is the number of seasonal standard deviations that still count as normal.
const BaselineSigma = 2.0

// CompareToBaseline classifies value against a season's historical mean and standard
// deviation. Baselines built from a single observation have no standard deviation and
// yield ErrUndefinedStatistic.
func CompareToBaseline(value float64, s SeasonalStats) (Verdict, error) {
	if !s.HasStd() {
		return "", ErrUndefinedStatistic
	}

	switch {
	case math.Abs(value-s.Mean) <= BaselineSigma*s.Std:
		return Normal, nil
	case value < s.Mean-BaselineSigma*s.Std:
		return AnomalousLow, nil
	default:
		return AnomalousHigh, nil
	}
}

// CompareLiveReading looks up the profile entry for the reading's city and the season of
// its date, then classifies the reading against it.
func CompareLiveReading(reading LiveReading, stats []SeasonalStats) (Verdict, Season, error) {
	season := SeasonAt(reading.AsOf)

	baseline, err := LookupSeason(stats, reading.City, season)
	if err != nil {
		return "", season, err
	}

	verdict, err := CompareToBaseline(reading.Value, baseline)
	return verdict, season, err
}
