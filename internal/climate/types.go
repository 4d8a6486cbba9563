package climate

import (
	"math"
	"time"
)

// Observation is a single historical temperature reading for a city.
type Observation struct {
	City        string    `json:"city" msgpack:"city"`
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
	Temperature float64   `json:"temperature" msgpack:"temperature"`
	Season      Season    `json:"season" msgpack:"season"`
}

// NewObservation builds an Observation with its season derived from the timestamp.
func NewObservation(city string, ts time.Time, temperature float64) Observation {
	return Observation{
		City:        city,
		Timestamp:   ts,
		Temperature: temperature,
		Season:      SeasonAt(ts),
	}
}

// SeriesSummary holds the descriptive statistics of one city's series.
type SeriesSummary struct {
	City  string  `json:"city" msgpack:"city"`
	Min   float64 `json:"min" msgpack:"min"`
	Max   float64 `json:"max" msgpack:"max"`
	Mean  float64 `json:"mean" msgpack:"mean"`
	Count int     `json:"count" msgpack:"count"`
}

// SeasonalStats holds the mean and sample standard deviation of one (city, season) group.
// Std is NaN when the group has a single observation.
type SeasonalStats struct {
	City   string  `json:"city" msgpack:"city"`
	Season Season  `json:"season" msgpack:"season"`
	Mean   float64 `json:"mean" msgpack:"mean"`
	Std    float64 `json:"std" msgpack:"std"`
	Count  int     `json:"count" msgpack:"count"`
}

// HasStd reports whether the standard deviation is defined for this group.
func (s SeasonalStats) HasStd() bool {
	return !math.IsNaN(s.Std)
}

// LiveReading is a current temperature supplied from outside the historical series.
type LiveReading struct {
	City  string    `json:"city" msgpack:"city"`
	Value float64   `json:"value" msgpack:"value"`
	AsOf  time.Time `json:"as_of" msgpack:"as_of"`
}
