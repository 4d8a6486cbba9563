package climate

import (
	"fmt"
	"math"
)

// Band is the display classification of an observation against its rolling baseline.
type Band string

const (
	BelowNormal    Band = "below_normal"
	NormalNegative Band = "normal_negative"
	NormalPositive Band = "normal_positive"
	AboveNormal    Band = "above_normal"
)

// Bands lists every band in legend order.
var Bands = []Band{AboveNormal, NormalPositive, NormalNegative, BelowNormal}

// Position locates a temperature relative to the rolling ±σ envelope.
type Position int

const (
	WithinBand Position = iota
	BelowBand
	AboveBand
)

func (p Position) String() string {
	switch p {
	case BelowBand:
		return "below"
	case AboveBand:
		return "above"
	default:
		return "within"
	}
}

// MarshalText lets Position render as its name in JSON.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (p *Position) UnmarshalText(text []byte) error {
	switch string(text) {
	case "within":
		*p = WithinBand
	case "below":
		*p = BelowBand
	case "above":
		*p = AboveBand
	default:
		return fmt.Errorf("unknown position %q", text)
	}
	return nil
}

// ClassifiedObservation is an Observation annotated with its rolling baseline.
//
// Position and Negative are kept as separate axes; Band is derived from them.
type ClassifiedObservation struct {
	Observation
	RollingMean float64  `json:"rolling_mean" msgpack:"rolling_mean"`
	RollingStd  float64  `json:"rolling_std" msgpack:"rolling_std"`
	LowerBound  float64  `json:"lower_bound" msgpack:"lower_bound"`
	UpperBound  float64  `json:"upper_bound" msgpack:"upper_bound"`
	Position    Position `json:"position" msgpack:"position"`
	Negative    bool     `json:"negative" msgpack:"negative"`
	Band        Band     `json:"band" msgpack:"band"`
}

// DetectorParams controls the rolling baseline.
type DetectorParams struct {
	// WindowSize is the number of trailing observations, current one included.
	WindowSize int `json:"window_size" msgpack:"window_size"`

	// Sigma is the number of rolling standard deviations on each side of the mean that
	// still count as normal.
	Sigma float64 `json:"sigma" msgpack:"sigma"`
}

// DefaultDetectorParams returns a 30-observation window with a ±2σ envelope.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		WindowSize: 30,
		Sigma:      2,
	}
}

// Detector classifies observations against a causal rolling baseline.
type Detector struct {
	params DetectorParams
}

// NewDetector creates a Detector. Non-positive parameters fall back to the defaults.
func NewDetector(params DetectorParams) *Detector {
	defaults := DefaultDetectorParams()
	if params.WindowSize < 1 {
		params.WindowSize = defaults.WindowSize
	}
	if params.Sigma <= 0 {
		params.Sigma = defaults.Sigma
	}
	return &Detector{params: params}
}

// Params returns the parameters in effect.
func (d *Detector) Params() DetectorParams {
	return d.params
}

// Classify classifies every observation with the default parameters.
func Classify(series []Observation) ([]ClassifiedObservation, error) {
	return NewDetector(DefaultDetectorParams()).Classify(series)
}

// Classify annotates each observation with the mean and sample standard deviation of the
// trailing window ending at it, and the resulting band. The window at index i covers
// indices max(0, i-WindowSize+1)..i, so no later observation influences an earlier result.
// Output has the same length and order as the input.
func (d *Detector) Classify(series []Observation) ([]ClassifiedObservation, error) {
	classified := make([]ClassifiedObservation, 0, len(series))
	if len(series) == 0 {
		return classified, nil
	}

	city := series[0].City
	window := NewRollingWindow(d.params.WindowSize)

	for _, o := range series {
		if o.City != city {
			return nil, ErrMixedCities
		}

		window.Push(o.Temperature)
		mean, std := window.MeanStd()

		// A one-value window has no spread; its mean is the first temperature itself.
		if math.IsNaN(mean) {
			mean = series[0].Temperature
		}
		if math.IsNaN(std) {
			std = 0
		}

		c := ClassifiedObservation{
			Observation: o,
			RollingMean: mean,
			RollingStd:  std,
			LowerBound:  mean - d.params.Sigma*std,
			UpperBound:  mean + d.params.Sigma*std,
			Negative:    o.Temperature < 0,
		}
		c.Position = locate(o.Temperature, c.LowerBound, c.UpperBound)
		c.Band = bandFor(c.Position, c.Negative)

		classified = append(classified, c)
	}

	return classified, nil
}

// locate compares strictly, so a temperature exactly on a bound is within the band.
func locate(t, lower, upper float64) Position {
	switch {
	case t < lower:
		return BelowBand
	case t > upper:
		return AboveBand
	default:
		return WithinBand
	}
}

func bandFor(p Position, negative bool) Band {
	switch {
	case p == BelowBand:
		return BelowNormal
	case p == AboveBand:
		return AboveNormal
	case negative:
		return NormalNegative
	default:
		return NormalPositive
	}
}

// BandCounts tallies classified observations per band. Every band is present in the result.
func BandCounts(classified []ClassifiedObservation) map[Band]int {
	counts := make(map[Band]int, len(Bands))
	for _, b := range Bands {
		counts[b] = 0
	}
	for _, c := range classified {
		counts[c.Band]++
	}
	return counts
}
