package climate

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func wavy(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10*math.Sin(float64(i)/5) + float64(i%7) - 3
	}
	return out
}

func TestClassifyPreservesLengthAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2, 29, 30, 31, 365} {
		input := series("Singapore", wavy(n)...)

		classified, err := Classify(input)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(classified) != len(input) {
			t.Fatalf("n=%d: expected %d results, got %d", n, len(input), len(classified))
		}
		for i := range input {
			if classified[i].Observation != input[i] {
				t.Fatalf("n=%d: observation %d out of order", n, i)
			}
		}
	}
}

func TestClassifyFirstObservation(t *testing.T) {
	classified, err := Classify(series("Beijing", -7.25, 3, 9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := classified[0]
	if first.RollingMean != -7.25 {
		t.Errorf("expected rolling mean -7.25, got %v", first.RollingMean)
	}
	if first.RollingStd != 0 {
		t.Errorf("expected rolling std 0, got %v", first.RollingStd)
	}
	if first.LowerBound != -7.25 || first.UpperBound != -7.25 {
		t.Errorf("expected collapsed bounds, got [%v, %v]", first.LowerBound, first.UpperBound)
	}
	if first.Band != NormalNegative || first.Position != WithinBand || !first.Negative {
		t.Errorf("expected normal negative, got %+v", first)
	}
}

func TestClassifyRollingWindow(t *testing.T) {
	temps := wavy(80)
	classified, err := Classify(series("Mexico City", temps...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, i := range []int{1, 5, 28, 29, 30, 45, 79} {
		start := i - 29
		if start < 0 {
			start = 0
		}
		mean, std := stat.MeanStdDev(temps[start:i+1], nil)

		if math.Abs(classified[i].RollingMean-mean) > 1e-9 {
			t.Errorf("index %d: expected rolling mean %v, got %v", i, mean, classified[i].RollingMean)
		}
		if math.Abs(classified[i].RollingStd-std) > 1e-9 {
			t.Errorf("index %d: expected rolling std %v, got %v", i, std, classified[i].RollingStd)
		}
		if math.Abs(classified[i].UpperBound-(mean+2*std)) > 1e-9 {
			t.Errorf("index %d: unexpected upper bound %v", i, classified[i].UpperBound)
		}
		if math.Abs(classified[i].LowerBound-(mean-2*std)) > 1e-9 {
			t.Errorf("index %d: unexpected lower bound %v", i, classified[i].LowerBound)
		}
	}
}

func TestClassifyIsCausal(t *testing.T) {
	temps := wavy(60)
	before, err := Classify(series("Rio de Janeiro", temps...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := Classify(series("Rio de Janeiro", append(temps, 1e9)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("index %d changed after appending a sentinel: %+v vs %+v", i, before[i], after[i])
		}
	}
	if after[len(after)-1].Band != AboveNormal {
		t.Errorf("expected the sentinel to be above normal, got %v", after[len(after)-1].Band)
	}
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name     string
		temps    []float64
		band     Band
		position Position
	}{
		{
			name:     "spike above",
			temps:    append(repeat(10, 29), 50),
			band:     AboveNormal,
			position: AboveBand,
		},
		{
			name:     "drop below",
			temps:    append(repeat(10, 29), -30),
			band:     BelowNormal,
			position: BelowBand,
		},
		{
			name:     "zero on both bounds is normal positive",
			temps:    []float64{0, 0},
			band:     NormalPositive,
			position: WithinBand,
		},
		{
			name:     "negative on both bounds is normal negative",
			temps:    []float64{-3, -3},
			band:     NormalNegative,
			position: WithinBand,
		},
		{
			name:     "ordinary warm day",
			temps:    []float64{20, 22, 21, 23, 22},
			band:     NormalPositive,
			position: WithinBand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified, err := Classify(series("Los Angeles", tt.temps...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			last := classified[len(classified)-1]
			if last.Band != tt.band {
				t.Errorf("expected band %v, got %v (bounds [%v, %v])", tt.band, last.Band, last.LowerBound, last.UpperBound)
			}
			if last.Position != tt.position {
				t.Errorf("expected position %v, got %v", tt.position, last.Position)
			}
		})
	}
}

func TestClassifyConstantSeriesIsNormal(t *testing.T) {
	for _, v := range []float64{0.1, 0.7, 21.7, -3.3} {
		classified, err := Classify(series("Reykjavik", repeat(v, 60)...))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, c := range classified {
			if c.Position != WithinBand {
				t.Fatalf("%v index %d: expected within, got %v (mean %v, bounds [%v, %v])",
					v, i, c.Position, c.RollingMean, c.LowerBound, c.UpperBound)
			}
			if c.RollingMean != v || c.RollingStd != 0 {
				t.Fatalf("%v index %d: expected mean %v and std 0, got %v and %v", v, i, v, c.RollingMean, c.RollingStd)
			}
		}
	}
}

func TestClassifyBandIsTotal(t *testing.T) {
	classified, err := Classify(series("Cairo", append(wavy(200), -100, 100)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid := map[Band]bool{BelowNormal: true, NormalNegative: true, NormalPositive: true, AboveNormal: true}
	for i, c := range classified {
		if !valid[c.Band] {
			t.Fatalf("index %d: unexpected band %q", i, c.Band)
		}
		if c.Band != bandFor(c.Position, c.Negative) {
			t.Fatalf("index %d: band %v does not match its axes", i, c.Band)
		}
	}

	counts := BandCounts(classified)
	total := 0
	for _, b := range Bands {
		total += counts[b]
	}
	if total != len(classified) {
		t.Errorf("expected counts to total %d, got %d", len(classified), total)
	}
}

func TestClassifyMixedCities(t *testing.T) {
	mixed := append(series("Tokyo", 1, 2), series("Paris", 3)...)
	if _, err := Classify(mixed); !errors.Is(err, ErrMixedCities) {
		t.Errorf("expected ErrMixedCities, got %v", err)
	}
}

func TestDetectorParams(t *testing.T) {
	d := NewDetector(DetectorParams{})
	if d.Params() != DefaultDetectorParams() {
		t.Errorf("expected defaults, got %+v", d.Params())
	}

	// A one-observation window never has any spread, so every point sits on its bounds.
	classified, err := NewDetector(DetectorParams{WindowSize: 1, Sigma: 3}).Classify(series("Dubai", 30, -2, 45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []Band{NormalPositive, NormalNegative, NormalPositive}
	for i, c := range classified {
		if c.RollingStd != 0 || c.RollingMean != c.Temperature {
			t.Errorf("index %d: expected a degenerate window, got %+v", i, c)
		}
		if c.Band != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], c.Band)
		}
	}
}

func TestPositionText(t *testing.T) {
	for _, p := range []Position{WithinBand, BelowBand, AboveBand} {
		text, _ := p.MarshalText()
		var got Position
		if err := got.UnmarshalText(text); err != nil || got != p {
			t.Errorf("%v: round trip gave %v (err %v)", p, got, err)
		}
	}

	var p Position
	if err := p.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("expected an error for an unknown position")
	}
}
