package climate

import (
	"gonum.org/v1/gonum/floats"
)

// Summarize computes min, max and mean temperature for every city in the series.
// Cities are never merged: a mixed series yields one summary per city, in the order the
// cities first appear.
func Summarize(series []Observation) ([]SeriesSummary, error) {
	if len(series) == 0 {
		return nil, ErrEmptyInput
	}

	order, temps := temperaturesByCity(series)

	summaries := make([]SeriesSummary, 0, len(order))
	for _, city := range order {
		t := temps[city]
		summaries = append(summaries, SeriesSummary{
			City:  city,
			Min:   floats.Min(t),
			Max:   floats.Max(t),
			Mean:  boundedMean(t),
			Count: len(t),
		})
	}

	return summaries, nil
}

// SummarizeCity is Summarize for a series that must hold exactly one city.
func SummarizeCity(series []Observation) (SeriesSummary, error) {
	summaries, err := Summarize(series)
	if err != nil {
		return SeriesSummary{}, err
	}
	if len(summaries) != 1 {
		return SeriesSummary{}, ErrMixedCities
	}
	return summaries[0], nil
}

func temperaturesByCity(series []Observation) ([]string, map[string][]float64) {
	var order []string
	temps := make(map[string][]float64)
	for _, o := range series {
		if _, seen := temps[o.City]; !seen {
			order = append(order, o.City)
		}
		temps[o.City] = append(temps[o.City], o.Temperature)
	}
	return order, temps
}
