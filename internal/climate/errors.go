package climate

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an operation needs at least one observation.
	ErrEmptyInput = errors.New("no observations supplied")

	// ErrMixedCities is returned when a single-city operation receives several cities.
	ErrMixedCities = errors.New("series contains more than one city")

	// ErrUndefinedStatistic is returned when a baseline has no defined standard deviation.
	ErrUndefinedStatistic = errors.New("insufficient data: standard deviation is undefined")

	// ErrUnknownSeason is returned for a season name outside winter, spring, summer, autumn.
	ErrUnknownSeason = errors.New("unknown season")
)

// MissingSeasonError reports that the history holds no observations for a season.
type MissingSeasonError struct {
	City   string
	Season Season
}

func (e *MissingSeasonError) Error() string {
	return fmt.Sprintf("no historical data for city %q in season %s", e.City, e.Season)
}
