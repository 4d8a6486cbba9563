package climate

import (
	"fmt"
	"strings"
	"time"
)

// Season is a meteorological season derived from the calendar month.
//
// The mapping uses fixed month buckets and ignores hemisphere: December in Sydney is
// still "winter".
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Seasons lists every season in reporting order.
var Seasons = []Season{Winter, Spring, Summer, Autumn}

var monthToSeason = map[time.Month]Season{
	time.December:  Winter,
	time.January:   Winter,
	time.February:  Winter,
	time.March:     Spring,
	time.April:     Spring,
	time.May:       Spring,
	time.June:      Summer,
	time.July:      Summer,
	time.August:    Summer,
	time.September: Autumn,
	time.October:   Autumn,
	time.November:  Autumn,
}

// SeasonOf returns the season for a calendar month.
func SeasonOf(m time.Month) Season {
	return monthToSeason[m]
}

// SeasonAt returns the season for the month of t.
func SeasonAt(t time.Time) Season {
	return SeasonOf(t.Month())
}

// ParseSeason parses a season name, case-insensitively.
func ParseSeason(s string) (Season, error) {
	season := Season(strings.ToLower(strings.TrimSpace(s)))
	if season.index() < 0 {
		return "", fmt.Errorf("%w %q", ErrUnknownSeason, s)
	}
	return season, nil
}

// index returns the reporting position of the season, or -1 if it is not a known season.
func (s Season) index() int {
	for i, season := range Seasons {
		if s == season {
			return i
		}
	}
	return -1
}

func (s Season) String() string {
	return string(s)
}
