package climate

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type seasonKey struct {
	city   string
	season Season
}

// Profile computes the mean and sample standard deviation (n-1 denominator) of temperature
// for every (city, season) pair present in the series. Seasons that never occur are omitted.
//
// A group with a single observation has an undefined standard deviation, reported as NaN.
// Results are ordered by the city's first appearance, then winter, spring, summer, autumn.
func Profile(series []Observation) ([]SeasonalStats, error) {
	if len(series) == 0 {
		return nil, ErrEmptyInput
	}

	var cities []string
	seen := make(map[string]bool)
	groups := make(map[seasonKey][]float64)
	for _, o := range series {
		if !seen[o.City] {
			seen[o.City] = true
			cities = append(cities, o.City)
		}
		season, err := observationSeason(o)
		if err != nil {
			return nil, err
		}
		k := seasonKey{city: o.City, season: season}
		groups[k] = append(groups[k], o.Temperature)
	}

	var profile []SeasonalStats
	for _, city := range cities {
		for _, season := range Seasons {
			temps, ok := groups[seasonKey{city: city, season: season}]
			if !ok {
				continue
			}
			profile = append(profile, groupStats(city, season, temps))
		}
	}

	return profile, nil
}

func groupStats(city string, season Season, temps []float64) SeasonalStats {
	s := SeasonalStats{
		City:   city,
		Season: season,
		Count:  len(temps),
	}
	if len(temps) == 1 {
		s.Mean = temps[0]
		s.Std = math.NaN()
		return s
	}
	s.Mean, s.Std = meanStd(temps)
	return s
}

// observationSeason normalises the season tag of o, deriving it from the timestamp when
// the tag is empty.
func observationSeason(o Observation) (Season, error) {
	if o.Season == "" {
		return SeasonAt(o.Timestamp), nil
	}
	season, err := ParseSeason(string(o.Season))
	if err != nil {
		return "", fmt.Errorf("observation for %s at %s: %w", o.City, o.Timestamp.Format(time.RFC3339), err)
	}
	return season, nil
}

// LookupSeason returns the stats for (city, season), or a *MissingSeasonError.
func LookupSeason(stats []SeasonalStats, city string, season Season) (SeasonalStats, error) {
	for _, s := range stats {
		if s.City == city && s.Season == season {
			return s, nil
		}
	}
	return SeasonalStats{}, &MissingSeasonError{City: city, Season: season}
}

// MarshalJSON renders an undefined standard deviation as null.
func (s SeasonalStats) MarshalJSON() ([]byte, error) {
	type plain SeasonalStats
	out := struct {
		plain
		Std *float64 `json:"std"`
	}{plain: plain(s)}
	if s.HasStd() {
		std := s.Std
		out.Std = &std
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null standard deviation back as NaN.
func (s *SeasonalStats) UnmarshalJSON(data []byte) error {
	type plain SeasonalStats
	var in struct {
		plain
		Std *float64 `json:"std"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = SeasonalStats(in.plain)
	if in.Std == nil {
		s.Std = math.NaN()
	} else {
		s.Std = *in.Std
	}
	return nil
}
