// Package ingest turns historical temperature files into season-tagged observations.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
)

// Column names recognised in the CSV header.
const (
	ColumnCity        = "city"
	ColumnTimestamp   = "timestamp"
	ColumnTemperature = "temperature"
	ColumnSeason      = "season"
)

var timestampFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseTimestamp parses the timestamp layouts found in historical weather exports.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", value)
}

// ReadCSVFile opens path and parses it with ParseCSV.
func ReadCSVFile(path string) ([]climate.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ParseCSV reads observations from CSV with a header row holding at least the city,
// timestamp and temperature columns. A season column is optional; when present it must
// agree with the season derived from the timestamp's month.
func ParseCSV(r io.Reader) ([]climate.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("CSV input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColumnCity, ColumnTimestamp, ColumnTemperature} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV header is missing the %q column", required)
		}
	}
	seasonCol, hasSeason := columns[ColumnSeason]

	var observations []climate.Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		city := strings.TrimSpace(record[columns[ColumnCity]])
		if city == "" {
			return nil, fmt.Errorf("line %d: empty city", line)
		}

		ts, err := ParseTimestamp(record[columns[ColumnTimestamp]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		temp, err := strconv.ParseFloat(strings.TrimSpace(record[columns[ColumnTemperature]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid temperature: %w", line, err)
		}
		if math.IsNaN(temp) || math.IsInf(temp, 0) {
			return nil, fmt.Errorf("line %d: temperature must be finite", line)
		}

		o := climate.NewObservation(city, ts, temp)
		if hasSeason && strings.TrimSpace(record[seasonCol]) != "" {
			season, err := climate.ParseSeason(record[seasonCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if season != o.Season {
				return nil, fmt.Errorf("line %d: season %s does not match month %s", line, season, ts.Month())
			}
		}

		observations = append(observations, o)
	}

	return observations, nil
}

// FilterCity returns the observations for city ordered by timestamp. Observations sharing a
// timestamp keep their input order.
func FilterCity(observations []climate.Observation, city string) []climate.Observation {
	var filtered []climate.Observation
	for _, o := range observations {
		if o.City == city {
			filtered = append(filtered, o)
		}
	}
	SortByTime(filtered)
	return filtered
}

// SortByTime orders observations by timestamp in place.
func SortByTime(observations []climate.Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})
}

// Cities lists the distinct cities in order of first appearance.
func Cities(observations []climate.Observation) []string {
	var cities []string
	seen := make(map[string]bool)
	for _, o := range observations {
		if !seen[o.City] {
			seen[o.City] = true
			cities = append(cities, o.City)
		}
	}
	return cities
}

// WriteCSV writes observations with a city,timestamp,temperature,season header in a form
// ParseCSV reads back. Timestamps keep their UTC offset so the season still matches.
func WriteCSV(w io.Writer, observations []climate.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnCity, ColumnTimestamp, ColumnTemperature, ColumnSeason}); err != nil {
		return err
	}

	for _, o := range observations {
		season := o.Season
		if season == "" {
			season = climate.SeasonAt(o.Timestamp)
		}
		record := []string{
			o.City,
			o.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(o.Temperature, 'f', -1, 64),
			season.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
