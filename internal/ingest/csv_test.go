package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
)

const sampleCSV = `city,timestamp,temperature,season
New York,2010-01-02,-1.5,winter
London,2010-01-01,4.2,winter
New York,2010-01-01,-3.25,winter
New York,2010-06-01,24.0,summer
`

func TestParseCSV(t *testing.T) {
	obs, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 4 {
		t.Fatalf("expected 4 observations, got %d", len(obs))
	}

	first := obs[0]
	if first.City != "New York" || first.Temperature != -1.5 || first.Season != climate.Winter {
		t.Errorf("unexpected first observation: %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2010, time.January, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp: %v", first.Timestamp)
	}
	if obs[3].Season != climate.Summer {
		t.Errorf("expected summer, got %v", obs[3].Season)
	}
}

func TestParseCSVWithoutSeasonColumn(t *testing.T) {
	input := "timestamp,temperature,city\n2015-10-05 12:00:00,11.5,Paris\n"
	obs, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 1 || obs[0].Season != climate.Autumn {
		t.Errorf("expected one autumn observation, got %+v", obs)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"missing column", "city,timestamp\nParis,2010-01-01\n", "temperature"},
		{"bad temperature", "city,timestamp,temperature\nParis,2010-01-01,warm\n", "line 2"},
		{"bad timestamp", "city,timestamp,temperature\nParis,yesterday,3\n", "unable to parse timestamp"},
		{"season mismatch", "city,timestamp,temperature,season\nParis,2010-07-01,25,winter\n", "does not match"},
		{"unknown season", "city,timestamp,temperature,season\nParis,2010-07-01,25,dry\n", "unknown season"},
		{"not finite", "city,timestamp,temperature\nParis,2010-07-01,NaN\n", "finite"},
		{"empty city", "city,timestamp,temperature\n,2010-07-01,3\n", "empty city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFilterCity(t *testing.T) {
	obs, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ny := FilterCity(obs, "New York")
	if len(ny) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(ny))
	}
	for i := 1; i < len(ny); i++ {
		if ny[i].Timestamp.Before(ny[i-1].Timestamp) {
			t.Errorf("observations out of order at %d", i)
		}
	}
	if ny[0].Temperature != -3.25 {
		t.Errorf("expected earliest reading first, got %+v", ny[0])
	}

	if got := FilterCity(obs, "Oslo"); len(got) != 0 {
		t.Errorf("expected no observations, got %d", len(got))
	}

	cities := Cities(obs)
	if len(cities) != 2 || cities[0] != "New York" || cities[1] != "London" {
		t.Errorf("unexpected cities: %v", cities)
	}
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temperature_data.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	obs, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 4 {
		t.Errorf("expected 4 observations, got %d", len(obs))
	}

	if _, err := ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteCSV(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*3600)
	observations := []climate.Observation{
		climate.NewObservation("Moscow", time.Date(2011, time.March, 1, 2, 0, 0, 0, moscow), -0.125),
		climate.NewObservation("Moscow", time.Date(2011, time.March, 2, 0, 0, 0, 0, time.UTC), 1),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, observations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "city,timestamp,temperature,season" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// 02:00 MSK on March 1st is February 28th in UTC; the offset keeps it in spring.
	if lines[1] != "Moscow,2011-03-01T02:00:00+03:00,-0.125,spring" {
		t.Errorf("unexpected first row: %s", lines[1])
	}

	parsed, err := ParseCSV(&buf)
	if err != nil {
		t.Fatalf("written CSV did not parse: %v", err)
	}
	if len(parsed) != 2 || !parsed[0].Timestamp.Equal(observations[0].Timestamp) || parsed[1].Temperature != 1 {
		t.Errorf("unexpected parsed observations: %+v", parsed)
	}
}
