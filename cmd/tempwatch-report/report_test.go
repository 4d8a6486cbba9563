package main

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
)

func TestSplitCities(t *testing.T) {
	got := splitCities(" Berlin, ,Cairo,")
	if !reflect.DeepEqual(got, []string{"Berlin", "Cairo"}) {
		t.Errorf("unexpected cities: %v", got)
	}
	if splitCities("") != nil {
		t.Error("expected no cities for an empty flag")
	}
}

func TestWriteReport(t *testing.T) {
	report := &analysis.Report{
		City:    "Cairo",
		Params:  climate.DefaultDetectorParams(),
		Summary: climate.SeriesSummary{City: "Cairo", Min: 10, Max: 40, Mean: 25, Count: 3},
		Seasons: []climate.SeasonalStats{
			{City: "Cairo", Season: climate.Winter, Mean: 15, Std: 2.5, Count: 2},
			{City: "Cairo", Season: climate.Summer, Mean: 40, Std: math.NaN(), Count: 1},
		},
		BandCounts: map[climate.Band]int{climate.NormalPositive: 3},
	}
	live := &analysis.VerdictResult{
		Reading:  climate.LiveReading{City: "Cairo", Value: 30, AsOf: time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)},
		Season:   climate.Winter,
		Baseline: report.Seasons[0],
		Verdict:  climate.AnomalousHigh,
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, report, live); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"== Cairo", "winter", "2.50", "n/a", "normal_positive", "anomalous_high"} {
		if !strings.Contains(out, want) {
			t.Errorf("report is missing %q:\n%s", want, out)
		}
	}
}
