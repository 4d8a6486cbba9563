package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/jackc/pgtype"
)

func TestObservationRecordConversion(t *testing.T) {
	ts := time.Date(2018, time.March, 3, 0, 0, 0, 0, time.UTC)
	rec := NewObservationRecord(climate.NewObservation("Berlin", ts, 4.5))

	obs := rec.Observation()
	if obs.City != "Berlin" || obs.Temperature != 4.5 || obs.Season != climate.Spring || !obs.Timestamp.Equal(ts) {
		t.Errorf("unexpected observation: %+v", obs)
	}
}

func TestNewLiveReadingRecord(t *testing.T) {
	reading := climate.LiveReading{
		City:  "Cairo",
		Value: 33.2,
		AsOf:  time.Date(2024, time.August, 1, 13, 0, 0, 0, time.UTC),
	}

	rec, err := NewLiveReadingRecord(reading, json.RawMessage(`{"main":{"temp":33.2}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Season != "summer" {
		t.Errorf("expected summer, got %s", rec.Season)
	}
	if rec.Payload.Status != pgtype.Present {
		t.Errorf("expected a present payload, got status %v", rec.Payload.Status)
	}
	if back := rec.LiveReading(); back != reading {
		t.Errorf("expected %+v, got %+v", reading, back)
	}

	empty, err := NewLiveReadingRecord(reading, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(empty.Payload.Bytes) != "{}" {
		t.Errorf("expected an empty object payload, got %s", empty.Payload.Bytes)
	}
}
