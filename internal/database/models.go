package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// ObservationRecord is one historical temperature reading
type ObservationRecord struct {
	City        string    `gorm:"column:city;primaryKey;not null"`
	Timestamp   time.Time `gorm:"column:ts;primaryKey;not null"`
	Temperature float64   `gorm:"column:temperature;not null"`
}

// TableName specifies the table name for ObservationRecord
func (ObservationRecord) TableName() string {
	return "observations"
}

// Observation converts the record, deriving its season
func (r ObservationRecord) Observation() climate.Observation {
	return climate.NewObservation(r.City, r.Timestamp.UTC(), r.Temperature)
}

// NewObservationRecord converts an observation for storage
func NewObservationRecord(o climate.Observation) ObservationRecord {
	return ObservationRecord{
		City:        o.City,
		Timestamp:   o.Timestamp.UTC(),
		Temperature: o.Temperature,
	}
}

// LiveReadingRecord logs a live reading fetched from the weather service together with the
// raw service response
type LiveReadingRecord struct {
	gorm.Model

	City        string       `gorm:"index:idx_live_city_time,priority:1;not null"`
	ObservedAt  time.Time    `gorm:"index:idx_live_city_time,priority:2;not null"`
	Temperature float64      `gorm:"not null"`
	Season      string       `gorm:"type:text;not null"`
	Payload     pgtype.JSONB `gorm:"type:jsonb;default:'{}';not null"`
}

// TableName specifies the table name for LiveReadingRecord
func (LiveReadingRecord) TableName() string {
	return "live_readings"
}

// NewLiveReadingRecord builds a record for reading; payload is the raw service response
func NewLiveReadingRecord(reading climate.LiveReading, payload json.RawMessage) (LiveReadingRecord, error) {
	rec := LiveReadingRecord{
		City:        reading.City,
		ObservedAt:  reading.AsOf.UTC(),
		Temperature: reading.Value,
		Season:      climate.SeasonAt(reading.AsOf).String(),
	}

	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if err := rec.Payload.Set([]byte(payload)); err != nil {
		return LiveReadingRecord{}, fmt.Errorf("error encoding live reading payload: %w", err)
	}

	return rec, nil
}

// LiveReading converts the record back into a LiveReading
func (r LiveReadingRecord) LiveReading() climate.LiveReading {
	return climate.LiveReading{
		City:  r.City,
		Value: r.Temperature,
		AsOf:  r.ObservedAt,
	}
}
