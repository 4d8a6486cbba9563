package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/tempwatch/internal/storage/csvfile"
	"github.com/chrissnell/tempwatch/internal/storage/memory"
	"github.com/chrissnell/tempwatch/internal/storage/sqlite"
	"github.com/chrissnell/tempwatch/internal/storage/timescaledb"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

var (
	_ ObservationStore  = (*memory.Store)(nil)
	_ ObservationStore  = (*csvfile.Store)(nil)
	_ ObservationStore  = (*sqlite.Store)(nil)
	_ ObservationStore  = (*timescaledb.Store)(nil)
	_ ObservationWriter = (*memory.Store)(nil)
	_ ObservationWriter = (*sqlite.Store)(nil)
	_ ObservationWriter = (*timescaledb.Store)(nil)
)

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(csvPath, []byte("city,timestamp,temperature\nLima,2020-03-01,22.5\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s, err := New(ctx, config.StorageData{CSV: &config.CSVData{Path: csvPath}}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*csvfile.Store); !ok {
		t.Errorf("expected a CSV store, got %T", s)
	}
	s.Close()

	// SQLite wins over CSV when both are configured.
	s, err = New(ctx, config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(dir, "obs.db")},
		CSV:    &config.CSVData{Path: csvPath},
	}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("expected a SQLite store, got %T", s)
	}
	s.Close()

	if _, err := New(ctx, config.StorageData{}, logger); err == nil {
		t.Error("expected an error when no storage is configured")
	}
}
