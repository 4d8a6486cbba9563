package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temperature_data.csv")
	content := "city,timestamp,temperature,season\n" +
		"Sydney,2010-01-02,25.1,winter\n" +
		"Sydney,2010-01-01,24.3,winter\n" +
		"Dubai,2010-01-01,21.0,winter\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("unexpected path %s", s.Path())
	}

	cities, _ := s.Cities(context.Background())
	if len(cities) != 2 {
		t.Errorf("expected 2 cities, got %v", cities)
	}

	sydney, _ := s.Series(context.Background(), "Sydney")
	if len(sydney) != 2 || sydney[0].Temperature != 24.3 {
		t.Errorf("expected Sydney ordered by time, got %+v", sydney)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
