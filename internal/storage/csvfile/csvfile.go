// Package csvfile serves observations loaded once from a CSV export.
package csvfile

import (
	"github.com/chrissnell/tempwatch/internal/ingest"
	"github.com/chrissnell/tempwatch/internal/storage/memory"
)

// Store is a read-only view over a parsed CSV file
type Store struct {
	*memory.Store
	path string
}

// Open parses the CSV file at path
func Open(path string) (*Store, error) {
	observations, err := ingest.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}

	return &Store{
		Store: memory.New(observations),
		path:  path,
	}, nil
}

// Path returns the file the store was loaded from
func (s *Store) Path() string {
	return s.path
}
