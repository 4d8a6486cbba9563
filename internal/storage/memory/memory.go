// Package memory keeps observations in memory, grouped by city.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chrissnell/tempwatch/internal/climate"
)

// Store is a concurrency-safe in-memory observation store
type Store struct {
	mu     sync.RWMutex
	cities []string
	series map[string][]climate.Observation
	seen   map[string]map[int64]bool
}

// New creates a store holding observations. Only the first observation of a repeated
// (city, timestamp) pair is kept.
func New(observations []climate.Observation) *Store {
	s := &Store{
		series: make(map[string][]climate.Observation),
		seen:   make(map[string]map[int64]bool),
	}
	s.add(observations)
	return s
}

// Cities lists cities in order of first appearance
func (s *Store) Cities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.cities...), nil
}

// Series returns a copy of the city's observations ordered by timestamp
func (s *Store) Series(ctx context.Context, city string) ([]climate.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]climate.Observation(nil), s.series[city]...), nil
}

// Insert adds observations, keeping each city's series ordered. Observations whose
// (city, timestamp) is already stored are skipped.
func (s *Store) Insert(ctx context.Context, observations []climate.Observation) error {
	s.add(observations)
	return nil
}

func (s *Store) add(observations []climate.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, o := range observations {
		if _, ok := s.series[o.City]; !ok {
			s.cities = append(s.cities, o.City)
			s.seen[o.City] = make(map[int64]bool)
		}
		ts := o.Timestamp.UnixNano()
		if s.seen[o.City][ts] {
			continue
		}
		s.seen[o.City][ts] = true
		s.series[o.City] = append(s.series[o.City], o)
		touched[o.City] = true
	}

	for city := range touched {
		series := s.series[city]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
	}
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
