package wx

import (
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current weather dataset.
// Datasets are immutable once stored; readers get a consistent snapshot.
type Store struct {
	dataset atomic.Pointer[Dataset]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// AgeSeconds returns the age of the current dataset in seconds.
// Returns -1 if no dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}
