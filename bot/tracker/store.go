// Package tracker persists completed-job counters to a flat JSON file
// and projects them onto read-only display channels.
package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Category selects which counter an increment targets.
type Category string

const (
	CategorySoap Category = "soap"
	CategoryNNID Category = "nnid"
)

type counts struct {
	SoapCount int `json:"soap_count"`
	NNIDCount int `json:"nnid_count"`
}

// Store is the flat-file counter store. Increments are read-modify-write
// over the whole file: concurrent writers are last-writer-wins, which is
// accepted for this volume. The mutex only serializes writers within
// this process.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open prepares the store, creating the file with zero counts when it
// does not exist yet. A file that cannot be created is not fatal: reads
// fall back to zero and writes will retry the path on each increment.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("tracker: empty counters path")
	}
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(counts{}); err != nil {
			return nil, fmt.Errorf("tracker: initialize %s: %w", path, err)
		}
	}
	return s, nil
}

// Read returns the current counters. A missing or corrupt file reads as
// (0, 0) rather than failing.
func (s *Store) Read() (soap, nnid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.read()
	return c.SoapCount, c.NNIDCount
}

// Increment bumps one counter and rewrites the whole file.
func (s *Store) Increment(cat Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.read()
	switch cat {
	case CategorySoap:
		c.SoapCount++
	case CategoryNNID:
		c.NNIDCount++
	default:
		return fmt.Errorf("tracker: unknown category %q", cat)
	}
	if err := s.write(c); err != nil {
		return fmt.Errorf("tracker: save counts: %w", err)
	}
	return nil
}

func (s *Store) read() counts {
	var c counts
	data, err := os.ReadFile(s.path)
	if err != nil {
		return counts{}
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return counts{}
	}
	if c.SoapCount < 0 {
		c.SoapCount = 0
	}
	if c.NNIDCount < 0 {
		c.NNIDCount = 0
	}
	return c
}

func (s *Store) write(c counts) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
