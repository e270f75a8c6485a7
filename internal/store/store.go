// Package store holds named satellite element-set records in memory. The
// computation layer never persists anything itself; the store only exists to
// hand an element-set text to the parser on request.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/elements"
)

// Record is one stored satellite.
type Record struct {
	ID           int
	Name         string
	ElementsText string
	CreatedAt    time.Time
}

// NotFoundError reports a lookup for an id that does not exist.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("satellite %d not found", e.ID)
}

// Store is an in-memory satellite record store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[int]Record
	nextID  int

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[int]Record),
		nextID:  1,
		now:     time.Now,
	}
}

// Create validates the element-set text and stores a new record. The record
// name defaults to the element set's name line when empty.
func (s *Store) Create(name, elementsText string) (Record, error) {
	set, err := elements.Parse(elementsText)
	if err != nil {
		return Record{}, fmt.Errorf("validating element set: %w", err)
	}
	if name == "" {
		name = set.Name
	}
	if name == "" {
		name = fmt.Sprintf("SAT %d", set.SatelliteNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{
		ID:           s.nextID,
		Name:         name,
		ElementsText: elementsText,
		CreatedAt:    s.now().UTC(),
	}
	s.records[rec.ID] = rec
	s.nextID++
	return rec, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, &NotFoundError{ID: id}
	}
	return rec, nil
}

// List returns all records ordered by id.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
