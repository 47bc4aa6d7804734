package inference

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrPredictionNotFound is returned by Get for an unknown request ID
var ErrPredictionNotFound = errors.New("prediction log not found")

// PredictionStore persists audit entries of scored requests
type PredictionStore interface {
	// Add a new entry
	Add(entry *PredictionLog) error

	// Get an entry by request ID
	Get(requestID string) (*PredictionLog, error)

	// List the most recent entries, newest first
	List(limit int) ([]*PredictionLog, error)
}

// InMemoryPredictionStore implements PredictionStore using an in-memory map
type InMemoryPredictionStore struct {
	entries map[string]*PredictionLog
	mu      sync.RWMutex
}

// NewInMemoryPredictionStore creates an empty in-memory store
func NewInMemoryPredictionStore() *InMemoryPredictionStore {
	return &InMemoryPredictionStore{
		entries: make(map[string]*PredictionLog),
	}
}

// Add stores entry; request IDs must be unique
func (s *InMemoryPredictionStore) Add(entry *PredictionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.RequestID]; exists {
		return fmt.Errorf("prediction log %s already exists", entry.RequestID)
	}

	stored := *entry
	stored.Items = append([]BatchItem(nil), entry.Items...)
	s.entries[entry.RequestID] = &stored
	return nil
}

// Get retrieves an entry by request ID
func (s *InMemoryPredictionStore) Get(requestID string) (*PredictionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[requestID]
	if !exists {
		return nil, fmt.Errorf("%s: %w", requestID, ErrPredictionNotFound)
	}
	out := *entry
	out.Items = append([]BatchItem(nil), entry.Items...)
	return &out, nil
}

// List returns up to limit entries ordered by CreatedAt, newest first.
// A limit <= 0 returns every entry.
func (s *InMemoryPredictionStore) List(limit int) ([]*PredictionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*PredictionLog, 0, len(s.entries))
	for _, entry := range s.entries {
		e := *entry
		out = append(out, &e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
