package inference

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPredictionStoreInterface(t *testing.T) {
	var _ PredictionStore = (*InMemoryPredictionStore)(nil)
	var _ PredictionStore = (*PostgresPredictionStore)(nil)
}

func TestInMemoryPredictionStore_AddGet(t *testing.T) {
	store := NewInMemoryPredictionStore()

	entry := &PredictionLog{
		RequestID: "req-1",
		Source:    SourceBatch,
		Records:   2,
		Positives: 1,
		Items:     []BatchItem{{Index: 0, ChurnPrediction: 1, ChurnProbability: 0.9}, {Index: 1}},
		CreatedAt: time.Now(),
	}
	if err := store.Add(entry); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	got, err := store.Get("req-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Records != 2 || got.Source != SourceBatch || len(got.Items) != 2 {
		t.Errorf("Get() = %+v", got)
	}

	// stored entries are isolated from the caller's slice
	entry.Items[0].ChurnPrediction = 0
	got, _ = store.Get("req-1")
	if got.Items[0].ChurnPrediction != 1 {
		t.Error("store shares Items with the caller")
	}
}

func TestInMemoryPredictionStore_Errors(t *testing.T) {
	store := NewInMemoryPredictionStore()

	if _, err := store.Get("absent"); !errors.Is(err, ErrPredictionNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrPredictionNotFound", err)
	}

	entry := &PredictionLog{RequestID: "dup", Records: 1}
	if err := store.Add(entry); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := store.Add(entry); err == nil {
		t.Error("Expected error for duplicate request ID, got nil")
	}
}

func TestInMemoryPredictionStore_ListOrder(t *testing.T) {
	store := NewInMemoryPredictionStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		store.Add(&PredictionLog{RequestID: id, Records: 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	all, err := store.List(0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 || all[0].RequestID != "c" || all[2].RequestID != "a" {
		t.Errorf("List(0) order = %v", ids(all))
	}

	top, _ := store.List(2)
	if len(top) != 2 || top[0].RequestID != "c" || top[1].RequestID != "b" {
		t.Errorf("List(2) = %v", ids(top))
	}
}

func TestInMemoryPredictionStore_Concurrent(t *testing.T) {
	store := NewInMemoryPredictionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Add(&PredictionLog{RequestID: string(rune('A' + i)), Records: 1, CreatedAt: time.Now()})
			store.List(5)
		}(i)
	}
	wg.Wait()

	all, _ := store.List(0)
	if len(all) != 50 {
		t.Errorf("len(List()) = %d, want 50", len(all))
	}
}

func ids(entries []*PredictionLog) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RequestID
	}
	return out
}
