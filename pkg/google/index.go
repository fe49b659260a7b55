package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const indexFile = "events.json"

// EventIndex remembers which calendar event holds which task, so updates can
// patch by event id instead of searching extended properties.
type EventIndex struct {
	path   string
	mu     sync.RWMutex
	events map[string]string
	dirty  bool
}

// OpenEventIndex loads dir/events.json. A missing file is an empty index;
// an empty dir gives an in-memory index that never writes.
func OpenEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{events: make(map[string]string)}
	if dir == "" {
		return idx, nil
	}
	idx.path = filepath.Join(dir, indexFile)

	b, err := os.ReadFile(idx.path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &idx.events); err != nil {
		return nil, fmt.Errorf("failed to decode event index %s: %w", idx.path, err)
	}
	if idx.events == nil {
		idx.events = make(map[string]string)
	}
	return idx, nil
}

func (idx *EventIndex) Lookup(taskID string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.events[taskID]
	return id, ok
}

func (idx *EventIndex) Record(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.events[taskID] != eventID {
		idx.events[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Forget(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.events[taskID]; ok {
		delete(idx.events, taskID)
		idx.dirty = true
	}
}

// Retain drops every mapping whose task id is not in keep.
func (idx *EventIndex) Retain(keep map[string]bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for taskID := range idx.events {
		if !keep[taskID] {
			delete(idx.events, taskID)
			idx.dirty = true
		}
	}
}

func (idx *EventIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.events)
}

// Save writes the index when it changed.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty || idx.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(idx.events, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(idx.path, b, 0600); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}
