package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	log "github.com/sirupsen/logrus"
)

const tasksFile = "tasks.json"

var (
	ErrNotFound  = errors.New("task not found")
	ErrAmbiguous = errors.New("task id prefix is ambiguous")
)

// Store is a JSON file of tasks keyed by id.
type Store struct {
	Tasks map[string]model.Task `json:"tasks"`
	Path  string                `json:"-"`
	mu    sync.RWMutex
	dirty bool
}

// DefaultPath is ~/.config/taskmerge/tasks.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "taskmerge", tasksFile), nil
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		Tasks: make(map[string]model.Task),
		Path:  path,
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tasks = nil
	if err := json.NewDecoder(f).Decode(s); err != nil {
		return fmt.Errorf("failed to decode task store %s: %w", s.Path, err)
	}
	if s.Tasks == nil {
		s.Tasks = make(map[string]model.Task)
	}
	s.dirty = false
	return nil
}

// Save writes the store if anything changed since the last load or save.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open store for writing: %w", err)
	}
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode task store: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return err
	}
	log.Debugf("Saved %d tasks to %s", len(s.Tasks), s.Path)
	s.dirty = false
	return nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.Tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.Clone(), nil
}

// Find resolves a full id or a unique id prefix, as shown by the CLI.
func (s *Store) Find(prefix string) (model.Task, error) {
	if t, err := s.Get(prefix); err == nil {
		return t, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []model.Task
	for id, t := range s.Tasks {
		if len(prefix) > 0 && len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return found[0].Clone(), nil
	}
	return model.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguous, prefix, len(found))
}

// Put inserts or replaces t.
func (s *Store) Put(t model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tasks[t.ID] = t.Clone()
	s.dirty = true
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Tasks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.Tasks, id)
	s.dirty = true
	return nil
}

// All returns every task ordered by creation time, then id.
func (s *Store) All() []model.Task {
	return s.filter(func(model.Task) bool { return true })
}

func (s *Store) ByStatus(status model.Status) []model.Task {
	return s.filter(func(t model.Task) bool { return t.Status == status })
}

func (s *Store) ByPriority(p model.Priority) []model.Task {
	return s.filter(func(t model.Task) bool { return t.Priority == p })
}

func (s *Store) ByTag(tag string) []model.Task {
	return s.filter(func(t model.Task) bool { return t.HasTag(tag) })
}

// Pending returns every task that is not done.
func (s *Store) Pending() []model.Task {
	return s.filter(func(t model.Task) bool { return t.Status != model.Done })
}

func (s *Store) Overdue(now time.Time) []model.Task {
	return s.filter(func(t model.Task) bool { return t.IsOverdue(now) })
}

func (s *Store) filter(keep func(model.Task) bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// List returns a copy of the tasks keyed by id. It satisfies syncer.Local and syncer.Remote.
func (s *Store) List(_ context.Context) (map[string]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Task, len(s.Tasks))
	for id, t := range s.Tasks {
		out[id] = t.Clone()
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, t model.Task) error {
	return s.Put(t)
}

func (s *Store) Update(_ context.Context, t model.Task) error {
	return s.Put(t)
}

// Remove drops the task if present. Unlike Delete a missing id is not an error.
func (s *Store) Remove(_ context.Context, id string) error {
	if err := s.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Flush persists pending changes.
func (s *Store) Flush(_ context.Context) error {
	return s.Save()
}
