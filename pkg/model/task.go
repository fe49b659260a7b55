package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingID       = errors.New("task has no id")
	ErrEmptyTitle      = errors.New("task title is empty")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrBadTimestamps   = errors.New("invalid task timestamps")
)

// Task is the unit of work shared by the parser, the scorer and the reconciler.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description,omitempty"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Status      Status     `json:"status" yaml:"status"`
	DueDate     *Date      `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Tags        []string   `json:"tags" yaml:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// Option sets an optional field on a task built by New.
type Option func(*Task)

func WithDescription(d string) Option {
	return func(t *Task) { t.Description = d }
}

func WithPriority(p Priority) Option {
	return func(t *Task) { t.Priority = p }
}

func WithDueDate(d Date) Option {
	return func(t *Task) { t.DueDate = &d }
}

// WithTags sets the tag set. Duplicates are dropped, first occurrence wins.
func WithTags(tags ...string) Option {
	return func(t *Task) { t.Tags = UniqueTags(tags) }
}

// New creates a TODO task with a fresh id and createdAt == updatedAt == now.
func New(title string, now time.Time, opts ...Option) Task {
	t := Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  Medium,
		Status:    Todo,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Patch is a partial update. Nil fields are left untouched; a non-nil Tags
// slice (even an empty one) replaces the tag set.
type Patch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Status       *Status
	DueDate      *Date
	ClearDueDate bool
	Tags         []string
}

// Update applies p and advances UpdatedAt to now, even when p is empty.
// Nothing is applied if p carries an invalid value.
func (t *Task) Update(p Patch, now time.Time) error {
	if p.Title != nil && *p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, int(*p.Priority))
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int(*p.Status))
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		if *p.Status == Done && t.Status != Done {
			completed := now
			t.CompletedAt = &completed
		}
		// completedAt is kept when a done task is reopened.
		t.Status = *p.Status
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Tags != nil {
		t.Tags = UniqueTags(p.Tags)
	}
	t.UpdatedAt = now
	return nil
}

// MarkDone moves the task to DONE. CompletedAt and UpdatedAt are the same instant.
func (t *Task) MarkDone(now time.Time) {
	t.Status = Done
	completed := now
	t.CompletedAt = &completed
	t.UpdatedAt = completed
}

// IsOverdue reports whether the due day is strictly before the day of now
// and the task is not done. Undated tasks are never overdue. The check is
// day-granular: a task due today is not overdue at any hour of today.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == Done {
		return false
	}
	return t.DueDate.Before(DateOf(now))
}

// HasTag reports whether tag is in the tag set (case-sensitive).
func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Validate returns the first structural problem with t, or nil.
func (t Task) Validate() error {
	switch {
	case t.ID == "":
		return ErrMissingID
	case t.Title == "":
		return fmt.Errorf("task %s: %w", t.ID, ErrEmptyTitle)
	case !t.Priority.Valid():
		return fmt.Errorf("task %s: %w: %d", t.ID, ErrInvalidPriority, int(t.Priority))
	case !t.Status.Valid():
		return fmt.Errorf("task %s: %w: %d", t.ID, ErrInvalidStatus, int(t.Status))
	case t.CreatedAt.IsZero() || t.UpdatedAt.IsZero():
		return fmt.Errorf("task %s: %w: zero createdAt or updatedAt", t.ID, ErrBadTimestamps)
	case t.UpdatedAt.Before(t.CreatedAt):
		return fmt.Errorf("task %s: %w: updatedAt before createdAt", t.ID, ErrBadTimestamps)
	}
	return nil
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = make([]string, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return c
}

// UniqueTags returns tags without duplicates, keeping first occurrences in order.
func UniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
