package model

import (
	"fmt"
	"strings"
)

// Priority is ordered: Low < Medium < High < Urgent.
type Priority int

const (
	Low Priority = iota + 1
	Medium
	High
	Urgent
)

var priorityNames = map[Priority]string{
	Low:    "LOW",
	Medium: "MEDIUM",
	High:   "HIGH",
	Urgent: "URGENT",
}

func (p Priority) Valid() bool {
	return p >= Low && p <= Urgent
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority accepts a name (any case) or the ordinal 1-4.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW", "1":
		return Low, nil
	case "MEDIUM", "2":
		return Medium, nil
	case "HIGH", "3":
		return High, nil
	case "URGENT", "4":
		return Urgent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Status is the workflow state of a task.
type Status int

const (
	Todo Status = iota + 1
	InProgress
	Review
	Done
	Blocked
)

var statusNames = map[Status]string{
	Todo:       "TODO",
	InProgress: "IN_PROGRESS",
	Review:     "REVIEW",
	Done:       "DONE",
	Blocked:    "BLOCKED",
}

func (s Status) Valid() bool {
	return s >= Todo && s <= Blocked
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus accepts the literal names in any case, with '-' or ' ' for '_'.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for status, name := range statusNames {
		if name == norm {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Statuses lists every status in workflow order.
func Statuses() []Status {
	return []Status{Todo, InProgress, Review, Done, Blocked}
}

// Priorities lists every priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{Low, Medium, High, Urgent}
}
