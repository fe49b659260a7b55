// Package score ranks tasks by a deterministic importance score.
package score

import (
	"math"
	"slices"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

// DefaultLimit is the TopN size used when the caller passes a non-positive limit.
const DefaultLimit = 5

const day = 24 * time.Hour

var boostTags = []string{"blocker", "critical", "urgent"}

// Breakdown holds each additive component of a score.
type Breakdown struct {
	Priority int `json:"priority"`
	Due      int `json:"due"`
	Status   int `json:"status"`
	Tags     int `json:"tags"`
	Recency  int `json:"recency"`
}

func (b Breakdown) Total() int {
	return b.Priority + b.Due + b.Status + b.Tags + b.Recency
}

// Scorer computes scores relative to its clock.
type Scorer struct {
	clock model.Clock
}

func New(clock model.Clock) *Scorer {
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &Scorer{clock: clock}
}

// Score returns the importance of t; it fails only when t is not a valid task.
func (s *Scorer) Score(t model.Task) (int, error) {
	b, err := s.Explain(t)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}

// Explain returns the components of t's score.
func (s *Scorer) Explain(t model.Task) (Breakdown, error) {
	if err := t.Validate(); err != nil {
		return Breakdown{}, err
	}
	return s.explain(t, s.clock.Now()), nil
}

func (s *Scorer) explain(t model.Task, now time.Time) Breakdown {
	var b Breakdown
	b.Priority = int(t.Priority) * 10

	if t.DueDate != nil {
		days := int(math.Ceil(float64(t.DueDate.Sub(now)) / float64(day)))
		switch {
		case days < 0:
			b.Due = 30
		case days == 0:
			b.Due = 20
		case days <= 2:
			b.Due = 15
		case days <= 7:
			b.Due = 10
		}
	}

	switch t.Status {
	case model.Done:
		b.Status = -50
	case model.Review:
		b.Status = -15
	}

	for _, tag := range boostTags {
		if t.HasTag(tag) {
			b.Tags = 8
			break
		}
	}

	if now.Sub(t.UpdatedAt) < day {
		b.Recency = 5
	}
	return b
}

// SortByImportance returns a new slice ordered by descending score. Equal
// scores keep their input order. The input slice is not modified.
func (s *Scorer) SortByImportance(tasks []model.Task) ([]model.Task, error) {
	now := s.clock.Now()
	type scored struct {
		task  model.Task
		score int
	}
	ranked := make([]scored, len(tasks))
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		ranked[i] = scored{task: t, score: s.explain(t, now).Total()}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return b.score - a.score
	})

	out := make([]model.Task, len(ranked))
	for i, r := range ranked {
		out[i] = r.task.Clone()
	}
	return out, nil
}

// TopN returns the limit most important tasks, or all of them when there are fewer.
func (s *Scorer) TopN(tasks []model.Task, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	sorted, err := s.SortByImportance(tasks)
	if err != nil {
		return nil, err
	}
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}
