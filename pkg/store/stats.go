package store

import (
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

// Stats summarises the store the way the `stats` command prints it.
type Stats struct {
	Total             int                    `json:"total" yaml:"total"`
	ByStatus          map[model.Status]int   `json:"byStatus" yaml:"byStatus"`
	ByPriority        map[model.Priority]int `json:"byPriority" yaml:"byPriority"`
	Overdue           int                    `json:"overdue" yaml:"overdue"`
	CompletedLastWeek int                    `json:"completedLastWeek" yaml:"completedLastWeek"`
}

// Stats counts tasks per status and priority, overdue tasks, and tasks
// completed in the seven days before now.
func (s *Store) Stats(now time.Time) Stats {
	st := Stats{
		ByStatus:   make(map[model.Status]int),
		ByPriority: make(map[model.Priority]int),
	}
	for _, status := range model.Statuses() {
		st.ByStatus[status] = 0
	}
	for _, p := range model.Priorities() {
		st.ByPriority[p] = 0
	}

	weekAgo := now.AddDate(0, 0, -7)
	for _, t := range s.All() {
		st.Total++
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
		if t.IsOverdue(now) {
			st.Overdue++
		}
		if t.CompletedAt != nil && !t.CompletedAt.Before(weekAgo) {
			st.CompletedLastWeek++
		}
	}
	return st
}
