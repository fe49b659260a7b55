package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

// ToTask maps a taskwarrior record onto a Task. The UUID is kept as the id
// so repeated imports replace instead of duplicating.
func ToTask(t Task) (model.Task, error) {
	if t.UUID == "" {
		return model.Task{}, fmt.Errorf("taskwarrior task %q has no uuid", t.Description)
	}

	created := time.Now().UTC()
	if t.Entry.set() {
		created = t.Entry.Time
	}
	task := model.New(strings.TrimSpace(t.Description), created)
	task.ID = t.UUID

	switch strings.ToUpper(t.Priority) {
	case "H":
		task.Priority = model.High
	case "L":
		task.Priority = model.Low
	}

	switch t.Status {
	case COMPLETED:
		end := created
		if t.End.set() {
			end = t.End.Time
		}
		task.MarkDone(end)
	case WAITING:
		task.Status = model.Blocked
	case PENDING:
		if t.Start.set() {
			task.Status = model.InProgress
		}
	}

	tags := append([]string{}, t.Tags...)
	if t.Project != "" {
		tags = append(tags, t.Project)
	}
	task.Tags = model.UniqueTags(tags)

	if t.Due.set() {
		d := model.DateOf(t.Due.Time.Local())
		task.DueDate = &d
	}

	var notes []string
	for _, ann := range t.Annotations {
		notes = append(notes, ann.Description)
	}
	task.Description = strings.Join(notes, "\n")

	if t.Modified.set() && t.Modified.After(task.UpdatedAt) {
		task.UpdatedAt = t.Modified.Time
	}
	if task.UpdatedAt.Before(task.CreatedAt) {
		task.UpdatedAt = task.CreatedAt
	}
	return task, nil
}
