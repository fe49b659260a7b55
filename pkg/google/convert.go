package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"google.golang.org/api/calendar/v3"
)

const (
	sourceValue = "taskmerge"

	propSource    = "source"
	propTaskID    = "taskmerge_id"
	propTitle     = "title"
	propPriority  = "priority"
	propStatus    = "status"
	propTags      = "tags"
	propDue       = "due"
	propCreated   = "created"
	propUpdated   = "updated"
	propCompleted = "completed"
)

var ErrNotTaskEvent = errors.New("event does not carry a task")

var summaryPrefixes = []string{"✓ ", "‣ ", "! "}

var priorityColors = map[model.Priority]string{
	model.Low:    "2",
	model.Medium: "1",
	model.High:   "6",
	model.Urgent: "11",
}

// TaskToEvent renders t as an all-day event on its due date, or on its
// creation date when undated. Every task field travels in private extended
// properties; the summary and colour are for display only.
func TaskToEvent(t model.Task, now time.Time) (*calendar.Event, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("could not convert task: %w", err)
	}

	var prefix string
	switch {
	case t.Status == model.Done:
		prefix = "✓"
	case t.Status == model.InProgress:
		prefix = "‣"
	case t.IsOverdue(now):
		prefix = "!"
	}
	summary := t.Title
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, t.Title)
	}

	day := model.DateOf(t.CreatedAt)
	due := ""
	if t.DueDate != nil {
		day = *t.DueDate
		due = t.DueDate.String()
	}

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return nil, err
	}
	completed := ""
	if t.CompletedAt != nil {
		completed = t.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	return &calendar.Event{
		Summary:     summary,
		Description: t.Description,
		ColorId:     priorityColors[t.Priority],
		Start:       &calendar.EventDateTime{Date: day.String()},
		End:         &calendar.EventDateTime{Date: day.AddDays(1).String()},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				propSource:    sourceValue,
				propTaskID:    t.ID,
				propTitle:     t.Title,
				propPriority:  t.Priority.String(),
				propStatus:    t.Status.String(),
				propTags:      string(tags),
				propDue:       due,
				propCreated:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
				propUpdated:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
				propCompleted: completed,
			},
		},
	}, nil
}

// EventToTask reads a task back from an event written by TaskToEvent.
// A summary or start date changed in Calendar itself overrides the stored
// title or due date, and the task is then stamped with the event's update time.
func EventToTask(e *calendar.Event) (model.Task, error) {
	if e == nil || e.ExtendedProperties == nil || e.ExtendedProperties.Private[propSource] != sourceValue {
		return model.Task{}, ErrNotTaskEvent
	}
	p := e.ExtendedProperties.Private

	var t model.Task
	var err error
	t.ID = p[propTaskID]
	t.Title = p[propTitle]
	t.Description = e.Description
	if t.Priority, err = model.ParsePriority(p[propPriority]); err != nil {
		return model.Task{}, fmt.Errorf("event %s: %w", e.Id, err)
	}
	if t.Status, err = model.ParseStatus(p[propStatus]); err != nil {
		return model.Task{}, fmt.Errorf("event %s: %w", e.Id, err)
	}
	t.Tags = []string{}
	if raw := p[propTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.Tags); err != nil {
			return model.Task{}, fmt.Errorf("event %s: bad tags: %w", e.Id, err)
		}
		t.Tags = model.UniqueTags(t.Tags)
	}
	if raw := p[propDue]; raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Task{}, fmt.Errorf("event %s: %w", e.Id, err)
		}
		t.DueDate = &d
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, p[propCreated]); err != nil {
		return model.Task{}, fmt.Errorf("event %s: bad created time: %w", e.Id, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, p[propUpdated]); err != nil {
		return model.Task{}, fmt.Errorf("event %s: bad updated time: %w", e.Id, err)
	}
	if raw := p[propCompleted]; raw != "" {
		c, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.Task{}, fmt.Errorf("event %s: bad completed time: %w", e.Id, err)
		}
		t.CompletedAt = &c
	}
	applyCalendarEdits(&t, e)

	if err := t.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("event %s: %w", e.Id, err)
	}
	return t, nil
}

func applyCalendarEdits(t *model.Task, e *calendar.Event) {
	edited := false
	if e.Summary != t.Title {
		if title := stripPrefix(e.Summary); title != "" && title != t.Title {
			t.Title = title
			edited = true
		}
	}

	expected := model.DateOf(t.CreatedAt)
	if t.DueDate != nil {
		expected = *t.DueDate
	}
	if e.Start != nil && e.Start.Date != "" && e.Start.Date != expected.String() {
		if d, err := model.ParseDate(e.Start.Date); err == nil {
			t.DueDate = &d
			edited = true
		}
	}

	if !edited {
		return
	}
	if updated, err := time.Parse(time.RFC3339, e.Updated); err == nil && updated.After(t.UpdatedAt) {
		t.UpdatedAt = updated
	}
}

func stripPrefix(summary string) string {
	for _, p := range summaryPrefixes {
		if strings.HasPrefix(summary, p) {
			return strings.TrimSpace(summary[len(p):])
		}
	}
	return strings.TrimSpace(summary)
}

// EventNeedsUpdate returns the patch that turns existing into target, or nil
// when the fields written by TaskToEvent already match.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		// An empty description is dropped by omitempty unless forced.
		patch.ForceSendFields = append(patch.ForceSendFields, "Description")
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if dateOf(existing.Start) != dateOf(target.Start) || dateOf(existing.End) != dateOf(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	var existingProps map[string]string
	if existing.ExtendedProperties != nil {
		existingProps = existing.ExtendedProperties.Private
	}
	if !maps.Equal(existingProps, target.ExtendedProperties.Private) {
		patch.ExtendedProperties = target.ExtendedProperties
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func dateOf(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	return dt.DateTime
}
