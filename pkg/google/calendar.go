package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient keeps tasks as events on one Google calendar.
// It satisfies syncer.Remote.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *EventIndex
	clock      model.Clock
}

// NewCalendarClient wraps an authenticated service. idx may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *EventIndex, clock model.Clock) *CalendarClient {
	if idx == nil {
		idx, _ = OpenEventIndex("")
	}
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, clock: clock}
}

// List returns every task stored on the calendar, keyed by task id.
// Events that do not decode as tasks are skipped with a warning.
func (c *CalendarClient) List(ctx context.Context) (map[string]model.Task, error) {
	tasks := make(map[string]model.Task)
	seen := make(map[string]bool)

	err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", propSource, sourceValue)).
		ShowDeleted(false).
		Pages(ctx, func(page *calendar.Events) error {
			for _, e := range page.Items {
				t, err := EventToTask(e)
				if err != nil {
					log.Warnf("Skipping calendar event %s: %v", e.Id, err)
					continue
				}
				if _, dup := tasks[t.ID]; dup {
					log.Warnf("Task %s appears in more than one event, keeping the first", t.ID)
					continue
				}
				tasks[t.ID] = t
				seen[t.ID] = true
				c.index.Record(t.ID, e.Id)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	c.index.Retain(seen)
	log.Debugf("Listed %d tasks from calendar %s", len(tasks), c.calendarID)
	return tasks, nil
}

// Create inserts a new event for t.
func (c *CalendarClient) Create(ctx context.Context, t model.Task) error {
	event, err := TaskToEvent(t, c.clock.Now())
	if err != nil {
		return err
	}
	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create event for task %s: %w", t.ID, err)
	}
	c.index.Record(t.ID, created.Id)
	return nil
}

// Update patches the event holding t, creating one when none exists.
func (c *CalendarClient) Update(ctx context.Context, t model.Task) error {
	target, err := TaskToEvent(t, c.clock.Now())
	if err != nil {
		return err
	}

	existing, err := c.findEvent(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		log.Infof("No event for task %s, creating one", t.ID)
		return c.Create(ctx, t)
	}

	patch := EventNeedsUpdate(existing, target)
	if patch == nil {
		return nil
	}
	updated, err := c.PatchEvent(ctx, existing.Id, patch)
	if err != nil {
		return fmt.Errorf("unable to patch event for task %s: %w", t.ID, err)
	}
	c.index.Record(t.ID, updated.Id)
	return nil
}

// Remove deletes the event holding the task, if any.
func (c *CalendarClient) Remove(ctx context.Context, taskID string) error {
	existing, err := c.findEvent(ctx, taskID)
	if err != nil || existing == nil {
		return err
	}
	if err := c.srv.Events.Delete(c.calendarID, existing.Id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete event for task %s: %w", taskID, err)
	}
	c.index.Forget(taskID)
	return nil
}

// Flush saves the event index.
func (c *CalendarClient) Flush(_ context.Context) error {
	return c.index.Save()
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// findEvent tries the index first and falls back to a property search.
func (c *CalendarClient) findEvent(ctx context.Context, taskID string) (*calendar.Event, error) {
	if eventID, ok := c.index.Lookup(taskID); ok {
		e, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
		if err == nil && e.Status != "cancelled" {
			return e, nil
		}
		c.index.Forget(taskID)
	}
	return c.GetEventByTaskID(ctx, taskID)
}

// GetEventByTaskID searches for the event whose private properties carry taskID.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", propTaskID, taskID)).
		ShowDeleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

var errCalendarNotFound = errors.New("calendar not found")

// FindCalendarID resolves a calendar by its display name.
func FindCalendarID(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	var id string
	err := srv.CalendarList.List().Pages(ctx, func(list *calendar.CalendarList) error {
		for _, item := range list.Items {
			if item.Summary == name {
				id = item.Id
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	if id == "" {
		return "", fmt.Errorf("%w: '%s'", errCalendarNotFound, name)
	}
	return id, nil
}

var errStopPaging = errors.New("stop paging")
