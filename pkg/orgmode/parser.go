// Package orgmode imports TODO/DONE headlines from Org files as tasks.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

var (
	headlineRegex = regexp.MustCompile(`^\*+ (TODO|DONE)\b\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+:((?:\w+:)+))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{3})?(?:\s+\d{2}:\d{2})?>`)
	closedRegex   = regexp.MustCompile(`CLOSED:\s+\[(\d{4}-\d{2}-\d{2}\s+[A-Za-z]{3}\s+\d{2}:\d{2})\]`)
	idRegex       = regexp.MustCompile(`:ID:\s+([a-zA-Z0-9-]+)`)
)

// ParseFiles parses several Org files into one slice of tasks.
func ParseFiles(paths []string, now time.Time) ([]model.Task, error) {
	var all []model.Task
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		tasks, err := Parse(f, now)
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return all, nil
}

// Parse reads headlines of any level of the form
//
//	** TODO [#A] Title :tag1:tag2:
//	  DEADLINE: <2023-06-20 Tue>
//	  :PROPERTIES:
//	  :ID: 0b9e...
//	  :END:
//
// Org priorities A, B and C map to HIGH, MEDIUM and LOW. A headline without
// an :ID: property gets a fresh id.
func Parse(r io.Reader, now time.Time) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	var tasks []model.Task
	var current *model.Task

	flush := func() {
		if current != nil && current.Title != "" {
			tasks = append(tasks, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := headlineRegex.FindStringSubmatch(line); m != nil {
			flush()
			t := model.New(strings.TrimSpace(m[3]), now, model.WithPriority(orgPriority(m[2])))
			if m[4] != "" {
				t.Tags = model.UniqueTags(strings.Split(strings.Trim(m[4], ":"), ":"))
			}
			if m[1] == "DONE" {
				t.MarkDone(now)
			}
			current = &t
			continue
		}
		if strings.HasPrefix(line, "*") {
			// Any other headline ends the current task.
			flush()
			continue
		}
		if current == nil {
			continue
		}

		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			if d, err := time.ParseInLocation("2006-01-02", m[1], now.Location()); err == nil {
				due := model.Date{Time: d}
				current.DueDate = &due
			}
		}
		if m := closedRegex.FindStringSubmatch(line); m != nil && current.Status == model.Done {
			if closed, err := time.ParseInLocation("2006-01-02 Mon 15:04", m[1], now.Location()); err == nil {
				current.CompletedAt = &closed
			}
		}
		if m := idRegex.FindStringSubmatch(line); m != nil {
			current.ID = m[1]
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func orgPriority(letter string) model.Priority {
	switch letter {
	case "A":
		return model.High
	case "C":
		return model.Low
	}
	return model.Medium
}

// FilterTasks keeps the tasks carrying tag.
func FilterTasks(tasks []model.Task, tag string) []model.Task {
	var filtered []model.Task
	for _, task := range tasks {
		if task.HasTag(tag) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}
