// Package parser turns a free-text line into a task draft.
//
// A marker starts a whitespace-separated token:
//
//	!1 .. !4, !low, !medium, !high, !urgent   priority (first one wins)
//	@word                                     tag
//	#word                                     due date candidate
//
// Only the word right after the sigil is taken. Trailing punctuation stays in
// the title, joined to the word before it, so "Call Bob #tomorrow." is titled
// "Call Bob.".
//
// Example: "Finish report !urgent #friday @work".
package parser

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

var (
	priorityRegex = regexp.MustCompile(`(?i)^!([1-4]|urgent|high|medium|low)\b`)
	tagRegex      = regexp.MustCompile(`^@(\w+)`)
	dateRegex     = regexp.MustCompile(`^#(\w+(?:-\w+)*)`)
	ymdRegex      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Parser extracts priority, tags and due date from text.
type Parser struct {
	clock model.Clock
}

func New(clock model.Clock) *Parser {
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &Parser{clock: clock}
}

// Parse never fails: date markers that do not resolve are dropped and tokens
// that are not markers stay in the title.
func (p *Parser) Parse(text string) model.Task {
	now := p.clock.Now()
	today := model.DateOf(now)

	priority := model.Medium
	priorityFound := false
	tags := []string{}
	var due *model.Date
	var title []string

	for _, tok := range strings.Fields(text) {
		if !priorityFound {
			if m := priorityRegex.FindStringSubmatch(tok); m != nil {
				priority, _ = model.ParsePriority(m[1])
				priorityFound = true
				title = appendRest(title, tok[len(m[0]):])
				continue
			}
		}
		if m := tagRegex.FindStringSubmatch(tok); m != nil {
			tags = append(tags, m[1])
			title = appendRest(title, tok[len(m[0]):])
			continue
		}
		if m := dateRegex.FindStringSubmatch(tok); m != nil {
			if due == nil {
				if d, ok := resolveDate(m[1], today); ok {
					due = &d
				}
			}
			title = appendRest(title, tok[len(m[0]):])
			continue
		}
		title = append(title, tok)
	}

	task := model.New(strings.Join(title, " "), now, model.WithPriority(priority))
	task.DueDate = due
	// Tags are kept as found, duplicates included.
	task.Tags = tags
	return task
}

// appendRest glues what followed a marker onto the previous title word.
func appendRest(title []string, rest string) []string {
	switch {
	case rest == "":
		return title
	case len(title) == 0:
		return append(title, rest)
	}
	title[len(title)-1] += rest
	return title
}

// ParseReader parses one task per non-blank line.
func (p *Parser) ParseReader(r io.Reader) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	var tasks []model.Task
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tasks = append(tasks, p.Parse(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func resolveDate(word string, today model.Date) (model.Date, bool) {
	word = strings.ToLower(word)
	switch word {
	case "today", "now":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	case "next_week", "nextweek":
		return today.AddDays(7), true
	}
	if wd, ok := weekdays[word]; ok {
		return NextWeekday(today, wd), true
	}
	m := ymdRegex.FindStringSubmatch(word)
	if m == nil {
		return model.Date{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	d, err := model.NewDate(year, time.Month(month), day, today.Location())
	if err != nil {
		return model.Date{}, false
	}
	return d, true
}

// NextWeekday returns the first day strictly after today that falls on target.
func NextWeekday(today model.Date, target time.Weekday) model.Date {
	ahead := (int(target) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDays(ahead)
}
