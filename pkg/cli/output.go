package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func dueString(t model.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	if t.IsOverdue(now) {
		return t.DueDate.String() + " !"
	}
	return t.DueDate.String()
}

func tagString(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "@" + strings.Join(tags, " @")
}

func printTasks(w io.Writer, tasks []model.Task, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIORITY\tSTATUS\tDUE\tTITLE\tTAGS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Priority, t.Status, dueString(t, now), t.Title, tagString(t.Tags))
	}
	return tw.Flush()
}

func printTask(w io.Writer, t model.Task, now time.Time) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Due:         %s\n", dueString(t, now))
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", tagString(t.Tags))
	}
	fmt.Fprintf(w, "Created:     %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Updated:     %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
}
