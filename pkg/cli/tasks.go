package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/parser"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var description, file string
	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task from free text",
		Long: `Add a task. Markers in the text set fields and are removed from the title:

  !1..!4, !low, !medium, !high, !urgent   priority
  @word                                   tag
  #today #tomorrow #next_week #friday     due date
  #2024-03-01                             due date

With --file, every non-blank line of the file (or stdin for -) becomes a task.`,
		Example: `  taskmerge add Finish report !urgent #friday @work
  taskmerge add --file inbox.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(a.clock)

			var drafts []model.Task
			switch {
			case file != "" && len(args) > 0:
				return errors.New("pass either task text or --file, not both")
			case file == "-":
				tasks, err := p.ParseReader(cmd.InOrStdin())
				if err != nil {
					return err
				}
				drafts = tasks
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if drafts, err = p.ParseReader(f); err != nil {
					return err
				}
			case len(args) == 0:
				return errors.New("nothing to add")
			default:
				drafts = []model.Task{p.Parse(strings.Join(args, " "))}
			}

			// Nothing is stored unless every line is a valid task.
			for i := range drafts {
				drafts[i].Tags = model.UniqueTags(drafts[i].Tags)
				drafts[i].Description = description
				if err := drafts[i].Validate(); err != nil {
					return fmt.Errorf("could not add task: %w", err)
				}
			}
			for _, t := range drafts {
				if err := a.store.Put(t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", shortID(t.ID), t.Title)
			}
			return a.store.Save()
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Add one task per line of this file (- for stdin)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		status, priority, tag string
		overdue, all          bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := a.store.All()
			if status != "" {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				tasks = intersect(tasks, a.store.ByStatus(s))
			} else if !all {
				tasks = intersect(tasks, a.store.Pending())
			}
			if priority != "" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				tasks = intersect(tasks, a.store.ByPriority(p))
			}
			if tag != "" {
				tasks = intersect(tasks, a.store.ByTag(tag))
			}
			if overdue {
				tasks = intersect(tasks, a.store.Overdue(a.clock.Now()))
			}

			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			return printTasks(cmd.OutOrStdout(), tasks, a.clock.Now())
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	cmd.Flags().StringVar(&priority, "priority", "", "Only tasks with this priority")
	cmd.Flags().StringVar(&tag, "tag", "", "Only tasks with this tag")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "Only overdue tasks")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include done tasks")
	return cmd
}

// intersect keeps the tasks of base whose id is also in other, in base order.
func intersect(base, other []model.Task) []model.Task {
	ids := make(map[string]bool, len(other))
	for _, t := range other {
		ids[t.ID] = true
	}
	out := base[:0:0]
	for _, t := range base {
		if ids[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(t)
			}
			printTask(cmd.OutOrStdout(), t, a.clock.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the task as JSON")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title, description, priority, status, due string
		tags                                      []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Example: `  taskmerge edit 3f2a --priority high --due 2024-03-01
  taskmerge edit 3f2a --due none --tags work,home`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.store.Find(args[0])
			if err != nil {
				return err
			}

			var patch model.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				patch.Status = &s
			}
			if flags.Changed("due") {
				if due == "" || due == "none" {
					patch.ClearDueDate = true
				} else {
					d, err := model.ParseDate(due)
					if err != nil {
						return fmt.Errorf("invalid due date %q: %w", due, err)
					}
					patch.DueDate = &d
				}
			}
			if flags.Changed("tags") {
				patch.Tags = append([]string{}, tags...)
			}

			if err := t.Update(patch, a.clock.Now()); err != nil {
				return err
			}
			if err := a.store.Put(t); err != nil {
				return err
			}
			if err := a.store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", shortID(t.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "LOW, MEDIUM, HIGH or URGENT")
	cmd.Flags().StringVar(&status, "status", "", "TODO, IN_PROGRESS, REVIEW, DONE or BLOCKED")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD, or none to clear")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Replace the tags (comma separated)")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				t, err := a.store.Find(id)
				if err != nil {
					return err
				}
				t.MarkDone(a.clock.Now())
				if err := a.store.Put(t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s: %s\n", shortID(t.ID), t.Title)
			}
			return a.store.Save()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var (
		remote       bool
		calendarName string
		remoteFile   string
	)
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks from the local store and optionally the remote",
		Long: `Delete tasks from the local store.

A task deleted only locally comes back on the next sync while its copy still
exists remotely. Pass --remote (or --calendar/--remote-file) to delete both.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tasks := make([]model.Task, 0, len(args))
			for _, id := range args {
				t, err := a.store.Find(id)
				if err != nil {
					return err
				}
				tasks = append(tasks, t)
			}

			if remote || calendarName != "" || remoteFile != "" {
				side, err := a.openRemote(ctx, calendarName, remoteFile)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					if err := side.Remove(ctx, t.ID); err != nil {
						return err
					}
				}
				if err := side.Flush(ctx); err != nil {
					return err
				}
			}

			for _, t := range tasks {
				if err := a.store.Delete(t.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s: %s\n", shortID(t.ID), t.Title)
			}
			return a.store.Save()
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Also delete from the configured Google Calendar")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Also delete from this Google Calendar")
	cmd.Flags().StringVar(&remoteFile, "remote-file", "", "Also delete from this task file")
	return cmd
}
