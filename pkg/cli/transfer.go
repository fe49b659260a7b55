package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/orgmode"
	"github.com/harrisonrobin/taskmerge/pkg/reconcile"
	"github.com/harrisonrobin/taskmerge/pkg/score"
	"github.com/harrisonrobin/taskmerge/pkg/taskwarrior"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from Taskwarrior or Org-mode",
		Long: `Import tasks from another tool. Imported tasks are merged into the store
the same way a sync merges a remote: newer edits win and tags are unioned.`,
	}
	cmd.AddCommand(newImportTaskwarriorCmd(a), newImportOrgCmd(a))
	return cmd
}

func newImportTaskwarriorCmd(a *app) *cobra.Command {
	var (
		run    bool
		filter []string
	)
	cmd := &cobra.Command{
		Use:   "taskwarrior [file]",
		Short: "Import `task export` JSON from a file, stdin or the task binary",
		Example: `  task export | taskmerge import taskwarrior
  taskmerge import taskwarrior --run --filter project:work`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := taskwarrior.NewClient()

			var tw []taskwarrior.Task
			var err error
			switch {
			case run:
				tw, err = client.GetTasks(cmd.Context(), filter)
			case len(args) == 1 && args[0] != "-":
				var f *os.File
				if f, err = os.Open(args[0]); err != nil {
					return err
				}
				defer f.Close()
				tw, err = client.ParseTasks(f)
			default:
				tw, err = client.ParseTasks(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			tasks, err := taskwarrior.Import(tw)
			if err != nil {
				return err
			}
			return a.importTasks(cmd.Context(), cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "Run 'task export' instead of reading JSON")
	cmd.Flags().StringSliceVar(&filter, "filter", nil, "Taskwarrior filter for --run")
	return cmd
}

func newImportOrgCmd(a *app) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "org <file>...",
		Short: "Import TODO and DONE headlines from Org files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := orgmode.ParseFiles(args, a.clock.Now())
			if err != nil {
				return err
			}
			if tag != "" {
				tasks = orgmode.FilterTasks(tasks, tag)
			}
			return a.importTasks(cmd.Context(), cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only import headlines with this tag")
	return cmd
}

// importTasks merges tasks into the store as if they were a remote side.
func (a *app) importTasks(ctx context.Context, w io.Writer, tasks []model.Task) error {
	incoming := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		if _, dup := incoming[t.ID]; dup {
			log.Warnf("Skipping duplicate imported task %s", t.ID)
			continue
		}
		incoming[t.ID] = t
	}
	local, err := a.store.List(ctx)
	if err != nil {
		return err
	}

	plan, err := reconcile.Merge(local, incoming)
	if err != nil {
		return err
	}
	for _, t := range plan.ToCreateLocal {
		if err := a.store.Put(t); err != nil {
			return err
		}
	}
	for _, t := range plan.ToUpdateLocal {
		if err := a.store.Put(t); err != nil {
			return err
		}
	}
	if err := a.store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d tasks: %d new, %d updated\n",
		len(incoming), len(plan.ToCreateLocal), len(plan.ToUpdateLocal))
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks ranked by importance as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := a.store.Pending()
			if all {
				tasks = a.store.All()
			}
			ranked, err := score.New(a.clock).SortByImportance(tasks)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.OpenFile(output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
				if err != nil {
					return fmt.Errorf("failed to open %s for writing: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return writeTasks(w, format, ranked)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include done tasks")
	return cmd
}

func writeTasks(w io.Writer, format string, tasks []model.Task) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tasks)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(tasks); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unknown export format %q, want json or yaml", format)
}
