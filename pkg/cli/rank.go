package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/score"
	"github.com/spf13/cobra"
)

func newTopCmd(a *app) *cobra.Command {
	var (
		limit   int
		explain bool
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the most important tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.TopLimit
			}
			tasks := a.store.Pending()
			if all {
				tasks = a.store.All()
			}

			scorer := score.New(a.clock)
			top, err := scorer.TopN(tasks, limit)
			if err != nil {
				return err
			}
			if len(top) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if explain {
				fmt.Fprintln(tw, "SCORE\tPRI\tDUE\tSTATUS\tTAGS\tRECENT\tID\tTITLE")
			} else {
				fmt.Fprintln(tw, "SCORE\tID\tPRIORITY\tDUE\tTITLE")
			}
			now := a.clock.Now()
			for _, t := range top {
				b, err := scorer.Explain(t)
				if err != nil {
					return err
				}
				if explain {
					fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
						b.Total(), b.Priority, b.Due, b.Status, b.Tags, b.Recency, shortID(t.ID), t.Title)
				} else {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						b.Total(), shortID(t.ID), t.Priority, dueString(t, now), t.Title)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", score.DefaultLimit, "Number of tasks to show (config topLimit)")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the score components")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include done tasks")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.store.Stats(a.clock.Now())
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "Total:               %d\n", st.Total)
			fmt.Fprintf(w, "Overdue:             %d\n", st.Overdue)
			fmt.Fprintf(w, "Completed this week: %d\n", st.CompletedLastWeek)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nSTATUS\tCOUNT")
			for _, s := range model.Statuses() {
				fmt.Fprintf(tw, "%s\t%d\n", s, st.ByStatus[s])
			}
			fmt.Fprintln(tw, "\nPRIORITY\tCOUNT")
			for _, p := range model.Priorities() {
				fmt.Fprintf(tw, "%s\t%d\n", p, st.ByPriority[p])
			}
			return tw.Flush()
		},
	}
}
