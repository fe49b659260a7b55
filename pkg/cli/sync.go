package cli

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/taskmerge/pkg/auth"
	"github.com/harrisonrobin/taskmerge/pkg/config"
	"github.com/harrisonrobin/taskmerge/pkg/google"
	"github.com/harrisonrobin/taskmerge/pkg/store"
	"github.com/harrisonrobin/taskmerge/pkg/syncer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		calendarName string
		remoteFile   string
		dryRun       bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile tasks with Google Calendar or another task file",
		Long: `Merge the local task list with a remote copy and push the changes both ways.

The remote is Google Calendar (the configured calendar, or --calendar) unless
--remote-file names another taskmerge task file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			remote, err := a.openRemote(ctx, calendarName, remoteFile)
			if err != nil {
				return err
			}

			plan, err := syncer.Sync(ctx, a.store, remote, syncer.Options{DryRun: dryRun})
			if plan != nil {
				prefix := "Synced"
				if dryRun {
					prefix = "Would sync"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d to create remotely, %d to update remotely, %d to create locally, %d to update locally\n",
					prefix, len(plan.ToCreateRemote), len(plan.ToUpdateRemote), len(plan.ToCreateLocal), len(plan.ToUpdateLocal))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Google Calendar name (overrides config)")
	cmd.Flags().StringVar(&remoteFile, "remote-file", "", "Sync with this task file instead of Google Calendar")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without writing anything")
	return cmd
}

// remoteSide is a sync remote that can also drop a task outright.
type remoteSide interface {
	syncer.Remote
	Remove(ctx context.Context, id string) error
}

// openRemote opens remoteFile when set, otherwise the named or configured calendar.
func (a *app) openRemote(ctx context.Context, calendarName, remoteFile string) (remoteSide, error) {
	if remoteFile != "" {
		s, err := store.Open(remoteFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if calendarName == "" {
		calendarName = a.cfg.Calendar
	}
	dir, err := a.configDir()
	if err != nil {
		return nil, err
	}
	c, err := google.NewClient(ctx, dir, calendarName, a.clock)
	if err != nil {
		return nil, fmt.Errorf("error creating Google Calendar client: %w", err)
	}
	log.Infof("Using calendar %q", calendarName)
	return c, nil
}

func newAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Calendar",
		Long: `Run the OAuth flow and cache the token. Needs credentials.json (an OAuth
desktop client from the Google Cloud console) in the config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.configDir()
			if err != nil {
				return fmt.Errorf("could not find path to configuration file: %w", err)
			}
			if err := auth.Reset(dir); err != nil {
				return err
			}
			if _, err := auth.GetClient(cmd.Context(), dir, auth.CalendarScopes); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved in %s\n", dir)
			return nil
		},
	}
}

func newCalendarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [name]",
		Short: "Show or set the default Google Calendar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Calendar)
				return nil
			}
			a.cfg.Calendar = args[0]
			if err := config.Save(a.configPath, a.cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
			return nil
		},
	}
}
