// Package cli is the taskmerge command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/harrisonrobin/taskmerge/pkg/config"
	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	storePath  string
	configPath string
	verbose    bool

	clock model.Clock
	cfg   *config.Config
	store *store.Store
}

// Execute runs the root command against the real clock and process streams.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(model.SystemClock{})
	root.Version = version
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(clock model.Clock) *cobra.Command {
	a := &app{clock: clock}

	root := &cobra.Command{
		Use:   "taskmerge",
		Short: "Capture, rank and sync tasks",
		Long: `taskmerge keeps a local task list, ranks it by importance and
reconciles it with Google Calendar or another task file.

Add tasks in free text: "Finish report !urgent #friday @work".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.storePath, "store", "", "Task file (default ~/.config/taskmerge/tasks.json)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.config/taskmerge/config.json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newDoneCmd(a),
		newDeleteCmd(a),
		newTopCmd(a),
		newStatsCmd(a),
		newSyncCmd(a),
		newAuthCmd(a),
		newCalendarCmd(a),
		newImportCmd(a),
		newExportCmd(a),
	)
	return root
}

// setup loads the config, configures logging and opens the store.
func (a *app) setup(logOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log.SetOutput(logOut)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	path := a.storePath
	if path == "" {
		path = cfg.Store
	}
	if path == "" {
		if path, err = store.DefaultPath(); err != nil {
			return fmt.Errorf("could not find path to task store: %w", err)
		}
	}
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	a.store = s
	log.Debugf("Using task store %s", path)
	return nil
}

// configDir holds the OAuth files and the event index. It follows the
// config file when --config points elsewhere.
func (a *app) configDir() (string, error) {
	if a.configPath != "" {
		return filepath.Dir(a.configPath), nil
	}
	return config.Dir()
}
