// Package syncer pulls both sides of a sync, merges them and pushes the
// resulting changes back.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/reconcile"
	log "github.com/sirupsen/logrus"
)

// Side is a task collection that can be listed and written back.
type Side interface {
	List(ctx context.Context) (map[string]model.Task, error)
	Create(ctx context.Context, t model.Task) error
	Update(ctx context.Context, t model.Task) error
	Flush(ctx context.Context) error
}

// Local is the collection the user edits directly, normally the task file.
type Local = Side

// Remote is the collection synced against, a calendar or another task file.
type Remote = Side

type Options struct {
	// DryRun computes the plan without writing to either side.
	DryRun bool
}

// Sync merges local and remote and applies the plan. A failing write is
// logged and the rest of the plan still runs; the returned error joins every
// failure. The plan is returned even when writes failed.
func Sync(ctx context.Context, local Local, remote Remote, opts Options) (*reconcile.Plan, error) {
	localTasks, err := local.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local tasks: %w", err)
	}
	remoteTasks, err := remote.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote tasks: %w", err)
	}
	log.Debugf("Loaded %d local and %d remote tasks", len(localTasks), len(remoteTasks))

	plan, err := reconcile.Merge(localTasks, remoteTasks)
	if err != nil {
		return nil, err
	}
	log.Infof("Sync plan: %s", plan.Summary())
	if opts.DryRun || plan.Empty() {
		return plan, nil
	}

	var errs []error
	errs = append(errs, apply(ctx, "create remote", plan.ToCreateRemote, remote.Create)...)
	errs = append(errs, apply(ctx, "update remote", plan.ToUpdateRemote, remote.Update)...)
	errs = append(errs, apply(ctx, "create local", plan.ToCreateLocal, local.Create)...)
	errs = append(errs, apply(ctx, "update local", plan.ToUpdateLocal, local.Update)...)

	if err := remote.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush remote: %w", err))
	}
	if err := local.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush local: %w", err))
	}
	return plan, errors.Join(errs...)
}

func apply(ctx context.Context, action string, tasks map[string]model.Task, fn func(context.Context, model.Task) error) []error {
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return append(errs, err)
		}
		if err := fn(ctx, tasks[id]); err != nil {
			log.Errorf("Could not %s for task %s: %v", action, id, err)
			errs = append(errs, fmt.Errorf("%s %s: %w", action, id, err))
			continue
		}
		log.Debugf("%s: %s", action, id)
	}
	return errs
}
