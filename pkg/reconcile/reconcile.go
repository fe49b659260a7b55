// Package reconcile merges a local and a remote task collection into one,
// resolving conflicts field by field, and reports which side needs which change.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/harrisonrobin/taskmerge/pkg/model"
)

var ErrInvalidInput = errors.New("invalid task collection")

// Plan is the result of a merge. Every task in it is a fresh copy.
type Plan struct {
	Merged         map[string]model.Task
	ToCreateRemote map[string]model.Task
	ToUpdateRemote map[string]model.Task
	ToCreateLocal  map[string]model.Task
	ToUpdateLocal  map[string]model.Task
}

func newPlan() *Plan {
	return &Plan{
		Merged:         make(map[string]model.Task),
		ToCreateRemote: make(map[string]model.Task),
		ToUpdateRemote: make(map[string]model.Task),
		ToCreateLocal:  make(map[string]model.Task),
		ToUpdateLocal:  make(map[string]model.Task),
	}
}

// Empty reports whether neither side needs any change.
func (p *Plan) Empty() bool {
	return len(p.ToCreateRemote)+len(p.ToUpdateRemote)+len(p.ToCreateLocal)+len(p.ToUpdateLocal) == 0
}

func (p *Plan) Summary() string {
	return fmt.Sprintf("merged=%d create_remote=%d update_remote=%d create_local=%d update_local=%d",
		len(p.Merged), len(p.ToCreateRemote), len(p.ToUpdateRemote), len(p.ToCreateLocal), len(p.ToUpdateLocal))
}

// Merge reconciles local and remote, both keyed by task id.
// Neither input is modified.
func Merge(local, remote map[string]model.Task) (*Plan, error) {
	if err := check("local", local); err != nil {
		return nil, err
	}
	if err := check("remote", remote); err != nil {
		return nil, err
	}

	plan := newPlan()
	for _, id := range unionIDs(local, remote) {
		l, inLocal := local[id]
		r, inRemote := remote[id]

		switch {
		case inLocal && !inRemote:
			plan.Merged[id] = l.Clone()
			plan.ToCreateRemote[id] = l.Clone()
		case !inLocal && inRemote:
			plan.Merged[id] = r.Clone()
			plan.ToCreateLocal[id] = r.Clone()
		default:
			merged, updateLocal, updateRemote := Resolve(l, r)
			plan.Merged[id] = merged
			if updateLocal {
				plan.ToUpdateLocal[id] = merged.Clone()
			}
			if updateRemote {
				plan.ToUpdateRemote[id] = merged.Clone()
			}
		}
	}
	return plan, nil
}

// Resolve merges two versions of the same task. The remote side wins general
// fields only when its UpdatedAt is strictly later; a DONE side always wins the
// status; tags are unioned.
func Resolve(local, remote model.Task) (merged model.Task, updateLocal, updateRemote bool) {
	merged = local.Clone()
	remoteNewer := remote.UpdatedAt.After(local.UpdatedAt)

	if remoteNewer {
		merged.Title = remote.Title
		merged.Description = remote.Description
		merged.Priority = remote.Priority
		merged.DueDate = remote.Clone().DueDate
		updateLocal = true
	} else {
		updateRemote = true
	}

	localDone := local.Status == model.Done
	remoteDone := remote.Status == model.Done
	switch {
	case remoteDone && !localDone:
		merged.Status = model.Done
		merged.CompletedAt = remote.Clone().CompletedAt
		updateLocal = true
	case localDone && !remoteDone:
		updateRemote = true
	case local.Status != remote.Status:
		if remoteNewer {
			merged.Status = remote.Status
			updateLocal = true
		} else {
			updateRemote = true
		}
	}

	merged.Tags = unionTags(local.Tags, remote.Tags)
	if !sameSet(merged.Tags, local.Tags) {
		updateLocal = true
	}
	if !sameSet(merged.Tags, remote.Tags) {
		updateRemote = true
	}

	if remoteNewer {
		merged.UpdatedAt = remote.UpdatedAt
	}
	return merged, updateLocal, updateRemote
}

func check(side string, tasks map[string]model.Task) error {
	for id, t := range tasks {
		if id == "" {
			return fmt.Errorf("%w: %s has an entry with an empty key", ErrInvalidInput, side)
		}
		if t.ID != id {
			return fmt.Errorf("%w: %s entry %q holds task %q", ErrInvalidInput, side, id, t.ID)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidInput, side, err)
		}
	}
	return nil
}

func unionIDs(local, remote map[string]model.Task) []string {
	ids := make([]string, 0, len(local)+len(remote))
	for id := range local {
		ids = append(ids, id)
	}
	for id := range remote {
		if _, ok := local[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// unionTags keeps local order, then appends remote tags not seen yet.
func unionTags(local, remote []string) []string {
	return model.UniqueTags(append(append([]string{}, local...), remote...))
}

func sameSet(a, b []string) bool {
	as := make(map[string]bool, len(a))
	for _, v := range a {
		as[v] = true
	}
	bs := make(map[string]bool, len(b))
	for _, v := range b {
		bs[v] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if !bs[v] {
			return false
		}
	}
	return true
}
