// Package renumber compacts department identifiers into a dense sequence
// ordered by creation time and rewrites the member references that embed
// them.
package renumber

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"jccadmin/internal/database"
	"jccadmin/internal/department"
	"jccadmin/internal/idalloc"
	"jccadmin/internal/member"
	"jccadmin/internal/metrics"
)

// Runner executes fn as one unit of work. *database.DB runs it in a
// transaction; a Runner without transactions leaves partial failures applied.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx database.DBTX) error) error
}

// Change is one department identifier move.
type Change struct {
	OldID string `json:"oldId"`
	NewID string `json:"newId"`
}

// Summary reports what a run did.
type Summary struct {
	Departments    int      `json:"departments"`
	Renumbered     int      `json:"renumbered"`
	MembersUpdated int      `json:"membersUpdated"`
	Changes        []Change `json:"changes"`
}

// Coordinator runs department renumbering.
type Coordinator struct {
	runner  Runner
	mu      sync.Locker
	metrics *metrics.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocker shares the department allocation lock so no create can run
// between the read and the rewrite.
func WithLocker(l sync.Locker) Option {
	return func(c *Coordinator) { c.mu = l }
}

// WithMetrics records runs on met.
func WithMetrics(met *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = met }
}

// NewCoordinator creates a coordinator that runs on runner.
func NewCoordinator(runner Runner, opts ...Option) *Coordinator {
	c := &Coordinator{runner: runner, mu: &sync.Mutex{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run assigns JCC-DEPT-001, 002, ... to departments in creation order and
// patches every member entry that carries a moved identifier. A second run
// with no changes in between writes nothing.
//
// Member entries whose department no longer exists are left untouched.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var summary *Summary
	err := c.runner.WithTx(ctx, func(tx database.DBTX) error {
		var err error
		summary, err = apply(ctx, department.NewDatastore(tx), member.NewDatastore(tx))
		return err
	})
	if err != nil {
		c.metrics.ObserveRenumber(0, 0, err)
		slog.ErrorContext(ctx, "department renumbering failed", "error", err)
		return nil, err
	}

	c.metrics.ObserveRenumber(summary.Renumbered, summary.MembersUpdated, nil)
	slog.InfoContext(ctx, "departments renumbered",
		"departments", summary.Departments,
		"renumbered", summary.Renumbered,
		"members_updated", summary.MembersUpdated,
	)
	return summary, nil
}

func apply(ctx context.Context, depts *department.Datastore, members *member.Datastore) (*Summary, error) {
	all, err := depts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	mapping := make(map[string]string, len(all))
	var moved []*department.Department
	changes := []Change{}
	for i, d := range all {
		newID := idalloc.Format(idalloc.DepartmentPrefix, i+1)
		mapping[d.ID] = newID
		if d.ID != newID {
			moved = append(moved, d)
			changes = append(changes, Change{OldID: d.ID, NewID: newID})
		}
	}

	summary := &Summary{Departments: len(all), Renumbered: len(moved), Changes: changes}
	if len(moved) == 0 {
		return summary, nil
	}

	mems, err := members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	// Free every old ID before claiming new ones: a new ID may equal the old
	// ID of a department later in the list.
	for _, d := range moved {
		if _, err := depts.Delete(ctx, d.ID); err != nil {
			return nil, fmt.Errorf("failed to delete department %s: %w", d.ID, err)
		}
	}
	for _, d := range moved {
		renamed := &department.Department{ID: mapping[d.ID], Name: d.Name, CreatedAt: d.CreatedAt}
		if err := depts.Insert(ctx, renamed); err != nil {
			return nil, fmt.Errorf("failed to insert department %s: %w", renamed.ID, err)
		}
	}

	for _, m := range mems {
		church, changed := rewrite(m.ChurchDetails, mapping)
		if !changed {
			continue
		}
		if _, err := members.UpdateChurchDetails(ctx, m.ID, church); err != nil {
			return nil, fmt.Errorf("failed to update member %s: %w", m.ID, err)
		}
		summary.MembersUpdated++
	}

	return summary, nil
}

// rewrite returns church with every department entry mapped to its new
// identifier, and whether anything changed. church is not modified.
func rewrite(church member.ChurchDetails, mapping map[string]string) (member.ChurchDetails, bool) {
	changed := false
	roles := make([]member.DepartmentRole, len(church.Departments))
	for i, r := range church.Departments {
		if newID, ok := mapping[r.ID]; ok && newID != r.ID {
			r.ID = newID
			changed = true
		}
		roles[i] = r
	}
	church.Departments = roles
	return church, changed
}
