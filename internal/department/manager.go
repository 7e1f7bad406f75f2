package department

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"jccadmin/internal/database"
	"jccadmin/internal/idalloc"
	"jccadmin/internal/metrics"
)

const table = "departments"

// MaxAllocAttempts bounds how often Create retries after an ID collision
// with a writer outside this process.
const MaxAllocAttempts = 5

// Domain errors returned by the Manager.
var (
	ErrNotFound    = errors.New("department not found")
	ErrInvalidName = errors.New("department name is required")
)

// Manager handles business logic for departments.
// Reads fail open: a store error yields an empty list and a log line.
// Writes fail closed: store errors are returned to the caller.
type Manager struct {
	ds      *Datastore
	mu      sync.Locker
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker shares the lock that serializes ID allocation with other
// writers, such as the renumbering coordinator.
func WithLocker(l sync.Locker) Option {
	return func(m *Manager) { m.mu = l }
}

// WithMetrics records store operations on met.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = met }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new department manager.
func NewManager(ds *Datastore, opts ...Option) *Manager {
	m := &Manager{
		ds:  ds,
		mu:  &sync.Mutex{},
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns all departments ordered by creation time. A store failure is
// logged and reported as an empty list.
func (m *Manager) List(ctx context.Context) []*Department {
	depts, err := m.ds.List(ctx)
	m.metrics.ObserveStore(table, "list", err)
	if err != nil {
		slog.WarnContext(ctx, "failed to list departments, returning empty list", "error", err)
		return []*Department{}
	}
	if depts == nil {
		depts = []*Department{}
	}
	return depts
}

// GetByID retrieves a department by ID.
func (m *Manager) GetByID(ctx context.Context, id string) (*Department, error) {
	d, err := m.ds.GetByID(ctx, id)
	m.metrics.ObserveStore(table, "get", ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

// Create adds a department named name (trimmed). Empty and duplicate names
// are reported through the result status, not as errors. The ID is one past
// the highest JCC-DEPT number currently stored.
func (m *Manager) Create(ctx context.Context, name string) (*CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return &CreateResult{Status: RejectedInvalid}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 1; ; attempt++ {
		existing, err := m.ds.List(ctx)
		m.metrics.ObserveStore(table, "list", err)
		if err != nil {
			return nil, fmt.Errorf("failed to list departments: %w", err)
		}

		if HasName(existing, name) {
			return &CreateResult{Status: RejectedDuplicate}, nil
		}

		ids := make([]string, len(existing))
		for i, d := range existing {
			ids[i] = d.ID
		}

		dept := &Department{
			ID:        idalloc.Next(idalloc.DepartmentPrefix, ids, nil),
			Name:      name,
			CreatedAt: m.now(),
		}

		err = m.ds.Insert(ctx, dept)
		m.metrics.ObserveStore(table, "insert", err)
		if err == nil {
			slog.InfoContext(ctx, "department created", "id", dept.ID, "name", dept.Name)
			return &CreateResult{Status: Created, Department: dept}, nil
		}

		if database.IsUniqueViolation(err) && attempt < MaxAllocAttempts {
			m.metrics.AllocationRetried(table)
			slog.WarnContext(ctx, "department id taken, retrying", "id", dept.ID, "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("failed to create department: %w", err)
	}
}

// Update renames a department. Uniqueness against other departments is not
// re-checked, so an edit can introduce a duplicate name.
func (m *Manager) Update(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	rowsAffected, err := m.ds.UpdateName(ctx, id, name)
	m.metrics.ObserveStore(table, "update", err)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a department. Members that reference it keep their
// embedded entry.
func (m *Manager) Delete(ctx context.Context, id string) error {
	rowsAffected, err := m.ds.Delete(ctx, id)
	m.metrics.ObserveStore(table, "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "department deleted", "id", id)
	return nil
}

// HasName reports whether depts contains name, compared case-insensitively.
func HasName(depts []*Department, name string) bool {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, d := range depts {
		if fold.String(d.Name) == want {
			return true
		}
	}
	return false
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
