package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jccadmin/internal/database"
	"jccadmin/internal/idalloc"
	"jccadmin/internal/metrics"
)

const table = "members"

// MaxAllocAttempts bounds how often Create retries after an ID collision
// with a writer outside this process.
const MaxAllocAttempts = 5

// Domain errors returned by the Manager.
var (
	ErrNotFound      = errors.New("member not found")
	ErrInvalidMember = errors.New("member is required")
)

// Manager handles business logic for members.
type Manager struct {
	ds      *Datastore
	mu      sync.Locker
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker shares the lock that serializes ID allocation with other writers.
func WithLocker(l sync.Locker) Option {
	return func(m *Manager) { m.mu = l }
}

// WithMetrics records store operations on met.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = met }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new member manager.
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

// List returns all members, newest first. A store failure is logged and
// reported as an empty list.
func (m *Manager) List(ctx context.Context) []*Member {
	members, err := m.ds.List(ctx)
	m.metrics.ObserveStore(table, "list", err)
	if err != nil {
		slog.WarnContext(ctx, "failed to list members, returning empty list", "error", err)
		return []*Member{}
	}
	if members == nil {
		members = []*Member{}
	}
	return members
}

// GetByID scans the member list for id.
func (m *Manager) GetByID(ctx context.Context, id string) (*Member, error) {
	members, err := m.ds.List(ctx)
	m.metrics.ObserveStore(table, "list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	for _, mem := range members {
		if mem.ID == id {
			return mem, nil
		}
	}
	return nil, ErrNotFound
}

// Create stores a new member. Any ID on input is ignored: the member gets one
// past the highest number among stored IDs whose type segment matches its
// member type. Both timestamps are set to now.
func (m *Manager) Create(ctx context.Context, input *Member) (*Member, error) {
	if input == nil {
		return nil, ErrInvalidMember
	}

	prefix := idalloc.MemberPrefix(input.ChurchDetails.MemberType)
	scope := idalloc.SegmentScope(idalloc.TypeCode(input.ChurchDetails.MemberType))

	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 1; ; attempt++ {
		ids, err := m.ds.ListIDs(ctx)
		m.metrics.ObserveStore(table, "list_ids", err)
		if err != nil {
			return nil, fmt.Errorf("failed to list member ids: %w", err)
		}

		now := m.now()
		mem := &Member{
			ID:              idalloc.Next(prefix, ids, scope),
			PersonalDetails: input.PersonalDetails,
			ChurchDetails:   input.ChurchDetails,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if mem.ChurchDetails.Departments == nil {
			mem.ChurchDetails.Departments = []DepartmentRole{}
		}

		err = m.ds.Insert(ctx, mem)
		m.metrics.ObserveStore(table, "insert", err)
		if err == nil {
			slog.InfoContext(ctx, "member created", "id", mem.ID, "member_type", mem.ChurchDetails.MemberType)
			return mem, nil
		}

		if database.IsUniqueViolation(err) && attempt < MaxAllocAttempts {
			m.metrics.AllocationRetried(table)
			slog.WarnContext(ctx, "member id taken, retrying", "id", mem.ID, "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
}

// Update replaces the details of the member with mem.ID and refreshes
// mem.UpdatedAt. The ID is never re-derived, even if the member type changed.
func (m *Manager) Update(ctx context.Context, mem *Member) error {
	if mem == nil {
		return ErrInvalidMember
	}

	mem.UpdatedAt = m.now()
	rowsAffected, err := m.ds.Update(ctx, mem)
	m.metrics.ObserveStore(table, "update", err)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a member.
func (m *Manager) Delete(ctx context.Context, id string) error {
	rowsAffected, err := m.ds.Delete(ctx, id)
	m.metrics.ObserveStore(table, "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "member deleted", "id", id)
	return nil
}
