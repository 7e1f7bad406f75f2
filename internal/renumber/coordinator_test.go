package renumber_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jccadmin/internal/database"
	"jccadmin/internal/database/dbtest"
	"jccadmin/internal/department"
	"jccadmin/internal/member"
	"jccadmin/internal/renumber"
)

type fixture struct {
	db      *database.DB
	depts   *department.Manager
	members *member.Manager
	coord   *renumber.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewSQLite(t)

	var mu sync.Mutex
	var clockMu sync.Mutex
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(time.Second)
		return now
	}

	return &fixture{
		db:      db,
		depts:   department.NewManager(department.NewDatastore(db.Handle()), department.WithLocker(&mu), department.WithClock(clock)),
		members: member.NewManager(member.NewDatastore(db.Handle()), member.WithClock(clock)),
		coord:   renumber.NewCoordinator(db, renumber.WithLocker(&mu)),
	}
}

func (f *fixture) createDept(t *testing.T, name string) *department.Department {
	t.Helper()
	result, err := f.depts.Create(context.Background(), name)
	require.NoError(t, err)
	require.Equal(t, department.Created, result.Status)
	return result.Department
}

func (f *fixture) createMember(t *testing.T, first string, depts ...*department.Department) *member.Member {
	t.Helper()
	roles := make([]member.DepartmentRole, len(depts))
	for i, d := range depts {
		roles[i] = member.DepartmentRole{ID: d.ID, Name: d.Name, Role: "Member"}
	}
	mem, err := f.members.Create(context.Background(), &member.Member{
		PersonalDetails: member.PersonalDetails{FirstName: first},
		ChurchDetails:   member.ChurchDetails{MemberType: member.TypeWorker, Departments: roles},
	})
	require.NoError(t, err)
	return mem
}

func (f *fixture) deptIDs(t *testing.T, m *member.Member) []string {
	t.Helper()
	got, err := f.members.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	ids := make([]string, len(got.ChurchDetails.Departments))
	for i, d := range got.ChurchDetails.Departments {
		ids[i] = d.ID
	}
	return ids
}

// scenario builds A, B, C, deletes B and creates D, leaving A=001, C=003, D=004.
func scenario(t *testing.T, f *fixture) (a, c, d *department.Department) {
	t.Helper()
	a = f.createDept(t, "A")
	b := f.createDept(t, "B")
	c = f.createDept(t, "C")
	require.NoError(t, f.depts.Delete(context.Background(), b.ID))
	d = f.createDept(t, "D")

	require.Equal(t, "JCC-DEPT-001", a.ID)
	require.Equal(t, "JCC-DEPT-003", c.ID)
	require.Equal(t, "JCC-DEPT-004", d.ID)
	return a, c, d
}

func TestCoordinator_CompactsAndRewritesMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, c, d := scenario(t, f)

	onlyA := f.createMember(t, "Ada", a)
	onlyC := f.createMember(t, "Chidi", c)
	both := f.createMember(t, "Dayo", a, d)
	nobody := f.createMember(t, "Efe")

	summary, err := f.coord.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Departments)
	assert.Equal(t, 2, summary.Renumbered)
	assert.Equal(t, 2, summary.MembersUpdated)

	depts := f.depts.List(ctx)
	require.Len(t, depts, 3)
	for i, want := range []struct{ id, name string }{
		{"JCC-DEPT-001", "A"}, {"JCC-DEPT-002", "C"}, {"JCC-DEPT-003", "D"},
	} {
		assert.Equal(t, want.id, depts[i].ID)
		assert.Equal(t, want.name, depts[i].Name)
	}
	assert.True(t, depts[1].CreatedAt.Equal(c.CreatedAt), "createdAt is preserved")

	assert.Equal(t, []string{"JCC-DEPT-001"}, f.deptIDs(t, onlyA))
	assert.Equal(t, []string{"JCC-DEPT-002"}, f.deptIDs(t, onlyC))
	assert.Equal(t, []string{"JCC-DEPT-001", "JCC-DEPT-003"}, f.deptIDs(t, both))
	assert.Empty(t, f.deptIDs(t, nobody))
}

func TestCoordinator_SecondRunIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, c, _ := scenario(t, f)
	mem := f.createMember(t, "Chidi", c)

	_, err := f.coord.Run(ctx)
	require.NoError(t, err)
	before, err := f.members.GetByID(ctx, mem.ID)
	require.NoError(t, err)

	summary, err := f.coord.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Renumbered)
	assert.Zero(t, summary.MembersUpdated)

	after, err := f.members.GetByID(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ChurchDetails, after.ChurchDetails)
}

func TestCoordinator_CreateAfterRunContinuesSequence(t *testing.T) {
	f := newFixture(t)
	scenario(t, f)

	_, err := f.coord.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "JCC-DEPT-004", f.createDept(t, "E").ID)
}

func TestDepartmentDelete_DoesNotCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	choir := f.createDept(t, "Choir")
	mem := f.createMember(t, "Ada", choir)

	require.NoError(t, f.depts.Delete(ctx, choir.ID))

	got, err := f.members.GetByID(ctx, mem.ID)
	require.NoError(t, err)
	require.Len(t, got.ChurchDetails.Departments, 1)
	assert.Equal(t, member.DepartmentRole{ID: choir.ID, Name: "Choir", Role: "Member"}, got.ChurchDetails.Departments[0])
}

var errInjected = errors.New("injected failure")

// failingInserts fails every department insert inside the transaction.
type failingInserts struct {
	database.DBTX
}

func (f failingInserts) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, "INSERT INTO departments") {
		return nil, errInjected
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

type failingRunner struct {
	db *database.DB
}

func (r failingRunner) WithTx(ctx context.Context, fn func(tx database.DBTX) error) error {
	return r.db.WithTx(ctx, func(tx database.DBTX) error {
		return fn(failingInserts{tx})
	})
}

func TestCoordinator_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scenario(t, f)

	_, err := renumber.NewCoordinator(failingRunner{f.db}).Run(ctx)
	require.ErrorIs(t, err, errInjected)

	depts := f.depts.List(ctx)
	require.Len(t, depts, 3)
	assert.Equal(t, "JCC-DEPT-001", depts[0].ID)
	assert.Equal(t, "JCC-DEPT-003", depts[1].ID)
	assert.Equal(t, "JCC-DEPT-004", depts[2].ID)
}
