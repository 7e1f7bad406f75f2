package department

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewManager(NewDatastore(db), WithClock(func() time.Time { return fixed })), mock
}

func TestManager_List_FailsOpen(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnError(sql.ErrConnDone)

	depts := m.List(context.Background())
	require.NotNil(t, depts, "a read failure must still yield a usable list")
	assert.Empty(t, depts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_List_EmptyTableIsNonNil(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnRows(sqlmock.NewRows(deptColumns))

	depts := m.List(context.Background())
	require.NotNil(t, depts)
	assert.Empty(t, depts)
}

func TestManager_Create_InvalidName(t *testing.T) {
	m := &Manager{ds: nil}

	tests := []struct {
		name     string
		deptName string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and spaces", " \t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := m.Create(context.Background(), tt.deptName)
			require.NoError(t, err)
			assert.Equal(t, RejectedInvalid, result.Status)
			assert.Nil(t, result.Department)
		})
	}
}

func TestManager_Create_AllocatesNextID(t *testing.T) {
	m, mock := setupManager(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM departments`).
		WillReturnRows(sqlmock.NewRows(deptColumns).
			AddRow("JCC-DEPT-001", "Choir", now).
			AddRow("JCC-DEPT-003", "Ushers", now))
	mock.ExpectExec(`INSERT INTO departments`).
		WithArgs("JCC-DEPT-004", "Media", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := m.Create(context.Background(), "  Media ")
	require.NoError(t, err)
	assert.Equal(t, Created, result.Status)
	assert.Equal(t, "JCC-DEPT-004", result.Department.ID)
	assert.Equal(t, "Media", result.Department.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Create_DuplicateIgnoresCase(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments`).
		WillReturnRows(sqlmock.NewRows(deptColumns).AddRow("JCC-DEPT-001", "Choir", time.Now()))

	result, err := m.Create(context.Background(), " cHOIR ")
	require.NoError(t, err)
	assert.Equal(t, RejectedDuplicate, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert may be issued for a duplicate")
}

func TestManager_Create_ListFailureFailsClosed(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnError(sql.ErrConnDone)

	_, err := m.Create(context.Background(), "Media")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestManager_Create_InsertFailureFailsClosed(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnRows(sqlmock.NewRows(deptColumns))
	mock.ExpectExec(`INSERT INTO departments`).WillReturnError(sql.ErrConnDone)

	_, err := m.Create(context.Background(), "Media")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestManager_Create_RetriesOnCollision(t *testing.T) {
	m, mock := setupManager(t)
	now := time.Now()

	// Another writer takes 001 between our read and our insert.
	mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnRows(sqlmock.NewRows(deptColumns))
	mock.ExpectExec(`INSERT INTO departments`).
		WithArgs("JCC-DEPT-001", "Media", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(`SELECT .+ FROM departments`).
		WillReturnRows(sqlmock.NewRows(deptColumns).AddRow("JCC-DEPT-001", "Youth", now))
	mock.ExpectExec(`INSERT INTO departments`).
		WithArgs("JCC-DEPT-002", "Media", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := m.Create(context.Background(), "Media")
	require.NoError(t, err)
	assert.Equal(t, "JCC-DEPT-002", result.Department.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Create_GivesUpAfterMaxAttempts(t *testing.T) {
	m, mock := setupManager(t)

	for i := 0; i < MaxAllocAttempts; i++ {
		mock.ExpectQuery(`SELECT .+ FROM departments`).WillReturnRows(sqlmock.NewRows(deptColumns))
		mock.ExpectExec(`INSERT INTO departments`).WillReturnError(&pgconn.PgError{Code: "23505"})
	}

	_, err := m.Create(context.Background(), "Media")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Update(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectExec(`UPDATE departments`).
		WithArgs("JCC-DEPT-001", "Praise Team").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, m.Update(context.Background(), "JCC-DEPT-001", "  Praise Team  "))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Update_Errors(t *testing.T) {
	m, mock := setupManager(t)

	assert.ErrorIs(t, m.Update(context.Background(), "JCC-DEPT-001", "  "), ErrInvalidName)

	mock.ExpectExec(`UPDATE departments`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, m.Update(context.Background(), "JCC-DEPT-404", "Media"), ErrNotFound)

	mock.ExpectExec(`UPDATE departments`).WillReturnError(sql.ErrConnDone)
	err := m.Update(context.Background(), "JCC-DEPT-001", "Media")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestManager_Delete(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectExec(`DELETE FROM departments`).
		WithArgs("JCC-DEPT-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, m.Delete(context.Background(), "JCC-DEPT-001"))

	mock.ExpectExec(`DELETE FROM departments`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, m.Delete(context.Background(), "JCC-DEPT-001"), ErrNotFound)

	mock.ExpectExec(`DELETE FROM departments`).WillReturnError(sql.ErrConnDone)
	err := m.Delete(context.Background(), "JCC-DEPT-002")
	assert.True(t, errors.Is(err, sql.ErrConnDone), "write failures must propagate, got %v", err)
}

func TestManager_GetByID_NotFound(t *testing.T) {
	m, mock := setupManager(t)

	mock.ExpectQuery(`SELECT .+ FROM departments WHERE id = \$1`).
		WithArgs("JCC-DEPT-404").
		WillReturnError(sql.ErrNoRows)

	_, err := m.GetByID(context.Background(), "JCC-DEPT-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHasName(t *testing.T) {
	depts := []*Department{{Name: "Choir"}, {Name: "Youth Fellowship"}}

	assert.True(t, HasName(depts, "choir"))
	assert.True(t, HasName(depts, "  CHOIR "))
	assert.True(t, HasName(depts, "youth FELLOWSHIP"))
	assert.False(t, HasName(depts, "Ushers"))
	assert.False(t, HasName(nil, "Choir"))
}
