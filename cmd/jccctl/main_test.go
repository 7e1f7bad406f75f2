package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jccadmin/internal/config"
	"jccadmin/internal/database"
	"jccadmin/internal/database/dbtest"
	"jccadmin/internal/department"
	"jccadmin/internal/member"
)

func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--driver", "sqlite", "--database-url", url}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, url string) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, URL: url})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	depts := department.NewManager(department.NewDatastore(db.Handle()))
	for _, name := range []string{"Choir", "Ushers", "Media"} {
		_, err := depts.Create(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, depts.Delete(ctx, "JCC-DEPT-002"))

	_, err = member.NewManager(member.NewDatastore(db.Handle())).Create(ctx, &member.Member{
		PersonalDetails: member.PersonalDetails{FirstName: "Ada", LastName: "Obi"},
		ChurchDetails: member.ChurchDetails{
			MemberType:  member.TypeWorker,
			Departments: []member.DepartmentRole{{ID: "JCC-DEPT-003", Name: "Media", Role: "Editor"}},
		},
	})
	require.NoError(t, err)
}

func TestMigrateCommands(t *testing.T) {
	url := dbtest.TempURL(t)

	out, err := execute(t, url, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 2 (clean)")

	out, err = execute(t, url, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = execute(t, url, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestRenumberCommand(t *testing.T) {
	url := dbtest.TempURL(t)
	_, err := execute(t, url, "migrate", "up")
	require.NoError(t, err)
	seed(t, url)

	out, err := execute(t, url, "renumber", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "JCC-DEPT-003 -> JCC-DEPT-002")
	assert.Contains(t, out, "would renumber 1 of 2 departments, 1 members updated")

	out, err = execute(t, url, "departments", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "JCC-DEPT-003", "dry run must not change anything")

	out, err = execute(t, url, "renumber")
	require.NoError(t, err)
	assert.Contains(t, out, "renumbered 1 of 2 departments, 1 members updated")

	out, err = execute(t, url, "departments", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "JCC-DEPT-002")
	assert.NotContains(t, out, "JCC-DEPT-003")

	out, err = execute(t, url, "renumber")
	require.NoError(t, err)
	assert.Contains(t, out, "renumbered 0 of 2 departments, 0 members updated")
}

func TestMembersExportCommand(t *testing.T) {
	url := dbtest.TempURL(t)
	_, err := execute(t, url, "migrate", "up")
	require.NoError(t, err)
	seed(t, url)

	out, err := execute(t, url, "members", "export")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "JCC-WRK-001", records[1][0])
	assert.Equal(t, "Media (Editor)", records[1][8])
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := execute(t, "file:x.db", "--driver", "mysql", "migrate", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}
