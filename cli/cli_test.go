package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/store/sqlite"
	"github.com/warp/job-tracker/tracker"
)

// run executes one command line against dbPath and returns its stdout.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--db", dbPath, "--no-color", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func newDB(t *testing.T) string {
	t.Helper()
	// A nested path checks the directory gets created.
	return filepath.Join(t.TempDir(), "data", "tracker.db")
}

func TestMigrate(t *testing.T) {
	db := newDB(t)

	// WHEN: Migrating a fresh database
	out, err := run(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated schema from version 0 to 1")

	// WHEN: Migrating again
	out, err = run(t, db, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema already at version 1")

	// WHEN: Rolling everything back
	out, err = run(t, db, "migrate", "--target-version", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated schema from version 1 to 0")
}

func TestUserCreate(t *testing.T) {
	db := newDB(t)

	out, err := run(t, db, "user", "create", "--username", "alice", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user alice (id 1)")

	// Same name again
	_, err = run(t, db, "user", "create", "--username", "alice", "--password", "password123")
	assert.Error(t, err)

	// Short password
	_, err = run(t, db, "user", "create", "--username", "bob", "--password", "short")
	assert.Error(t, err)

	// Missing flag
	_, err = run(t, db, "user", "create", "--username", "carol")
	assert.Error(t, err)
}

func TestJobTypesImportAndList(t *testing.T) {
	db := newDB(t)

	out, err := run(t, db, "jobtypes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No job types defined")

	// GIVEN: A seed file
	file := filepath.Join(t.TempDir(), "job_types.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
job_types:
  - name: Inspection
    credits: "1.25"
  - name: Install
    credits: 2.5
`), 0o600))

	// WHEN: Importing it twice
	_, err = run(t, db, "jobtypes", "import", file)
	require.NoError(t, err)
	out, err = run(t, db, "jobtypes", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Inspection")

	// THEN: Each job type is listed once with two decimals
	out, err = run(t, db, "jobtypes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1.25")
	assert.Contains(t, out, "2.50")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Inspection")))
}

func TestJobTypesImport_BadFile(t *testing.T) {
	db := newDB(t)

	_, err := run(t, db, "jobtypes", "import", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, db, "jobtypes", "import")
	assert.Error(t, err, "file argument is required")
}

func TestReportWeek(t *testing.T) {
	db := newDB(t)
	_, err := run(t, db, "user", "create", "--username", "alice", "--password", "password123")
	require.NoError(t, err)

	// WHEN: Reporting a week with no jobs on the default profile
	out, err := run(t, db, "report", "week", "--username", "alice", "--date", "2025-03-12")
	require.NoError(t, err)

	// THEN: Seven rostered days at 4.25, Monday first
	assert.Contains(t, out, "2025-03-10")
	assert.Contains(t, out, "Mon 10 Mar")
	assert.Contains(t, out, "Sun 16 Mar")
	assert.Contains(t, out, "4.25")
	assert.Contains(t, out, "29.75")
	assert.Contains(t, out, "-29.75")
}

func TestReportWeek_Errors(t *testing.T) {
	db := newDB(t)

	_, err := run(t, db, "report", "week", "--username", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nobody")

	_, err = run(t, db, "report", "week", "--username", "nobody", "--date", "12/03/2025")
	assert.Error(t, err)

	_, err = run(t, db, "report", "week")
	assert.Error(t, err, "username is required")
}

func TestReportHistory_Empty(t *testing.T) {
	db := newDB(t)
	_, err := run(t, db, "user", "create", "--username", "alice", "--password", "password123")
	require.NoError(t, err)

	out, err := run(t, db, "report", "history", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No completed jobs recorded")
}

func TestReportHistory(t *testing.T) {
	db := newDB(t)
	_, err := run(t, db, "user", "create", "--username", "alice", "--password", "password123")
	require.NoError(t, err)

	// GIVEN: Two jobs in the week of 10 March, recorded through the store
	store, err := sqlite.New(db)
	require.NoError(t, err)
	ctx := context.Background()
	user, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	jt, err := store.UpsertJobType(ctx, "Inspection", decimal.RequireFromString("10"))
	require.NoError(t, err)
	for _, day := range []tracker.Date{tracker.NewDate(2025, 3, 10), tracker.NewDate(2025, 3, 11)} {
		_, err := store.AddCompletedJob(ctx, tracker.CompletedJob{UserID: user.ID, JobType: jt, CompletedOn: day})
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	// WHEN: Reporting the history
	out, err := run(t, db, "report", "history", "--username", "alice")
	require.NoError(t, err)

	// THEN: 20 credits against 29.75 leaves a 9.75 deficit
	assert.Contains(t, out, "2025-03-10")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "Balance: -9.75")
	assert.Contains(t, out, "Monday")
	assert.Contains(t, out, "Tuesday")
}

func TestAboutSet(t *testing.T) {
	db := newDB(t)

	out, err := run(t, db, "about", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No about entries")

	// WHEN: Setting the same title twice
	out, err = run(t, db, "about", "set", "--title", "Credits", "--content", "First draft")
	require.NoError(t, err)
	assert.Contains(t, out, `Created about entry "Credits" (id 1)`)
	file := filepath.Join(t.TempDir(), "credits.txt")
	require.NoError(t, os.WriteFile(file, []byte("Final text"), 0o600))
	out, err = run(t, db, "about", "set", "--title", "Credits", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, `Updated about entry "Credits" (id 1)`)

	// THEN: One entry holds the latest content
	store, err := sqlite.New(db)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.ListAbout(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Final text", entries[0].Content)
}

func TestAboutSet_Rejects(t *testing.T) {
	db := newDB(t)

	_, err := run(t, db, "about", "set", "--content", "No title")
	assert.Error(t, err)

	_, err = run(t, db, "about", "set", "--title", "Empty")
	assert.Error(t, err)

	_, err = run(t, db, "about", "set", "--title", "Both", "--content", "x", "--file", "y.txt")
	assert.Error(t, err)
}

func TestSigned(t *testing.T) {
	color.NoColor = true

	assert.Equal(t, "+0.00", signed(decimal.Zero))
	assert.Equal(t, "+1.50", signed(decimal.RequireFromString("1.5")))
	assert.Equal(t, "-2.25", signed(decimal.RequireFromString("-2.25")))
}
