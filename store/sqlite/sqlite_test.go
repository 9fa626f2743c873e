package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/store/sqlite"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Monday 10 March 2025
var mon = tracker.NewDate(2025, time.March, 10)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newUser(t *testing.T, store *sqlite.Store, name string) *tracker.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), name, "hash")
	require.NoError(t, err)
	return user
}

func addJob(t *testing.T, store *sqlite.Store, userID tracker.UserID, jt tracker.JobType, on tracker.Date) *tracker.CompletedJob {
	t.Helper()
	job, err := store.AddCompletedJob(context.Background(), tracker.CompletedJob{UserID: userID, JobType: jt, CompletedOn: on})
	require.NoError(t, err)
	return job
}

// =============================================================================
// USERS AND PROFILES
// =============================================================================

func TestCreateUser_WritesDefaultProfile(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	user := newUser(t, store, "alice")

	profile, err := store.GetProfileTarget(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, dec("4.25").Equal(profile.DailyTarget))
	assert.True(t, dec("8").Equal(profile.DailyHours))
	assert.True(t, profile.DaysOff.IsEmpty())

	found, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.WithinDuration(t, time.Now(), found.CreatedAt, time.Minute)
}

func TestGetUser_CorruptCreatedAt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")

	// GIVEN: A user row whose timestamp was written by hand
	store, err := sqlite.New(path)
	require.NoError(t, err)
	user := newUser(t, store, "alice")
	require.NoError(t, store.Close())

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE users SET created_at = 'last tuesday' WHERE id = ?`, user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// WHEN: Loading the user
	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()
	found, err := store.GetUser(ctx, user.ID)

	// THEN: The bad value is reported instead of a zero time
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt created_at")
	assert.Nil(t, found)
}

func TestOpen_PathWithQueryString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	for _, dbPath := range []string{
		path,
		"file:" + path + "?cache=shared",
		"file::memory:?cache=shared",
	} {
		db, err := sqlite.Open(dbPath)
		require.NoError(t, err, dbPath)

		// Connection parameters still apply after the caller's own query
		var foreignKeys int
		require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys), dbPath)
		assert.Equal(t, 1, foreignKeys, dbPath)
		require.NoError(t, db.Close())
	}
}

func TestFilePathAndIsMemory(t *testing.T) {
	assert.Equal(t, "/var/lib/tracker.db", sqlite.FilePath("file:/var/lib/tracker.db?cache=shared"))
	assert.Equal(t, "data/tracker.db", sqlite.FilePath("data/tracker.db"))
	assert.True(t, sqlite.IsMemory(sqlite.MemoryPath))
	assert.True(t, sqlite.IsMemory("file:shared?mode=memory&cache=shared"))
	assert.False(t, sqlite.IsMemory("data/tracker.db"))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store := newStore(t)
	newUser(t, store, "alice")

	_, err := store.CreateUser(context.Background(), "alice", "other")

	assert.ErrorIs(t, err, tracker.ErrUsernameTaken)
}

func TestGetUser_Missing(t *testing.T) {
	store := newStore(t)

	user, err := store.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)

	profile, err := store.GetProfileTarget(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestSaveProfileTarget_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")

	want := tracker.ProfileTarget{
		UserID:      user.ID,
		DailyTarget: dec("5.5"),
		DailyHours:  dec("7.5"),
		DaysOff:     tracker.NewDaySet(tracker.Saturday, tracker.Sunday),
	}
	require.NoError(t, store.SaveProfileTarget(ctx, want))

	got, err := store.GetProfileTarget(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, want.DailyTarget.Equal(got.DailyTarget))
	assert.True(t, want.DailyHours.Equal(got.DailyHours))
	assert.Equal(t, want.DaysOff, got.DaysOff)
}

func TestSaveProfileTarget_RejectsZeroHours(t *testing.T) {
	store := newStore(t)
	user := newUser(t, store, "alice")

	p := tracker.DefaultProfileTarget(user.ID)
	p.DailyHours = decimal.Zero
	err := store.SaveProfileTarget(context.Background(), p)

	assert.ErrorIs(t, err, tracker.ErrInvalidShiftHours)
	assert.True(t, tracker.IsClientError(err))
}

// =============================================================================
// JOB TYPES AND COMPLETED JOBS
// =============================================================================

func TestUpsertJobType_UpdatesCreditsByName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first, err := store.UpsertJobType(ctx, "Install", dec("2"))
	require.NoError(t, err)
	second, err := store.UpsertJobType(ctx, "Install", dec("2.5"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	types, err := store.ListJobTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.True(t, dec("2.5").Equal(types[0].Credits))
}

func TestAddCompletedJob_UnknownJobType(t *testing.T) {
	store := newStore(t)
	user := newUser(t, store, "alice")

	_, err := store.AddCompletedJob(context.Background(), tracker.CompletedJob{
		UserID:      user.ID,
		JobType:     tracker.JobType{ID: 999},
		CompletedOn: mon,
	})

	assert.ErrorIs(t, err, tracker.ErrJobTypeNotFound)
}

func TestCompletedJob_OwnershipChecks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")
	jt, err := store.UpsertJobType(ctx, "Install", dec("2"))
	require.NoError(t, err)
	job := addJob(t, store, alice.ID, jt, mon)

	// Another user can neither change nor delete it.
	_, err = store.UpdateCompletedJob(ctx, tracker.CompletedJob{ID: job.ID, UserID: bob.ID, JobType: jt, CompletedOn: mon})
	assert.ErrorIs(t, err, tracker.ErrForbidden)
	assert.ErrorIs(t, store.DeleteCompletedJob(ctx, bob.ID, job.ID), tracker.ErrForbidden)

	got, err := store.GetCompletedJob(ctx, alice.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, mon, got.CompletedOn)

	// The owner can.
	updated, err := store.UpdateCompletedJob(ctx, tracker.CompletedJob{ID: job.ID, UserID: alice.ID, JobType: jt, CompletedOn: mon.AddDays(1)})
	require.NoError(t, err)
	assert.Equal(t, mon.AddDays(1), updated.CompletedOn)
	require.NoError(t, store.DeleteCompletedJob(ctx, alice.ID, job.ID))

	_, err = store.GetCompletedJob(ctx, alice.ID, job.ID)
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}

func TestListCompletedJobs_Paginates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	jt, err := store.UpsertJobType(ctx, "Install", dec("1"))
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		addJob(t, store, user.ID, jt, mon.AddDays(i))
	}

	page, err := store.ListCompletedJobs(ctx, user.ID, 7, 0)
	require.NoError(t, err)
	require.Len(t, page, 7)
	assert.Equal(t, mon.AddDays(8), page[0].CompletedOn)

	rest, err := store.ListCompletedJobs(ctx, user.ID, 7, 7)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	n, err := store.CountCompletedJobs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestAbsence_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	alice := newUser(t, store, "alice")
	bob := newUser(t, store, "bob")

	abs, err := store.AddAbsence(ctx, tracker.Absence{UserID: alice.ID, Date: mon, Duration: dec("2.5")})
	require.NoError(t, err)

	_, err = store.GetAbsence(ctx, bob.ID, abs.ID)
	assert.ErrorIs(t, err, tracker.ErrForbidden)

	abs.Duration = dec("3")
	_, err = store.UpdateAbsence(ctx, *abs)
	require.NoError(t, err)

	got, err := store.GetAbsence(ctx, alice.ID, abs.ID)
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(got.Duration))

	assert.ErrorIs(t, store.DeleteAbsence(ctx, bob.ID, abs.ID), tracker.ErrForbidden)
	require.NoError(t, store.DeleteAbsence(ctx, alice.ID, abs.ID))
	assert.ErrorIs(t, store.DeleteAbsence(ctx, alice.ID, abs.ID), tracker.ErrNotFound)
}

func TestAddAbsence_RejectsNegativeDuration(t *testing.T) {
	store := newStore(t)
	user := newUser(t, store, "alice")

	_, err := store.AddAbsence(context.Background(), tracker.Absence{UserID: user.ID, Date: mon, Duration: dec("-1")})

	assert.ErrorIs(t, err, tracker.ErrNegativeValue)
}

// =============================================================================
// AGGREGATION QUERIES
// =============================================================================

func TestSumCreditsByWeek_GroupsOnMondays(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	other := newUser(t, store, "bob")
	jt, err := store.UpsertJobType(ctx, "Install", dec("1.25"))
	require.NoError(t, err)

	// Sunday belongs to the previous week; the year boundary has a Monday in December.
	addJob(t, store, user.ID, jt, mon.AddDays(-1))
	addJob(t, store, user.ID, jt, mon)
	addJob(t, store, user.ID, jt, mon.AddDays(6))
	addJob(t, store, user.ID, jt, tracker.NewDate(2025, time.January, 1))
	addJob(t, store, other.ID, jt, mon)

	totals, err := store.SumCreditsByWeek(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, totals, 3)
	assert.Equal(t, mon, totals[0].WeekStart)
	assert.True(t, dec("2.5").Equal(totals[0].Credits))
	assert.Equal(t, mon.AddDays(-7), totals[1].WeekStart)
	assert.Equal(t, tracker.NewDate(2024, time.December, 30), totals[2].WeekStart)
}

func TestSumCreditsByDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	jt, err := store.UpsertJobType(ctx, "Install", dec("0.1"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		addJob(t, store, user.ID, jt, mon)
	}
	addJob(t, store, user.ID, jt, mon.AddDays(2))

	sums, err := store.SumCreditsByDay(ctx, user.ID, []tracker.Date{mon, mon.AddDays(1)})
	require.NoError(t, err)

	assert.True(t, dec("0.3").Equal(sums[mon]), "decimal sums must be exact, got %s", sums[mon])
	_, ok := sums[mon.AddDays(1)]
	assert.False(t, ok)
	assert.Len(t, sums, 1)
}

func TestSumAbsenceByWeek_AndListAbsences(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	for _, a := range []struct {
		on    tracker.Date
		hours string
	}{
		{mon, "1"}, {mon.AddDays(6), "2.5"}, {mon.AddDays(7), "8"},
	} {
		_, err := store.AddAbsence(ctx, tracker.Absence{UserID: user.ID, Date: a.on, Duration: dec(a.hours)})
		require.NoError(t, err)
	}

	byWeek, err := store.SumAbsenceByWeek(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dec("3.5").Equal(byWeek[mon]))
	assert.True(t, dec("8").Equal(byWeek[mon.AddDays(7)]))

	inWeek, err := store.ListAbsences(ctx, user.ID, mon, mon.AddDays(6))
	require.NoError(t, err)
	assert.Len(t, inWeek, 2)
}

func TestListCompletedJobNames_Order(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	a, err := store.UpsertJobType(ctx, "A", dec("1"))
	require.NoError(t, err)
	b, err := store.UpsertJobType(ctx, "B", dec("1"))
	require.NoError(t, err)

	addJob(t, store, user.ID, a, mon.AddDays(-5))
	addJob(t, store, user.ID, b, mon.AddDays(2))
	addJob(t, store, user.ID, a, mon)
	addJob(t, store, user.ID, b, mon)

	names, err := store.ListCompletedJobNames(ctx, user.ID, nil, nil)
	require.NoError(t, err)

	var got []string
	for _, c := range names {
		got = append(got, c.Date.String()+" "+c.JobName)
	}
	assert.Equal(t, []string{
		"2025-03-10 A",
		"2025-03-10 B",
		"2025-03-12 B",
		"2025-03-05 A",
	}, got)

	from := mon
	bounded, err := store.ListCompletedJobNames(ctx, user.ID, &from, nil)
	require.NoError(t, err)
	assert.Len(t, bounded, 3)
}

// =============================================================================
// AGGREGATORS OVER SQLITE
// =============================================================================

func TestWeeklyAggregator_OverSQLite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	user := newUser(t, store, "alice")
	p := tracker.DefaultProfileTarget(user.ID)
	p.DaysOff = tracker.NewDaySet(tracker.Saturday, tracker.Sunday)
	require.NoError(t, store.SaveProfileTarget(ctx, p))
	jt, err := store.UpsertJobType(ctx, "Install", dec("5"))
	require.NoError(t, err)
	addJob(t, store, user.ID, jt, mon)
	_, err = store.AddAbsence(ctx, tracker.Absence{UserID: user.ID, Date: mon.AddDays(1), Duration: dec("2")})
	require.NoError(t, err)

	report, err := tracker.NewWeeklyAggregator(store).Week(ctx, user.ID, mon.AddDays(2))
	require.NoError(t, err)

	require.Len(t, report.Days, 5)
	assert.True(t, dec("5").Equal(report.Days[0].Credits))
	assert.True(t, dec("3.19").Equal(report.Days[1].Target), "got %s", report.Days[1].Target)
}

func TestMigrate_DownAndUp(t *testing.T) {
	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	up, err := sqlite.Migrate(db, sqlite.LatestVersion)
	require.NoError(t, err)
	assert.True(t, up.Changed)
	assert.Equal(t, uint(1), up.To)

	again, err := sqlite.Migrate(db, sqlite.LatestVersion)
	require.NoError(t, err)
	assert.False(t, again.Changed)

	down, err := sqlite.Migrate(db, 0)
	require.NoError(t, err)
	assert.True(t, down.Changed)
	assert.Equal(t, uint(0), down.To)
}
