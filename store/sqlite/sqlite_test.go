package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fnenow/clock/payroll"
	"github.com/fnenow/clock/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func localAt(s string) payroll.LocalTime {
	lt, err := payroll.ParseLocalTime(s)
	if err != nil {
		panic(err)
	}
	return lt
}

func workDate(s string) payroll.WorkDate {
	d, err := payroll.ParseWorkDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func clockEvent(worker string, project int64, local string) payroll.ClockEvent {
	return payroll.ClockEvent{
		WorkerID:  worker,
		ProjectID: project,
		UTC:       time.Now().UTC(),
		Local:     localAt(local),
	}
}

// =============================================================================
// CLOCK IN / OUT TESTS
// =============================================================================

func TestClockIn_AssignsSessionID(t *testing.T) {
	// GIVEN: A fresh store
	// WHEN: Clocking in
	// THEN: The event gets an id and a generated session id

	store := newTestStore(t)
	ctx := context.Background()

	ev, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	assert.NotZero(t, ev.ID)
	assert.NotEmpty(t, ev.SessionID)
	assert.Equal(t, payroll.ActionIn, ev.Action)
}

func TestClockIn_DoubleClockIn_Rejected(t *testing.T) {
	// GIVEN: A worker with an open session on a project
	// WHEN: Clocking in again on the same project
	// THEN: ErrAlreadyClockedIn and nothing is written

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	_, err = store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T09:00"))
	assert.ErrorIs(t, err, payroll.ErrAlreadyClockedIn)

	events, err := store.QueryEvents(ctx, payroll.Filter{WorkerID: "w1"})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClockIn_DifferentProject_Allowed(t *testing.T) {
	// The single-open-session rule is per (worker, project).
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)
	_, err = store.ClockIn(ctx, clockEvent("w1", 11, "2025-03-03T08:30"))
	assert.NoError(t, err)
}

func TestClockOut_InheritsSessionID(t *testing.T) {
	// GIVEN: An open session
	// WHEN: Clocking out
	// THEN: The out event carries the in event's session id

	store := newTestStore(t)
	ctx := context.Background()

	in, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	out, err := store.ClockOut(ctx, clockEvent("w1", 10, "2025-03-03T16:00"))
	require.NoError(t, err)

	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, payroll.ActionOut, out.Action)

	// Session now closed: clock-in is possible again.
	_, err = store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-04T08:00"))
	assert.NoError(t, err)
}

func TestClockOut_NoOpenSession_Rejected(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ClockOut(context.Background(), clockEvent("w1", 10, "2025-03-03T16:00"))
	assert.ErrorIs(t, err, payroll.ErrNoOpenSession)
}

func TestClockIn_SnapshotsCurrentRate(t *testing.T) {
	// GIVEN: A worker with a current pay rate on file
	// WHEN: Clocking in
	// THEN: The rate is snapshotted onto the event

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePayRate(ctx, payroll.PayRate{
		WorkerID:      "w1",
		Rate:          decimal.NewFromInt(28),
		EffectiveFrom: workDate("2020-01-01"),
	}))

	ev, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)
	assert.True(t, ev.PayRate.Equal(decimal.NewFromInt(28)), "got rate %s", ev.PayRate)
}

func TestOpenSessionsAndLatestEvent(t *testing.T) {
	// GIVEN: One open and one closed session
	// WHEN: Listing open sessions and the worker's latest event
	// THEN: Only the open session shows; latest event is the newest action

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)
	_, err = store.ClockOut(ctx, clockEvent("w1", 10, "2025-03-03T16:00"))
	require.NoError(t, err)
	_, err = store.ClockIn(ctx, clockEvent("w2", 10, "2025-03-03T09:00"))
	require.NoError(t, err)

	open, err := store.OpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "w2", open[0].WorkerID)

	latest, err := store.LatestEvent(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, payroll.ActionOut, latest.Action)

	none, err := store.LatestEvent(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, none)
}

// =============================================================================
// EVENT QUERY TESTS
// =============================================================================

func TestQueryEvents_FilterPushdown(t *testing.T) {
	// GIVEN: Events for two workers on two days
	// WHEN: Querying with worker and date-range filters
	// THEN: Only matching rows come back, ordered by local time

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)
	_, err = store.ClockOut(ctx, clockEvent("w1", 10, "2025-03-03T16:00"))
	require.NoError(t, err)
	_, err = store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-05T08:00"))
	require.NoError(t, err)
	_, err = store.ClockIn(ctx, clockEvent("w2", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	events, err := store.QueryEvents(ctx, payroll.Filter{
		WorkerID: "w1",
		From:     workDate("2025-03-03"),
		To:       workDate("2025-03-03"),
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, payroll.ActionIn, events[0].Action)
	assert.Equal(t, payroll.ActionOut, events[1].Action)
}

func TestQueryEvents_InvalidFilter(t *testing.T) {
	store := newTestStore(t)

	_, err := store.QueryEvents(context.Background(), payroll.Filter{
		From: workDate("2025-03-10"),
		To:   workDate("2025-03-01"),
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidFilter)
}

func TestQueryEvents_BilledFilter(t *testing.T) {
	// GIVEN: One billed and one unbilled entry
	// WHEN: Filtering on the billed flag both ways
	// THEN: Each entry shows up exactly once

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)
	_, err = store.ClockOut(ctx, clockEvent("w1", 10, "2025-03-03T16:00"))
	require.NoError(t, err)
	_, err = store.ClockIn(ctx, clockEvent("w2", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	require.NoError(t, store.MarkBilled(ctx, []int64{first.ID}, workDate("2025-03-31")))

	yes, no := true, false
	billed, err := store.QueryEvents(ctx, payroll.Filter{Billed: &yes})
	require.NoError(t, err)
	require.Len(t, billed, 1)
	assert.Equal(t, first.ID, billed[0].ID)
	assert.Equal(t, "2025-03-31", billed[0].BilledDate)

	unbilled, err := store.QueryEvents(ctx, payroll.Filter{Billed: &no})
	require.NoError(t, err)
	assert.Len(t, unbilled, 2)
}

// =============================================================================
// BILLED / PAID MUTATION TESTS
// =============================================================================

func TestMark_OnlyTouchesFlags(t *testing.T) {
	// GIVEN: A stored entry
	// WHEN: Marking it billed and paid
	// THEN: Flags and dates change; every other column is untouched

	store := newTestStore(t)
	ctx := context.Background()

	ev, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T08:00"))
	require.NoError(t, err)

	require.NoError(t, store.MarkBilled(ctx, []int64{ev.ID}, workDate("2025-03-15")))
	require.NoError(t, store.MarkPaid(ctx, []int64{ev.ID}, workDate("2025-03-20")))

	events, err := store.QueryEvents(ctx, payroll.Filter{WorkerID: "w1"})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.True(t, got.Billed)
	assert.Equal(t, "2025-03-15", got.BilledDate)
	assert.True(t, got.Paid)
	assert.Equal(t, "2025-03-20", got.PaidDate)
	assert.True(t, got.Local.Equal(ev.Local))
	assert.Equal(t, ev.SessionID, got.SessionID)
}

func TestMark_ValidationContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.MarkBilled(ctx, nil, workDate("2025-03-15")), payroll.ErrNoEntryIDs)
	assert.ErrorIs(t, store.MarkPaid(ctx, []int64{1}, payroll.WorkDate{}), payroll.ErrMissingDate)
}

// =============================================================================
// PAY RATE TESTS
// =============================================================================

func TestSavePayRate_ClosesPreviousOpenInterval(t *testing.T) {
	// GIVEN: An open-ended rate from January
	// WHEN: Saving a new rate from July
	// THEN: The old interval ends June 30; both remain in the history

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePayRate(ctx, payroll.PayRate{
		WorkerID:      "w1",
		Rate:          decimal.NewFromInt(18),
		EffectiveFrom: workDate("2025-01-01"),
	}))
	require.NoError(t, store.SavePayRate(ctx, payroll.PayRate{
		WorkerID:      "w1",
		Rate:          decimal.NewFromInt(22),
		EffectiveFrom: workDate("2025-07-01"),
	}))

	rates, err := store.RatesForWorker(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, rates, 2)

	require.NotNil(t, rates[0].EffectiveTo)
	assert.Equal(t, "2025-06-30", rates[0].EffectiveTo.String())
	assert.Nil(t, rates[1].EffectiveTo)
	assert.True(t, rates[1].Rate.Equal(decimal.NewFromInt(22)))
}

// =============================================================================
// WORKER / PROJECT ADMIN TESTS
// =============================================================================

func TestWorkerCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorker(ctx, sqlite.Worker{
		WorkerID: "55501", Name: "Maria", Phone: "555-0101",
	}))

	w, err := store.GetWorker(ctx, "55501")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Maria", w.Name)

	// Upsert updates in place.
	require.NoError(t, store.SaveWorker(ctx, sqlite.Worker{
		WorkerID: "55501", Name: "Maria G", Phone: "555-0101",
	}))
	all, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Maria G", all[0].Name)

	missing, err := store.GetWorker(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	names, err := store.WorkerNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Maria G", names["55501"])
}

func TestProjectLifecycleAndAssignments(t *testing.T) {
	// GIVEN: A project with an assigned worker
	// WHEN: Hiding the project
	// THEN: It drops out of default listings and the worker's project list

	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveProject(ctx, sqlite.Project{Name: "Site A", City: "Houston"})
	require.NoError(t, err)
	require.NotZero(t, id)

	require.NoError(t, store.SaveWorker(ctx, sqlite.Worker{WorkerID: "w1", Name: "Lee"}))
	require.NoError(t, store.AssignWorker(ctx, id, "w1"))
	// Assigning twice is a no-op, not an error.
	require.NoError(t, store.AssignWorker(ctx, id, "w1"))

	mine, err := store.ProjectsForWorker(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Site A", mine[0].Name)

	_, err = store.SaveProject(ctx, sqlite.Project{ID: id, Name: "Site A", City: "Houston", Hidden: true})
	require.NoError(t, err)

	visible, err := store.ListProjects(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := store.ListProjects(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err = store.ProjectsForWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, store.UnassignWorker(ctx, id, "w1"))
}

func TestSaveProject_UnknownID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveProject(context.Background(), sqlite.Project{ID: 999, Name: "ghost"})
	assert.ErrorIs(t, err, payroll.ErrProjectNotFound)
}

// =============================================================================
// ENGINE INTEGRATION
// =============================================================================

func TestStore_DrivesFullPayrollRun(t *testing.T) {
	// GIVEN: A day of clock data written through the store
	// WHEN: Running the payroll engine against it
	// THEN: Lines come out with the snapshotted rate and correct split

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePayRate(ctx, payroll.PayRate{
		WorkerID:      "w1",
		Rate:          decimal.NewFromInt(20),
		EffectiveFrom: workDate("2020-01-01"),
	}))

	_, err := store.ClockIn(ctx, clockEvent("w1", 10, "2025-03-03T07:00"))
	require.NoError(t, err)
	_, err = store.ClockOut(ctx, clockEvent("w1", 10, "2025-03-03T18:00"))
	require.NoError(t, err)

	engine := payroll.NewEngine(store, store, store)
	lines, err := engine.ComputePayroll(ctx, payroll.Filter{WorkerID: "w1"})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.True(t, lines[0].RegularHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, lines[1].OvertimeHours.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, payroll.OvertimeDaily, lines[1].Kind)
	assert.True(t, lines[1].PayRate.Equal(decimal.NewFromInt(30)), "got %s", lines[1].PayRate)
}
