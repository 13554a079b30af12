/*
Package payroll turns raw clock-in/clock-out events into billable pay lines.

PURPOSE:
  This package contains the session reconciliation and overtime allocation
  engine. It pairs timestamped clock events into work sessions per
  worker/project, then splits each session's hours into regular, daily-overtime
  and weekly-overtime buckets under configurable thresholds.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClockEvent: An immutable clock action recorded by a worker or admin
  - Session:    A derived clocked-in interval (paired in/out, or still open)
  - PayLine:    One billable row at a specific rate and overtime classification
  - PayRate:    A versioned pay rate interval for a worker
  - Filter:     The event window a payroll run operates over

DESIGN PRINCIPLES:
  1. Events are facts: the engine never mutates them, only derives from them
  2. Sessions and PayLines are transient: owned by a single pipeline run
  3. Precision: decimal.Decimal for hours, rates and amounts
  4. Determinism: every ordering has an explicit tie-break

SEE ALSO:
  - reconcile.go: Event pairing into sessions
  - daily.go:     Daily overtime split
  - weekly.go:    Weekly overtime split
  - pipeline.go:  Orchestration and store interfaces
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLOCK EVENT - Immutable clock action
// =============================================================================

type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// ClockEvent is a single clock action. Events are append-only facts; the only
// fields that ever change after insert are the billed/paid flags.
type ClockEvent struct {
	ID        int64
	WorkerID  string
	ProjectID int64
	Action    Action

	// UTC is the server-side timestamp; Local is the worker-visible wall
	// clock at the worksite. Durations and day boundaries use Local only.
	UTC              time.Time
	Local            LocalTime
	UTCOffsetMinutes int

	Note string

	// PayRate is the rate snapshot taken at clock-in. Zero means the rate
	// must be resolved from the rate history at payroll time.
	PayRate decimal.Decimal

	// SessionID groups an In with its matching Out. Empty for legacy rows,
	// in which case pairing falls back to positional order.
	SessionID string

	// ForcedBy names the admin who forced this clock-out, if any.
	ForcedBy string

	Billed     bool
	BilledDate string // YYYY-MM-DD, empty if not billed
	Paid       bool
	PaidDate   string
}

// =============================================================================
// SESSION - Derived clocked-in interval
// =============================================================================

// Session is one continuous clocked-in interval for a worker on a project.
// ClockOut is nil while the worker is still on the clock. Sessions are
// recomputed fresh on every payroll run and never persisted.
type Session struct {
	WorkerID  string
	ProjectID int64
	SessionID string
	ClockIn   ClockEvent
	ClockOut  *ClockEvent
	PayRate   decimal.Decimal
}

func (s Session) Open() bool { return s.ClockOut == nil }

// WorkDate is the session's local calendar day, taken from the clock-in.
func (s Session) WorkDate() WorkDate { return s.ClockIn.Local.WorkDate() }

// Hours returns the session duration in hours as wall-clock difference of the
// recorded local times. Open sessions and out-before-in pairs yield zero.
func (s Session) Hours() decimal.Decimal {
	if s.ClockOut == nil {
		return decimal.Zero
	}
	d := s.ClockOut.Local.Sub(s.ClockIn.Local)
	if d < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(d.Hours())
}

// =============================================================================
// PAY LINE - Billable output row
// =============================================================================

type OvertimeKind string

const (
	OvertimeNone   OvertimeKind = "none"
	OvertimeDaily  OvertimeKind = "daily"
	OvertimeWeekly OvertimeKind = "weekly"
)

// PayLine is one billable row derived from a session. A session that crosses
// an overtime boundary produces multiple lines. EntryID is the id of the
// originating clock-in event; billed/paid mutations are keyed on it.
type PayLine struct {
	EntryID   int64
	WorkerID  string
	ProjectID int64
	WorkDate  WorkDate
	ClockIn   LocalTime
	ClockOut  LocalTime

	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	Kind          OvertimeKind

	// PayRate is the effective rate for this line: the base rate for regular
	// lines, base times the overtime multiplier for overtime lines.
	PayRate   decimal.Decimal
	PayAmount decimal.Decimal

	Note string

	// NeedsReview marks lines computed with a zero rate because no pay rate
	// interval covered the work date. Such lines must not be billed silently.
	NeedsReview bool

	Billed     bool
	BilledDate string
	Paid       bool
	PaidDate   string
}

// Hours returns the total hours on this line regardless of classification.
func (l PayLine) Hours() decimal.Decimal {
	return l.RegularHours.Add(l.OvertimeHours)
}

// =============================================================================
// PAY RATE - Versioned rate interval
// =============================================================================

// PayRate is one interval of a worker's rate history. Intervals are expected
// to be non-overlapping; on overlapping data the latest EffectiveFrom wins.
type PayRate struct {
	WorkerID      string
	Rate          decimal.Decimal
	EffectiveFrom WorkDate
	EffectiveTo   *WorkDate // nil = open-ended
}

// Covers reports whether the interval contains the given date.
func (r PayRate) Covers(date WorkDate) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !date.After(*r.EffectiveTo)
}

// =============================================================================
// FILTER - Event window for a payroll run
// =============================================================================

// Filter selects the events a payroll run operates over. Zero values mean
// "no constraint". Filters are pushed down to the event source.
type Filter struct {
	WorkerID  string
	ProjectID int64
	From      WorkDate
	To        WorkDate
	Billed    *bool
	Paid      *bool
}

// Validate rejects contradictory filters before any computation begins.
func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidFilter
	}
	return nil
}
