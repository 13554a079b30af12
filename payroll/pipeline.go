/*
pipeline.go - Payroll orchestration

PURPOSE:
  Composes the reconciler and the two allocators into one run:

    events -> sessions -> daily-split lines -> weekly-split lines

  Each run operates on an immutable snapshot of events fetched at call time,
  holds no state afterward, and is idempotent: the same unmutated event set
  always yields identical pay lines in identical order. Billed/paid mutations
  apply to the SOURCE clock events, keyed by original entry id, so they
  survive recomputation without ever changing hours or rates.
*/
package payroll

import (
	"context"

	"github.com/sirupsen/logrus"
)

// EventSource provides the filtered event window a run operates over.
// Filters are pushed down so the store does the narrowing.
type EventSource interface {
	QueryEvents(ctx context.Context, f Filter) ([]ClockEvent, error)
}

// BillingStore applies billed/paid flags to source clock events.
type BillingStore interface {
	MarkBilled(ctx context.Context, entryIDs []int64, date WorkDate) error
	MarkPaid(ctx context.Context, entryIDs []int64, date WorkDate) error
}

// Engine is the payroll pipeline. It is stateless between invocations and
// safe for concurrent use; all per-run state lives on the stack.
type Engine struct {
	Events  EventSource
	Rates   RateSource
	Billing BillingStore
	Rule    Rule
	Log     *logrus.Logger
}

func NewEngine(events EventSource, rates RateSource, billing BillingStore) *Engine {
	return &Engine{
		Events:  events,
		Rates:   rates,
		Billing: billing,
		Rule:    DefaultRule(),
		Log:     logrus.StandardLogger(),
	}
}

type dayKey struct {
	WorkerID  string
	ProjectID int64
	Date      WorkDate
}

type weekKey struct {
	WorkerID string
	Week     WeekKey
}

// ComputePayroll runs the full pipeline over the filtered event window and
// returns pay lines in stable order (work date, worker, project, clock-in).
func (e *Engine) ComputePayroll(ctx context.Context, f Filter) ([]PayLine, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := e.Rule.Validate(); err != nil {
		return nil, err
	}

	events, err := e.Events.QueryEvents(ctx, f)
	if err != nil {
		return nil, err
	}

	sessions, warnings := Reconcile(events)
	for _, w := range warnings {
		e.Log.WithFields(logrus.Fields{
			"code":    w.Code,
			"event":   w.EventID,
			"worker":  w.WorkerID,
			"project": w.ProjectID,
		}).Warn(w.Message)
	}
	if len(warnings) > 0 {
		e.Log.WithField("count", len(warnings)).Warn("payroll run completed with data warnings")
	}

	// Rate cache lives exactly as long as this run.
	resolver := NewRateResolver(e.Rates)

	// Daily pass: one allocation per (worker, project, local day).
	var lines []PayLine
	for _, group := range groupByDay(sessions) {
		dayLines, err := AllocateDaily(ctx, group, resolver, e.Rule)
		if err != nil {
			return nil, err
		}
		lines = append(lines, dayLines...)
	}

	// Weekly pass: one allocation per (worker, ISO week).
	var final []PayLine
	for _, group := range groupByWeek(lines) {
		final = append(final, AllocateWeekly(group, e.Rule)...)
	}

	sortPayLines(final)
	return final, nil
}

// MarkBilled flags the named source entries billed as of the given date.
// Contract violations are rejected before any mutation occurs.
func (e *Engine) MarkBilled(ctx context.Context, entryIDs []int64, date WorkDate) error {
	if err := validateMark(entryIDs, date); err != nil {
		return err
	}
	return e.Billing.MarkBilled(ctx, entryIDs, date)
}

// MarkPaid flags the named source entries paid as of the given date.
func (e *Engine) MarkPaid(ctx context.Context, entryIDs []int64, date WorkDate) error {
	if err := validateMark(entryIDs, date); err != nil {
		return err
	}
	return e.Billing.MarkPaid(ctx, entryIDs, date)
}

func validateMark(entryIDs []int64, date WorkDate) error {
	if len(entryIDs) == 0 {
		return ErrNoEntryIDs
	}
	if date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// groupByDay buckets sessions by (worker, project, local day). Buckets come
// back in the order their first session appears, which is already sorted.
func groupByDay(sessions []Session) [][]Session {
	buckets := make(map[dayKey][]Session)
	var order []dayKey
	for _, s := range sessions {
		k := dayKey{WorkerID: s.WorkerID, ProjectID: s.ProjectID, Date: s.WorkDate()}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], s)
	}
	groups := make([][]Session, 0, len(order))
	for _, k := range order {
		groups = append(groups, buckets[k])
	}
	return groups
}

// groupByWeek buckets pay lines by (worker, ISO week).
func groupByWeek(lines []PayLine) [][]PayLine {
	buckets := make(map[weekKey][]PayLine)
	var order []weekKey
	for _, l := range lines {
		k := weekKey{WorkerID: l.WorkerID, Week: l.WorkDate.ISOWeek()}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], l)
	}
	groups := make([][]PayLine, 0, len(order))
	for _, k := range order {
		groups = append(groups, buckets[k])
	}
	return groups
}
