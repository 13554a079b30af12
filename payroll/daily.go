/*
daily.go - Daily overtime split

PURPOSE:
  Splits one local workday's sessions into regular and daily-overtime pay
  lines. The caller hands in sessions already filtered to a single worker,
  project and local calendar day; this file only spends the day's regular
  budget across them in chronological order.

ALGORITHM:
  Start with the day's regular budget (8h by default). For each session in
  order: hours that fit in the remaining budget are regular; the rest is
  daily overtime at the multiplied rate. Once the budget is spent, whole
  sessions land in overtime. Components that come out at zero hours emit no
  line - there are no zero-hour rows.

RATE RESOLUTION:
  The rate snapshot embedded at clock-in wins when present and nonzero.
  Otherwise the rate history is consulted for the session's work date. A
  zero resolved rate marks the line NeedsReview instead of failing the run.
*/
package payroll

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// AllocateDaily splits the sessions of one (worker, project, local day) group
// into pay lines at the daily overtime boundary. Open sessions represent
// workers still on the clock and produce no lines.
func AllocateDaily(ctx context.Context, sessions []Session, resolver *RateResolver, rule Rule) ([]PayLine, error) {
	ordered := make([]Session, len(sessions))
	copy(ordered, sessions)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].ClockIn.Local.Equal(ordered[j].ClockIn.Local) {
			return ordered[i].ClockIn.Local.Before(ordered[j].ClockIn.Local)
		}
		return ordered[i].ClockIn.ID < ordered[j].ClockIn.ID
	})

	var lines []PayLine
	budget := rule.DailyThresholdHours

	for _, s := range ordered {
		if s.Open() {
			continue
		}
		hours := s.Hours()
		if hours.IsZero() {
			continue
		}

		rate := s.PayRate
		needsReview := false
		if rate.IsZero() {
			resolved, err := resolver.Resolve(ctx, s.WorkerID, s.WorkDate())
			if err != nil {
				return nil, err
			}
			rate = resolved
			needsReview = rate.IsZero()
		}

		regular := decimal.Min(budget, hours)
		overtime := hours.Sub(regular)
		budget = budget.Sub(regular)

		if regular.IsPositive() {
			lines = append(lines, newPayLine(s, regular, decimal.Zero, OvertimeNone, rate, needsReview))
		}
		if overtime.IsPositive() {
			otRate := rate.Mul(rule.OvertimeMultiplier)
			lines = append(lines, newPayLine(s, decimal.Zero, overtime, OvertimeDaily, otRate, needsReview))
		}
	}

	return lines, nil
}

// newPayLine builds one line from a session at the given effective rate.
// Amounts round to cents.
func newPayLine(s Session, regular, overtime decimal.Decimal, kind OvertimeKind, rate decimal.Decimal, needsReview bool) PayLine {
	hours := regular.Add(overtime)
	in := s.ClockIn
	var out LocalTime
	if s.ClockOut != nil {
		out = s.ClockOut.Local
	}
	return PayLine{
		EntryID:       in.ID,
		WorkerID:      s.WorkerID,
		ProjectID:     s.ProjectID,
		WorkDate:      s.WorkDate(),
		ClockIn:       in.Local,
		ClockOut:      out,
		RegularHours:  regular,
		OvertimeHours: overtime,
		Kind:          kind,
		PayRate:       rate,
		PayAmount:     hours.Mul(rate).Round(2),
		Note:          in.Note,
		NeedsReview:   needsReview,
		Billed:        in.Billed,
		BilledDate:    in.BilledDate,
		Paid:          in.Paid,
		PaidDate:      in.PaidDate,
	}
}
