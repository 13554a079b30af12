/*
weekly.go - Weekly overtime split

PURPOSE:
  Re-splits one worker's regular hours at the weekly threshold across an
  ISO-8601 week (Monday-Sunday). Daily and weekly overtime are independent
  legal constraints: hours already reclassified as daily overtime never count
  toward the weekly regular sum and pass through this allocator untouched.

ALGORITHM:
  Sum the week's regular hours. At or under the threshold, every line passes
  through unchanged. Over it, walk the lines chronologically spending the
  weekly budget: regular lines that fit are unchanged, the first line to
  cross the boundary splits, and everything after lands entirely in weekly
  overtime at the multiplied rate. At most one extra split point per week.
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AllocateWeekly re-splits the regular portion of one worker's pay lines for
// one ISO week at the weekly overtime boundary. Amounts on re-tagged lines
// are recomputed; untouched lines keep their original amounts byte for byte.
func AllocateWeekly(lines []PayLine, rule Rule) []PayLine {
	ordered := make([]PayLine, len(lines))
	copy(ordered, lines)
	sortPayLines(ordered)

	totalRegular := decimal.Zero
	for _, l := range ordered {
		if l.Kind == OvertimeNone {
			totalRegular = totalRegular.Add(l.RegularHours)
		}
	}
	if !totalRegular.GreaterThan(rule.WeeklyThresholdHours) {
		return ordered
	}

	var out []PayLine
	budget := rule.WeeklyThresholdHours

	for _, l := range ordered {
		if l.Kind != OvertimeNone {
			out = append(out, l)
			continue
		}

		hours := l.RegularHours
		if !hours.GreaterThan(budget) {
			out = append(out, l)
			budget = budget.Sub(hours)
			continue
		}

		// This line crosses the weekly boundary.
		base := l.PayRate
		if budget.IsPositive() {
			regular := l
			regular.RegularHours = budget
			regular.PayAmount = budget.Mul(base).Round(2)
			out = append(out, regular)
		}

		overflow := hours.Sub(budget)
		weekly := l
		weekly.RegularHours = decimal.Zero
		weekly.OvertimeHours = overflow
		weekly.Kind = OvertimeWeekly
		weekly.PayRate = base.Mul(rule.OvertimeMultiplier)
		weekly.PayAmount = overflow.Mul(weekly.PayRate).Round(2)
		out = append(out, weekly)

		budget = decimal.Zero
	}

	return out
}

// kindRank orders a session's lines regular-first within equal timestamps.
func kindRank(k OvertimeKind) int {
	switch k {
	case OvertimeNone:
		return 0
	case OvertimeDaily:
		return 1
	default:
		return 2
	}
}

// sortPayLines puts lines in the engine's stable output order: work date,
// then worker, project, clock-in time, classification, source entry.
func sortPayLines(lines []PayLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.Before(b.WorkDate)
		}
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		if !a.ClockIn.Equal(b.ClockIn) {
			return a.ClockIn.Before(b.ClockIn)
		}
		if kindRank(a.Kind) != kindRank(b.Kind) {
			return kindRank(a.Kind) < kindRank(b.Kind)
		}
		return a.EntryID < b.EntryID
	})
}
