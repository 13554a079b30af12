package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// OVERTIME RULE - Thresholds as configuration, not literals
// =============================================================================

// Rule carries the overtime thresholds a payroll run applies. Labor rules
// vary by jurisdiction, so callers can supply their own; DefaultRule matches
// the common US baseline of 8h/day and 40h/week at time-and-a-half.
type Rule struct {
	DailyThresholdHours  decimal.Decimal
	WeeklyThresholdHours decimal.Decimal
	OvertimeMultiplier   decimal.Decimal
}

func DefaultRule() Rule {
	return Rule{
		DailyThresholdHours:  decimal.NewFromInt(8),
		WeeklyThresholdHours: decimal.NewFromInt(40),
		OvertimeMultiplier:   decimal.NewFromFloat(1.5),
	}
}

func (r Rule) Validate() error {
	if !r.DailyThresholdHours.IsPositive() ||
		!r.WeeklyThresholdHours.IsPositive() ||
		!r.OvertimeMultiplier.IsPositive() {
		return ErrInvalidRule
	}
	return nil
}
