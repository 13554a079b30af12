/*
Package factory provides JSON to Go overtime-rule conversion.

PURPOSE:
  Converts JSON rule definitions into payroll.Rule values. Overtime
  thresholds vary by jurisdiction, so deployments configure them in JSON
  instead of code changes.

JSON SCHEMA:
  {
    "daily_threshold_hours": 8,
    "weekly_threshold_hours": 40,
    "overtime_multiplier": 1.5
  }

Omitted fields take the defaults above. Zero or negative values are rejected.

USAGE:
  rule, err := factory.ParseRule(jsonString)
  engine.Rule = rule

SEE ALSO:
  - payroll/rule.go: Rule type definition and defaults
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/fnenow/clock/payroll"
)

// RuleJSON is the JSON representation of an overtime rule.
type RuleJSON struct {
	DailyThresholdHours  *float64 `json:"daily_threshold_hours,omitempty"`
	WeeklyThresholdHours *float64 `json:"weekly_threshold_hours,omitempty"`
	OvertimeMultiplier   *float64 `json:"overtime_multiplier,omitempty"`
}

// ParseRule converts a JSON rule definition into a payroll.Rule,
// filling omitted fields from the defaults.
func ParseRule(jsonStr string) (payroll.Rule, error) {
	var cfg RuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return payroll.Rule{}, fmt.Errorf("invalid rule JSON: %w", err)
	}

	rule := payroll.DefaultRule()
	if cfg.DailyThresholdHours != nil {
		rule.DailyThresholdHours = decimal.NewFromFloat(*cfg.DailyThresholdHours)
	}
	if cfg.WeeklyThresholdHours != nil {
		rule.WeeklyThresholdHours = decimal.NewFromFloat(*cfg.WeeklyThresholdHours)
	}
	if cfg.OvertimeMultiplier != nil {
		rule.OvertimeMultiplier = decimal.NewFromFloat(*cfg.OvertimeMultiplier)
	}

	if err := rule.Validate(); err != nil {
		return payroll.Rule{}, fmt.Errorf("rule %q: %w", jsonStr, err)
	}
	return rule, nil
}

// LoadRuleFile reads a rule from a JSON file. A missing path returns the
// defaults so deployments without a rule file just work.
func LoadRuleFile(path string) (payroll.Rule, error) {
	if path == "" {
		return payroll.DefaultRule(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return payroll.Rule{}, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRule(string(data))
}
