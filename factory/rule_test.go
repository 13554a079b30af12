package factory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fnenow/clock/factory"
	"github.com/fnenow/clock/payroll"
)

func TestParseRule_EmptyObject_UsesDefaults(t *testing.T) {
	rule, err := factory.ParseRule(`{}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := payroll.DefaultRule()
	if !rule.DailyThresholdHours.Equal(def.DailyThresholdHours) ||
		!rule.WeeklyThresholdHours.Equal(def.WeeklyThresholdHours) ||
		!rule.OvertimeMultiplier.Equal(def.OvertimeMultiplier) {
		t.Errorf("expected defaults, got %+v", rule)
	}
}

func TestParseRule_PartialOverride(t *testing.T) {
	// GIVEN: JSON overriding only the daily threshold
	// WHEN: Parsing
	// THEN: The override applies; the rest stays at defaults

	rule, err := factory.ParseRule(`{"daily_threshold_hours": 10}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.DailyThresholdHours.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10, got %s", rule.DailyThresholdHours)
	}
	if !rule.WeeklyThresholdHours.Equal(decimal.NewFromInt(40)) {
		t.Errorf("weekly threshold should stay at 40, got %s", rule.WeeklyThresholdHours)
	}
}

func TestParseRule_FullOverride(t *testing.T) {
	rule, err := factory.ParseRule(
		`{"daily_threshold_hours": 7.5, "weekly_threshold_hours": 37.5, "overtime_multiplier": 2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.DailyThresholdHours.Equal(decimal.NewFromFloat(7.5)) ||
		!rule.WeeklyThresholdHours.Equal(decimal.NewFromFloat(37.5)) ||
		!rule.OvertimeMultiplier.Equal(decimal.NewFromInt(2)) {
		t.Errorf("overrides not applied: %+v", rule)
	}
}

func TestParseRule_NonPositiveValues_Rejected(t *testing.T) {
	for _, bad := range []string{
		`{"daily_threshold_hours": 0}`,
		`{"weekly_threshold_hours": -40}`,
		`{"overtime_multiplier": 0}`,
	} {
		_, err := factory.ParseRule(bad)
		if !errors.Is(err, payroll.ErrInvalidRule) {
			t.Errorf("%s: expected ErrInvalidRule, got %v", bad, err)
		}
	}
}

func TestParseRule_MalformedJSON_Rejected(t *testing.T) {
	if _, err := factory.ParseRule(`{nope`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadRuleFile_EmptyPath_ReturnsDefaults(t *testing.T) {
	rule, err := factory.LoadRuleFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.DailyThresholdHours.Equal(decimal.NewFromInt(8)) {
		t.Errorf("expected default rule, got %+v", rule)
	}
}

func TestLoadRuleFile_ReadsAndParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(`{"weekly_threshold_hours": 35}`), 0o644); err != nil {
		t.Fatal(err)
	}

	rule, err := factory.LoadRuleFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.WeeklyThresholdHours.Equal(decimal.NewFromInt(35)) {
		t.Errorf("expected 35, got %s", rule.WeeklyThresholdHours)
	}
}

func TestLoadRuleFile_MissingFile_Errors(t *testing.T) {
	if _, err := factory.LoadRuleFile("/does/not/exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
