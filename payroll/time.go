package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// LOCAL TIME - Zone-agnostic wall clock
// =============================================================================

// LocalTime is a wall-clock timestamp as the worker saw it, with no zone
// attached. Clients record it alongside the UTC instant; the engine never
// re-derives it from UTC, so offsets are applied exactly once.
type LocalTime struct {
	t time.Time
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseLocalTime accepts the wall-clock formats the clients send,
// 'YYYY-MM-DD HH:mm' or 'YYYY-MM-DDTHH:mm', with optional seconds.
func ParseLocalTime(s string) (LocalTime, error) {
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalTime{t: t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("unparseable local time %q", s)
}

func NewLocalTime(year int, month time.Month, day, hour, min int) LocalTime {
	return LocalTime{t: time.Date(year, month, day, hour, min, 0, 0, time.UTC)}
}

func (lt LocalTime) IsZero() bool                   { return lt.t.IsZero() }
func (lt LocalTime) Before(o LocalTime) bool        { return lt.t.Before(o.t) }
func (lt LocalTime) After(o LocalTime) bool         { return lt.t.After(o.t) }
func (lt LocalTime) Equal(o LocalTime) bool         { return lt.t.Equal(o.t) }
func (lt LocalTime) Sub(o LocalTime) time.Duration  { return lt.t.Sub(o.t) }

// WorkDate returns the local calendar day this timestamp falls on.
func (lt LocalTime) WorkDate() WorkDate {
	return NewWorkDate(lt.t.Year(), lt.t.Month(), lt.t.Day())
}

func (lt LocalTime) String() string {
	if lt.t.IsZero() {
		return ""
	}
	return lt.t.Format("2006-01-02T15:04")
}

// =============================================================================
// WORK DATE - Local calendar day
// =============================================================================

// WorkDate is one local calendar day. Day boundaries follow the worker's
// recorded local time, not UTC.
type WorkDate struct {
	t time.Time
}

func NewWorkDate(year int, month time.Month, day int) WorkDate {
	return WorkDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseWorkDate(s string) (WorkDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return WorkDate{}, fmt.Errorf("unparseable date %q", s)
	}
	return WorkDate{t: t}, nil
}

func (d WorkDate) IsZero() bool            { return d.t.IsZero() }
func (d WorkDate) Before(o WorkDate) bool  { return d.t.Before(o.t) }
func (d WorkDate) After(o WorkDate) bool   { return d.t.After(o.t) }
func (d WorkDate) Equal(o WorkDate) bool   { return d.t.Equal(o.t) }
func (d WorkDate) AddDays(n int) WorkDate  { return WorkDate{t: d.t.AddDate(0, 0, n)} }

func (d WorkDate) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// ISOWeek returns the ISO-8601 week this day belongs to. Weeks run Monday
// through Sunday and cross month/year boundaries per ISO rules, so Jan 1 can
// belong to week 52/53 of the previous ISO year.
func (d WorkDate) ISOWeek() WeekKey {
	year, week := d.t.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// =============================================================================
// WEEK KEY - ISO-8601 year/week pair
// =============================================================================

type WeekKey struct {
	Year int
	Week int
}

func (w WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}
