// Package store provides in-memory implementations of the payroll engine's
// store interfaces, used by tests and local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fnenow/clock/payroll"
)

// =============================================================================
// MEMORY STORE - EventSource / RateSource / BillingStore in memory
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events []payroll.ClockEvent
	rates  map[string][]payroll.PayRate
	nextID int64
}

func NewMemory() *Memory {
	return &Memory{rates: make(map[string][]payroll.PayRate), nextID: 1}
}

// AddEvent appends an event, assigning an id when none is set.
func (m *Memory) AddEvent(ev payroll.ClockEvent) payroll.ClockEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == 0 {
		ev.ID = m.nextID
	}
	if ev.ID >= m.nextID {
		m.nextID = ev.ID + 1
	}
	m.events = append(m.events, ev)
	return ev
}

// AddRate records one pay rate interval for a worker.
func (m *Memory) AddRate(r payroll.PayRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[r.WorkerID] = append(m.rates[r.WorkerID], r)
}

// QueryEvents returns events matching the filter in insertion order.
func (m *Memory) QueryEvents(_ context.Context, f payroll.Filter) ([]payroll.ClockEvent, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.ClockEvent
	for _, ev := range m.events {
		if !matches(ev, f) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(ev payroll.ClockEvent, f payroll.Filter) bool {
	if f.WorkerID != "" && ev.WorkerID != f.WorkerID {
		return false
	}
	if f.ProjectID != 0 && ev.ProjectID != f.ProjectID {
		return false
	}
	if !ev.Local.IsZero() {
		day := ev.Local.WorkDate()
		if !f.From.IsZero() && day.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && day.After(f.To) {
			return false
		}
	}
	if f.Billed != nil && ev.Billed != *f.Billed {
		return false
	}
	if f.Paid != nil && ev.Paid != *f.Paid {
		return false
	}
	return true
}

// RatesForWorker returns the worker's rate history.
func (m *Memory) RatesForWorker(_ context.Context, workerID string) ([]payroll.PayRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rates := make([]payroll.PayRate, len(m.rates[workerID]))
	copy(rates, m.rates[workerID])
	return rates, nil
}

// MarkBilled sets the billed flag on the named entries.
func (m *Memory) MarkBilled(_ context.Context, entryIDs []int64, date payroll.WorkDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := idSet(entryIDs)
	for i := range m.events {
		if ids[m.events[i].ID] {
			m.events[i].Billed = true
			m.events[i].BilledDate = date.String()
		}
	}
	return nil
}

// MarkPaid sets the paid flag on the named entries.
func (m *Memory) MarkPaid(_ context.Context, entryIDs []int64, date payroll.WorkDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := idSet(entryIDs)
	for i := range m.events {
		if ids[m.events[i].ID] {
			m.events[i].Paid = true
			m.events[i].PaidDate = date.String()
		}
	}
	return nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
