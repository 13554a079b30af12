/*
reconcile.go - Pairing clock events into sessions

PURPOSE:
  Turns a flat batch of clock events into well-formed Sessions. Events are
  grouped by (worker, project) and ordered by local timestamp with event id
  as tie-break, so reconciliation is deterministic for any input order.

PAIRING MODES:
  Keyed:      an In opens a slot under its session id; the Out carrying the
              same session id closes it. This is the primary mode - every
              event written through the API carries a session id.
  Positional: legacy rows without session ids fall back to a FIFO queue per
              key. Each Out closes the EARLIEST unmatched In, which keeps
              interleaved sessions correct when late data entry overlaps them.

FAILURE SEMANTICS:
  Nothing here is fatal. Orphaned Outs are dropped, events without timestamps
  are skipped, out-before-in pairs clamp to zero duration. Each problem is
  reported as a Warning so callers can count and log them.
*/
package payroll

import (
	"sort"
)

type sessionKey struct {
	WorkerID  string
	ProjectID int64
}

// Reconcile pairs clock events into sessions. Closed sessions come from
// matched In/Out pairs; any In still unmatched after the scan becomes an open
// session (a worker currently on the clock). The returned sessions are sorted
// by clock-in time, then worker, project and event id.
func Reconcile(events []ClockEvent) ([]Session, []Warning) {
	var warnings []Warning

	groups := make(map[sessionKey][]ClockEvent)
	var keys []sessionKey
	for _, ev := range events {
		if ev.Local.IsZero() {
			warnings = append(warnings, Warning{
				Code:      WarnMissingTimestamp,
				EventID:   ev.ID,
				WorkerID:  ev.WorkerID,
				ProjectID: ev.ProjectID,
				Message:   "event has no local timestamp",
			})
			continue
		}
		k := sessionKey{WorkerID: ev.WorkerID, ProjectID: ev.ProjectID}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], ev)
	}

	// Deterministic iteration over groups.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].WorkerID != keys[j].WorkerID {
			return keys[i].WorkerID < keys[j].WorkerID
		}
		return keys[i].ProjectID < keys[j].ProjectID
	})

	var sessions []Session
	for _, k := range keys {
		s, w := reconcileKey(groups[k])
		sessions = append(sessions, s...)
		warnings = append(warnings, w...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.ClockIn.Local.Equal(b.ClockIn.Local) {
			return a.ClockIn.Local.Before(b.ClockIn.Local)
		}
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return a.ClockIn.ID < b.ClockIn.ID
	})

	return sessions, warnings
}

// reconcileKey pairs the events of a single (worker, project) group.
func reconcileKey(events []ClockEvent) ([]Session, []Warning) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Local.Equal(events[j].Local) {
			return events[i].Local.Before(events[j].Local)
		}
		return events[i].ID < events[j].ID
	})

	var (
		sessions []Session
		warnings []Warning

		// Open slots. keyed holds Ins by session id; a duplicate In under the
		// same id opens a concurrent slot rather than being merged. fifo holds
		// legacy Ins without session ids, closed earliest-in/earliest-out.
		keyed = make(map[string][]ClockEvent)
		fifo  []ClockEvent
	)

	closePair := func(in, out ClockEvent) {
		if out.Local.Before(in.Local) {
			warnings = append(warnings, Warning{
				Code:      WarnNegativeDuration,
				EventID:   out.ID,
				WorkerID:  out.WorkerID,
				ProjectID: out.ProjectID,
				Message:   "clock-out precedes clock-in, duration clamped to zero",
			})
		}
		o := out
		sessions = append(sessions, Session{
			WorkerID:  in.WorkerID,
			ProjectID: in.ProjectID,
			SessionID: in.SessionID,
			ClockIn:   in,
			ClockOut:  &o,
			PayRate:   in.PayRate,
		})
	}

	orphan := func(ev ClockEvent) {
		warnings = append(warnings, Warning{
			Code:      WarnOrphanOut,
			EventID:   ev.ID,
			WorkerID:  ev.WorkerID,
			ProjectID: ev.ProjectID,
			Message:   "clock-out has no matching clock-in",
		})
	}

	for _, ev := range events {
		switch ev.Action {
		case ActionIn:
			if ev.SessionID != "" {
				keyed[ev.SessionID] = append(keyed[ev.SessionID], ev)
			} else {
				fifo = append(fifo, ev)
			}

		case ActionOut:
			if ev.SessionID != "" {
				opens := keyed[ev.SessionID]
				if len(opens) == 0 {
					orphan(ev)
					continue
				}
				closePair(opens[0], ev)
				keyed[ev.SessionID] = opens[1:]
			} else {
				if len(fifo) == 0 {
					orphan(ev)
					continue
				}
				closePair(fifo[0], ev)
				fifo = fifo[1:]
			}
		}
	}

	// Anything still open is a worker currently on the clock. Collect keyed
	// leftovers alongside the legacy queue, ordered like the input.
	var opens []ClockEvent
	for _, remaining := range keyed {
		opens = append(opens, remaining...)
	}
	opens = append(opens, fifo...)
	sort.Slice(opens, func(i, j int) bool {
		if !opens[i].Local.Equal(opens[j].Local) {
			return opens[i].Local.Before(opens[j].Local)
		}
		return opens[i].ID < opens[j].ID
	})
	for _, in := range opens {
		sessions = append(sessions, Session{
			WorkerID:  in.WorkerID,
			ProjectID: in.ProjectID,
			SessionID: in.SessionID,
			ClockIn:   in,
			PayRate:   in.PayRate,
		})
	}

	return sessions, warnings
}
