/*
Package sqlite provides the SQLite-backed store for clock events, workers,
projects and pay rates.

PURPOSE:
  Implements the payroll engine's store interfaces (EventSource, RateSource,
  BillingStore) plus the worker/project administration the HTTP layer needs.
  The same patterns apply to PostgreSQL - only minor SQL dialect differences.

EVENT LOG CONTRACT:
  clock_entries is append-only. The ONLY mutation ever applied to an event is
  the billed/paid flag pair; hours, timestamps and rates are never rewritten,
  which is what makes payroll recomputation idempotent.

SINGLE OPEN SESSION:
  The engine assumes at most one open session per (worker, project). That
  invariant is enforced HERE, not in the engine: ClockIn checks for an open
  session and inserts under the store mutex, so concurrent clock-in requests
  for the same key are serialized.

WAL MODE:
  SQLite is opened with WAL so readers don't block the single writer.

SEE ALSO:
  - payroll/pipeline.go: Interfaces this store implements
  - payroll/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fnenow/clock/payroll"
)

// Store implements the payroll store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Clock events (append-only; billed/paid flags are the only mutation)
	CREATE TABLE IF NOT EXISTS clock_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		project_id INTEGER NOT NULL,
		action TEXT NOT NULL CHECK (action IN ('in','out')),
		datetime_utc TEXT NOT NULL,
		datetime_local TEXT NOT NULL,
		utc_offset_minutes INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		pay_rate TEXT NOT NULL DEFAULT '0',
		session_id TEXT NOT NULL DEFAULT '',
		forced_by TEXT NOT NULL DEFAULT '',
		billed INTEGER NOT NULL DEFAULT 0,
		billed_date TEXT NOT NULL DEFAULT '',
		paid INTEGER NOT NULL DEFAULT 0,
		paid_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_worker_project
		ON clock_entries(worker_id, project_id);
	CREATE INDEX IF NOT EXISTS idx_entries_local
		ON clock_entries(datetime_local);
	CREATE INDEX IF NOT EXISTS idx_entries_session
		ON clock_entries(session_id) WHERE session_id != '';
	CREATE INDEX IF NOT EXISTS idx_entries_billed
		ON clock_entries(billed);
	CREATE INDEX IF NOT EXISTS idx_entries_paid
		ON clock_entries(paid);

	-- Workers
	CREATE TABLE IF NOT EXISTS workers (
		worker_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Projects
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		finish_date TEXT NOT NULL DEFAULT '',
		hidden INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Project assignments
	CREATE TABLE IF NOT EXISTS project_workers (
		project_id INTEGER NOT NULL,
		worker_id TEXT NOT NULL,
		UNIQUE(project_id, worker_id)
	);

	-- Pay rates (versioned intervals, non-overlapping per worker)
	CREATE TABLE IF NOT EXISTS pay_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_rates_worker
		ON pay_rates(worker_id, start_date DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// CLOCK EVENTS (payroll.EventSource + write path)
// =============================================================================

const eventColumns = `ce.id, ce.worker_id, ce.project_id, ce.action, ce.datetime_utc, ce.datetime_local,
	ce.utc_offset_minutes, ce.note, ce.pay_rate, ce.session_id, ce.forced_by,
	ce.billed, ce.billed_date, ce.paid, ce.paid_date`

// ClockIn records a clock-in event. It serializes the single-open-session
// check under the store lock: a worker with an open session on the project
// gets ErrAlreadyClockedIn and nothing is written. A fresh session id is
// assigned, and the worker's current rate is snapshotted onto the event.
func (s *Store) ClockIn(ctx context.Context, ev payroll.ClockEvent) (payroll.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.openSessionLocked(ctx, ev.WorkerID, ev.ProjectID)
	if err != nil {
		return payroll.ClockEvent{}, err
	}
	if open != nil {
		return payroll.ClockEvent{}, payroll.ErrAlreadyClockedIn
	}

	ev.Action = payroll.ActionIn
	if ev.SessionID == "" {
		ev.SessionID = uuid.NewString()
	}
	if ev.PayRate.IsZero() {
		rate, err := s.currentRateLocked(ctx, ev.WorkerID)
		if err != nil {
			return payroll.ClockEvent{}, err
		}
		ev.PayRate = rate
	}
	return s.insertEventLocked(ctx, ev)
}

// ClockOut closes the open session for (worker, project). The out event
// inherits the session id from the open clock-in so pairing stays keyed.
// Returns ErrNoOpenSession when there is nothing to close.
func (s *Store) ClockOut(ctx context.Context, ev payroll.ClockEvent) (payroll.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.openSessionLocked(ctx, ev.WorkerID, ev.ProjectID)
	if err != nil {
		return payroll.ClockEvent{}, err
	}
	if open == nil {
		return payroll.ClockEvent{}, payroll.ErrNoOpenSession
	}

	ev.Action = payroll.ActionOut
	ev.SessionID = open.SessionID
	return s.insertEventLocked(ctx, ev)
}

func (s *Store) insertEventLocked(ctx context.Context, ev payroll.ClockEvent) (payroll.ClockEvent, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_entries
			(worker_id, project_id, action, datetime_utc, datetime_local,
			 utc_offset_minutes, note, pay_rate, session_id, forced_by,
			 billed, billed_date, paid, paid_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.WorkerID, ev.ProjectID, ev.Action,
		ev.UTC.UTC().Format(time.RFC3339), ev.Local.String(),
		ev.UTCOffsetMinutes, ev.Note, ev.PayRate.String(), ev.SessionID, ev.ForcedBy,
		boolInt(ev.Billed), ev.BilledDate, boolInt(ev.Paid), ev.PaidDate, nowUTC(),
	)
	if err != nil {
		return payroll.ClockEvent{}, fmt.Errorf("failed to insert clock event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return payroll.ClockEvent{}, err
	}
	ev.ID = id
	return ev, nil
}

// OpenSession returns the open clock-in for (worker, project), or nil.
func (s *Store) OpenSession(ctx context.Context, workerID string, projectID int64) (*payroll.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openSessionLocked(ctx, workerID, projectID)
}

func (s *Store) openSessionLocked(ctx context.Context, workerID string, projectID int64) (*payroll.ClockEvent, error) {
	// An In is open when no Out shares its session id. Legacy rows with empty
	// session ids are matched positionally: an In is open when no later Out
	// exists for the key.
	query := fmt.Sprintf(`
		SELECT %s FROM clock_entries ce
		WHERE ce.worker_id = ? AND ce.project_id = ? AND ce.action = 'in'
		  AND ((ce.session_id != '' AND NOT EXISTS (
				SELECT 1 FROM clock_entries o
				WHERE o.action = 'out' AND o.session_id = ce.session_id))
			OR (ce.session_id = '' AND NOT EXISTS (
				SELECT 1 FROM clock_entries o
				WHERE o.worker_id = ce.worker_id AND o.project_id = ce.project_id
				  AND o.action = 'out' AND o.id > ce.id)))
		ORDER BY ce.datetime_local DESC, ce.id DESC
		LIMIT 1`, eventColumns)

	rows, err := s.db.QueryContext(ctx, query, workerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	ev, err := scanEvent(rows)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// OpenSessions returns every open clock-in across all workers, newest first.
// Backs the admin "currently clocked in" view.
func (s *Store) OpenSessions(ctx context.Context) ([]payroll.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT %s FROM clock_entries ce
		WHERE ce.action = 'in'
		  AND ((ce.session_id != '' AND NOT EXISTS (
				SELECT 1 FROM clock_entries o
				WHERE o.action = 'out' AND o.session_id = ce.session_id))
			OR (ce.session_id = '' AND NOT EXISTS (
				SELECT 1 FROM clock_entries o
				WHERE o.worker_id = ce.worker_id AND o.project_id = ce.project_id
				  AND o.action = 'out' AND o.id > ce.id)))
		ORDER BY ce.datetime_utc DESC, ce.id DESC`, eventColumns)

	return s.queryEventRows(ctx, query)
}

// LatestEvent returns the most recent event for a worker, or nil.
// Backs the clock status endpoint.
func (s *Store) LatestEvent(ctx context.Context, workerID string) (*payroll.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT %s FROM clock_entries ce
		WHERE ce.worker_id = ?
		ORDER BY ce.datetime_utc DESC, ce.id DESC
		LIMIT 1`, eventColumns)

	rows, err := s.db.QueryContext(ctx, query, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	ev, err := scanEvent(rows)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// QueryEvents returns events matching the filter, ordered by local time.
// Implements payroll.EventSource; the engine re-sorts internally, the order
// here just keeps results stable for direct callers.
func (s *Store) QueryEvents(ctx context.Context, f payroll.Filter) ([]payroll.ClockEvent, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		wheres []string
		args   []any
	)
	if f.WorkerID != "" {
		wheres = append(wheres, "ce.worker_id = ?")
		args = append(args, f.WorkerID)
	}
	if f.ProjectID != 0 {
		wheres = append(wheres, "ce.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if !f.From.IsZero() {
		wheres = append(wheres, "ce.datetime_local >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		// Inclusive end of day.
		wheres = append(wheres, "ce.datetime_local <= ?")
		args = append(args, f.To.String()+"T23:59:59")
	}
	if f.Billed != nil {
		wheres = append(wheres, "ce.billed = ?")
		args = append(args, boolInt(*f.Billed))
	}
	if f.Paid != nil {
		wheres = append(wheres, "ce.paid = ?")
		args = append(args, boolInt(*f.Paid))
	}

	query := fmt.Sprintf("SELECT %s FROM clock_entries ce", eventColumns)
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY ce.datetime_local ASC, ce.id ASC"

	return s.queryEventRows(ctx, query, args...)
}

func (s *Store) queryEventRows(ctx context.Context, query string, args ...any) ([]payroll.ClockEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer rows.Close()

	var events []payroll.ClockEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (payroll.ClockEvent, error) {
	var (
		ev           payroll.ClockEvent
		utcStr       string
		localStr     string
		rateStr      string
		billed, paid int
	)
	err := rows.Scan(
		&ev.ID, &ev.WorkerID, &ev.ProjectID, &ev.Action, &utcStr, &localStr,
		&ev.UTCOffsetMinutes, &ev.Note, &rateStr, &ev.SessionID, &ev.ForcedBy,
		&billed, &ev.BilledDate, &paid, &ev.PaidDate,
	)
	if err != nil {
		return ev, fmt.Errorf("failed to scan clock event: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, utcStr); err == nil {
		ev.UTC = t
	}
	// A row with an unparseable local time keeps a zero LocalTime; the
	// reconciler skips it with a warning instead of failing the batch.
	if lt, err := payroll.ParseLocalTime(localStr); err == nil {
		ev.Local = lt
	}
	if d, err := decimal.NewFromString(rateStr); err == nil {
		ev.PayRate = d
	}
	ev.Billed = billed != 0
	ev.Paid = paid != 0
	return ev, nil
}

// =============================================================================
// BILLED / PAID MUTATIONS (payroll.BillingStore)
// =============================================================================

// MarkBilled flags the named source entries billed as of the given date.
func (s *Store) MarkBilled(ctx context.Context, entryIDs []int64, date payroll.WorkDate) error {
	return s.mark(ctx, "billed", "billed_date", entryIDs, date)
}

// MarkPaid flags the named source entries paid as of the given date.
func (s *Store) MarkPaid(ctx context.Context, entryIDs []int64, date payroll.WorkDate) error {
	return s.mark(ctx, "paid", "paid_date", entryIDs, date)
}

func (s *Store) mark(ctx context.Context, flagCol, dateCol string, entryIDs []int64, date payroll.WorkDate) error {
	if len(entryIDs) == 0 {
		return payroll.ErrNoEntryIDs
	}
	if date.IsZero() {
		return payroll.ErrMissingDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	query := fmt.Sprintf(
		"UPDATE clock_entries SET %s = 1, %s = ? WHERE id IN (%s)",
		flagCol, dateCol, placeholders,
	)
	args := make([]any, 0, len(entryIDs)+1)
	args = append(args, date.String())
	for _, id := range entryIDs {
		args = append(args, id)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark %s: %w", flagCol, err)
	}
	return nil
}

// =============================================================================
// PAY RATES (payroll.RateSource)
// =============================================================================

// SavePayRate records a new rate interval for a worker. Any currently
// open-ended interval is closed the day before the new one starts, keeping
// intervals non-overlapping.
func (s *Store) SavePayRate(ctx context.Context, r payroll.PayRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevEnd := r.EffectiveFrom.AddDays(-1)
	_, err := s.db.ExecContext(ctx, `
		UPDATE pay_rates SET end_date = ?
		WHERE worker_id = ? AND end_date = '' AND start_date < ?`,
		prevEnd.String(), r.WorkerID, r.EffectiveFrom.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to close previous rate: %w", err)
	}

	endDate := ""
	if r.EffectiveTo != nil {
		endDate = r.EffectiveTo.String()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pay_rates (worker_id, rate, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.WorkerID, r.Rate.String(), r.EffectiveFrom.String(), endDate, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pay rate: %w", err)
	}
	return nil
}

// RatesForWorker returns the worker's full rate history.
func (s *Store) RatesForWorker(ctx context.Context, workerID string) ([]payroll.PayRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratesForWorkerLocked(ctx, workerID)
}

func (s *Store) ratesForWorkerLocked(ctx context.Context, workerID string) ([]payroll.PayRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, rate, start_date, end_date
		FROM pay_rates WHERE worker_id = ?
		ORDER BY start_date ASC, id ASC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay rates: %w", err)
	}
	defer rows.Close()

	var rates []payroll.PayRate
	for rows.Next() {
		var (
			r        payroll.PayRate
			rateStr  string
			startStr string
			endStr   string
		)
		if err := rows.Scan(&r.WorkerID, &rateStr, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("failed to scan pay rate: %w", err)
		}
		if d, err := decimal.NewFromString(rateStr); err == nil {
			r.Rate = d
		}
		if from, err := payroll.ParseWorkDate(startStr); err == nil {
			r.EffectiveFrom = from
		}
		if endStr != "" {
			if to, err := payroll.ParseWorkDate(endStr); err == nil {
				r.EffectiveTo = &to
			}
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// currentRateLocked snapshots today's effective rate for clock-in.
func (s *Store) currentRateLocked(ctx context.Context, workerID string) (decimal.Decimal, error) {
	rates, err := s.ratesForWorkerLocked(ctx, workerID)
	if err != nil {
		return decimal.Zero, err
	}
	now := time.Now().UTC()
	today := payroll.NewWorkDate(now.Year(), now.Month(), now.Day())

	best := decimal.Zero
	var bestFrom payroll.WorkDate
	for _, r := range rates {
		if r.Covers(today) && (bestFrom.IsZero() || r.EffectiveFrom.After(bestFrom)) {
			best = r.Rate
			bestFrom = r.EffectiveFrom
		}
	}
	return best, nil
}

// =============================================================================
// WORKERS
// =============================================================================

type Worker struct {
	WorkerID  string
	Name      string
	Phone     string
	StartDate string
	Note      string
	CreatedAt time.Time
}

// SaveWorker inserts or updates a worker record.
func (s *Store) SaveWorker(ctx context.Context, w Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (worker_id, name, phone, start_date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			start_date = excluded.start_date,
			note = excluded.note`,
		w.WorkerID, w.Name, w.Phone, w.StartDate, w.Note, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

// GetWorker returns a worker, or nil when absent.
func (s *Store) GetWorker(ctx context.Context, workerID string) (*Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		w       Worker
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT worker_id, name, phone, start_date, note, created_at
		FROM workers WHERE worker_id = ?`, workerID,
	).Scan(&w.WorkerID, &w.Name, &w.Phone, &w.StartDate, &w.Note, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &w, nil
}

// ListWorkers returns all workers ordered by id.
func (s *Store) ListWorkers(ctx context.Context) ([]Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWorkersLocked(ctx)
}

func (s *Store) listWorkersLocked(ctx context.Context) ([]Worker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, name, phone, start_date, note, created_at
		FROM workers ORDER BY worker_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var (
			w       Worker
			created string
		)
		if err := rows.Scan(&w.WorkerID, &w.Name, &w.Phone, &w.StartDate, &w.Note, &created); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, created)
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// WorkerNames returns a worker_id -> name map for report rendering.
func (s *Store) WorkerNames(ctx context.Context) (map[string]string, error) {
	workers, err := s.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(workers))
	for _, w := range workers {
		names[w.WorkerID] = w.Name
	}
	return names, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

type Project struct {
	ID         int64
	Name       string
	Location   string
	City       string
	StartDate  string
	FinishDate string
	Hidden     bool
}

// SaveProject inserts a project (ID zero) or updates an existing one.
func (s *Store) SaveProject(ctx context.Context, p Project) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO projects (name, location, city, start_date, finish_date, hidden, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Location, p.City, p.StartDate, p.FinishDate, boolInt(p.Hidden), nowUTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert project: %w", err)
		}
		return res.LastInsertId()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, location = ?, city = ?,
			start_date = ?, finish_date = ?, hidden = ?
		WHERE id = ?`,
		p.Name, p.Location, p.City, p.StartDate, p.FinishDate, boolInt(p.Hidden), p.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, payroll.ErrProjectNotFound
	}
	return p.ID, nil
}

// ListProjects returns projects, optionally including hidden ones.
func (s *Store) ListProjects(ctx context.Context, includeHidden bool) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, location, city, start_date, finish_date, hidden
		FROM projects`
	if !includeHidden {
		query += ` WHERE hidden = 0`
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ProjectNames returns an id -> name map for report rendering.
func (s *Store) ProjectNames(ctx context.Context) (map[int64]string, error) {
	projects, err := s.ListProjects(ctx, true)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

// AssignWorker links a worker to a project. Idempotent.
func (s *Store) AssignWorker(ctx context.Context, projectID int64, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_workers (project_id, worker_id) VALUES (?, ?)
		ON CONFLICT(project_id, worker_id) DO NOTHING`,
		projectID, workerID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign worker: %w", err)
	}
	return nil
}

// UnassignWorker removes a worker from a project.
func (s *Store) UnassignWorker(ctx context.Context, projectID int64, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM project_workers WHERE project_id = ? AND worker_id = ?`,
		projectID, workerID,
	)
	if err != nil {
		return fmt.Errorf("failed to unassign worker: %w", err)
	}
	return nil
}

// ProjectsForWorker returns the visible projects a worker is assigned to.
func (s *Store) ProjectsForWorker(ctx context.Context, workerID string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.location, p.city, p.start_date, p.finish_date, p.hidden
		FROM projects p
		JOIN project_workers pw ON p.id = pw.project_id
		WHERE pw.worker_id = ? AND p.hidden = 0
		ORDER BY p.id ASC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query worker projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

func scanProjects(rows *sql.Rows) ([]Project, error) {
	var projects []Project
	for rows.Next() {
		var (
			p      Project
			hidden int
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.City, &p.StartDate, &p.FinishDate, &hidden); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Hidden = hidden != 0
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
