/*
handlers.go - HTTP API handlers for the clock and payroll system

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and store.

ENDPOINTS:
  Clock:
    POST   /api/clock/in                  Worker clocks in
    POST   /api/clock/out                 Worker clocks out
    POST   /api/clock/force-out           Admin forces a clock-out
    GET    /api/clock/status/{worker_id}  Latest clock action for a worker

  Payroll:
    GET    /api/payroll                   Computed pay lines for a filter
    POST   /api/payroll/bill              Mark entries billed
    POST   /api/payroll/paid              Mark entries paid
    GET    /api/payroll/export            CSV export of the same computation

  Admin:
    GET    /api/admin/clocking-in         Workers currently on the clock
    Workers, projects and pay rates CRUD under /api/workers, /api/projects,
    /api/rates.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, contract violations
  - 404: Resource not found
  - 409: Already clocked in / no open session
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fnenow/clock/payroll"
	"github.com/fnenow/clock/report"
	"github.com/fnenow/clock/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine
	Log    *logrus.Logger
}

// NewHandler creates a new handler around the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: payroll.NewEngine(store, store, store),
		Log:    logrus.StandardLogger(),
	}
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockIn records a clock-in for a worker on a project.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.ProjectID == 0 {
		writeError(w, http.StatusBadRequest, "worker_id and project_id are required", nil)
		return
	}
	local, err := payroll.ParseLocalTime(req.DatetimeLocal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid datetime_local", err)
		return
	}

	ev, err := h.Store.ClockIn(r.Context(), payroll.ClockEvent{
		WorkerID:         req.WorkerID,
		ProjectID:        req.ProjectID,
		UTC:              time.Now().UTC(),
		Local:            local,
		UTCOffsetMinutes: req.UTCOffsetMinutes,
		Note:             req.Note,
	})
	if err == payroll.ErrAlreadyClockedIn {
		writeError(w, http.StatusConflict, "Already clocked in", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clock in", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// ClockOut records a clock-out, closing the worker's open session.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.ProjectID == 0 {
		writeError(w, http.StatusBadRequest, "worker_id and project_id are required", nil)
		return
	}
	local, err := payroll.ParseLocalTime(req.DatetimeLocal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid datetime_local", err)
		return
	}

	ev, err := h.Store.ClockOut(r.Context(), payroll.ClockEvent{
		WorkerID:         req.WorkerID,
		ProjectID:        req.ProjectID,
		UTC:              time.Now().UTC(),
		Local:            local,
		UTCOffsetMinutes: req.UTCOffsetMinutes,
		Note:             req.Note,
	})
	if err == payroll.ErrNoOpenSession {
		writeError(w, http.StatusConflict, "No active clock-in session found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clock out", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// ForceOut closes a worker's open session on behalf of an admin. The local
// clock-out time is derived from the clock-in's recorded UTC offset so the
// session stays in the worker's wall-clock frame.
func (h *Handler) ForceOut(w http.ResponseWriter, r *http.Request) {
	var req ForceOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.ProjectID == 0 || req.AdminName == "" {
		writeError(w, http.StatusBadRequest, "worker_id, project_id and admin_name are required", nil)
		return
	}

	open, err := h.Store.OpenSession(r.Context(), req.WorkerID, req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up open session", err)
		return
	}
	if open == nil {
		writeError(w, http.StatusConflict, "No active clock-in session found", nil)
		return
	}

	nowUTC := time.Now().UTC()
	wall := nowUTC.Add(time.Duration(open.UTCOffsetMinutes) * time.Minute)
	local := payroll.NewLocalTime(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute())

	ev, err := h.Store.ClockOut(r.Context(), payroll.ClockEvent{
		WorkerID:         req.WorkerID,
		ProjectID:        req.ProjectID,
		UTC:              nowUTC,
		Local:            local,
		UTCOffsetMinutes: open.UTCOffsetMinutes,
		Note:             "Admin forced clock out",
		ForcedBy:         req.AdminName,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to force clock out", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// ClockStatus returns the most recent clock action for a worker.
func (h *Handler) ClockStatus(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "worker_id")

	ev, err := h.Store.LatestEvent(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get clock status", err)
		return
	}
	if ev == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(*ev))
}

// ClockingIn lists workers currently on the clock.
func (h *Handler) ClockingIn(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.OpenSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list open sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetPayroll computes pay lines for the requested filter.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	lines, err := h.Engine.ComputePayroll(r.Context(), filter)
	if err != nil {
		status := http.StatusInternalServerError
		if payroll.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to compute payroll", err)
		return
	}

	workers, projects, err := h.names(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load names", err)
		return
	}

	dtos := make([]PayLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toPayLineDTO(l, workers, projects)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkBilled flags source entries billed; hours and rates never change.
func (h *Handler) MarkBilled(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Engine.MarkBilled)
}

// MarkPaid flags source entries paid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.Engine.MarkPaid)
}

func (h *Handler) mark(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ids []int64, date payroll.WorkDate) error) {
	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := payroll.ParseWorkDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	if err := apply(r.Context(), req.EntryIDs, date); err != nil {
		status := http.StatusInternalServerError
		if payroll.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to apply mutation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ExportPayroll streams the computed pay lines as CSV.
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	lines, err := h.Engine.ComputePayroll(r.Context(), filter)
	if err != nil {
		status := http.StatusInternalServerError
		if payroll.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to compute payroll", err)
		return
	}

	workers, projects, err := h.names(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load names", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename(time.Now()))
	if err := report.WriteCSV(w, lines, report.Names{Workers: workers, Projects: projects}); err != nil {
		h.Log.WithError(err).Error("csv export failed mid-stream")
	}
}

func (h *Handler) names(r *http.Request) (map[string]string, map[int64]string, error) {
	workers, err := h.Store.WorkerNames(r.Context())
	if err != nil {
		return nil, nil, err
	}
	projects, err := h.Store.ProjectNames(r.Context())
	if err != nil {
		return nil, nil, err
	}
	return workers, projects, nil
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

var nonDigits = regexp.MustCompile(`\D`)

// CreateWorker adds a worker. The id defaults to the last five digits of
// the phone number, matching how site crews identify themselves.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	workerID := req.WorkerID
	if workerID == "" {
		digits := nonDigits.ReplaceAllString(req.Phone, "")
		if len(digits) > 5 {
			digits = digits[len(digits)-5:]
		}
		workerID = digits
	}
	if len(workerID) < 3 {
		writeError(w, http.StatusBadRequest, "Invalid worker ID", nil)
		return
	}

	err := h.Store.SaveWorker(r.Context(), sqlite.Worker{
		WorkerID:  workerID,
		Name:      req.Name,
		Phone:     req.Phone,
		StartDate: req.StartDate,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create worker", err)
		return
	}

	writeJSON(w, http.StatusCreated, WorkerDTO{
		WorkerID:  workerID,
		Name:      req.Name,
		Phone:     req.Phone,
		StartDate: req.StartDate,
		Note:      req.Note,
	})
}

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i, wk := range workers {
		dtos[i] = toWorkerDTO(wk)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "worker_id")

	wk, err := h.Store.GetWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if wk == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*wk))
}

// WorkerProjects returns the visible projects a worker is assigned to.
func (h *Handler) WorkerProjects(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "worker_id")

	projects, err := h.Store.ProjectsForWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list worker projects", err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns visible projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("include_hidden") == "true"
	projects, err := h.Store.ListProjects(r.Context(), includeHidden)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject adds a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	id, err := h.Store.SaveProject(r.Context(), sqlite.Project{
		Name:       req.Name,
		Location:   req.Location,
		City:       req.City,
		StartDate:  req.StartDate,
		FinishDate: req.FinishDate,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project", err)
		return
	}

	req.ID = id
	writeJSON(w, http.StatusCreated, req)
}

// UpdateProject edits a project, including hiding it.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project id", err)
		return
	}

	var req ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	_, err = h.Store.SaveProject(r.Context(), sqlite.Project{
		ID:         id,
		Name:       req.Name,
		Location:   req.Location,
		City:       req.City,
		StartDate:  req.StartDate,
		FinishDate: req.FinishDate,
		Hidden:     req.Hidden,
	})
	if err == payroll.ErrProjectNotFound {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AssignWorker links a worker to a project.
func (h *Handler) AssignWorker(w http.ResponseWriter, r *http.Request) {
	h.assignment(w, r, h.Store.AssignWorker)
}

// UnassignWorker removes a worker from a project.
func (h *Handler) UnassignWorker(w http.ResponseWriter, r *http.Request) {
	h.assignment(w, r, h.Store.UnassignWorker)
}

func (h *Handler) assignment(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, projectID int64, workerID string) error) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProjectID == 0 || req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "project_id and worker_id are required", nil)
		return
	}
	if err := apply(r.Context(), req.ProjectID, req.WorkerID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// PAY RATE HANDLERS
// =============================================================================

// CreatePayRate records a new rate interval for a worker.
func (h *Handler) CreatePayRate(w http.ResponseWriter, r *http.Request) {
	var req CreatePayRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" || req.Rate <= 0 {
		writeError(w, http.StatusBadRequest, "worker_id and a positive rate are required", nil)
		return
	}
	from, err := payroll.ParseWorkDate(req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_from (use YYYY-MM-DD)", err)
		return
	}

	rate := payroll.PayRate{
		WorkerID:      req.WorkerID,
		Rate:          decimal.NewFromFloat(req.Rate),
		EffectiveFrom: from,
	}
	if req.EffectiveTo != "" {
		to, err := payroll.ParseWorkDate(req.EffectiveTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid effective_to (use YYYY-MM-DD)", err)
			return
		}
		rate.EffectiveTo = &to
	}

	if err := h.Store.SavePayRate(r.Context(), rate); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pay rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// ListPayRates returns a worker's rate history.
func (h *Handler) ListPayRates(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "worker_id")

	rates, err := h.Store.RatesForWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pay rates", err)
		return
	}

	dtos := make([]PayRateDTO, len(rates))
	for i, rt := range rates {
		dto := PayRateDTO{
			WorkerID:      rt.WorkerID,
			Rate:          rt.Rate.StringFixed(2),
			EffectiveFrom: rt.EffectiveFrom.String(),
		}
		if rt.EffectiveTo != nil {
			dto.EffectiveTo = rt.EffectiveTo.String()
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseFilter builds the payroll filter from query parameters.
func parseFilter(r *http.Request) (payroll.Filter, error) {
	q := r.URL.Query()
	var f payroll.Filter

	f.WorkerID = q.Get("worker_id")
	if s := q.Get("project_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, err
		}
		f.ProjectID = id
	}
	if s := q.Get("start_date"); s != "" {
		d, err := payroll.ParseWorkDate(s)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := payroll.ParseWorkDate(s)
		if err != nil {
			return f, err
		}
		f.To = d
	}
	if s := q.Get("billed"); s == "true" || s == "false" {
		v := s == "true"
		f.Billed = &v
	}
	if s := q.Get("paid"); s == "true" || s == "false" {
		v := s == "true"
		f.Paid = &v
	}
	return f, f.Validate()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
