/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"github.com/fnenow/clock/payroll"
	"github.com/fnenow/clock/store/sqlite"
)

// =============================================================================
// CLOCK TYPES
// =============================================================================

// ClockRequest is the body for clock-in and clock-out.
type ClockRequest struct {
	WorkerID         string `json:"worker_id"`
	ProjectID        int64  `json:"project_id"`
	Note             string `json:"note,omitempty"`
	DatetimeLocal    string `json:"datetime_local"`
	UTCOffsetMinutes int    `json:"utc_offset_minutes"`
}

// ForceOutRequest is the body for an admin forced clock-out.
type ForceOutRequest struct {
	WorkerID  string `json:"worker_id"`
	ProjectID int64  `json:"project_id"`
	AdminName string `json:"admin_name"`
}

// ClockEventDTO represents a clock event in API responses.
type ClockEventDTO struct {
	ID               int64  `json:"id"`
	WorkerID         string `json:"worker_id"`
	ProjectID        int64  `json:"project_id"`
	Action           string `json:"action"`
	DatetimeUTC      string `json:"datetime_utc"`
	DatetimeLocal    string `json:"datetime_local"`
	UTCOffsetMinutes int    `json:"utc_offset_minutes"`
	Note             string `json:"note,omitempty"`
	PayRate          string `json:"pay_rate,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
	ForcedBy         string `json:"forced_by,omitempty"`
	Billed           bool   `json:"billed"`
	BilledDate       string `json:"billed_date,omitempty"`
	Paid             bool   `json:"paid"`
	PaidDate         string `json:"paid_date,omitempty"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// PayLineDTO represents one billable row in API responses.
type PayLineDTO struct {
	EntryID       int64   `json:"entry_id"`
	WorkerID      string  `json:"worker_id"`
	WorkerName    string  `json:"worker_name,omitempty"`
	ProjectID     int64   `json:"project_id"`
	ProjectName   string  `json:"project_name,omitempty"`
	WorkDate      string  `json:"work_date"`
	ClockIn       string  `json:"clock_in"`
	ClockOut      string  `json:"clock_out,omitempty"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	OvertimeKind  string  `json:"overtime_kind"`
	PayRate       string  `json:"pay_rate"`
	PayAmount     string  `json:"pay_amount"`
	Note          string  `json:"note,omitempty"`
	NeedsReview   bool    `json:"needs_review,omitempty"`
	Billed        bool    `json:"billed"`
	BilledDate    string  `json:"billed_date,omitempty"`
	Paid          bool    `json:"paid"`
	PaidDate      string  `json:"paid_date,omitempty"`
}

// MarkRequest is the body for the bill and paid mutations.
type MarkRequest struct {
	EntryIDs []int64 `json:"entry_ids"`
	Date     string  `json:"date"`
}

// =============================================================================
// WORKER / PROJECT / RATE TYPES
// =============================================================================

// WorkerDTO represents a worker.
type WorkerDTO struct {
	WorkerID  string `json:"worker_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	Note      string `json:"note,omitempty"`
}

// CreateWorkerRequest is the body to create a worker. WorkerID defaults to
// the last five digits of the phone number when omitted.
type CreateWorkerRequest struct {
	WorkerID  string `json:"worker_id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	StartDate string `json:"start_date,omitempty"`
	Note      string `json:"note,omitempty"`
}

// ProjectDTO represents a project.
type ProjectDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	City       string `json:"city,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	FinishDate string `json:"finish_date,omitempty"`
	Hidden     bool   `json:"hidden"`
}

// AssignRequest links or unlinks a worker and a project.
type AssignRequest struct {
	ProjectID int64  `json:"project_id"`
	WorkerID  string `json:"worker_id"`
}

// PayRateDTO represents one rate interval.
type PayRateDTO struct {
	WorkerID      string `json:"worker_id"`
	Rate          string `json:"rate"`
	EffectiveFrom string `json:"effective_from"`
	EffectiveTo   string `json:"effective_to,omitempty"`
}

// CreatePayRateRequest records a new rate interval for a worker.
type CreatePayRateRequest struct {
	WorkerID      string  `json:"worker_id"`
	Rate          float64 `json:"rate"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   string  `json:"effective_to,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEventDTO(ev payroll.ClockEvent) ClockEventDTO {
	dto := ClockEventDTO{
		ID:               ev.ID,
		WorkerID:         ev.WorkerID,
		ProjectID:        ev.ProjectID,
		Action:           string(ev.Action),
		DatetimeLocal:    ev.Local.String(),
		UTCOffsetMinutes: ev.UTCOffsetMinutes,
		Note:             ev.Note,
		SessionID:        ev.SessionID,
		ForcedBy:         ev.ForcedBy,
		Billed:           ev.Billed,
		BilledDate:       ev.BilledDate,
		Paid:             ev.Paid,
		PaidDate:         ev.PaidDate,
	}
	if !ev.UTC.IsZero() {
		dto.DatetimeUTC = ev.UTC.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !ev.PayRate.IsZero() {
		dto.PayRate = ev.PayRate.StringFixed(2)
	}
	return dto
}

func toEventDTOs(events []payroll.ClockEvent) []ClockEventDTO {
	dtos := make([]ClockEventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	return dtos
}

func toPayLineDTO(l payroll.PayLine, workers map[string]string, projects map[int64]string) PayLineDTO {
	regular, _ := l.RegularHours.Float64()
	overtime, _ := l.OvertimeHours.Float64()
	return PayLineDTO{
		EntryID:       l.EntryID,
		WorkerID:      l.WorkerID,
		WorkerName:    workers[l.WorkerID],
		ProjectID:     l.ProjectID,
		ProjectName:   projects[l.ProjectID],
		WorkDate:      l.WorkDate.String(),
		ClockIn:       l.ClockIn.String(),
		ClockOut:      l.ClockOut.String(),
		RegularHours:  regular,
		OvertimeHours: overtime,
		OvertimeKind:  string(l.Kind),
		PayRate:       l.PayRate.StringFixed(2),
		PayAmount:     l.PayAmount.StringFixed(2),
		Note:          l.Note,
		NeedsReview:   l.NeedsReview,
		Billed:        l.Billed,
		BilledDate:    l.BilledDate,
		Paid:          l.Paid,
		PaidDate:      l.PaidDate,
	}
}

func toWorkerDTO(w sqlite.Worker) WorkerDTO {
	return WorkerDTO{
		WorkerID:  w.WorkerID,
		Name:      w.Name,
		Phone:     w.Phone,
		StartDate: w.StartDate,
		Note:      w.Note,
	}
}

func toProjectDTO(p sqlite.Project) ProjectDTO {
	return ProjectDTO{
		ID:         p.ID,
		Name:       p.Name,
		Location:   p.Location,
		City:       p.City,
		StartDate:  p.StartDate,
		FinishDate: p.FinishDate,
		Hidden:     p.Hidden,
	}
}
