/*
errors.go - Error taxonomy for the payroll engine

ERROR CATEGORIES:
  1. Caller-contract violations - rejected synchronously, no partial effects
  2. Data-integrity warnings    - counted and logged, never fatal to a batch
  3. Store failures             - propagated unmodified; recomputation is the
                                  caller's recovery strategy

Data-integrity problems (orphaned outs, missing timestamps, negative
durations) surface as Warning values, not errors: the batch always continues.
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFilter is returned when a filter's date range is inverted.
	ErrInvalidFilter = errors.New("invalid filter: from date after to date")

	// ErrNoEntryIDs is returned when a billed/paid mutation names no entries.
	ErrNoEntryIDs = errors.New("no entry ids given")

	// ErrMissingDate is returned when a billed/paid mutation has no date.
	ErrMissingDate = errors.New("missing billed/paid date")

	// ErrInvalidRule is returned when overtime thresholds are not positive.
	ErrInvalidRule = errors.New("invalid overtime rule")

	// ErrAlreadyClockedIn is returned by stores when a worker already has an
	// open session on the project. Double clock-in is prevented at the edge;
	// the reconciler still tolerates it on pre-existing data.
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrNoOpenSession is returned when a clock-out or forced clock-out finds
	// no open session to close.
	ErrNoOpenSession = errors.New("no open session")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
)

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal or store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrNoEntryIDs) ||
		errors.Is(err, ErrMissingDate) ||
		errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrNoOpenSession)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrProjectNotFound)
}

// =============================================================================
// WARNINGS - Recoverable data-integrity problems
// =============================================================================

type WarningCode string

const (
	// WarnOrphanOut: an Out event had no open In to close. The event is dropped.
	WarnOrphanOut WarningCode = "orphan_out"

	// WarnMissingTimestamp: an event lacked a local timestamp. The event is skipped.
	WarnMissingTimestamp WarningCode = "missing_timestamp"

	// WarnNegativeDuration: a clock-out preceded its clock-in. Duration clamps to zero.
	WarnNegativeDuration WarningCode = "negative_duration"
)

// Warning records one recoverable problem found while reconciling a batch.
type Warning struct {
	Code      WarningCode
	EventID   int64
	WorkerID  string
	ProjectID int64
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: event %d worker %s project %d: %s",
		w.Code, w.EventID, w.WorkerID, w.ProjectID, w.Message)
}
