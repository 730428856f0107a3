package apperrors

import (
	"errors"
	"fmt"

	"github.com/hemolink/bloodbank-service/internal/domain"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")

	ErrInvalidCriteria   = errors.New("invalid blood criteria")
	ErrOverAllocation    = errors.New("requested units exceed available stock")
	ErrPouchNotEligible  = errors.New("pouch is no longer eligible")
	ErrInvalidTransition = errors.New("invalid transfer status transition")
	ErrNotRequester      = errors.New("only the requesting organizer may cancel")
	ErrPouchConsumed     = errors.New("pouch is already used or wasted")
)

type OrganizerAlreadyExistsError struct{ Name string }

func (e *OrganizerAlreadyExistsError) Error() string {
	return fmt.Sprintf("organizer '%s' already exists", e.Name)
}
func (e *OrganizerAlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

type PouchAlreadyExistsError struct{ PouchCode string }

func (e *PouchAlreadyExistsError) Error() string {
	return fmt.Sprintf("pouch with code '%s' already exists", e.PouchCode)
}
func (e *PouchAlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// InvalidCriteriaError reports a blood type/group outside the closed sets or
// a non-positive unit count, with the offending field and value.
type InvalidCriteriaError struct {
	Field string
	Value string
}

func (e *InvalidCriteriaError) Error() string {
	return fmt.Sprintf("invalid %s: '%s'", e.Field, e.Value)
}
func (e *InvalidCriteriaError) Is(target error) bool { return target == ErrInvalidCriteria }

// OverAllocationError carries the actual availability so the caller can
// clamp and resubmit.
type OverAllocationError struct {
	OrganizerID string
	Requested   int
	Available   int
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("requested %d units but organizer '%s' has only %d available",
		e.Requested, e.OrganizerID, e.Available)
}
func (e *OverAllocationError) Is(target error) bool { return target == ErrOverAllocation }

// PouchNoLongerEligibleError aborts an approval whole; PouchIDs lists every
// selected pouch that failed re-verification.
type PouchNoLongerEligibleError struct {
	TransferID string
	PouchIDs   []string
}

func (e *PouchNoLongerEligibleError) Error() string {
	return fmt.Sprintf("transfer '%s': pouches no longer eligible: %v", e.TransferID, e.PouchIDs)
}
func (e *PouchNoLongerEligibleError) Is(target error) bool { return target == ErrPouchNotEligible }

type InvalidTransitionError struct {
	TransferID string
	From       domain.TransferStatus
	Attempted  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transfer '%s': cannot %s from status '%s'", e.TransferID, e.Attempted, e.From)
}
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
