// Package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the
// service layer.
package repository

import (
	"context"
	"time"

	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/jmoiron/sqlx"
)

// OrganizerRepository defines the contract for organizer data.
type OrganizerRepository interface {
	// CreateOrganizer inserts a new organizer.
	// It returns apperrors.OrganizerAlreadyExistsError on a name conflict.
	CreateOrganizer(ctx context.Context, org *domain.Organizer) error

	// GetOrganizerByID returns apperrors.ErrNotFound when the organizer
	// does not exist.
	GetOrganizerByID(ctx context.Context, organizerID string) (*domain.Organizer, error)

	// ListOrganizers returns all organizers, optionally filtered by type.
	ListOrganizers(ctx context.Context, orgType *domain.OrganizerType) ([]domain.Organizer, error)
}

// PouchRepository defines the contract for blood pouch stock data.
type PouchRepository interface {
	// CreatePouch registers a donated pouch.
	// It returns apperrors.PouchAlreadyExistsError on a pouch-code conflict
	// and apperrors.ErrNotFound when the owning organizer is missing.
	CreatePouch(ctx context.Context, pouch *domain.BloodPouch) error

	// GetPouchByID returns apperrors.ErrNotFound when the pouch is missing.
	GetPouchByID(ctx context.Context, pouchID string) (*domain.BloodPouch, error)

	// FindEligiblePouches returns every pouch at the organizer that is not
	// used, not wasted, not expired, matches the type/group and has no
	// associated transfer request with a status other than Reject.
	// The ext argument allows execution within a transaction (*sqlx.Tx) or
	// directly on a DB connection (*sqlx.DB).
	FindEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]domain.BloodPouch, error)

	// CountEligiblePouches is FindEligiblePouches reduced to a count.
	CountEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) (int, error)

	// LockEligiblePouches re-verifies that each of pouchIDs still satisfies
	// the eligibility predicate for (organizerID, bloodType, bloodGroup) and
	// acquires row-level locks on the survivors. It returns the IDs that are
	// still eligible; the caller decides whether a shortfall is fatal.
	LockEligiblePouches(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]string, error)

	// CountAvailableByOrganizer computes eligible-unit counts per organizer
	// for one type/group combination, sorted by count descending with ties
	// broken by organizer id ascending. An empty candidateIDs slice means
	// all organizers.
	CountAvailableByOrganizer(ctx context.Context, bloodType domain.BloodType, bloodGroup domain.BloodGroup, candidateIDs []string) ([]domain.OrganizerAvailability, error)

	// MarkPouchUsed flags consumption. It returns apperrors.ErrPouchConsumed
	// when the pouch is already used or wasted, apperrors.ErrNotFound when
	// it does not exist.
	MarkPouchUsed(ctx context.Context, pouchID string, usedBy string, usedAt time.Time) (*domain.BloodPouch, error)

	// MarkPouchWasted flags spoilage with the same error contract as
	// MarkPouchUsed.
	MarkPouchWasted(ctx context.Context, pouchID string, message string, wastedAt time.Time) (*domain.BloodPouch, error)

	// ReassignPouchOwners moves ownership of the given pouches to another
	// organizer. Intended to be run within a transaction.
	ReassignPouchOwners(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, newOrganizerID string) error
}

// TransferQueryRepository defines read-only transfer request operations,
// following the CQRS pattern.
type TransferQueryRepository interface {
	// GetTransferByID retrieves a transfer request with its bound pouch IDs.
	// Returns apperrors.ErrNotFound if the transfer is not found.
	GetTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error)

	// GetBoundPouchIDs retrieves the IDs of all pouches bound to a transfer.
	GetBoundPouchIDs(ctx context.Context, ext sqlx.ExtContext, transferID string) ([]string, error)

	// ListTransfersByOrganizer lists transfers where the organizer is the
	// requester (direction "outgoing") or the supplier (direction
	// "incoming"), newest first.
	ListTransfersByOrganizer(ctx context.Context, organizerID string, incoming bool) ([]domain.TransferRequest, error)
}

// TransferCommandRepository defines write and locking operations on transfer
// requests. All methods are expected to be executed within a transaction.
type TransferCommandRepository interface {
	// CreateTransfer inserts a new transfer request record.
	CreateTransfer(ctx context.Context, tx *sqlx.Tx, tr *domain.TransferRequest) error

	// GetTransferByIDWithLock retrieves a transfer request and acquires a
	// row-level lock ("FOR UPDATE") so concurrent transitions serialize.
	// It returns apperrors.ErrNotFound if the transfer is not found.
	GetTransferByIDWithLock(ctx context.Context, tx *sqlx.Tx, transferID string) (*domain.TransferRequest, error)

	// UpdateTransferStatus sets the status, the status message and the
	// transition timestamp column matching the new status.
	UpdateTransferStatus(ctx context.Context, tx *sqlx.Tx, transferID string, status domain.TransferStatus, statusMessage *string, at time.Time) error

	// BindPouches associates the selected pouches with the transfer.
	BindPouches(ctx context.Context, tx *sqlx.Tx, transferID string, pouchIDs []string) error

	// ClearBoundPouches removes every pouch binding of the transfer,
	// releasing the pouches back into the eligibility pool.
	ClearBoundPouches(ctx context.Context, tx *sqlx.Tx, transferID string) error
}
