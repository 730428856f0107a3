package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/audit"
	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/hemolink/bloodbank-service/internal/repository"
	"github.com/hemolink/bloodbank-service/pkg/api"
	"github.com/jmoiron/sqlx"
)

// TransferService drives the transfer request lifecycle:
//
//	Pending -> Approve -> Transfer
//	Pending -> Reject
//	Pending -> Cancel
//
// Reject, Cancel and Transfer are terminal. Every transition runs in a
// transaction holding a row lock on the transfer, so concurrent transitions
// on the same request serialize and the loser sees the new status.
type TransferService interface {
	CreateTransfer(ctx context.Context, fromOrganizerID, toOrganizerID, bloodType, bloodGroup string, noOfUnits int, purpose string) (*api.TransferRequest, error)
	Approve(ctx context.Context, transferID string, pouchIDs []string, statusMessage string) (*api.TransferRequest, error)
	Reject(ctx context.Context, transferID, reason string) (*api.TransferRequest, error)
	Cancel(ctx context.Context, transferID, callerOrganizerID, reason string) (*api.TransferRequest, error)
	Complete(ctx context.Context, transferID string, transferDate time.Time, notes string) (*api.TransferRequest, error)
	GetTransfer(ctx context.Context, transferID string) (*api.TransferRequest, error)
	ListTransfers(ctx context.Context, organizerID string, incoming bool) (*api.TransferListResponse, error)
}

type TransferServiceImpl struct {
	BaseService
	commands   repository.TransferCommandRepository
	queries    repository.TransferQueryRepository
	pouches    repository.PouchRepository
	organizers repository.OrganizerRepository
	audit      audit.Recorder
}

func NewTransferService(
	db Transactor,
	log *slog.Logger,
	commands repository.TransferCommandRepository,
	queries repository.TransferQueryRepository,
	pouches repository.PouchRepository,
	organizers repository.OrganizerRepository,
	recorder audit.Recorder,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		BaseService: NewBaseService(db, log),
		commands:    commands,
		queries:     queries,
		pouches:     pouches,
		organizers:  organizers,
		audit:       recorder,
	}
}

// CreateTransfer opens a Pending request by fromOrganizer asking toOrganizer
// for noOfUnits pouches of the given type and group. The request is rejected
// up front when toOrganizer does not hold enough eligible stock.
func (s *TransferServiceImpl) CreateTransfer(ctx context.Context, fromOrganizerID, toOrganizerID, bloodType, bloodGroup string, noOfUnits int, purpose string) (*api.TransferRequest, error) {
	const op = "internal.service.CreateTransfer"

	log := s.log.With(
		slog.String("op", op),
		slog.String("from_organizer_id", fromOrganizerID),
		slog.String("to_organizer_id", toOrganizerID),
	)

	bt, bg, err := parseCriteria(bloodType, bloodGroup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validateUnits(noOfUnits); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if fromOrganizerID == toOrganizerID {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{
			Field: "to_organizer_id",
			Value: "must differ from from_organizer_id",
		})
	}

	if _, err := s.organizers.GetOrganizerByID(ctx, fromOrganizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.organizers.GetOrganizerByID(ctx, toOrganizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	available, err := s.pouches.CountEligiblePouches(ctx, s.db, toOrganizerID, bt, bg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if noOfUnits > available {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.OverAllocationError{
			OrganizerID: toOrganizerID,
			Requested:   noOfUnits,
			Available:   available,
		})
	}

	tr := &domain.TransferRequest{
		ID:              uuid.NewString(),
		FromOrganizerID: fromOrganizerID,
		ToOrganizerID:   toOrganizerID,
		BloodType:       bt,
		BloodGroup:      bg,
		NoOfUnits:       noOfUnits,
		Purpose:         purpose,
		RequestType:     "Transfer",
		Status:          domain.TransferStatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.commands.CreateTransfer(ctx, tx, tr)
	})
	if err != nil {
		return nil, err
	}

	log.Info("transfer created",
		slog.String("transfer_id", tr.ID),
		slog.Int("no_of_units", noOfUnits),
	)

	s.audit.Record(audit.Event{
		OccurredAt: tr.CreatedAt,
		Actor:      fromOrganizerID,
		Action:     "transfer.create",
		EntityID:   tr.ID,
		NewStatus:  string(domain.TransferStatusPending),
	})

	return toAPITransfer(tr), nil
}

// Approve binds the supplier's selected pouches to a Pending transfer. Each
// pouch is re-verified and row-locked inside the transaction; if any fails
// the check the approval aborts whole, binding nothing.
func (s *TransferServiceImpl) Approve(ctx context.Context, transferID string, pouchIDs []string, statusMessage string) (*api.TransferRequest, error) {
	const op = "internal.service.Approve"

	log := s.log.With(slog.String("op", op), slog.String("transfer_id", transferID))

	if len(pouchIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{
			Field: "pouch_ids",
			Value: "at least one pouch is required",
		})
	}

	if dup := firstDuplicate(pouchIDs); dup != "" {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{
			Field: "pouch_ids",
			Value: fmt.Sprintf("duplicate pouch id '%s'", dup),
		})
	}

	now := time.Now().UTC()

	var tr *domain.TransferRequest
	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		tr, err = s.commands.GetTransferByIDWithLock(ctx, tx, transferID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if tr.Status != domain.TransferStatusPending {
			return fmt.Errorf("%s: %w", op, &apperrors.InvalidTransitionError{
				TransferID: transferID,
				From:       tr.Status,
				Attempted:  "approve",
			})
		}

		if len(pouchIDs) > tr.NoOfUnits {
			return fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{
				Field: "pouch_ids",
				Value: fmt.Sprintf("%d pouches exceed the %d requested units", len(pouchIDs), tr.NoOfUnits),
			})
		}

		eligible, err := s.pouches.LockEligiblePouches(ctx, tx, pouchIDs, tr.ToOrganizerID, tr.BloodType, tr.BloodGroup)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if len(eligible) != len(pouchIDs) {
			return fmt.Errorf("%s: %w", op, &apperrors.PouchNoLongerEligibleError{
				TransferID: transferID,
				PouchIDs:   missingIDs(pouchIDs, eligible),
			})
		}

		if err := s.commands.BindPouches(ctx, tx, transferID, pouchIDs); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return s.commands.UpdateTransferStatus(ctx, tx, transferID, domain.TransferStatusApprove, optional(statusMessage), now)
	})
	if err != nil {
		return nil, err
	}

	log.Info("transfer approved", slog.Int("pouches_bound", len(pouchIDs)))

	s.audit.Record(audit.Event{
		OccurredAt: now,
		Actor:      tr.ToOrganizerID,
		Action:     "transfer.approve",
		EntityID:   transferID,
		OldStatus:  string(domain.TransferStatusPending),
		NewStatus:  string(domain.TransferStatusApprove),
		Message:    statusMessage,
	})

	tr.Status = domain.TransferStatusApprove
	tr.StatusMessage = optional(statusMessage)
	tr.ApprovedAt = &now
	tr.PouchIDs = pouchIDs

	return toAPITransfer(tr), nil
}

// Reject declines a Pending transfer. Any bound pouches are released back
// into the eligibility pool.
func (s *TransferServiceImpl) Reject(ctx context.Context, transferID, reason string) (*api.TransferRequest, error) {
	const op = "internal.service.Reject"

	now := time.Now().UTC()

	var tr *domain.TransferRequest
	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		tr, err = s.commands.GetTransferByIDWithLock(ctx, tx, transferID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if tr.Status != domain.TransferStatusPending {
			return fmt.Errorf("%s: %w", op, &apperrors.InvalidTransitionError{
				TransferID: transferID,
				From:       tr.Status,
				Attempted:  "reject",
			})
		}

		if err := s.commands.ClearBoundPouches(ctx, tx, transferID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return s.commands.UpdateTransferStatus(ctx, tx, transferID, domain.TransferStatusReject, optional(reason), now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transfer rejected",
		slog.String("op", op),
		slog.String("transfer_id", transferID),
	)

	s.audit.Record(audit.Event{
		OccurredAt: now,
		Actor:      tr.ToOrganizerID,
		Action:     "transfer.reject",
		EntityID:   transferID,
		OldStatus:  string(domain.TransferStatusPending),
		NewStatus:  string(domain.TransferStatusReject),
		Message:    reason,
	})

	tr.Status = domain.TransferStatusReject
	tr.StatusMessage = optional(reason)
	tr.RejectedAt = &now
	tr.PouchIDs = nil

	return toAPITransfer(tr), nil
}

// Cancel withdraws a Pending transfer. Only the requesting organizer may
// cancel its own request.
func (s *TransferServiceImpl) Cancel(ctx context.Context, transferID, callerOrganizerID, reason string) (*api.TransferRequest, error) {
	const op = "internal.service.Cancel"

	now := time.Now().UTC()

	var tr *domain.TransferRequest
	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		tr, err = s.commands.GetTransferByIDWithLock(ctx, tx, transferID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if tr.FromOrganizerID != callerOrganizerID {
			return fmt.Errorf("%s: %w: organizer '%s' did not open transfer '%s'",
				op, apperrors.ErrNotRequester, callerOrganizerID, transferID)
		}

		if tr.Status != domain.TransferStatusPending {
			return fmt.Errorf("%s: %w", op, &apperrors.InvalidTransitionError{
				TransferID: transferID,
				From:       tr.Status,
				Attempted:  "cancel",
			})
		}

		return s.commands.UpdateTransferStatus(ctx, tx, transferID, domain.TransferStatusCancel, optional(reason), now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transfer cancelled",
		slog.String("op", op),
		slog.String("transfer_id", transferID),
	)

	s.audit.Record(audit.Event{
		OccurredAt: now,
		Actor:      callerOrganizerID,
		Action:     "transfer.cancel",
		EntityID:   transferID,
		OldStatus:  string(domain.TransferStatusPending),
		NewStatus:  string(domain.TransferStatusCancel),
		Message:    reason,
	})

	tr.Status = domain.TransferStatusCancel
	tr.StatusMessage = optional(reason)
	tr.CancelledAt = &now

	return toAPITransfer(tr), nil
}

// Complete finalizes an approved transfer: ownership of every bound pouch
// moves to the requesting organizer and the request reaches its terminal
// Transfer state, all in one transaction.
func (s *TransferServiceImpl) Complete(ctx context.Context, transferID string, transferDate time.Time, notes string) (*api.TransferRequest, error) {
	const op = "internal.service.Complete"

	if transferDate.IsZero() {
		transferDate = time.Now().UTC()
	}

	var tr *domain.TransferRequest
	var pouchIDs []string
	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		tr, err = s.commands.GetTransferByIDWithLock(ctx, tx, transferID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if tr.Status != domain.TransferStatusApprove {
			return fmt.Errorf("%s: %w", op, &apperrors.InvalidTransitionError{
				TransferID: transferID,
				From:       tr.Status,
				Attempted:  "complete",
			})
		}

		pouchIDs, err = s.queries.GetBoundPouchIDs(ctx, tx, transferID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if len(pouchIDs) > 0 {
			if err := s.pouches.ReassignPouchOwners(ctx, tx, pouchIDs, tr.FromOrganizerID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		return s.commands.UpdateTransferStatus(ctx, tx, transferID, domain.TransferStatusTransfer, optional(notes), transferDate)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transfer completed",
		slog.String("op", op),
		slog.String("transfer_id", transferID),
		slog.Int("pouches_moved", len(pouchIDs)),
	)

	s.audit.Record(audit.Event{
		OccurredAt: transferDate,
		Actor:      tr.FromOrganizerID,
		Action:     "transfer.complete",
		EntityID:   transferID,
		OldStatus:  string(domain.TransferStatusApprove),
		NewStatus:  string(domain.TransferStatusTransfer),
		Message:    notes,
	})

	tr.Status = domain.TransferStatusTransfer
	tr.StatusMessage = optional(notes)
	tr.TransferAt = &transferDate
	tr.PouchIDs = pouchIDs

	return toAPITransfer(tr), nil
}

func (s *TransferServiceImpl) GetTransfer(ctx context.Context, transferID string) (*api.TransferRequest, error) {
	const op = "internal.service.GetTransfer"

	tr, err := s.queries.GetTransferByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toAPITransfer(tr), nil
}

func (s *TransferServiceImpl) ListTransfers(ctx context.Context, organizerID string, incoming bool) (*api.TransferListResponse, error) {
	const op = "internal.service.ListTransfers"

	if _, err := s.organizers.GetOrganizerByID(ctx, organizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transfers, err := s.queries.ListTransfersByOrganizer(ctx, organizerID, incoming)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	direction := "outgoing"
	if incoming {
		direction = "incoming"
	}

	result := &api.TransferListResponse{
		OrganizerID: organizerID,
		Direction:   direction,
		Transfers:   make([]api.TransferRequest, len(transfers)),
	}

	for i := range transfers {
		result.Transfers[i] = *toAPITransfer(&transfers[i])
	}

	return result, nil
}

func toAPITransfer(tr *domain.TransferRequest) *api.TransferRequest {
	pouchIDs := tr.PouchIDs
	if pouchIDs == nil {
		pouchIDs = []string{}
	}

	return &api.TransferRequest{
		TransferID:      tr.ID,
		FromOrganizerID: tr.FromOrganizerID,
		ToOrganizerID:   tr.ToOrganizerID,
		BloodType:       string(tr.BloodType),
		BloodGroup:      string(tr.BloodGroup),
		NoOfUnits:       tr.NoOfUnits,
		Purpose:         tr.Purpose,
		RequestType:     tr.RequestType,
		Status:          string(tr.Status),
		StatusMessage:   tr.StatusMessage,
		PouchIDs:        pouchIDs,
		CreatedAt:       tr.CreatedAt,
		ApprovedAt:      tr.ApprovedAt,
		RejectedAt:      tr.RejectedAt,
		CancelledAt:     tr.CancelledAt,
		TransferAt:      tr.TransferAt,
	}
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}

	return ""
}

func missingIDs(requested, eligible []string) []string {
	eligibleSet := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		eligibleSet[id] = struct{}{}
	}

	var missing []string
	for _, id := range requested {
		if _, ok := eligibleSet[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing
}
