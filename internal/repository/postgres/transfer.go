package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var transferColumns = []string{
	"id", "from_organizer_id", "to_organizer_id", "blood_type", "blood_group",
	"no_of_units", "purpose", "request_type", "status", "status_message",
	"created_at", "approved_at", "rejected_at", "cancelled_at", "transfer_at",
}

type TransferRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewTransferRepository(db *sqlx.DB, log *slog.Logger) *TransferRepository {
	return &TransferRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *TransferRepository) CreateTransfer(ctx context.Context, tx *sqlx.Tx, tr *domain.TransferRequest) error {
	const op = "internal.repository.postgres.CreateTransfer"

	query, args, err := r.sq.Insert("transfer_requests").
		Columns("id", "from_organizer_id", "to_organizer_id", "blood_type", "blood_group",
			"no_of_units", "purpose", "request_type", "status", "created_at").
		Values(tr.ID, tr.FromOrganizerID, tr.ToOrganizerID, tr.BloodType, tr.BloodGroup,
			tr.NoOfUnits, tr.Purpose, tr.RequestType, tr.Status, tr.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return fmt.Errorf("%s: %w: transfer with id '%s'", op, apperrors.ErrAlreadyExists, tr.ID)
			}

			if pqErr.Code == "23503" {
				return fmt.Errorf("%s: %w: organizer not found", op, apperrors.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *TransferRepository) GetTransferByIDWithLock(ctx context.Context, tx *sqlx.Tx, transferID string) (*domain.TransferRequest, error) {
	const op = "internal.repository.postgres.GetTransferByIDWithLock"

	query, args, err := r.sq.Select(transferColumns...).
		From("transfer_requests").
		Where(sq.Eq{"id": transferID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var tr domain.TransferRequest
	if err := tx.GetContext(ctx, &tr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: transfer with id '%s'", op, apperrors.ErrNotFound, transferID)
		}

		return nil, fmt.Errorf("%s: failed to get transfer with lock: %w", op, err)
	}

	return &tr, nil
}

func (r *TransferRepository) UpdateTransferStatus(ctx context.Context, tx *sqlx.Tx, transferID string, status domain.TransferStatus, statusMessage *string, at time.Time) error {
	const op = "internal.repository.postgres.UpdateTransferStatus"

	updateBuilder := r.sq.Update("transfer_requests").
		Set("status", status).
		Set("status_message", statusMessage).
		Where(sq.Eq{"id": transferID})

	switch status {
	case domain.TransferStatusApprove:
		updateBuilder = updateBuilder.Set("approved_at", at)
	case domain.TransferStatusReject:
		updateBuilder = updateBuilder.Set("rejected_at", at)
	case domain.TransferStatusCancel:
		updateBuilder = updateBuilder.Set("cancelled_at", at)
	case domain.TransferStatusTransfer:
		updateBuilder = updateBuilder.Set("transfer_at", at)
	case domain.TransferStatusPending:
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: transfer with id '%s'", op, apperrors.ErrNotFound, transferID)
	}

	return nil
}

func (r *TransferRepository) BindPouches(ctx context.Context, tx *sqlx.Tx, transferID string, pouchIDs []string) error {
	const op = "internal.repository.postgres.BindPouches"

	insertBuilder := r.sq.Insert("transfer_pouches").
		Columns("transfer_request_id", "pouch_id")

	for _, pouchID := range pouchIDs {
		insertBuilder = insertBuilder.Values(transferID, pouchID)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *TransferRepository) ClearBoundPouches(ctx context.Context, tx *sqlx.Tx, transferID string) error {
	const op = "internal.repository.postgres.ClearBoundPouches"

	query, args, err := r.sq.Delete("transfer_pouches").
		Where(sq.Eq{"transfer_request_id": transferID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	return nil
}

func (r *TransferRepository) GetBoundPouchIDs(ctx context.Context, ext sqlx.ExtContext, transferID string) ([]string, error) {
	const op = "internal.repository.postgres.GetBoundPouchIDs"

	query, args, err := r.sq.Select("pouch_id").
		From("transfer_pouches").
		Where(sq.Eq{"transfer_request_id": transferID}).
		OrderBy("pouch_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var pouchIDs []string
	if err := sqlx.SelectContext(ctx, ext, &pouchIDs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select bound pouches: %w", op, err)
	}

	return pouchIDs, nil
}

func (r *TransferRepository) GetTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error) {
	const op = "internal.repository.postgres.GetTransferByID"

	query, args, err := r.sq.Select(transferColumns...).
		From("transfer_requests").
		Where(sq.Eq{"id": transferID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var tr domain.TransferRequest
	if err := r.db.GetContext(ctx, &tr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: transfer with id '%s'", op, apperrors.ErrNotFound, transferID)
		}

		return nil, fmt.Errorf("%s: failed to get transfer: %w", op, err)
	}

	pouchIDs, err := r.GetBoundPouchIDs(ctx, r.db, transferID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get bound pouches: %w", op, err)
	}

	tr.PouchIDs = pouchIDs

	return &tr, nil
}

type transferPouchRow struct {
	TransferRequestID string `db:"transfer_request_id"`
	PouchID           string `db:"pouch_id"`
}

func (r *TransferRepository) ListTransfersByOrganizer(ctx context.Context, organizerID string, incoming bool) ([]domain.TransferRequest, error) {
	const op = "internal.repository.postgres.ListTransfersByOrganizer"

	// Incoming transfers are those asking this organizer to supply pouches;
	// outgoing are the ones it requested itself.
	column := "from_organizer_id"
	if incoming {
		column = "to_organizer_id"
	}

	query, args, err := r.sq.Select(transferColumns...).
		From("transfer_requests").
		Where(sq.Eq{column: organizerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var transfers []domain.TransferRequest
	if err := r.db.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	if len(transfers) == 0 {
		return []domain.TransferRequest{}, nil
	}

	transferIDs := make([]string, len(transfers))
	for i := range transfers {
		transferIDs[i] = transfers[i].ID
	}

	bindingsQuery, args, err := r.sq.Select("transfer_request_id", "pouch_id").
		From("transfer_pouches").
		Where(sq.Eq{"transfer_request_id": transferIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build bindings query: %w", op, err)
	}

	var bindings []transferPouchRow
	if err := r.db.SelectContext(ctx, &bindings, bindingsQuery, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select bindings: %w", op, err)
	}

	byTransfer := make(map[string][]string, len(transfers))
	for _, b := range bindings {
		byTransfer[b.TransferRequestID] = append(byTransfer[b.TransferRequestID], b.PouchID)
	}

	for i := range transfers {
		transfers[i].PouchIDs = byTransfer[transfers[i].ID]
	}

	return transfers, nil
}
