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

var pouchColumns = []string{
	"p.id", "p.pouch_code", "p.blood_type", "p.blood_group", "p.donor_id",
	"p.organizer_id", "p.donated_at", "p.expires_at", "p.is_used", "p.is_wasted",
	"p.used_at", "p.used_by", "p.wasted_at", "p.wasted_message",
}

// notBoundExpr excludes pouches bound to any transfer request whose status
// is not Reject. Bindings are cleared on reject/cancel, but the predicate
// still fails closed on a row that survived one.
const notBoundExpr = `NOT EXISTS (
	SELECT 1 FROM transfer_pouches tp
	JOIN transfer_requests tr ON tr.id = tp.transfer_request_id
	WHERE tp.pouch_id = p.id AND tr.status <> 'Reject')`

type PouchRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewPouchRepository(db *sqlx.DB, log *slog.Logger) *PouchRepository {
	return &PouchRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PouchRepository) CreatePouch(ctx context.Context, pouch *domain.BloodPouch) error {
	const op = "internal.repository.postgres.CreatePouch"

	query, args, err := r.sq.Insert("blood_pouches").
		Columns("id", "pouch_code", "blood_type", "blood_group", "donor_id",
			"organizer_id", "donated_at", "expires_at").
		Values(pouch.ID, pouch.PouchCode, pouch.BloodType, pouch.BloodGroup, pouch.DonorID,
			pouch.OrganizerID, pouch.DonatedAt, pouch.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return &apperrors.PouchAlreadyExistsError{PouchCode: pouch.PouchCode}
			}

			if pqErr.Code == "23503" {
				return fmt.Errorf("%s: %w: organizer with id '%s' not found", op, apperrors.ErrNotFound, pouch.OrganizerID)
			}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *PouchRepository) GetPouchByID(ctx context.Context, pouchID string) (*domain.BloodPouch, error) {
	const op = "internal.repository.postgres.GetPouchByID"

	query, args, err := r.sq.Select(pouchColumns...).
		From("blood_pouches p").
		Where(sq.Eq{"p.id": pouchID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var pouch domain.BloodPouch
	if err := r.db.GetContext(ctx, &pouch, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: pouch with id '%s'", op, apperrors.ErrNotFound, pouchID)
		}

		return nil, fmt.Errorf("%s: failed to get pouch: %w", op, err)
	}

	return &pouch, nil
}

func (r *PouchRepository) eligibleQuery(organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) sq.SelectBuilder {
	return r.sq.Select(pouchColumns...).
		From("blood_pouches p").
		Where(sq.Eq{
			"p.organizer_id": organizerID,
			"p.blood_type":   bloodType,
			"p.blood_group":  bloodGroup,
			"p.is_used":      false,
			"p.is_wasted":    false,
		}).
		Where(sq.Expr("p.expires_at > now()")).
		Where(sq.Expr(notBoundExpr))
}

func (r *PouchRepository) FindEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]domain.BloodPouch, error) {
	const op = "internal.repository.postgres.FindEligiblePouches"

	query, args, err := r.eligibleQuery(organizerID, bloodType, bloodGroup).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var pouches []domain.BloodPouch
	if err := sqlx.SelectContext(ctx, ext, &pouches, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select pouches: %w", op, err)
	}

	return pouches, nil
}

func (r *PouchRepository) CountEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) (int, error) {
	const op = "internal.repository.postgres.CountEligiblePouches"

	query, args, err := r.eligibleQuery(organizerID, bloodType, bloodGroup).
		RemoveColumns().
		Column("COUNT(*)").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var count int
	if err := sqlx.GetContext(ctx, ext, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count pouches: %w", op, err)
	}

	return count, nil
}

func (r *PouchRepository) LockEligiblePouches(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]string, error) {
	const op = "internal.repository.postgres.LockEligiblePouches"

	query, args, err := r.eligibleQuery(organizerID, bloodType, bloodGroup).
		RemoveColumns().
		Column("p.id").
		Where(sq.Eq{"p.id": pouchIDs}).
		Suffix("FOR UPDATE OF p").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to lock pouches: %w", op, err)
	}

	return ids, nil
}

type organizerAvailabilityRow struct {
	ID             string               `db:"id"`
	Name           string               `db:"name"`
	Type           domain.OrganizerType `db:"type"`
	CreatedAt      time.Time            `db:"created_at"`
	AvailableUnits int                  `db:"available_units"`
}

func (r *PouchRepository) CountAvailableByOrganizer(ctx context.Context, bloodType domain.BloodType, bloodGroup domain.BloodGroup, candidateIDs []string) ([]domain.OrganizerAvailability, error) {
	const op = "internal.repository.postgres.CountAvailableByOrganizer"

	joinCond := `blood_pouches p ON p.organizer_id = o.id
		AND p.blood_type = ? AND p.blood_group = ?
		AND NOT p.is_used AND NOT p.is_wasted
		AND p.expires_at > now()
		AND ` + notBoundExpr

	queryBuilder := r.sq.Select(
		"o.id",
		"o.name",
		"o.type",
		"o.created_at",
		"COUNT(p.id) as available_units",
	).
		From("organizers o").
		LeftJoin(joinCond, bloodType, bloodGroup).
		GroupBy("o.id", "o.name", "o.type", "o.created_at").
		OrderBy("available_units DESC", "o.id ASC")

	if len(candidateIDs) > 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"o.id": candidateIDs})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rows []organizerAvailabilityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	result := make([]domain.OrganizerAvailability, len(rows))
	for i, row := range rows {
		result[i] = domain.OrganizerAvailability{
			Organizer: domain.Organizer{
				ID:        row.ID,
				Name:      row.Name,
				Type:      row.Type,
				CreatedAt: row.CreatedAt,
			},
			AvailableUnits: row.AvailableUnits,
		}
	}

	return result, nil
}

func (r *PouchRepository) MarkPouchUsed(ctx context.Context, pouchID string, usedBy string, usedAt time.Time) (*domain.BloodPouch, error) {
	const op = "internal.repository.postgres.MarkPouchUsed"

	query, args, err := r.sq.Update("blood_pouches").
		Set("is_used", true).
		Set("used_at", usedAt).
		Set("used_by", usedBy).
		Where(sq.Eq{"id": pouchID, "is_used": false, "is_wasted": false}).
		Suffix("RETURNING id, pouch_code, blood_type, blood_group, donor_id, organizer_id, donated_at, expires_at, is_used, is_wasted, used_at, used_by, wasted_at, wasted_message").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	var pouch domain.BloodPouch
	if err := r.db.GetContext(ctx, &pouch, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.consumedOrMissing(ctx, op, pouchID)
		}

		return nil, fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return &pouch, nil
}

func (r *PouchRepository) MarkPouchWasted(ctx context.Context, pouchID string, message string, wastedAt time.Time) (*domain.BloodPouch, error) {
	const op = "internal.repository.postgres.MarkPouchWasted"

	query, args, err := r.sq.Update("blood_pouches").
		Set("is_wasted", true).
		Set("wasted_at", wastedAt).
		Set("wasted_message", message).
		Where(sq.Eq{"id": pouchID, "is_used": false, "is_wasted": false}).
		Suffix("RETURNING id, pouch_code, blood_type, blood_group, donor_id, organizer_id, donated_at, expires_at, is_used, is_wasted, used_at, used_by, wasted_at, wasted_message").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	var pouch domain.BloodPouch
	if err := r.db.GetContext(ctx, &pouch, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.consumedOrMissing(ctx, op, pouchID)
		}

		return nil, fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return &pouch, nil
}

// consumedOrMissing disambiguates a zero-row conditional update: the pouch
// either does not exist or is already used/wasted.
func (r *PouchRepository) consumedOrMissing(ctx context.Context, op, pouchID string) error {
	if _, err := r.GetPouchByID(ctx, pouchID); err != nil {
		return err
	}

	return fmt.Errorf("%s: %w: pouch with id '%s'", op, apperrors.ErrPouchConsumed, pouchID)
}

func (r *PouchRepository) ReassignPouchOwners(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, newOrganizerID string) error {
	const op = "internal.repository.postgres.ReassignPouchOwners"

	query, args, err := r.sq.Update("blood_pouches").
		Set("organizer_id", newOrganizerID).
		Where(sq.Eq{"id": pouchIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected != int64(len(pouchIDs)) {
		return fmt.Errorf("%s: %w: expected to reassign %d pouches, got %d", op, apperrors.ErrNotFound, len(pouchIDs), rowsAffected)
	}

	return nil
}
