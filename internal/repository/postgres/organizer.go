package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type OrganizerRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewOrganizerRepository(db *sqlx.DB, log *slog.Logger) *OrganizerRepository {
	return &OrganizerRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OrganizerRepository) CreateOrganizer(ctx context.Context, org *domain.Organizer) error {
	const op = "internal.repository.postgres.CreateOrganizer"

	query, args, err := r.sq.Insert("organizers").
		Columns("id", "name", "type", "created_at").
		Values(org.ID, org.Name, org.Type, org.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.OrganizerAlreadyExistsError{Name: org.Name}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *OrganizerRepository) GetOrganizerByID(ctx context.Context, organizerID string) (*domain.Organizer, error) {
	const op = "internal.repository.postgres.GetOrganizerByID"

	query, args, err := r.sq.Select("id", "name", "type", "created_at").
		From("organizers").
		Where(sq.Eq{"id": organizerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var org domain.Organizer
	if err := r.db.GetContext(ctx, &org, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: organizer with id '%s'", op, apperrors.ErrNotFound, organizerID)
		}

		return nil, fmt.Errorf("%s: failed to get organizer: %w", op, err)
	}

	return &org, nil
}

func (r *OrganizerRepository) ListOrganizers(ctx context.Context, orgType *domain.OrganizerType) ([]domain.Organizer, error) {
	const op = "internal.repository.postgres.ListOrganizers"

	queryBuilder := r.sq.Select("id", "name", "type", "created_at").
		From("organizers").
		OrderBy("name")

	if orgType != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"type": *orgType})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var orgs []domain.Organizer
	if err := r.db.SelectContext(ctx, &orgs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return orgs, nil
}
