package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/hemolink/bloodbank-service/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

// Transactor is the database handle the services run transactions against.
// *sqlx.DB satisfies it; the embedded ExtContext also serves the read-only
// queries that do not need a transaction.
type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	sqlx.ExtContext
}

type BaseService struct {
	db  Transactor
	log *slog.Logger
}

func NewBaseService(db Transactor, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
	}
}

// transaction runs fn inside a transaction; any error from fn rolls the
// whole transaction back, so a failed operation leaves no partial state.
func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// parseCriteria maps raw strings onto the closed blood enums, rejecting
// anything outside them before a query is ever built.
func parseCriteria(bloodType, bloodGroup string) (domain.BloodType, domain.BloodGroup, error) {
	bt := domain.BloodType(bloodType)
	if !bt.Valid() {
		return "", "", &apperrors.InvalidCriteriaError{Field: "blood_type", Value: bloodType}
	}

	bg := domain.BloodGroup(bloodGroup)
	if !bg.Valid() {
		return "", "", &apperrors.InvalidCriteriaError{Field: "blood_group", Value: bloodGroup}
	}

	return bt, bg, nil
}

func validateUnits(noOfUnits int) error {
	if noOfUnits < 1 {
		return &apperrors.InvalidCriteriaError{Field: "no_of_units", Value: strconv.Itoa(noOfUnits)}
	}

	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
