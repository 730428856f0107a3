package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/hemolink/bloodbank-service/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type TransactorMock struct {
	mock.Mock
	sqlx.ExtContext
}

var _ Transactor = (*TransactorMock)(nil)

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*sqlx.Tx), args.Error(1)
}

type OrganizerRepositoryMock struct {
	mock.Mock
}

var _ repository.OrganizerRepository = (*OrganizerRepositoryMock)(nil)

func (m *OrganizerRepositoryMock) CreateOrganizer(ctx context.Context, org *domain.Organizer) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *OrganizerRepositoryMock) GetOrganizerByID(ctx context.Context, organizerID string) (*domain.Organizer, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Organizer), args.Error(1)
}

func (m *OrganizerRepositoryMock) ListOrganizers(ctx context.Context, orgType *domain.OrganizerType) ([]domain.Organizer, error) {
	args := m.Called(ctx, orgType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Organizer), args.Error(1)
}

type PouchRepositoryMock struct {
	mock.Mock
}

var _ repository.PouchRepository = (*PouchRepositoryMock)(nil)

func (m *PouchRepositoryMock) CreatePouch(ctx context.Context, pouch *domain.BloodPouch) error {
	args := m.Called(ctx, pouch)
	return args.Error(0)
}

func (m *PouchRepositoryMock) GetPouchByID(ctx context.Context, pouchID string) (*domain.BloodPouch, error) {
	args := m.Called(ctx, pouchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.BloodPouch), args.Error(1)
}

func (m *PouchRepositoryMock) FindEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]domain.BloodPouch, error) {
	args := m.Called(ctx, ext, organizerID, bloodType, bloodGroup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.BloodPouch), args.Error(1)
}

func (m *PouchRepositoryMock) CountEligiblePouches(ctx context.Context, ext sqlx.ExtContext, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) (int, error) {
	args := m.Called(ctx, ext, organizerID, bloodType, bloodGroup)
	return args.Int(0), args.Error(1)
}

func (m *PouchRepositoryMock) LockEligiblePouches(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, organizerID string, bloodType domain.BloodType, bloodGroup domain.BloodGroup) ([]string, error) {
	args := m.Called(ctx, tx, pouchIDs, organizerID, bloodType, bloodGroup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *PouchRepositoryMock) CountAvailableByOrganizer(ctx context.Context, bloodType domain.BloodType, bloodGroup domain.BloodGroup, candidateIDs []string) ([]domain.OrganizerAvailability, error) {
	args := m.Called(ctx, bloodType, bloodGroup, candidateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.OrganizerAvailability), args.Error(1)
}

func (m *PouchRepositoryMock) MarkPouchUsed(ctx context.Context, pouchID string, usedBy string, usedAt time.Time) (*domain.BloodPouch, error) {
	args := m.Called(ctx, pouchID, usedBy, usedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.BloodPouch), args.Error(1)
}

func (m *PouchRepositoryMock) MarkPouchWasted(ctx context.Context, pouchID string, message string, wastedAt time.Time) (*domain.BloodPouch, error) {
	args := m.Called(ctx, pouchID, message, wastedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.BloodPouch), args.Error(1)
}

func (m *PouchRepositoryMock) ReassignPouchOwners(ctx context.Context, tx *sqlx.Tx, pouchIDs []string, newOrganizerID string) error {
	args := m.Called(ctx, tx, pouchIDs, newOrganizerID)
	return args.Error(0)
}

type TransferQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.TransferQueryRepository = (*TransferQueryRepositoryMock)(nil)

func (m *TransferQueryRepositoryMock) GetTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.TransferRequest), args.Error(1)
}

func (m *TransferQueryRepositoryMock) GetBoundPouchIDs(ctx context.Context, ext sqlx.ExtContext, transferID string) ([]string, error) {
	args := m.Called(ctx, ext, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *TransferQueryRepositoryMock) ListTransfersByOrganizer(ctx context.Context, organizerID string, incoming bool) ([]domain.TransferRequest, error) {
	args := m.Called(ctx, organizerID, incoming)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.TransferRequest), args.Error(1)
}

type TransferCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.TransferCommandRepository = (*TransferCommandRepositoryMock)(nil)

func (m *TransferCommandRepositoryMock) CreateTransfer(ctx context.Context, tx *sqlx.Tx, tr *domain.TransferRequest) error {
	args := m.Called(ctx, tx, tr)
	return args.Error(0)
}

func (m *TransferCommandRepositoryMock) GetTransferByIDWithLock(ctx context.Context, tx *sqlx.Tx, transferID string) (*domain.TransferRequest, error) {
	args := m.Called(ctx, tx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.TransferRequest), args.Error(1)
}

func (m *TransferCommandRepositoryMock) UpdateTransferStatus(ctx context.Context, tx *sqlx.Tx, transferID string, status domain.TransferStatus, statusMessage *string, at time.Time) error {
	args := m.Called(ctx, tx, transferID, status, statusMessage, at)
	return args.Error(0)
}

func (m *TransferCommandRepositoryMock) BindPouches(ctx context.Context, tx *sqlx.Tx, transferID string, pouchIDs []string) error {
	args := m.Called(ctx, tx, transferID, pouchIDs)
	return args.Error(0)
}

func (m *TransferCommandRepositoryMock) ClearBoundPouches(ctx context.Context, tx *sqlx.Tx, transferID string) error {
	args := m.Called(ctx, tx, transferID)
	return args.Error(0)
}
