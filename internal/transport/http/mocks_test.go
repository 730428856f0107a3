package http

import (
	"context"
	"time"

	"github.com/hemolink/bloodbank-service/internal/service"
	"github.com/hemolink/bloodbank-service/pkg/api"
	"github.com/stretchr/testify/mock"
)

type OrganizerServiceMock struct {
	mock.Mock
}

func (m *OrganizerServiceMock) CreateOrganizer(ctx context.Context, name, organizerType string) (*api.Organizer, error) {
	args := m.Called(ctx, name, organizerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Organizer), args.Error(1)
}

func (m *OrganizerServiceMock) GetOrganizer(ctx context.Context, organizerID string) (*api.Organizer, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.Organizer), args.Error(1)
}

func (m *OrganizerServiceMock) ListOrganizers(ctx context.Context, organizerType string) ([]api.Organizer, error) {
	args := m.Called(ctx, organizerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]api.Organizer), args.Error(1)
}

type PouchServiceMock struct {
	mock.Mock
}

func (m *PouchServiceMock) RegisterPouch(ctx context.Context, params service.RegisterPouchParams) (*api.BloodPouch, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.BloodPouch), args.Error(1)
}

func (m *PouchServiceMock) GetPouch(ctx context.Context, pouchID string) (*api.BloodPouch, error) {
	args := m.Called(ctx, pouchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.BloodPouch), args.Error(1)
}

func (m *PouchServiceMock) UsePouch(ctx context.Context, pouchID, usedBy string) (*api.BloodPouch, error) {
	args := m.Called(ctx, pouchID, usedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.BloodPouch), args.Error(1)
}

func (m *PouchServiceMock) WastePouch(ctx context.Context, pouchID, message string) (*api.BloodPouch, error) {
	args := m.Called(ctx, pouchID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.BloodPouch), args.Error(1)
}

type TransferServiceMock struct {
	mock.Mock
}

func (m *TransferServiceMock) CreateTransfer(ctx context.Context, fromOrganizerID, toOrganizerID, bloodType, bloodGroup string, noOfUnits int, purpose string) (*api.TransferRequest, error) {
	args := m.Called(ctx, fromOrganizerID, toOrganizerID, bloodType, bloodGroup, noOfUnits, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) Approve(ctx context.Context, transferID string, pouchIDs []string, statusMessage string) (*api.TransferRequest, error) {
	args := m.Called(ctx, transferID, pouchIDs, statusMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) Reject(ctx context.Context, transferID, reason string) (*api.TransferRequest, error) {
	args := m.Called(ctx, transferID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) Cancel(ctx context.Context, transferID, callerOrganizerID, reason string) (*api.TransferRequest, error) {
	args := m.Called(ctx, transferID, callerOrganizerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) Complete(ctx context.Context, transferID string, transferDate time.Time, notes string) (*api.TransferRequest, error) {
	args := m.Called(ctx, transferID, transferDate, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) GetTransfer(ctx context.Context, transferID string) (*api.TransferRequest, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferRequest), args.Error(1)
}

func (m *TransferServiceMock) ListTransfers(ctx context.Context, organizerID string, incoming bool) (*api.TransferListResponse, error) {
	args := m.Called(ctx, organizerID, incoming)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.TransferListResponse), args.Error(1)
}

type EligibilityServiceMock struct {
	mock.Mock
}

func (m *EligibilityServiceMock) FindEligiblePouches(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.EligiblePouchesResponse, error) {
	args := m.Called(ctx, organizerID, bloodType, bloodGroup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.EligiblePouchesResponse), args.Error(1)
}

func (m *EligibilityServiceMock) RankOrganizers(ctx context.Context, bloodType, bloodGroup string, candidateIDs []string) (*api.RankResponse, error) {
	args := m.Called(ctx, bloodType, bloodGroup, candidateIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.RankResponse), args.Error(1)
}

type AvailabilityServiceMock struct {
	mock.Mock
}

func (m *AvailabilityServiceMock) AvailableUnits(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.AvailabilityResponse, error) {
	args := m.Called(ctx, organizerID, bloodType, bloodGroup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*api.AvailabilityResponse), args.Error(1)
}
