package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/audit"
	"github.com/hemolink/bloodbank-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTransferService(
	transactor *TransactorMock,
	commands *TransferCommandRepositoryMock,
	queries *TransferQueryRepositoryMock,
	pouches *PouchRepositoryMock,
	organizers *OrganizerRepositoryMock,
) *TransferServiceImpl {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewTransferService(transactor, logger, commands, queries, pouches, organizers, audit.NopRecorder{})
}

func pendingTransfer(id string) *domain.TransferRequest {
	return &domain.TransferRequest{
		ID:              id,
		FromOrganizerID: "org-from",
		ToOrganizerID:   "org-to",
		BloodType:       domain.BloodTypePlasma,
		BloodGroup:      domain.BloodGroupOPos,
		NoOfUnits:       3,
		Purpose:         "surgery stock",
		RequestType:     "Transfer",
		Status:          domain.TransferStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestTransferServiceImpl_CreateTransfer(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		fromID        string
		toID          string
		bloodType     string
		bloodGroup    string
		units         int
		setupMocks    func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock, organizers *OrganizerRepositoryMock)
		expectedError error
	}{
		{
			name:       "Success",
			fromID:     "org-from",
			toID:       "org-to",
			bloodType:  "Plasma",
			bloodGroup: "O+",
			units:      3,
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock, organizers *OrganizerRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectCommit()

				organizers.On("GetOrganizerByID", ctx, "org-from").Return(&domain.Organizer{ID: "org-from"}, nil).Once()
				organizers.On("GetOrganizerByID", ctx, "org-to").Return(&domain.Organizer{ID: "org-to"}, nil).Once()
				pouches.On("CountEligiblePouches", ctx, mock.Anything, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).Return(5, nil).Once()
				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("CreateTransfer", ctx, mockedTx, mock.AnythingOfType("*domain.TransferRequest")).Return(nil).Once()
			},
		},
		{
			name:          "Invalid blood type",
			fromID:        "org-from",
			toID:          "org-to",
			bloodType:     "Platelets",
			bloodGroup:    "O+",
			units:         1,
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock, *OrganizerRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:          "Invalid blood group",
			fromID:        "org-from",
			toID:          "org-to",
			bloodType:     "Plasma",
			bloodGroup:    "C+",
			units:         1,
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock, *OrganizerRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:          "Zero units",
			fromID:        "org-from",
			toID:          "org-to",
			bloodType:     "Plasma",
			bloodGroup:    "O+",
			units:         0,
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock, *OrganizerRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:          "Requester equals supplier",
			fromID:        "org-from",
			toID:          "org-from",
			bloodType:     "Plasma",
			bloodGroup:    "O+",
			units:         1,
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock, *OrganizerRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:       "Supplier not found",
			fromID:     "org-from",
			toID:       "org-missing",
			bloodType:  "Plasma",
			bloodGroup: "O+",
			units:      1,
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock, organizers *OrganizerRepositoryMock) {
				organizers.On("GetOrganizerByID", ctx, "org-from").Return(&domain.Organizer{ID: "org-from"}, nil).Once()
				organizers.On("GetOrganizerByID", ctx, "org-missing").Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedError: apperrors.ErrNotFound,
		},
		{
			name:       "Over-allocation",
			fromID:     "org-from",
			toID:       "org-to",
			bloodType:  "Plasma",
			bloodGroup: "O+",
			units:      10,
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock, organizers *OrganizerRepositoryMock) {
				organizers.On("GetOrganizerByID", ctx, "org-from").Return(&domain.Organizer{ID: "org-from"}, nil).Once()
				organizers.On("GetOrganizerByID", ctx, "org-to").Return(&domain.Organizer{ID: "org-to"}, nil).Once()
				pouches.On("CountEligiblePouches", ctx, mock.Anything, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).Return(4, nil).Once()
			},
			expectedError: apperrors.ErrOverAllocation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transactorMock := new(TransactorMock)
			commandsMock := new(TransferCommandRepositoryMock)
			queriesMock := new(TransferQueryRepositoryMock)
			pouchesMock := new(PouchRepositoryMock)
			organizersMock := new(OrganizerRepositoryMock)
			tc.setupMocks(transactorMock, commandsMock, pouchesMock, organizersMock)

			service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
			tr, err := service.CreateTransfer(ctx, tc.fromID, tc.toID, tc.bloodType, tc.bloodGroup, tc.units, "surgery stock")

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, tr)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, tr)
				assert.Equal(t, "Pending", tr.Status)
				assert.Equal(t, tc.units, tr.NoOfUnits)
				assert.Empty(t, tr.PouchIDs)
				assert.NotEmpty(t, tr.TransferID)
			}

			transactorMock.AssertExpectations(t)
			commandsMock.AssertExpectations(t)
			pouchesMock.AssertExpectations(t)
			organizersMock.AssertExpectations(t)
		})
	}
}

func TestTransferServiceImpl_CreateTransfer_OverAllocationCarriesAvailable(t *testing.T) {
	ctx := context.Background()

	transactorMock := new(TransactorMock)
	commandsMock := new(TransferCommandRepositoryMock)
	queriesMock := new(TransferQueryRepositoryMock)
	pouchesMock := new(PouchRepositoryMock)
	organizersMock := new(OrganizerRepositoryMock)

	organizersMock.On("GetOrganizerByID", ctx, "org-from").Return(&domain.Organizer{ID: "org-from"}, nil).Once()
	organizersMock.On("GetOrganizerByID", ctx, "org-to").Return(&domain.Organizer{ID: "org-to"}, nil).Once()
	pouchesMock.On("CountEligiblePouches", ctx, mock.Anything, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).Return(2, nil).Once()

	service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
	_, err := service.CreateTransfer(ctx, "org-from", "org-to", "Plasma", "O+", 7, "surgery stock")

	var overAllocErr *apperrors.OverAllocationError
	assert.ErrorAs(t, err, &overAllocErr)
	assert.Equal(t, 7, overAllocErr.Requested)
	assert.Equal(t, 2, overAllocErr.Available)
	assert.Equal(t, "org-to", overAllocErr.OrganizerID)
}

func TestTransferServiceImpl_Approve(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		pouchIDs      []string
		setupMocks    func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock)
		expectedError error
	}{
		{
			name:     "Success",
			pouchIDs: []string{"pouch-1", "pouch-2"},
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectCommit()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
				pouches.On("LockEligiblePouches", ctx, mockedTx, []string{"pouch-1", "pouch-2"}, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).
					Return([]string{"pouch-1", "pouch-2"}, nil).Once()
				commands.On("BindPouches", ctx, mockedTx, "tr-1", []string{"pouch-1", "pouch-2"}).Return(nil).Once()
				commands.On("UpdateTransferStatus", ctx, mockedTx, "tr-1", domain.TransferStatusApprove, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()
			},
		},
		{
			name:          "Empty pouch selection",
			pouchIDs:      []string{},
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:          "Duplicate pouch ids",
			pouchIDs:      []string{"pouch-1", "pouch-1"},
			setupMocks:    func(*TransactorMock, *TransferCommandRepositoryMock, *PouchRepositoryMock) {},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:     "More pouches than requested units",
			pouchIDs: []string{"pouch-1", "pouch-2", "pouch-3", "pouch-4"},
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
			},
			expectedError: apperrors.ErrInvalidCriteria,
		},
		{
			name:     "Not pending",
			pouchIDs: []string{"pouch-1"},
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				rejected := pendingTransfer("tr-1")
				rejected.Status = domain.TransferStatusReject

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(rejected, nil).Once()
			},
			expectedError: apperrors.ErrInvalidTransition,
		},
		{
			name:     "Pouch lost eligibility",
			pouchIDs: []string{"pouch-1", "pouch-2"},
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
				pouches.On("LockEligiblePouches", ctx, mockedTx, []string{"pouch-1", "pouch-2"}, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).
					Return([]string{"pouch-1"}, nil).Once()
			},
			expectedError: apperrors.ErrPouchNotEligible,
		},
		{
			name:     "Transfer not found",
			pouchIDs: []string{"pouch-1"},
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock, pouches *PouchRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transactorMock := new(TransactorMock)
			commandsMock := new(TransferCommandRepositoryMock)
			queriesMock := new(TransferQueryRepositoryMock)
			pouchesMock := new(PouchRepositoryMock)
			organizersMock := new(OrganizerRepositoryMock)
			tc.setupMocks(transactorMock, commandsMock, pouchesMock)

			service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
			tr, err := service.Approve(ctx, "tr-1", tc.pouchIDs, "approved")

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, tr)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, tr)
				assert.Equal(t, "Approve", tr.Status)
				assert.Equal(t, tc.pouchIDs, tr.PouchIDs)
				assert.NotNil(t, tr.ApprovedAt)
			}

			transactorMock.AssertExpectations(t)
			commandsMock.AssertExpectations(t)
			pouchesMock.AssertExpectations(t)
		})
	}
}

func TestTransferServiceImpl_Approve_ReportsMissingPouches(t *testing.T) {
	ctx := context.Background()

	transactorMock := new(TransactorMock)
	commandsMock := new(TransferCommandRepositoryMock)
	queriesMock := new(TransferQueryRepositoryMock)
	pouchesMock := new(PouchRepositoryMock)
	organizersMock := new(OrganizerRepositoryMock)

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
	pouchesMock.On("LockEligiblePouches", ctx, mockedTx, []string{"pouch-1", "pouch-2", "pouch-3"}, "org-to", domain.BloodTypePlasma, domain.BloodGroupOPos).
		Return([]string{"pouch-2"}, nil).Once()

	service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
	_, err := service.Approve(ctx, "tr-1", []string{"pouch-1", "pouch-2", "pouch-3"}, "")

	var notEligibleErr *apperrors.PouchNoLongerEligibleError
	assert.ErrorAs(t, err, &notEligibleErr)
	assert.Equal(t, []string{"pouch-1", "pouch-3"}, notEligibleErr.PouchIDs)

	// the transaction must roll back before any binding happens
	commandsMock.AssertNotCalled(t, "BindPouches", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	commandsMock.AssertNotCalled(t, "UpdateTransferStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferServiceImpl_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		transactorMock := new(TransactorMock)
		commandsMock := new(TransferCommandRepositoryMock)
		queriesMock := new(TransferQueryRepositoryMock)
		pouchesMock := new(PouchRepositoryMock)
		organizersMock := new(OrganizerRepositoryMock)

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
		commandsMock.On("ClearBoundPouches", ctx, mockedTx, "tr-1").Return(nil).Once()
		commandsMock.On("UpdateTransferStatus", ctx, mockedTx, "tr-1", domain.TransferStatusReject, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()

		service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
		tr, err := service.Reject(ctx, "tr-1", "stock reserved locally")

		assert.NoError(t, err)
		assert.Equal(t, "Reject", tr.Status)
		assert.NotNil(t, tr.RejectedAt)
		assert.Empty(t, tr.PouchIDs)
		commandsMock.AssertExpectations(t)
	})

	t.Run("Terminal status cannot be rejected", func(t *testing.T) {
		for _, status := range []domain.TransferStatus{
			domain.TransferStatusReject,
			domain.TransferStatusCancel,
			domain.TransferStatusTransfer,
		} {
			transactorMock := new(TransactorMock)
			commandsMock := new(TransferCommandRepositoryMock)
			queriesMock := new(TransferQueryRepositoryMock)
			pouchesMock := new(PouchRepositoryMock)
			organizersMock := new(OrganizerRepositoryMock)

			_, mockedTx, smock := newMockDBAndTx(t)
			smock.ExpectRollback()

			terminal := pendingTransfer("tr-1")
			terminal.Status = status

			transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
			commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(terminal, nil).Once()

			service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
			_, err := service.Reject(ctx, "tr-1", "")

			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "status %s", status)
		}
	})
}

func TestTransferServiceImpl_Cancel(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		caller        string
		setupMocks    func(transactor *TransactorMock, commands *TransferCommandRepositoryMock)
		expectedError error
	}{
		{
			name:   "Success",
			caller: "org-from",
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectCommit()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
				commands.On("UpdateTransferStatus", ctx, mockedTx, "tr-1", domain.TransferStatusCancel, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()
			},
		},
		{
			name:   "Caller is not the requester",
			caller: "org-to",
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(pendingTransfer("tr-1"), nil).Once()
			},
			expectedError: apperrors.ErrNotRequester,
		},
		{
			name:   "Already approved",
			caller: "org-from",
			setupMocks: func(transactor *TransactorMock, commands *TransferCommandRepositoryMock) {
				_, mockedTx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()

				approved := pendingTransfer("tr-1")
				approved.Status = domain.TransferStatusApprove

				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
				commands.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(approved, nil).Once()
			},
			expectedError: apperrors.ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transactorMock := new(TransactorMock)
			commandsMock := new(TransferCommandRepositoryMock)
			queriesMock := new(TransferQueryRepositoryMock)
			pouchesMock := new(PouchRepositoryMock)
			organizersMock := new(OrganizerRepositoryMock)
			tc.setupMocks(transactorMock, commandsMock)

			service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
			tr, err := service.Cancel(ctx, "tr-1", tc.caller, "no longer needed")

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, tr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "Cancel", tr.Status)
				assert.NotNil(t, tr.CancelledAt)
			}

			transactorMock.AssertExpectations(t)
			commandsMock.AssertExpectations(t)
		})
	}
}

func TestTransferServiceImpl_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success moves pouch ownership to the requester", func(t *testing.T) {
		transactorMock := new(TransactorMock)
		commandsMock := new(TransferCommandRepositoryMock)
		queriesMock := new(TransferQueryRepositoryMock)
		pouchesMock := new(PouchRepositoryMock)
		organizersMock := new(OrganizerRepositoryMock)

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		approved := pendingTransfer("tr-1")
		approved.Status = domain.TransferStatusApprove

		transferDate := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(approved, nil).Once()
		queriesMock.On("GetBoundPouchIDs", ctx, mockedTx, "tr-1").Return([]string{"pouch-1", "pouch-2"}, nil).Once()
		pouchesMock.On("ReassignPouchOwners", ctx, mockedTx, []string{"pouch-1", "pouch-2"}, "org-from").Return(nil).Once()
		commandsMock.On("UpdateTransferStatus", ctx, mockedTx, "tr-1", domain.TransferStatusTransfer, mock.Anything, transferDate).Return(nil).Once()

		service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
		tr, err := service.Complete(ctx, "tr-1", transferDate, "delivered by courier")

		assert.NoError(t, err)
		assert.Equal(t, "Transfer", tr.Status)
		assert.Equal(t, []string{"pouch-1", "pouch-2"}, tr.PouchIDs)
		assert.Equal(t, transferDate, *tr.TransferAt)

		transactorMock.AssertExpectations(t)
		commandsMock.AssertExpectations(t)
		queriesMock.AssertExpectations(t)
		pouchesMock.AssertExpectations(t)
	})

	t.Run("Only approved transfers can complete", func(t *testing.T) {
		for _, status := range []domain.TransferStatus{
			domain.TransferStatusPending,
			domain.TransferStatusReject,
			domain.TransferStatusCancel,
			domain.TransferStatusTransfer,
		} {
			transactorMock := new(TransactorMock)
			commandsMock := new(TransferCommandRepositoryMock)
			queriesMock := new(TransferQueryRepositoryMock)
			pouchesMock := new(PouchRepositoryMock)
			organizersMock := new(OrganizerRepositoryMock)

			_, mockedTx, smock := newMockDBAndTx(t)
			smock.ExpectRollback()

			tr := pendingTransfer("tr-1")
			tr.Status = status

			transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
			commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(tr, nil).Once()

			service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
			_, err := service.Complete(ctx, "tr-1", time.Time{}, "")

			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "status %s", status)
			pouchesMock.AssertNotCalled(t, "ReassignPouchOwners", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Reassignment failure aborts completion", func(t *testing.T) {
		transactorMock := new(TransactorMock)
		commandsMock := new(TransferCommandRepositoryMock)
		queriesMock := new(TransferQueryRepositoryMock)
		pouchesMock := new(PouchRepositoryMock)
		organizersMock := new(OrganizerRepositoryMock)

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectRollback()

		approved := pendingTransfer("tr-1")
		approved.Status = domain.TransferStatusApprove

		transactorMock.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		commandsMock.On("GetTransferByIDWithLock", ctx, mockedTx, "tr-1").Return(approved, nil).Once()
		queriesMock.On("GetBoundPouchIDs", ctx, mockedTx, "tr-1").Return([]string{"pouch-1"}, nil).Once()
		pouchesMock.On("ReassignPouchOwners", ctx, mockedTx, []string{"pouch-1"}, "org-from").Return(errors.New("pouch vanished")).Once()

		service := newTransferService(transactorMock, commandsMock, queriesMock, pouchesMock, organizersMock)
		_, err := service.Complete(ctx, "tr-1", time.Time{}, "")

		assert.Error(t, err)
		commandsMock.AssertNotCalled(t, "UpdateTransferStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
