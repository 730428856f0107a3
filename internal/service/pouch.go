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
)

// RegisterPouchParams carries the intake form of a freshly donated pouch.
type RegisterPouchParams struct {
	PouchCode   string
	BloodType   string
	BloodGroup  string
	DonorID     string
	OrganizerID string
	DonatedAt   time.Time
	ExpiresAt   time.Time
}

type PouchService interface {
	RegisterPouch(ctx context.Context, params RegisterPouchParams) (*api.BloodPouch, error)
	GetPouch(ctx context.Context, pouchID string) (*api.BloodPouch, error)
	UsePouch(ctx context.Context, pouchID, usedBy string) (*api.BloodPouch, error)
	WastePouch(ctx context.Context, pouchID, message string) (*api.BloodPouch, error)
}

type PouchServiceImpl struct {
	BaseService
	pouches    repository.PouchRepository
	organizers repository.OrganizerRepository
	audit      audit.Recorder
}

func NewPouchService(db Transactor, log *slog.Logger, pouches repository.PouchRepository, organizers repository.OrganizerRepository, recorder audit.Recorder) *PouchServiceImpl {
	return &PouchServiceImpl{
		BaseService: NewBaseService(db, log),
		pouches:     pouches,
		organizers:  organizers,
		audit:       recorder,
	}
}

func (s *PouchServiceImpl) RegisterPouch(ctx context.Context, params RegisterPouchParams) (*api.BloodPouch, error) {
	const op = "internal.service.RegisterPouch"

	log := s.log.With(
		slog.String("op", op),
		slog.String("pouch_code", params.PouchCode),
		slog.String("organizer_id", params.OrganizerID),
	)

	bt, bg, err := parseCriteria(params.BloodType, params.BloodGroup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !params.ExpiresAt.After(params.DonatedAt) {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{
			Field: "expires_at",
			Value: params.ExpiresAt.Format(time.RFC3339),
		})
	}

	if _, err := s.organizers.GetOrganizerByID(ctx, params.OrganizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pouch := &domain.BloodPouch{
		ID:          uuid.NewString(),
		PouchCode:   params.PouchCode,
		BloodType:   bt,
		BloodGroup:  bg,
		DonorID:     optional(params.DonorID),
		OrganizerID: params.OrganizerID,
		DonatedAt:   params.DonatedAt,
		ExpiresAt:   params.ExpiresAt,
	}

	if err := s.pouches.CreatePouch(ctx, pouch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("pouch registered", slog.String("pouch_id", pouch.ID))

	s.audit.Record(audit.Event{
		OccurredAt: time.Now().UTC(),
		Actor:      params.OrganizerID,
		Action:     "pouch.register",
		EntityID:   pouch.ID,
	})

	return toAPIPouch(pouch), nil
}

func (s *PouchServiceImpl) GetPouch(ctx context.Context, pouchID string) (*api.BloodPouch, error) {
	const op = "internal.service.GetPouch"

	pouch, err := s.pouches.GetPouchByID(ctx, pouchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toAPIPouch(pouch), nil
}

// UsePouch marks the pouch as transfused. A used pouch permanently leaves the
// eligibility pool.
func (s *PouchServiceImpl) UsePouch(ctx context.Context, pouchID, usedBy string) (*api.BloodPouch, error) {
	const op = "internal.service.UsePouch"

	now := time.Now().UTC()

	pouch, err := s.pouches.MarkPouchUsed(ctx, pouchID, usedBy, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("pouch used",
		slog.String("op", op),
		slog.String("pouch_id", pouchID),
		slog.String("used_by", usedBy),
	)

	s.audit.Record(audit.Event{
		OccurredAt: now,
		Actor:      usedBy,
		Action:     "pouch.use",
		EntityID:   pouchID,
	})

	return toAPIPouch(pouch), nil
}

// WastePouch marks the pouch as spoiled or discarded.
func (s *PouchServiceImpl) WastePouch(ctx context.Context, pouchID, message string) (*api.BloodPouch, error) {
	const op = "internal.service.WastePouch"

	now := time.Now().UTC()

	pouch, err := s.pouches.MarkPouchWasted(ctx, pouchID, message, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("pouch wasted",
		slog.String("op", op),
		slog.String("pouch_id", pouchID),
	)

	s.audit.Record(audit.Event{
		OccurredAt: now,
		Actor:      pouch.OrganizerID,
		Action:     "pouch.waste",
		EntityID:   pouchID,
		Message:    message,
	})

	return toAPIPouch(pouch), nil
}

func toAPIPouch(pouch *domain.BloodPouch) *api.BloodPouch {
	return &api.BloodPouch{
		PouchID:       pouch.ID,
		PouchCode:     pouch.PouchCode,
		BloodType:     string(pouch.BloodType),
		BloodGroup:    string(pouch.BloodGroup),
		DonorID:       pouch.DonorID,
		OrganizerID:   pouch.OrganizerID,
		DonatedAt:     pouch.DonatedAt,
		ExpiresAt:     pouch.ExpiresAt,
		IsUsed:        pouch.IsUsed,
		IsWasted:      pouch.IsWasted,
		UsedAt:        pouch.UsedAt,
		UsedBy:        pouch.UsedBy,
		WastedAt:      pouch.WastedAt,
		WastedMessage: pouch.WastedMessage,
	}
}
