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

type OrganizerService interface {
	CreateOrganizer(ctx context.Context, name, organizerType string) (*api.Organizer, error)
	GetOrganizer(ctx context.Context, organizerID string) (*api.Organizer, error)
	ListOrganizers(ctx context.Context, organizerType string) ([]api.Organizer, error)
}

type OrganizerServiceImpl struct {
	BaseService
	organizers repository.OrganizerRepository
	audit      audit.Recorder
}

func NewOrganizerService(db Transactor, log *slog.Logger, organizers repository.OrganizerRepository, recorder audit.Recorder) *OrganizerServiceImpl {
	return &OrganizerServiceImpl{
		BaseService: NewBaseService(db, log),
		organizers:  organizers,
		audit:       recorder,
	}
}

func (s *OrganizerServiceImpl) CreateOrganizer(ctx context.Context, name, organizerType string) (*api.Organizer, error) {
	const op = "internal.service.CreateOrganizer"

	log := s.log.With(slog.String("op", op), slog.String("name", name))

	orgType := domain.OrganizerType(organizerType)
	if !orgType.Valid() {
		return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{Field: "organizer_type", Value: organizerType})
	}

	org := &domain.Organizer{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      orgType,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.organizers.CreateOrganizer(ctx, org); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("organizer created", slog.String("organizer_id", org.ID))

	s.audit.Record(audit.Event{
		OccurredAt: org.CreatedAt,
		Actor:      org.ID,
		Action:     "organizer.create",
		EntityID:   org.ID,
	})

	return toAPIOrganizer(org), nil
}

func (s *OrganizerServiceImpl) GetOrganizer(ctx context.Context, organizerID string) (*api.Organizer, error) {
	const op = "internal.service.GetOrganizer"

	org, err := s.organizers.GetOrganizerByID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toAPIOrganizer(org), nil
}

func (s *OrganizerServiceImpl) ListOrganizers(ctx context.Context, organizerType string) ([]api.Organizer, error) {
	const op = "internal.service.ListOrganizers"

	var filter *domain.OrganizerType
	if organizerType != "" {
		orgType := domain.OrganizerType(organizerType)
		if !orgType.Valid() {
			return nil, fmt.Errorf("%s: %w", op, &apperrors.InvalidCriteriaError{Field: "organizer_type", Value: organizerType})
		}

		filter = &orgType
	}

	orgs, err := s.organizers.ListOrganizers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.Organizer, len(orgs))
	for i := range orgs {
		result[i] = *toAPIOrganizer(&orgs[i])
	}

	return result, nil
}

func toAPIOrganizer(org *domain.Organizer) *api.Organizer {
	return &api.Organizer{
		OrganizerID:   org.ID,
		OrganizerName: org.Name,
		OrganizerType: string(org.Type),
		CreatedAt:     org.CreatedAt,
	}
}
