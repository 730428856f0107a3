package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hemolink/bloodbank-service/internal/repository"
	"github.com/hemolink/bloodbank-service/pkg/api"
)

type AvailabilityService interface {
	AvailableUnits(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.AvailabilityResponse, error)
}

type AvailabilityServiceImpl struct {
	BaseService
	pouches    repository.PouchRepository
	organizers repository.OrganizerRepository
}

func NewAvailabilityService(db Transactor, log *slog.Logger, pouches repository.PouchRepository, organizers repository.OrganizerRepository) *AvailabilityServiceImpl {
	return &AvailabilityServiceImpl{
		BaseService: NewBaseService(db, log),
		pouches:     pouches,
		organizers:  organizers,
	}
}

// AvailableUnits recomputes the organizer's eligible stock for the given
// criteria from the pouch table, never from a cached counter.
func (s *AvailabilityServiceImpl) AvailableUnits(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.AvailabilityResponse, error) {
	const op = "internal.service.AvailableUnits"

	bt, bg, err := parseCriteria(bloodType, bloodGroup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.organizers.GetOrganizerByID(ctx, organizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	count, err := s.pouches.CountEligiblePouches(ctx, s.db, organizerID, bt, bg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AvailabilityResponse{
		OrganizerID:    organizerID,
		BloodType:      bloodType,
		BloodGroup:     bloodGroup,
		AvailableUnits: count,
	}, nil
}

// ClampRequestedUnits adjusts a requested unit count to what the supplier
// actually holds. Asking for zero means "give me everything you have". The
// Adjusted flag is set exactly when the returned count differs from the
// request, so callers can tell the donor the order was trimmed.
func ClampRequestedUnits(requested, available int) api.ClampResult {
	units := requested
	if requested == 0 || requested > available {
		units = available
	}

	return api.ClampResult{
		Units:    units,
		Adjusted: units != requested,
	}
}
