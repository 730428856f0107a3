package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hemolink/bloodbank-service/internal/repository"
	"github.com/hemolink/bloodbank-service/pkg/api"
)

// EligibilityService answers "which pouches could satisfy this request" and
// "which organizers hold the most of them". Both reads reflect a snapshot;
// approval re-verifies under lock before binding anything.
type EligibilityService interface {
	FindEligiblePouches(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.EligiblePouchesResponse, error)
	RankOrganizers(ctx context.Context, bloodType, bloodGroup string, candidateIDs []string) (*api.RankResponse, error)
}

type EligibilityServiceImpl struct {
	BaseService
	pouches    repository.PouchRepository
	organizers repository.OrganizerRepository
}

func NewEligibilityService(db Transactor, log *slog.Logger, pouches repository.PouchRepository, organizers repository.OrganizerRepository) *EligibilityServiceImpl {
	return &EligibilityServiceImpl{
		BaseService: NewBaseService(db, log),
		pouches:     pouches,
		organizers:  organizers,
	}
}

func (s *EligibilityServiceImpl) FindEligiblePouches(ctx context.Context, organizerID, bloodType, bloodGroup string) (*api.EligiblePouchesResponse, error) {
	const op = "internal.service.FindEligiblePouches"

	bt, bg, err := parseCriteria(bloodType, bloodGroup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.organizers.GetOrganizerByID(ctx, organizerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pouches, err := s.pouches.FindEligiblePouches(ctx, s.db, organizerID, bt, bg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.EligiblePouchesResponse{
		OrganizerID:    organizerID,
		BloodType:      bloodType,
		BloodGroup:     bloodGroup,
		AvailableUnits: len(pouches),
		Pouches:        make([]api.BloodPouch, len(pouches)),
	}

	for i := range pouches {
		result.Pouches[i] = *toAPIPouch(&pouches[i])
	}

	return result, nil
}

// RankOrganizers orders organizers by eligible stock for the given criteria,
// highest first. An empty candidateIDs slice ranks every organizer.
func (s *EligibilityServiceImpl) RankOrganizers(ctx context.Context, bloodType, bloodGroup string, candidateIDs []string) (*api.RankResponse, error) {
	const op = "internal.service.RankOrganizers"

	bt, bg, err := parseCriteria(bloodType, bloodGroup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	availability, err := s.pouches.CountAvailableByOrganizer(ctx, bt, bg, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.RankResponse{
		BloodType:  bloodType,
		BloodGroup: bloodGroup,
		Organizers: make([]api.OrganizerAvailability, len(availability)),
	}

	for i := range availability {
		result.Organizers[i] = api.OrganizerAvailability{
			Organizer:      *toAPIOrganizer(&availability[i].Organizer),
			AvailableUnits: availability[i].AvailableUnits,
		}
	}

	return result, nil
}
