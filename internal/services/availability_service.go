package services

import (
	"context"
	"fmt"

	"equiploan/internal/domain"
	"equiploan/internal/repos"
)

type AvailabilityService struct {
	Equipment *repos.EquipmentRepo
	Loans     *repos.LoanRepo
}

func NewAvailabilityService(eq *repos.EquipmentRepo, loans *repos.LoanRepo) *AvailabilityService {
	return &AvailabilityService{Equipment: eq, Loans: loans}
}

// Unavailable returns the subset of ids that cannot be borrowed right now: missing
// equipment, equipment whose status is not ready, and equipment with a pending or
// approved loan. Order follows ids.
func (s *AvailabilityService) Unavailable(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	statuses, err := s.Equipment.Statuses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading equipment status: %w", err)
	}
	onLoan, err := s.Loans.ActiveEquipment(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading active loans: %w", err)
	}
	busy := make(map[string]bool, len(onLoan))
	for _, id := range onLoan {
		busy[id] = true
	}

	var out []string
	for _, id := range ids {
		st, ok := statuses[id]
		if !ok || st != domain.EquipmentReady || busy[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
