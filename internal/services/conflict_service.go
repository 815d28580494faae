package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/repos"
)

// ConflictChecker answers the three availability questions asked before any loan or
// reservation is written. Every check fails closed: if a question cannot be answered the
// booking is refused with ErrConflictCheckFailed.
type ConflictChecker struct {
	Conflicts *repos.ConflictRepo
	Special   *repos.SpecialLoanRepo
}

func NewConflictChecker(c *repos.ConflictRepo, s *repos.SpecialLoanRepo) *ConflictChecker {
	return &ConflictChecker{Conflicts: c, Special: s}
}

// CheckTypeConflict reports whether the user already holds an active loan or reservation
// of the same equipment type, with the type's display name.
func (c *ConflictChecker) CheckTypeConflict(ctx context.Context, userID, equipmentID string) (bool, string, error) {
	return c.Conflicts.UserTypeConflict(ctx, userID, equipmentID)
}

// CheckTimeConflict reports whether [start, end] overlaps an active loan or reservation on
// this equipment, ignoring excludeReservationID.
func (c *ConflictChecker) CheckTimeConflict(ctx context.Context, equipmentID string, start, end time.Time, excludeReservationID string) (bool, error) {
	return c.Conflicts.CombinedReservationConflict(ctx, equipmentID,
		domain.FormatTime(start), domain.FormatTime(end), excludeReservationID)
}

// CheckSpecialLoanConflict reports whether an active special loan lists this equipment for
// a window touching [start, end].
func (c *ConflictChecker) CheckSpecialLoanConflict(ctx context.Context, equipmentID string, start, end time.Time) (bool, error) {
	if c.Special == nil {
		return false, nil
	}
	candidates, err := c.Special.Overlapping(ctx, domain.FormatTime(start), domain.FormatTime(end))
	if err != nil {
		return false, err
	}
	for _, sl := range candidates {
		var ids []string
		if err := json.Unmarshal([]byte(sl.EquipmentIDsJSON), &ids); err != nil {
			return false, fmt.Errorf("special loan %s: decoding equipment ids: %w", sl.ID, err)
		}
		if slices.Contains(ids, equipmentID) {
			return true, nil
		}
	}
	return false, nil
}

// Check runs the type, time and special-loan checks in that order and returns the first
// user-facing refusal, or nil when the booking may proceed.
func (c *ConflictChecker) Check(ctx context.Context, userID, equipmentID string, start, end time.Time, excludeReservationID string) error {
	hit, typeName, err := c.CheckTypeConflict(ctx, userID, equipmentID)
	if err != nil {
		return c.failed("type", equipmentID, err)
	}
	if hit {
		return &TypeConflictError{TypeName: typeName}
	}

	hit, err = c.CheckTimeConflict(ctx, equipmentID, start, end, excludeReservationID)
	if err != nil {
		return c.failed("time", equipmentID, err)
	}
	if hit {
		return ErrTimeConflict
	}

	hit, err = c.CheckSpecialLoanConflict(ctx, equipmentID, start, end)
	if err != nil {
		return c.failed("special_loan", equipmentID, err)
	}
	if hit {
		return ErrSpecialLoanConflict
	}
	return nil
}

func (c *ConflictChecker) failed(check, equipmentID string, err error) error {
	applog.Error(nil, "conflict.check_failed", err, map[string]any{"check": check, "equipment_id": equipmentID})
	return fmt.Errorf("%w: %s check: %v", ErrConflictCheckFailed, check, err)
}
