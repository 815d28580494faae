package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"equiploan/internal/domain"
	"equiploan/internal/repos"
)

type ReservationService struct {
	Reservations *repos.ReservationRepo
	Equipment    *repos.EquipmentRepo
	Settings     *repos.SettingsRepo
	Conflicts    *ConflictChecker
	Activity     *ActivityLogger
	Invalidator  Invalidator
	Now          func() time.Time
}

func NewReservationService(res *repos.ReservationRepo, eq *repos.EquipmentRepo, settings *repos.SettingsRepo,
	conflicts *ConflictChecker, activity *ActivityLogger, inv Invalidator) *ReservationService {
	return &ReservationService{Reservations: res, Equipment: eq, Settings: settings,
		Conflicts: conflicts, Activity: activity, Invalidator: inv, Now: time.Now}
}

type CreateReservation struct {
	EquipmentID string    `validate:"required,resid"`
	Start       time.Time `validate:"required"`
	End         time.Time `validate:"required"`
}

// Create books equipment in advance. The window must start between today and the booking
// horizon with pickup and return inside opening hours, and the conflict checks must pass.
// Staff and admins reserving for themselves skip the queue: the reservation starts out
// approved by themselves and a self_reserve entry is recorded.
func (s *ReservationService) Create(ctx context.Context, actor *domain.Actor, in CreateReservation) (string, error) {
	if actor == nil {
		return "", ErrNotLoggedIn
	}
	if !actor.Can(domain.CapReserve) {
		return "", ErrForbidden
	}
	if err := checkStruct(in); err != nil {
		return "", err
	}
	cfg, err := s.Settings.SystemConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}
	if err := CheckDuration(cfg, actor.UserType, in.Start, in.End); err != nil {
		return "", err
	}
	if err := CheckReservationWindow(cfg, in.Start, in.End, s.Now()); err != nil {
		return "", err
	}

	eq, err := s.Equipment.Get(ctx, in.EquipmentID)
	if repos.IsNotFound(err) {
		return "", ErrEquipmentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading equipment: %w", err)
	}
	if eq.Status == domain.EquipmentMaintenance || eq.Status == domain.EquipmentRetired {
		return "", ErrEquipmentUnavailable
	}

	if err := s.Conflicts.Check(ctx, actor.ID, eq.ID, in.Start, in.End, ""); err != nil {
		return "", err
	}

	res := domain.Reservation{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		EquipmentID: eq.ID,
		StartDate:   domain.FormatTime(in.Start),
		EndDate:     domain.FormatTime(in.End),
		Status:      domain.ReservationPending,
	}
	self := actor.Can(domain.CapAutoApprove)
	if self {
		res.Status = domain.ReservationApproved
		res.ApprovedBy = actor.ID
		res.ApprovedAt = domain.FormatTime(time.Now())
	}
	if err := s.Reservations.Create(ctx, &res); err != nil {
		return "", fmt.Errorf("creating reservation: %w", err)
	}

	if self {
		s.Activity.record(actor, domain.ActionSelfReserve, domain.TargetReservation, res.ID, actor.ID, map[string]any{
			"equipment_id": eq.ID, "equipment_name": eq.Name,
			"start_date": res.StartDate, "end_date": res.EndDate,
		})
	}
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations)
	return res.ID, nil
}

func (s *ReservationService) staffGuard(actor *domain.Actor) error {
	if actor == nil {
		return ErrNotLoggedIn
	}
	if !actor.Can(domain.CapManageReservations) {
		return ErrForbidden
	}
	return nil
}

type reservationRef struct {
	ReservationID string `validate:"required,resid"`
}

func (s *ReservationService) load(ctx context.Context, id string) (domain.Reservation, error) {
	if err := checkStruct(reservationRef{ReservationID: id}); err != nil {
		return domain.Reservation{}, err
	}
	r, err := s.Reservations.Get(ctx, id)
	if repos.IsNotFound(err) {
		return r, ErrReservationNotFound
	}
	if err != nil {
		return r, fmt.Errorf("loading reservation: %w", err)
	}
	return r, nil
}

// transition applies a guarded status change and explains a refusal: moving to the state
// the reservation already has is "already processed", anything else is an invalid move.
func (s *ReservationService) transition(ctx context.Context, r domain.Reservation, to domain.ReservationStatus, set map[string]any) error {
	if !domain.CanTransition(r.Status, to) {
		if r.Status == to {
			return ErrAlreadyProcessed
		}
		return ErrInvalidTransition
	}
	ok, err := s.Reservations.Transition(ctx, r.ID, to, set)
	if err != nil {
		return fmt.Errorf("updating reservation: %w", err)
	}
	if !ok {
		// changed underneath us
		return ErrAlreadyProcessed
	}
	return nil
}

func (s *ReservationService) Approve(ctx context.Context, actor *domain.Actor, id string) error {
	if err := s.staffGuard(actor); err != nil {
		return err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, r, domain.ReservationApproved, map[string]any{
		"approved_by": actor.ID,
		"approved_at": domain.FormatTime(time.Now()),
	}); err != nil {
		return err
	}
	s.Activity.record(actor, domain.ActionApproveReservation, domain.TargetReservation, r.ID, r.UserID, map[string]any{
		"equipment_id": r.EquipmentID,
	})
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations)
	return nil
}

type rejectReservation struct {
	ReservationID string `validate:"required,resid"`
	Reason        string `validate:"required,max=500"`
}

func (s *ReservationService) Reject(ctx context.Context, actor *domain.Actor, id, reason string) error {
	if err := s.staffGuard(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if err := checkStruct(rejectReservation{ReservationID: id, Reason: reason}); err != nil {
		return err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, r, domain.ReservationRejected, map[string]any{"rejection_reason": reason}); err != nil {
		return err
	}
	s.Activity.record(actor, domain.ActionRejectReservation, domain.TargetReservation, r.ID, r.UserID, map[string]any{
		"equipment_id": r.EquipmentID, "reason": reason,
	})
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations)
	return nil
}

// MarkReady flags an approved reservation as waiting at the counter. No pickup timer is
// started here.
func (s *ReservationService) MarkReady(ctx context.Context, actor *domain.Actor, id string) error {
	if err := s.staffGuard(actor); err != nil {
		return err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, r, domain.ReservationReady, map[string]any{
		"ready_at": domain.FormatTime(time.Now()),
		"ready_by": actor.ID,
	}); err != nil {
		return err
	}
	s.Activity.record(actor, domain.ActionMarkReady, domain.TargetReservation, r.ID, r.UserID, map[string]any{
		"equipment_id": r.EquipmentID,
	})
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations)
	return nil
}

// ConvertToLoan hands over a ready reservation. The loan, the reservation update and the
// equipment status change commit together. Repeating the call on a completed reservation
// returns the loan created the first time and records nothing new.
func (s *ReservationService) ConvertToLoan(ctx context.Context, actor *domain.Actor, id string) (string, error) {
	if err := s.staffGuard(actor); err != nil {
		return "", err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	loanID, created, err := s.Reservations.ConvertToLoan(ctx, r.ID, actor.ID, uuid.NewString())
	if errors.Is(err, repos.ErrNotReady) {
		return "", ErrInvalidTransition
	}
	if err != nil {
		return "", fmt.Errorf("converting reservation: %w", err)
	}
	if !created {
		return loanID, nil
	}
	s.Activity.record(actor, domain.ActionConvertToLoan, domain.TargetReservation, r.ID, r.UserID, map[string]any{
		"equipment_id": r.EquipmentID, "loan_id": loanID,
	})
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations, ViewLoans, ViewStaffLoans, ViewEquipment)
	return loanID, nil
}

// Cancel withdraws a reservation. Borrowers may cancel only their own; staff may cancel
// any, and every staff cancellation is recorded.
func (s *ReservationService) Cancel(ctx context.Context, actor *domain.Actor, id string) error {
	if actor == nil {
		return ErrNotLoggedIn
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != actor.ID && !actor.Can(domain.CapCancelAnyReservation) {
		return ErrForbidden
	}
	if err := s.transition(ctx, r, domain.ReservationCancelled, nil); err != nil {
		return err
	}
	if actor.Role.IsStaff() {
		s.Activity.record(actor, domain.ActionCancelReservation, domain.TargetReservation, r.ID, r.UserID, map[string]any{
			"equipment_id": r.EquipmentID, "previous_status": r.Status,
		})
	}
	invalidate(ctx, s.Invalidator, ViewReservations, ViewStaffReservations)
	return nil
}

func (s *ReservationService) Mine(ctx context.Context, actor *domain.Actor) ([]domain.Reservation, error) {
	if actor == nil {
		return nil, ErrNotLoggedIn
	}
	return s.Reservations.ListByUser(ctx, actor.ID)
}
