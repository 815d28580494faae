package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"equiploan/internal/domain"
	"equiploan/internal/repos"
)

type LoanService struct {
	Loans       *repos.LoanRepo
	Equipment   *repos.EquipmentRepo
	Settings    *repos.SettingsRepo
	Conflicts   *ConflictChecker
	Activity    *ActivityLogger
	Notifier    Notifier
	Invalidator Invalidator
	Now         func() time.Time
}

func NewLoanService(loans *repos.LoanRepo, eq *repos.EquipmentRepo, settings *repos.SettingsRepo,
	conflicts *ConflictChecker, activity *ActivityLogger, n Notifier, inv Invalidator) *LoanService {
	return &LoanService{Loans: loans, Equipment: eq, Settings: settings, Conflicts: conflicts,
		Activity: activity, Notifier: n, Invalidator: inv, Now: time.Now}
}

// SubmitLoan is an immediate-borrow request for one item. A zero Start means now.
type SubmitLoan struct {
	EquipmentID string    `validate:"required,resid"`
	Start       time.Time `validate:"required"`
	End         time.Time `validate:"required"`
	ReturnTime  string    `validate:"omitempty,clock"`
}

// Submit creates a loan request. Staff and admins borrowing for themselves are approved on
// the spot and the self-borrow is audited; everyone else waits in pending.
func (s *LoanService) Submit(ctx context.Context, actor *domain.Actor, in SubmitLoan) (string, error) {
	if actor == nil {
		return "", ErrNotLoggedIn
	}
	if !actor.Can(domain.CapBorrow) {
		return "", ErrForbidden
	}
	now := s.Now()
	if in.Start.IsZero() {
		in.Start = now.Truncate(time.Minute)
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
	if err := CheckLoanWindow(cfg, in.Start, in.End, now); err != nil {
		return "", err
	}
	if in.ReturnTime != "" && in.ReturnTime != clockOf(in.End) {
		return "", invalid("ReturnTime", "เวลาคืนไม่ตรงกับวันสิ้นสุด")
	}

	eq, err := s.Equipment.Get(ctx, in.EquipmentID)
	if repos.IsNotFound(err) {
		return "", ErrEquipmentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading equipment: %w", err)
	}
	if eq.Status != domain.EquipmentReady {
		return "", ErrEquipmentUnavailable
	}

	if err := s.Conflicts.Check(ctx, actor.ID, eq.ID, in.Start, in.End, ""); err != nil {
		return "", err
	}

	loan := domain.LoanRequest{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		EquipmentID: eq.ID,
		StartDate:   domain.FormatTime(in.Start),
		EndDate:     domain.FormatTime(in.End),
		ReturnTime:  in.ReturnTime,
		Status:      domain.LoanPending,
	}
	self := actor.Can(domain.CapAutoApprove)
	if self {
		loan.Status = domain.LoanApproved
		loan.ApprovedBy = actor.ID
		loan.ApprovedAt = domain.FormatTime(time.Now())
	}
	if err := s.Loans.Create(ctx, &loan); err != nil {
		return "", fmt.Errorf("creating loan: %w", err)
	}

	if self {
		s.Activity.record(actor, domain.ActionSelfBorrow, domain.TargetLoan, loan.ID, actor.ID, map[string]any{
			"equipment_id": eq.ID, "equipment_name": eq.Name,
			"start_date": loan.StartDate, "end_date": loan.EndDate,
		})
	}
	invalidate(ctx, s.Invalidator, ViewLoans, ViewStaffLoans, ViewEquipment)
	return loan.ID, nil
}

func (s *LoanService) staffGuard(actor *domain.Actor) error {
	if actor == nil {
		return ErrNotLoggedIn
	}
	if !actor.Can(domain.CapApproveLoans) {
		return ErrForbidden
	}
	return nil
}

type loanRef struct {
	LoanID string `validate:"required,resid"`
}

// Approve moves a pending loan to approved after re-checking its date window, then
// notifies the borrower and records the action. A loan that is no longer pending yields
// ErrAlreadyProcessed with no side effects.
func (s *LoanService) Approve(ctx context.Context, actor *domain.Actor, loanID string) error {
	if err := s.staffGuard(actor); err != nil {
		return err
	}
	if err := checkStruct(loanRef{LoanID: loanID}); err != nil {
		return err
	}

	loan, err := s.Loans.Get(ctx, loanID)
	if repos.IsNotFound(err) {
		return ErrLoanNotFound
	}
	if err != nil {
		return fmt.Errorf("loading loan: %w", err)
	}
	if loan.Status != domain.LoanPending {
		return ErrAlreadyProcessed
	}
	start, err1 := domain.ParseTime(loan.StartDate)
	end, err2 := domain.ParseTime(loan.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return ErrInvalidDateRange
	}

	ok, err := s.Loans.Approve(ctx, loanID, actor.ID)
	if err != nil {
		return fmt.Errorf("approving loan: %w", err)
	}
	if !ok {
		// lost a race with another staff member
		return ErrAlreadyProcessed
	}

	notify(ctx, s.Notifier, domain.Notification{
		Kind: domain.NotifyLoanApproved, LoanID: loan.ID, UserID: loan.UserID,
		EquipmentID: loan.EquipmentID, StaffID: actor.ID,
	})
	s.Activity.record(actor, domain.ActionApproveLoan, domain.TargetLoan, loan.ID, loan.UserID, map[string]any{
		"equipment_id": loan.EquipmentID,
	})
	invalidate(ctx, s.Invalidator, ViewLoans, ViewStaffLoans)
	return nil
}

type rejectLoan struct {
	LoanID string `validate:"required,resid"`
	Reason string `validate:"required,max=500"`
}

// Reject is one conditional update on a pending loan; of two concurrent rejections
// exactly one succeeds. An empty reason is refused before any storage call.
func (s *LoanService) Reject(ctx context.Context, actor *domain.Actor, loanID, reason string) error {
	if err := s.staffGuard(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if err := checkStruct(rejectLoan{LoanID: loanID, Reason: reason}); err != nil {
		return err
	}

	ok, err := s.Loans.Reject(ctx, loanID, reason)
	if err != nil {
		return fmt.Errorf("rejecting loan: %w", err)
	}
	loan, getErr := s.Loans.Get(ctx, loanID)
	if !ok {
		if repos.IsNotFound(getErr) {
			return ErrLoanNotFound
		}
		return ErrAlreadyProcessed
	}
	if getErr != nil {
		return fmt.Errorf("loading loan: %w", getErr)
	}

	notify(ctx, s.Notifier, domain.Notification{
		Kind: domain.NotifyLoanRejected, LoanID: loan.ID, UserID: loan.UserID,
		EquipmentID: loan.EquipmentID, StaffID: actor.ID, Reason: reason,
	})
	s.Activity.record(actor, domain.ActionRejectLoan, domain.TargetLoan, loan.ID, loan.UserID, map[string]any{
		"equipment_id": loan.EquipmentID, "reason": reason,
	})
	invalidate(ctx, s.Invalidator, ViewLoans, ViewStaffLoans)
	return nil
}

type BulkItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BulkResult struct {
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Results      []BulkItemResult `json:"results"`
}

func (r *BulkResult) add(id string, err error) {
	if err == nil {
		r.SuccessCount++
		r.Results = append(r.Results, BulkItemResult{ID: id, Success: true})
		return
	}
	r.FailedCount++
	r.Results = append(r.Results, BulkItemResult{ID: id, Error: UserMessage(err)})
}

type bulkRef struct {
	IDs []string `validate:"required,min=1,max=100"`
}

// BulkApprove approves each loan in order. Each item stands alone: a failure is recorded
// in the summary and the loop moves on; earlier approvals stay applied.
func (s *LoanService) BulkApprove(ctx context.Context, actor *domain.Actor, ids []string) (BulkResult, error) {
	if err := s.staffGuard(actor); err != nil {
		return BulkResult{}, err
	}
	if err := checkStruct(bulkRef{IDs: ids}); err != nil {
		return BulkResult{}, err
	}
	res := BulkResult{Results: make([]BulkItemResult, 0, len(ids))}
	for _, id := range ids {
		res.add(id, s.Approve(ctx, actor, id))
	}
	return res, nil
}

// BulkReject rejects each loan in order with the same reason.
func (s *LoanService) BulkReject(ctx context.Context, actor *domain.Actor, ids []string, reason string) (BulkResult, error) {
	if err := s.staffGuard(actor); err != nil {
		return BulkResult{}, err
	}
	if err := checkStruct(bulkRef{IDs: ids}); err != nil {
		return BulkResult{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return BulkResult{}, invalid("Reason", fieldMessages["Reason"])
	}
	res := BulkResult{Results: make([]BulkItemResult, 0, len(ids))}
	for _, id := range ids {
		res.add(id, s.Reject(ctx, actor, id, reason))
	}
	return res, nil
}

// Mine lists the caller's own loan requests.
func (s *LoanService) Mine(ctx context.Context, actor *domain.Actor) ([]domain.LoanRequest, error) {
	if actor == nil {
		return nil, ErrNotLoggedIn
	}
	return s.Loans.ListByUser(ctx, actor.ID)
}

// Pending lists loan requests waiting for a staff decision, oldest first.
func (s *LoanService) Pending(ctx context.Context, actor *domain.Actor, limit int) ([]domain.LoanRequest, error) {
	if err := s.staffGuard(actor); err != nil {
		return nil, err
	}
	return s.Loans.ListByStatus(ctx, domain.LoanPending, limit)
}
