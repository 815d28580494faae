package repos

import (
	"context"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

type LoanRepo struct{ db *sqlx.DB }

func NewLoanRepo(db *sqlx.DB) *LoanRepo { return &LoanRepo{db: db} }

const loanSelect = `
  SELECT id, user_id, equipment_id, start_date, end_date,
         COALESCE(return_time,'') AS return_time, status,
         COALESCE(rejection_reason,'') AS rejection_reason,
         COALESCE(approved_by,'') AS approved_by,
         COALESCE(approved_at,'') AS approved_at,
         COALESCE(returned_at,'') AS returned_at,
         evaluation_submitted, created_at
  FROM loan_requests`

// Create inserts a new loan request. CreatedAt is filled in when empty.
func (r *LoanRepo) Create(ctx context.Context, l *domain.LoanRequest) error {
	return insertLoan(ctx, r.db, l)
}

func insertLoan(ctx context.Context, q sqlx.ExtContext, l *domain.LoanRequest) error {
	if l.CreatedAt == "" {
		l.CreatedAt = now()
	}
	_, err := q.ExecContext(ctx, q.Rebind(`
	  INSERT INTO loan_requests
	    (id, user_id, equipment_id, start_date, end_date, return_time, status,
	     approved_by, approved_at, evaluation_submitted, created_at)
	  VALUES
	    (?, ?, ?, ?, ?, NULLIF(?,''), ?, NULLIF(?,''), NULLIF(?,''), ?, ?)
	`), l.ID, l.UserID, l.EquipmentID, l.StartDate, l.EndDate, l.ReturnTime, l.Status,
		l.ApprovedBy, l.ApprovedAt, l.EvaluationSubmitted, l.CreatedAt)
	return err
}

func (r *LoanRepo) Get(ctx context.Context, id string) (domain.LoanRequest, error) {
	var l domain.LoanRequest
	err := r.db.GetContext(ctx, &l, r.db.Rebind(loanSelect+` WHERE id = ?`), id)
	return l, err
}

// Approve moves a pending loan to approved. It reports false when the loan is missing or
// no longer pending.
func (r *LoanRepo) Approve(ctx context.Context, id, by string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE loan_requests
		SET status = 'approved', approved_by = ?, approved_at = ?
		WHERE id = ? AND status = 'pending'
	`), by, now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// Reject is a single conditional update; of two concurrent callers exactly one wins.
func (r *LoanRepo) Reject(ctx context.Context, id, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE loan_requests
		SET status = 'rejected', rejection_reason = ?
		WHERE id = ? AND status = 'pending'
	`), reason, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ActiveEquipment returns which of the given equipment ids have a pending or approved loan.
func (r *LoanRepo) ActiveEquipment(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := inClause(r.db, `
		SELECT DISTINCT equipment_id FROM loan_requests
		WHERE equipment_id IN (?) AND status IN (?)
	`, ids, domain.ActiveLoanStatuses)
	if err != nil {
		return nil, err
	}
	var out []string
	err = r.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

// PendingEvaluations counts returned loans whose feedback form was never submitted.
func (r *LoanRepo) PendingEvaluations(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*) FROM loan_requests
		WHERE user_id = ? AND status = 'returned' AND evaluation_submitted = ?
	`), userID, false)
	return n, err
}

func (r *LoanRepo) ListByUser(ctx context.Context, userID string) ([]domain.LoanRequest, error) {
	out := []domain.LoanRequest{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(loanSelect+`
		WHERE user_id = ?
		ORDER BY created_at DESC
	`), userID)
	return out, err
}

func (r *LoanRepo) ListByStatus(ctx context.Context, status domain.LoanStatus, limit int) ([]domain.LoanRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.LoanRequest{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(loanSelect+`
		WHERE status = ?
		ORDER BY created_at
		LIMIT ?
	`), status, limit)
	return out, err
}
