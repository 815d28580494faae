package repos

import (
	"context"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SpecialLoanRepo struct{ db *sqlx.DB }

func NewSpecialLoanRepo(db *sqlx.DB) *SpecialLoanRepo { return &SpecialLoanRepo{db: db} }

func (r *SpecialLoanRepo) Create(ctx context.Context, s *domain.SpecialLoan) error {
	if s.Status == "" {
		s.Status = "active"
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO special_loans(id, borrower_name, equipment_ids_json, loan_date, return_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`), s.ID, s.BorrowerName, s.EquipmentIDsJSON, s.LoanDate, s.ReturnDate, s.Status)
	return err
}

// Overlapping returns the active special loans whose window touches [start, end].
// Membership of a particular equipment id is decided by the caller.
func (r *SpecialLoanRepo) Overlapping(ctx context.Context, start, end string) ([]domain.SpecialLoan, error) {
	out := []domain.SpecialLoan{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, borrower_name, equipment_ids_json, loan_date, return_date, status
		FROM special_loans
		WHERE status = 'active' AND loan_date <= ? AND return_date >= ?
	`), end, start)
	return out, err
}
