package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReservationRepo struct{ db *sqlx.DB }

func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationSelect = `
  SELECT id, user_id, equipment_id, start_date, end_date, status,
         COALESCE(rejection_reason,'') AS rejection_reason,
         COALESCE(approved_by,'') AS approved_by,
         COALESCE(approved_at,'') AS approved_at,
         COALESCE(ready_at,'') AS ready_at,
         COALESCE(ready_by,'') AS ready_by,
         COALESCE(loan_id,'') AS loan_id,
         created_at
  FROM reservations`

func (r *ReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	if res.CreatedAt == "" {
		res.CreatedAt = now()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO reservations
	    (id, user_id, equipment_id, start_date, end_date, status, approved_by, approved_at, created_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, NULLIF(?,''), NULLIF(?,''), ?)
	`), res.ID, res.UserID, res.EquipmentID, res.StartDate, res.EndDate, res.Status,
		res.ApprovedBy, res.ApprovedAt, res.CreatedAt)
	return err
}

func (r *ReservationRepo) Get(ctx context.Context, id string) (domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.GetContext(ctx, &res, r.db.Rebind(reservationSelect+` WHERE id = ?`), id)
	return res, err
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	out := []domain.Reservation{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(reservationSelect+`
		WHERE user_id = ?
		ORDER BY start_date DESC
	`), userID)
	return out, err
}

// Transition sets status=to plus the given extra columns, but only while the row is in one
// of the statuses allowed to reach `to`. It reports whether a row changed.
func (r *ReservationRepo) Transition(ctx context.Context, id string, to domain.ReservationStatus, set map[string]any) (bool, error) {
	from := domain.SourcesOf(to)
	if len(from) == 0 {
		return false, fmt.Errorf("no transition leads to %s", to)
	}
	assign := `status = ?`
	args := []any{to}
	// fixed column order keeps the statement text stable
	for _, col := range []string{"approved_by", "approved_at", "rejection_reason", "ready_at", "ready_by"} {
		if v, ok := set[col]; ok {
			assign += `, ` + col + ` = ?`
			args = append(args, v)
		}
	}
	args = append(args, id, from)

	query, qargs, err := inClause(r.db, `UPDATE reservations SET `+assign+` WHERE id = ? AND status IN (?)`, args...)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, qargs...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ErrNotReady is returned by ConvertToLoan when the reservation exists but is not ready.
var ErrNotReady = errors.New("reservation is not ready for pickup")

// ConvertToLoan fulfils a ready reservation in one transaction: it inserts an approved loan
// for the same user, equipment and window, completes the reservation with a back-reference
// to that loan, and marks the equipment borrowed. Converting an already completed
// reservation returns its existing loan id without writing anything.
func (r *ReservationRepo) ConvertToLoan(ctx context.Context, id, staffID, loanID string) (string, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var res domain.Reservation
	if err := tx.GetContext(ctx, &res, tx.Rebind(reservationSelect+` WHERE id = ?`), id); err != nil {
		return "", false, err
	}
	if res.Status == domain.ReservationCompleted && res.LoanID != "" {
		return res.LoanID, false, nil
	}
	if res.Status != domain.ReservationReady {
		return "", false, ErrNotReady
	}

	stamp := now()
	loan := domain.LoanRequest{
		ID:          loanID,
		UserID:      res.UserID,
		EquipmentID: res.EquipmentID,
		StartDate:   res.StartDate,
		EndDate:     res.EndDate,
		Status:      domain.LoanApproved,
		ApprovedBy:  staffID,
		ApprovedAt:  stamp,
		CreatedAt:   stamp,
	}
	if err := insertLoan(ctx, tx, &loan); err != nil {
		return "", false, fmt.Errorf("creating loan: %w", err)
	}

	upd, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE reservations SET status = 'completed', loan_id = ?
		WHERE id = ? AND status = 'ready'
	`), loan.ID, id)
	if err != nil {
		return "", false, fmt.Errorf("completing reservation: %w", err)
	}
	if n, _ := upd.RowsAffected(); n != 1 {
		return "", false, ErrNotReady
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE equipment SET status = 'borrowed' WHERE id = ?`), res.EquipmentID); err != nil {
		return "", false, fmt.Errorf("updating equipment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("committing conversion: %w", err)
	}
	return loan.ID, true, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }
