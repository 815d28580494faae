package repos

import (
	"context"
	"database/sql"
	"errors"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ConflictRepo holds the two availability queries every booking path runs before writing.
type ConflictRepo struct{ db *sqlx.DB }

func NewConflictRepo(db *sqlx.DB) *ConflictRepo { return &ConflictRepo{db: db} }

// UserTypeConflict reports whether the user already holds an active reservation or loan
// on equipment of the same type as equipmentID, and that type's display name.
func (r *ConflictRepo) UserTypeConflict(ctx context.Context, userID, equipmentID string) (bool, string, error) {
	var typ struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	err := r.db.GetContext(ctx, &typ, r.db.Rebind(`
		SELECT COALESCE(e.equipment_type_id,'') AS id, COALESCE(t.name,'') AS name
		FROM equipment e LEFT JOIN equipment_types t ON t.id = e.equipment_type_id
		WHERE e.id = ?
	`), equipmentID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && typ.ID == "") {
		// untyped equipment never conflicts by type
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	query, args, err := inClause(r.db, `
		SELECT
		  (SELECT COUNT(*) FROM reservations r JOIN equipment e ON e.id = r.equipment_id
		    WHERE r.user_id = ? AND e.equipment_type_id = ? AND r.status IN (?))
		+ (SELECT COUNT(*) FROM loan_requests l JOIN equipment e ON e.id = l.equipment_id
		    WHERE l.user_id = ? AND e.equipment_type_id = ? AND l.status IN (?))
	`, userID, typ.ID, domain.ActiveReservationStatuses, userID, typ.ID, domain.ActiveLoanStatuses)
	if err != nil {
		return false, "", err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, "", err
	}
	return n > 0, typ.Name, nil
}

// CombinedReservationConflict reports whether [start, end] overlaps any active reservation
// or loan for the equipment. Bounds are inclusive. excludeReservationID skips one
// reservation, for in-place edits.
func (r *ConflictRepo) CombinedReservationConflict(ctx context.Context, equipmentID, start, end, excludeReservationID string) (bool, error) {
	query, args, err := inClause(r.db, `
		SELECT
		  (SELECT COUNT(*) FROM reservations
		    WHERE equipment_id = ? AND status IN (?) AND id <> ?
		      AND start_date <= ? AND end_date >= ?)
		+ (SELECT COUNT(*) FROM loan_requests
		    WHERE equipment_id = ? AND status IN (?)
		      AND start_date <= ? AND end_date >= ?)
	`, equipmentID, domain.ActiveReservationStatuses, excludeReservationID, end, start,
		equipmentID, domain.ActiveLoanStatuses, end, start)
	if err != nil {
		return false, err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}
