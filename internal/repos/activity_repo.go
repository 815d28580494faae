package repos

import (
	"context"
	"encoding/json"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ActivityRepo struct{ db *sqlx.DB }

func NewActivityRepo(db *sqlx.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Insert stores one audit entry. Re-delivering an entry with the same id is a no-op, so
// at-least-once consumers can call it freely.
func (r *ActivityRepo) Insert(ctx context.Context, a domain.StaffActivity) error {
	details := a.DetailsJSON
	if details == "" {
		details = "{}"
		if len(a.Details) > 0 {
			b, err := json.Marshal(a.Details)
			if err != nil {
				return err
			}
			details = string(b)
		}
	}
	if a.CreatedAt == "" {
		a.CreatedAt = now()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO staff_activity_logs
		  (id, staff_id, staff_role, action_type, target_type, target_id,
		   target_user_id, is_self_action, details_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?,''), ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`), a.ID, a.StaffID, a.StaffRole, a.ActionType, a.TargetType, a.TargetID,
		a.TargetUserID, a.IsSelfAction, details, a.CreatedAt)
	return err
}

const activitySelect = `
  SELECT id, staff_id, staff_role, action_type, target_type, target_id,
         COALESCE(target_user_id,'') AS target_user_id, is_self_action, details_json, created_at
  FROM staff_activity_logs`

// Recent lists the newest entries first.
func (r *ActivityRepo) Recent(ctx context.Context, limit int) ([]domain.StaffActivity, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out := []domain.StaffActivity{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(activitySelect+`
		ORDER BY created_at DESC, id
		LIMIT ?
	`), limit); err != nil {
		return nil, err
	}
	decodeDetails(out)
	return out, nil
}

// ForTarget lists every entry recorded against one loan or reservation, oldest first.
func (r *ActivityRepo) ForTarget(ctx context.Context, targetType, targetID string) ([]domain.StaffActivity, error) {
	out := []domain.StaffActivity{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(activitySelect+`
		WHERE target_type = ? AND target_id = ?
		ORDER BY created_at
	`), targetType, targetID); err != nil {
		return nil, err
	}
	decodeDetails(out)
	return out, nil
}

func decodeDetails(rows []domain.StaffActivity) {
	for i := range rows {
		if rows[i].DetailsJSON == "" {
			continue
		}
		_ = json.Unmarshal([]byte(rows[i].DetailsJSON), &rows[i].Details)
	}
}
