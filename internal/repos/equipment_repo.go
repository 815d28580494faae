package repos

import (
	"context"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

type EquipmentRepo struct{ db *sqlx.DB }

func NewEquipmentRepo(db *sqlx.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

const equipmentSelect = `
  SELECT
    e.id, e.name, e.inventory_number, e.images_json, e.status,
    COALESCE(e.equipment_type_id,'') AS equipment_type_id,
    COALESCE(t.name,'') AS type_name
  FROM equipment e
  LEFT JOIN equipment_types t ON t.id = e.equipment_type_id`

func (r *EquipmentRepo) Get(ctx context.Context, id string) (domain.Equipment, error) {
	var e domain.Equipment
	err := r.db.GetContext(ctx, &e, r.db.Rebind(equipmentSelect+` WHERE e.id = ?`), id)
	return e, err
}

// Search lists non-retired equipment, optionally filtered by free text, type and status.
func (r *EquipmentRepo) Search(ctx context.Context, q, typeID, status string, limit, offset int) ([]domain.Equipment, error) {
	where := `e.status <> 'retired'`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(e.name) LIKE ? OR LOWER(e.inventory_number) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if typeID != "" {
		where += ` AND e.equipment_type_id = ?`
		args = append(args, typeID)
	}
	if status != "" {
		where += ` AND e.status = ?`
		args = append(args, status)
	}
	query := equipmentSelect + `
  WHERE ` + where + `
  ORDER BY e.inventory_number
  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	out := []domain.Equipment{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...)
	return out, err
}

func (r *EquipmentRepo) Types(ctx context.Context) ([]domain.EquipmentType, error) {
	var out []domain.EquipmentType
	err := r.db.SelectContext(ctx, &out, `SELECT id, name FROM equipment_types ORDER BY name`)
	return out, err
}

// Statuses returns the current status of each listed equipment id that exists.
func (r *EquipmentRepo) Statuses(ctx context.Context, ids []string) (map[string]domain.EquipmentStatus, error) {
	out := map[string]domain.EquipmentStatus{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := inClause(r.db, `SELECT id, status FROM equipment WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID     string                 `db:"id"`
		Status domain.EquipmentStatus `db:"status"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Status
	}
	return out, nil
}

func (r *EquipmentRepo) SetStatus(ctx context.Context, id string, status domain.EquipmentStatus) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE equipment SET status = ? WHERE id = ?`), status, id)
	return err
}
