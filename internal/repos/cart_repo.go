package repos

import (
	"context"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

// CartRepo persists each user's cart as ordered rows. It is the default cart store when
// Redis is not configured.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type cartItemRow struct {
	EquipmentID     string `db:"equipment_id"`
	Name            string `db:"name"`
	InventoryNumber string `db:"inventory_number"`
	ImageURL        string `db:"image_url"`
}

func (r *CartRepo) Get(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows := []cartItemRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
	  SELECT equipment_id, name, inventory_number, COALESCE(image_url,'') AS image_url
	  FROM cart_items
	  WHERE user_id = ?
	  ORDER BY position
	`), userID); err != nil {
		return nil, err
	}
	out := make([]domain.CartItem, 0, len(rows))
	for _, it := range rows {
		out = append(out, domain.CartItem{
			EquipmentID:     it.EquipmentID,
			Name:            it.Name,
			InventoryNumber: it.InventoryNumber,
			ImageURL:        it.ImageURL,
		})
	}
	return out, nil
}

// Set replaces the whole cart in one transaction.
func (r *CartRepo) Set(ctx context.Context, userID string, items []domain.CartItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO carts(user_id, updated_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at
	`), userID, now()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cart_items WHERE user_id = ?`), userID); err != nil {
		return err
	}
	for i, it := range items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO cart_items(user_id, equipment_id, name, inventory_number, image_url, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`), userID, it.EquipmentID, it.Name, it.InventoryNumber, it.ImageURL, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE user_id = ?`), userID)
	return err
}
