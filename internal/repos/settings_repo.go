package repos

import (
	"context"
	"encoding/json"
	"fmt"

	"equiploan/internal/domain"

	"github.com/jmoiron/sqlx"
)

const systemConfigKey = "system_config"

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// SystemConfig returns the stored configuration layered over the defaults. A missing row
// yields the defaults unchanged.
func (r *SettingsRepo) SystemConfig(ctx context.Context) (domain.SystemConfig, error) {
	cfg := domain.DefaultSystemConfig()
	var raw string
	err := r.db.GetContext(ctx, &raw, r.db.Rebind(`SELECT value FROM settings WHERE key = ?`), systemConfigKey)
	if IsNotFound(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return domain.DefaultSystemConfig(), fmt.Errorf("decoding %s: %w", systemConfigKey, err)
	}
	return cfg, nil
}

func (r *SettingsRepo) SaveSystemConfig(ctx context.Context, cfg domain.SystemConfig) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO settings(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`), systemConfigKey, string(b))
	return err
}
