package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsRepo implements settings.Repository against PostgreSQL. Rows are
// simple (owner, key, value) triples; owner = "" holds deployment-wide
// values.
type SettingsRepo struct{ db *sql.DB }

// NewSettingsRepo creates a Postgres-backed settings repository.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns all stored settings for an owner as a key/value map.
func (r *SettingsRepo) Get(ctx context.Context, owner string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM user_settings WHERE owner = $1`, owner)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Set stores or replaces one setting for an owner.
func (r *SettingsRepo) Set(ctx context.Context, owner, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (owner, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner, key) DO UPDATE SET value = $3, updated_at = NOW()
	`, owner, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// Delete removes one setting. Missing keys are not an error.
func (r *SettingsRepo) Delete(ctx context.Context, owner, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_settings WHERE owner = $1 AND key = $2`, owner, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}
