package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepo persists per-user workspace settings (scenario inputs,
// framework defaults, report config, doctor patterns) as JSONB columns.
// Blobs are stored raw and hydrated by the state package on load.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// SettingsBlobs carries the raw stored settings documents. Nil slices mean
// the column was never saved.
type SettingsBlobs struct {
	Scenario       json.RawMessage
	Defaults       json.RawMessage
	ReportConfig   json.RawMessage
	DoctorPatterns json.RawMessage
}

// SaveSettings upserts all settings blobs for one user.
func (r *SettingsRepo) SaveSettings(ctx context.Context, userID string, blobs SettingsBlobs) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO user_settings (user_id, scenario, defaults, report_config, doctor_patterns, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			scenario = EXCLUDED.scenario,
			defaults = EXCLUDED.defaults,
			report_config = EXCLUDED.report_config,
			doctor_patterns = EXCLUDED.doctor_patterns,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, userID,
		blobs.Scenario, blobs.Defaults, blobs.ReportConfig, blobs.DoctorPatterns)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetSettings loads the stored blobs for one user. A user with no saved
// settings gets zero-value blobs, not an error.
func (r *SettingsRepo) GetSettings(ctx context.Context, userID string) (SettingsBlobs, error) {
	if r.pool == nil {
		return SettingsBlobs{}, fmt.Errorf("database pool not configured")
	}

	var blobs SettingsBlobs
	query := `SELECT scenario, defaults, report_config, doctor_patterns FROM user_settings WHERE user_id = $1`
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&blobs.Scenario, &blobs.Defaults, &blobs.ReportConfig, &blobs.DoctorPatterns)
	if errors.Is(err, pgx.ErrNoRows) {
		return SettingsBlobs{}, nil
	}
	if err != nil {
		return SettingsBlobs{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return blobs, nil
}
