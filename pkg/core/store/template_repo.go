package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accounting_atlas/pkg/core/dream"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateRepo persists each user's mapping template as a JSONB document.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

// NewTemplateRepo creates a new template repository.
func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

// SaveTemplate upserts the user's template. The stored version comes from the
// template itself so concurrent saves keep a monotonic edit counter.
func (r *TemplateRepo) SaveTemplate(ctx context.Context, userID string, t *dream.Template) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	query := `
		INSERT INTO user_templates (user_id, template, version, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			template = EXCLUDED.template,
			version = EXCLUDED.version,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, userID, payload, t.Version); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// GetTemplate loads the user's stored template, or nil when none is saved.
func (r *TemplateRepo) GetTemplate(ctx context.Context, userID string) (*dream.Template, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	var payload []byte
	query := `SELECT template FROM user_templates WHERE user_id = $1`
	err := r.pool.QueryRow(ctx, query, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	var t dream.Template
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to decode stored template: %w", err)
	}
	return &t, nil
}
