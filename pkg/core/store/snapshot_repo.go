package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"accounting_atlas/pkg/core/state"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepo persists full workspace snapshots. The workspace payload
// (datasets, template, scenario) is stored as one JSONB document; the summary
// is stored separately so the snapshot list renders without loading payloads.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// SnapshotRecord is one stored snapshot row.
type SnapshotRecord struct {
	ID         string
	Name       string
	OwnerID    string
	OwnerEmail string
	Role       string
	Payload    json.RawMessage
	Summary    *state.SnapshotSummary
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateSnapshot stores a new snapshot and returns its generated id.
func (r *SnapshotRepo) CreateSnapshot(ctx context.Context, rec SnapshotRecord) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("database pool not configured")
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot summary: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, owner_id, owner_email, role, name, payload, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = r.pool.Exec(ctx, query, id, rec.OwnerID, rec.OwnerEmail, rec.Role, rec.Name, rec.Payload, summaryJSON)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	return id, nil
}

// UpdateSnapshot replaces a snapshot's name, payload and summary.
func (r *SnapshotRepo) UpdateSnapshot(ctx context.Context, rec SnapshotRecord) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot summary: %w", err)
	}

	query := `
		UPDATE snapshots
		SET name = $2, payload = $3, summary = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, rec.ID, rec.Name, rec.Payload, summaryJSON)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("snapshot %s not found", rec.ID)
	}
	return nil
}

// GetSnapshot loads one snapshot with its payload.
func (r *SnapshotRepo) GetSnapshot(ctx context.Context, id string) (*SnapshotRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT id, owner_id, owner_email, role, name, payload, summary, created_at, updated_at
		FROM snapshots WHERE id = $1
	`
	var rec SnapshotRecord
	var summaryJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.OwnerID, &rec.OwnerEmail, &rec.Role, &rec.Name,
		&rec.Payload, &summaryJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(summaryJSON) > 0 {
		var summary state.SnapshotSummary
		if err := json.Unmarshal(summaryJSON, &summary); err == nil {
			rec.Summary = &summary
		}
	}
	return &rec, nil
}

// ListSnapshots lists an owner's snapshots without payloads, newest first.
func (r *SnapshotRepo) ListSnapshots(ctx context.Context, ownerID string) ([]state.SnapshotItem, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT id, name, owner_id, owner_email, role, summary, created_at, updated_at
		FROM snapshots WHERE owner_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []state.SnapshotItem
	for rows.Next() {
		var item state.SnapshotItem
		var summaryJSON []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&item.ID, &item.Name, &item.OwnerID, &item.OwnerEmail, &item.Role,
			&summaryJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		item.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		item.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
		if len(summaryJSON) > 0 {
			var summary state.SnapshotSummary
			if err := json.Unmarshal(summaryJSON, &summary); err == nil {
				item.Summary = &summary
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes one snapshot.
func (r *SnapshotRepo) DeleteSnapshot(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
