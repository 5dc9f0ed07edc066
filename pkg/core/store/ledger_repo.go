package store

import (
	"context"
	"encoding/json"
	"fmt"

	"accounting_atlas/pkg/core/ledger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepo persists transaction overrides and doctor rules. Overrides are
// keyed by the transaction content hash, so they survive re-uploads of the
// same ledger but deliberately detach when the underlying row changes.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// SaveTxnOverride upserts one override.
func (r *LedgerRepo) SaveTxnOverride(ctx context.Context, userID string, o ledger.TxnOverride) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal override: %w", err)
	}

	query := `
		INSERT INTO txn_overrides (user_id, txn_hash, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, txn_hash)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, userID, o.Hash, payload); err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// DeleteTxnOverride removes the override for one transaction hash.
func (r *LedgerRepo) DeleteTxnOverride(ctx context.Context, userID, hash string) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	query := `DELETE FROM txn_overrides WHERE user_id = $1 AND txn_hash = $2`
	if _, err := r.pool.Exec(ctx, query, userID, hash); err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	return nil
}

// ListTxnOverrides loads all overrides for one user.
func (r *LedgerRepo) ListTxnOverrides(ctx context.Context, userID string) ([]ledger.TxnOverride, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `SELECT payload FROM txn_overrides WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var out []ledger.TxnOverride
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		var o ledger.TxnOverride
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, fmt.Errorf("failed to decode override: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SaveDoctorRule upserts one doctor rule keyed by contact id.
func (r *LedgerRepo) SaveDoctorRule(ctx context.Context, userID string, rule ledger.DoctorRule) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	payload, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal doctor rule: %w", err)
	}

	query := `
		INSERT INTO doctor_rules (user_id, contact_id, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, contact_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, userID, rule.ContactID, payload); err != nil {
		return fmt.Errorf("failed to save doctor rule: %w", err)
	}
	return nil
}

// DeleteDoctorRule removes the rule for one contact id.
func (r *LedgerRepo) DeleteDoctorRule(ctx context.Context, userID, contactID string) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	query := `DELETE FROM doctor_rules WHERE user_id = $1 AND contact_id = $2`
	if _, err := r.pool.Exec(ctx, query, userID, contactID); err != nil {
		return fmt.Errorf("failed to delete doctor rule: %w", err)
	}
	return nil
}

// ListDoctorRules loads all doctor rules for one user.
func (r *LedgerRepo) ListDoctorRules(ctx context.Context, userID string) ([]ledger.DoctorRule, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `SELECT payload FROM doctor_rules WHERE user_id = $1 ORDER BY contact_id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctor rules: %w", err)
	}
	defer rows.Close()

	var out []ledger.DoctorRule
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan doctor rule row: %w", err)
		}
		var rule ledger.DoctorRule
		if err := json.Unmarshal(payload, &rule); err != nil {
			return nil, fmt.Errorf("failed to decode doctor rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
