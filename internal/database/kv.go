package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coinpaprika-price-alerts/internal/types"
)

// KV is a key-value space inside the kv_store table. Rows of other
// namespaces are never read or written.
type KV struct {
	db        *sql.DB
	namespace string
}

func NewKV(db *sql.DB, namespace string) *KV {
	return &KV{db: db, namespace: namespace}
}

// All returns every entry of the namespace ordered by key.
func (kv *KV) All(ctx context.Context) ([]types.Entry, error) {
	query := `SELECT key, value, updated_at FROM kv_store WHERE namespace = ? ORDER BY key;`

	rows, err := kv.db.QueryContext(ctx, query, kv.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kv.namespace, err)
	}
	defer rows.Close()

	var entries []types.Entry
	for rows.Next() {
		var e types.Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", kv.namespace, err)
	}

	return entries, nil
}

// Set inserts or overwrites key.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv_store (namespace, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`

	if _, err := kv.db.ExecContext(ctx, query, kv.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", kv.namespace, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (kv *KV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE namespace = ? AND key = ?;`
	if _, err := kv.db.ExecContext(ctx, query, kv.namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", kv.namespace, key, err)
	}
	return nil
}

// DeleteIf removes key only while it still holds value and reports whether a
// row was deleted.
func (kv *KV) DeleteIf(ctx context.Context, key, value string) (bool, error) {
	query := `DELETE FROM kv_store WHERE namespace = ? AND key = ? AND value = ?;`
	res, err := kv.db.ExecContext(ctx, query, kv.namespace, key, value)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s/%s: %w", kv.namespace, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
