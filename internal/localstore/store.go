// Package localstore is the durable on-device key-value store. The whole
// order list lives as a single JSON blob under one well-known key, the way
// the data is laid out in the remote documents too; saves always overwrite
// the blob entirely.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"villageOrderTracking/models"
)

// Well-known keys in the kv table.
const (
	KeyOrders        = "orders"
	KeyActiveVillage = "activeVillage"
)

const opTimeout = 3 * time.Second

// Store persists application state in the kv table of a SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a Store backed by an already-migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveOrders overwrites the stored order blob with the given list.
func (s *Store) SaveOrders(ctx context.Context, orders []models.Order) error {
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	return s.SetValue(ctx, KeyOrders, string(raw))
}

// LoadOrders returns the previously saved list, or an empty list if nothing
// was saved yet. Date fields come back as timestamps via JSON decoding.
func (s *Store) LoadOrders(ctx context.Context) ([]models.Order, error) {
	raw, err := s.GetValue(ctx, KeyOrders)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// SetValue stores value under key, replacing any previous value.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

// GetValue returns the value stored under key, or "" when the key is absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// DeleteValue removes key from the store. Deleting an absent key is not an error.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
