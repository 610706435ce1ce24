// Package mirror implements the optional remote document store: a
// best-effort secondary copy of the order book in Redis, one JSON document
// per order plus a single fixed-path document for the active village.
// Every operation here may fail; call sites must treat failure as non-fatal
// and keep operating on the local copy.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"villageOrderTracking/models"
	"villageOrderTracking/repository"
)

var _ repository.Mirror = (*Redis)(nil)

const (
	orderKeyPrefix   = "order:"
	orderIDSetKey    = "order:ids"
	activeVillageKey = "settings:activeVillage"
)

// villageDoc is the fixed-path document shape holding the active village.
type villageDoc struct {
	Value string `json:"value"`
}

// Redis mirrors the order book into a Redis instance.
type Redis struct {
	rdb *redis.Client
}

// Connect dials Redis and verifies connectivity with a ping.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedis wraps an existing client, mainly for tests.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Close releases the underlying client.
func (m *Redis) Close() error {
	return m.rdb.Close()
}

// UpsertOrder writes the order document keyed by its id and records the id
// in the id set. An existing document with the same id is overwritten.
func (m *Redis) UpsertOrder(ctx context.Context, o models.Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.OrderID, err)
	}
	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, orderKeyPrefix+o.OrderID, raw, 0)
	pipe.SAdd(ctx, orderIDSetKey, o.OrderID)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteOrder removes the order document and its id-set entry.
func (m *Redis) DeleteOrder(ctx context.Context, orderID string) error {
	pipe := m.rdb.TxPipeline()
	pipe.Del(ctx, orderKeyPrefix+orderID)
	pipe.SRem(ctx, orderIDSetKey, orderID)
	_, err := pipe.Exec(ctx)
	return err
}

// FetchAllOrders returns every order document, sorted by order date then id
// so repeated fetches yield a stable list. Ids whose document has vanished
// are skipped.
func (m *Redis) FetchAllOrders(ctx context.Context) ([]models.Order, error) {
	ids, err := m.rdb.SMembers(ctx, orderIDSetKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKeyPrefix + id
	}
	vals, err := m.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // id present in the set but document missing
		}
		var o models.Order
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", ids[i], err)
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.Before(orders[j].OrderDate)
		}
		return orders[i].OrderID < orders[j].OrderID
	})
	return orders, nil
}

// SetActiveVillage writes the fixed-path village document.
func (m *Redis) SetActiveVillage(ctx context.Context, village string) error {
	raw, err := json.Marshal(villageDoc{Value: village})
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, activeVillageKey, raw, 0).Err()
}

// FetchActiveVillage returns the remote village value, or "" when the
// document does not exist.
func (m *Redis) FetchActiveVillage(ctx context.Context) (string, error) {
	raw, err := m.rdb.Get(ctx, activeVillageKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var doc villageDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("decode village doc: %w", err)
	}
	return doc.Value, nil
}
