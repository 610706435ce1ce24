package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"villageOrderTracking/internal/localstore"
	"villageOrderTracking/internal/logging"
	"villageOrderTracking/models"
)

// ErrOrderNotFound is the sentinel for lookups that miss. It is not a
// failure of the store; callers render it as "order not found".
var ErrOrderNotFound = errors.New("order not found")

const mirrorSyncTimeout = 30 * time.Second

// OrderRepository owns the authoritative in-memory order list for the
// running process and keeps two persistence backends approximately
// consistent with it: the local store synchronously on every mutation, the
// remote mirror through fire-and-forget tasks. The process stays fully
// usable with zero remote connectivity.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []models.Order

	local  *localstore.Store
	mirror Mirror
	writer *mirrorWriter
	log    *logrus.Logger
}

// NewOrderRepository creates the repository. mirror may be nil for
// local-only operation; the write worker is only started when a mirror is
// configured.
func NewOrderRepository(local *localstore.Store, mirror Mirror, log *logrus.Logger) *OrderRepository {
	r := &OrderRepository{
		orders: []models.Order{},
		local:  local,
		mirror: mirror,
		log:    log,
	}
	if mirror != nil {
		r.writer = newMirrorWriter(log)
	}
	return r
}

// Load seeds the in-memory list from the local store (synchronous, fatal on
// error) and, when a mirror is configured, kicks off the remote
// reconciliation in the background. Mirror failures during that
// reconciliation are logged and the local seed stands.
func (r *OrderRepository) Load(ctx context.Context) error {
	if err := r.loadLocal(ctx); err != nil {
		return err
	}
	if r.mirror != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), mirrorSyncTimeout)
			defer cancel()
			if err := r.syncWithMirror(ctx); err != nil {
				logging.Error(r.log, "repository", "Load", err, nil)
			}
		}()
	}
	return nil
}

func (r *OrderRepository) loadLocal(ctx context.Context) error {
	orders, err := r.local.LoadOrders(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.orders = orders
	r.mu.Unlock()
	return nil
}

// syncWithMirror applies the load precedence policy: a populated mirror is
// authoritative and replaces the local seed; an empty mirror is seeded from
// the local list one order at a time, then re-fetched and adopted.
func (r *OrderRepository) syncWithMirror(ctx context.Context) error {
	remote, err := r.mirror.FetchAllOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch mirror: %w", err)
	}

	if len(remote) == 0 {
		r.mu.RLock()
		local := make([]models.Order, len(r.orders))
		copy(local, r.orders)
		r.mu.RUnlock()

		for _, o := range local {
			if err := r.mirror.UpsertOrder(ctx, o); err != nil {
				return fmt.Errorf("migrate order %s to mirror: %w", o.OrderID, err)
			}
		}
		if remote, err = r.mirror.FetchAllOrders(ctx); err != nil {
			return fmt.Errorf("refetch mirror after migration: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = remote
	// Rewrite the local blob so an offline restart sees the adopted list.
	return r.local.SaveOrders(ctx, remote)
}

// AddOrder validates the order, appends it to the in-memory list, persists
// the whole list locally, and schedules a best-effort remote upsert. There
// is no duplicate-id check: ids are millisecond-unique by construction, and
// the mirror upserts by id anyway.
func (r *OrderRepository) AddOrder(ctx context.Context, o models.Order) error {
	if o.OrderID == "" {
		return fmt.Errorf("order id is empty")
	}
	if err := o.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, o)
	if err := r.local.SaveOrders(ctx, r.orders); err != nil {
		return err
	}
	r.enqueueUpsert(o)
	return nil
}

// UpdateOrder merges the non-nil fields of upd into the order matching id
// and returns the merged order. The local save is synchronous; the remote
// upsert is best-effort.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, upd models.OrderUpdate) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return models.Order{}, ErrOrderNotFound
	}
	merged := r.orders[idx]
	if err := upd.Apply(&merged); err != nil {
		return models.Order{}, err
	}
	r.orders[idx] = merged
	if err := r.local.SaveOrders(ctx, r.orders); err != nil {
		return models.Order{}, err
	}
	r.enqueueUpsert(merged)
	return merged, nil
}

// DeleteOrder removes the order matching id. The local save is synchronous;
// the remote delete is best-effort.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrOrderNotFound
	}
	r.orders = append(r.orders[:idx], r.orders[idx+1:]...)
	if err := r.local.SaveOrders(ctx, r.orders); err != nil {
		return err
	}
	if r.writer != nil {
		r.writer.enqueue("DeleteOrder", func(ctx context.Context) error {
			return r.mirror.DeleteOrder(ctx, id)
		})
	}
	return nil
}

// GetOrderByID is a pure in-memory lookup.
func (r *OrderRepository) GetOrderByID(id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return models.Order{}, ErrOrderNotFound
	}
	return r.orders[idx], nil
}

// Orders returns a snapshot of the in-memory list.
func (r *OrderRepository) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

// Close stops the mirror write worker after draining outstanding tasks.
func (r *OrderRepository) Close() {
	if r.writer != nil {
		r.writer.close()
	}
}

// indexOf must be called with the lock held.
func (r *OrderRepository) indexOf(id string) int {
	for i := range r.orders {
		if r.orders[i].OrderID == id {
			return i
		}
	}
	return -1
}

// enqueueUpsert must be called with the lock held.
func (r *OrderRepository) enqueueUpsert(o models.Order) {
	if r.writer == nil {
		return
	}
	r.writer.enqueue("UpsertOrder", func(ctx context.Context) error {
		return r.mirror.UpsertOrder(ctx, o)
	})
}
