package repository

import (
	"context"

	"villageOrderTracking/models"
)

// Mirror defines the outbound operations against the remote document store.
// Every call may fail (network/auth); the repository treats each failure as
// non-fatal and keeps operating on the local copy. A nil Mirror means the
// application runs local-only.
type Mirror interface {
	UpsertOrder(ctx context.Context, o models.Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	FetchAllOrders(ctx context.Context) ([]models.Order, error)
	SetActiveVillage(ctx context.Context, village string) error
	FetchActiveVillage(ctx context.Context) (string, error)
}
