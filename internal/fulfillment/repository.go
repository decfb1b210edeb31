package fulfillment

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// CreateSession atomically claims the member orders, generates a
	// collision-free session code and builds the aggregated picking lines.
	CreateSession(ctx context.Context, storeID string, orderIDs []string, createdBy *string) (*model.FulfillmentSession, error)

	GetSession(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, error)
	GetSessionDetail(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, []model.Order, []model.PickingLine, []model.PackingProgress, error)

	// AddPicked records physically recovered units on a picking line.
	AddPicked(ctx context.Context, storeID, sessionID, productID string, by int) (*model.PickingLine, error)

	// StartPacking transitions picking → packing and materializes one
	// packing progress row per (order, product).
	StartPacking(ctx context.Context, storeID, sessionID string, acceptPartial bool) error

	ListOrderProgress(ctx context.Context, sessionID, orderID string) ([]model.PackingProgress, error)
	ListAvailable(ctx context.Context, sessionID, orderID string) ([]ProductAvailability, error)

	// Abandon restores every member order to confirmed and cancels the
	// session.
	Abandon(ctx context.Context, storeID, sessionID string) error

	// DetachOrder implements order.SessionDetacher on the caller's
	// transaction.
	DetachOrder(ctx context.Context, tx *sqlx.Tx, orderID string) error

	ListStale(ctx context.Context, storeID string, olderThan time.Duration) ([]model.FulfillmentSession, error)
}

// ProductAvailability is the pack-all planning view for one order/product:
// what the order still needs and what the session still has unallocated.
type ProductAvailability struct {
	ProductID       string `db:"product_id"`
	QuantityNeeded  int    `db:"quantity_needed"`
	QuantityPacked  int    `db:"quantity_packed"`
	QuantityPicked  int    `db:"quantity_picked"`
	AggregatePacked int    `db:"aggregate_packed"`
}

// Remaining is how many more units the order accepts for this product.
func (a ProductAvailability) Remaining() int {
	return a.QuantityNeeded - a.QuantityPacked
}

// Available is how many picked units are still unallocated session-wide.
func (a ProductAvailability) Available() int {
	return a.QuantityPicked - a.AggregatePacked
}
