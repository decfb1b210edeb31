package order

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, storeID, orderID string) (*model.Order, error)
	List(ctx context.Context, storeID string, status model.OrderStatus, page, pageSize int) ([]model.Order, int, error)

	// GetForUpdate locks the order row on the given transaction and returns
	// it with line items loaded.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, storeID, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, orderID string, status model.OrderStatus) error

	HasCommittedMovement(ctx context.Context, tx *sqlx.Tx, orderID string) (bool, error)
	ReplaceItems(ctx context.Context, tx *sqlx.Tx, orderID string, items []model.OrderItem) error
	Delete(ctx context.Context, tx *sqlx.Tx, orderID string) error

	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	// WithTx runs fn on a single transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// SessionDetacher removes an order from its active fulfillment session when
// a transition takes it out of the preparation path, closing the session if
// no active orders remain. Implemented by the fulfillment layer; injected to
// keep the dependency pointing one way.
type SessionDetacher interface {
	DetachOrder(ctx context.Context, tx *sqlx.Tx, orderID string) error
}
