package ledger

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// Applier is the stock mutation contract. Every component that needs a
// stock change goes through it; nothing else writes products.stock.
type Applier interface {
	// Apply runs the mutation in its own transaction.
	Apply(ctx context.Context, input *dto.ApplyInput) (*model.InventoryMovement, error)
	// ApplyWithTx joins a caller-owned transaction so a state transition and
	// its ledger side effects commit or roll back together.
	ApplyWithTx(ctx context.Context, tx *sqlx.Tx, input *dto.ApplyInput) (*model.InventoryMovement, error)
}

type Repository interface {
	Applier

	GetProduct(ctx context.Context, storeID, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, storeID string, page, pageSize int) ([]model.Product, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
