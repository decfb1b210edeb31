package ledger

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type UseCase interface {
	RecordReceipt(ctx context.Context, input *dto.ReceiptInput) (*model.InventoryMovement, error)
	RecordReturn(ctx context.Context, input *dto.ReturnInput) (*model.InventoryMovement, error)
	GetStockSnapshot(ctx context.Context, storeID, productID string) (*model.Product, error)
	ListStock(ctx context.Context, storeID string, page, pageSize int) ([]model.Product, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}

// Publisher receives committed movements for asynchronous indexing. It must
// never block the caller: the ledger transaction path has no synchronous
// external calls.
type Publisher interface {
	Publish(movement *model.InventoryMovement)
}
