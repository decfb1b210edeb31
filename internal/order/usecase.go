package order

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	Get(ctx context.Context, storeID, orderID string) (*model.Order, error)
	List(ctx context.Context, storeID string, status model.OrderStatus, page, pageSize int) ([]model.Order, int, error)

	// Transition moves the order to a new status, applying the ledger
	// commit or restoration the boundary demands in the same transaction.
	Transition(ctx context.Context, input *dto.TransitionInput) (*model.Order, error)

	UpdateItems(ctx context.Context, input *dto.UpdateItemsInput) (*model.Order, error)
	Delete(ctx context.Context, storeID, orderID string) error
}
