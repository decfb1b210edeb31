package fulfillment

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

type UseCase interface {
	CreateSession(ctx context.Context, input *dto.CreateSessionInput) (*model.FulfillmentSession, error)
	GetSession(ctx context.Context, storeID, sessionID string) (*dto.SessionDetail, error)

	RecordPick(ctx context.Context, input *dto.PickInput) (*model.PickingLine, error)
	StartPacking(ctx context.Context, input *dto.StartPackingInput) (*dto.SessionDetail, error)

	// Pack allocates picked units to one order. Safe under any number of
	// concurrent callers; completing the order's allocation advances it to
	// ready_to_ship.
	Pack(ctx context.Context, input *dto.PackInput) (*dto.PackResult, error)
	// PackAll applies the maximum legal increment for every product the
	// order still needs.
	PackAll(ctx context.Context, input *dto.PackAllInput) ([]dto.PackResult, error)

	Abandon(ctx context.Context, input *dto.AbandonInput) error
	ListStale(ctx context.Context, storeID string) ([]model.FulfillmentSession, error)
}
