package indexer

import (
	"context"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/search"
	"go.uber.org/zap"
)

// MovementIndexer ships committed movements to Elasticsearch for the
// reporting/audit search surface. Publishing never blocks: if the buffer is
// full the movement is dropped and logged, Postgres stays the source of
// truth.
type MovementIndexer struct {
	client *search.Client
	index  string
	logger logger.ZapLogger
	queue  chan *model.InventoryMovement
}

func NewMovementIndexer(client *search.Client, index string, log logger.ZapLogger) *MovementIndexer {
	return &MovementIndexer{
		client: client,
		index:  index,
		logger: log,
		queue:  make(chan *model.InventoryMovement, 256),
	}
}

func (i *MovementIndexer) Publish(movement *model.InventoryMovement) {
	if i == nil || i.client == nil {
		return
	}
	select {
	case i.queue <- movement:
	default:
		i.logger.Warn("movement index queue full, dropping document",
			zap.String("movement_id", movement.ID))
	}
}

func (i *MovementIndexer) Start(ctx context.Context) {
	if i == nil || i.client == nil {
		return
	}
	i.logger.Info("Starting movement indexer", zap.String("index", i.index))
	for {
		select {
		case <-ctx.Done():
			i.logger.Info("Stopping movement indexer")
			return
		case movement := <-i.queue:
			if err := i.client.Index(ctx, i.index, movement.ID, movement); err != nil {
				i.logger.Error("Failed to index movement",
					zap.String("movement_id", movement.ID),
					zap.Error(err),
				)
			}
		}
	}
}
