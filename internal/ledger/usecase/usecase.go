package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/cache"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

const snapshotTTL = 10 * time.Second

type ledgerUseCase struct {
	repo      ledger.Repository
	cache     *cache.RedisClient
	publisher ledger.Publisher
	logger    logger.ZapLogger
}

func NewLedgerUseCase(repo ledger.Repository, cache *cache.RedisClient, publisher ledger.Publisher, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *ledgerUseCase) RecordReceipt(ctx context.Context, input *dto.ReceiptInput) (*model.InventoryMovement, error) {
	if input.Quantity <= 0 {
		return nil, apperr.New(apperr.KindStateConflict, "receipt quantity must be positive")
	}

	movement, err := uc.repo.Apply(ctx, &dto.ApplyInput{
		StoreID:   input.StoreID,
		ProductID: input.ProductID,
		Delta:     input.Quantity,
		Type:      model.MovementExternalReceipt,
		Notes:     input.Notes,
		ActorID:   input.ActorID,
	})
	if err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, movement)
	return movement, nil
}

func (uc *ledgerUseCase) RecordReturn(ctx context.Context, input *dto.ReturnInput) (*model.InventoryMovement, error) {
	if input.Quantity <= 0 {
		return nil, apperr.New(apperr.KindStateConflict, "return quantity must be positive")
	}

	orderID := input.OrderID
	movement, err := uc.repo.Apply(ctx, &dto.ApplyInput{
		StoreID:   input.StoreID,
		ProductID: input.ProductID,
		Delta:     input.Quantity,
		Type:      model.MovementReturn,
		OrderID:   &orderID,
		Notes:     input.Notes,
		ActorID:   input.ActorID,
	})
	if err != nil {
		return nil, err
	}

	uc.afterWrite(ctx, movement)
	return movement, nil
}

func (uc *ledgerUseCase) GetStockSnapshot(ctx context.Context, storeID, productID string) (*model.Product, error) {
	key := snapshotKey(storeID, productID)

	if uc.cache != nil {
		var cached model.Product
		hit, err := uc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("stock snapshot cache read failed", zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	product, err := uc.repo.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, product, snapshotTTL); err != nil {
			uc.logger.Warn("stock snapshot cache write failed", zap.Error(err))
		}
	}
	return product, nil
}

func (uc *ledgerUseCase) ListStock(ctx context.Context, storeID string, page, pageSize int) ([]model.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return uc.repo.ListProducts(ctx, storeID, page, pageSize)
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	filters.Normalize()
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *ledgerUseCase) afterWrite(ctx context.Context, movement *model.InventoryMovement) {
	if uc.publisher != nil {
		uc.publisher.Publish(movement)
	}
	if uc.cache != nil {
		key := snapshotKey(movement.StoreID, movement.ProductID)
		if err := uc.cache.Delete(ctx, key); err != nil {
			uc.logger.Warn("stock snapshot invalidation failed", zap.Error(err))
		}
	}
}

func snapshotKey(storeID, productID string) string {
	return fmt.Sprintf("stock:%s:%s", storeID, productID)
}
