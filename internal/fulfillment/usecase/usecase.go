package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/allocator"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	orderdto "github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

const maxSessionOrders = 50

// Allocator is the packing increment contract, satisfied by the backend
// chain.
type Allocator interface {
	Increment(ctx context.Context, req *allocator.Request) (*model.PackingProgress, error)
}

type Config struct {
	StaleSessionAfter time.Duration
	CASMaxRetries     int
}

type fulfillmentUseCase struct {
	repo   fulfillment.Repository
	alloc  Allocator
	orders order.UseCase
	cfg    Config
	logger logger.ZapLogger
}

func NewFulfillmentUseCase(repo fulfillment.Repository, alloc Allocator, orders order.UseCase, cfg Config, log logger.ZapLogger) fulfillment.UseCase {
	if cfg.StaleSessionAfter <= 0 {
		cfg.StaleSessionAfter = 2 * time.Hour
	}
	if cfg.CASMaxRetries < 1 {
		cfg.CASMaxRetries = 3
	}
	return &fulfillmentUseCase{
		repo:   repo,
		alloc:  alloc,
		orders: orders,
		cfg:    cfg,
		logger: log,
	}
}

func (uc *fulfillmentUseCase) CreateSession(ctx context.Context, input *dto.CreateSessionInput) (*model.FulfillmentSession, error) {
	if len(input.OrderIDs) == 0 {
		return nil, apperr.New(apperr.KindStateConflict, "session needs at least one order")
	}
	if len(input.OrderIDs) > maxSessionOrders {
		return nil, apperr.Newf(apperr.KindStateConflict,
			"session cannot batch more than %d orders", maxSessionOrders)
	}

	session, err := uc.repo.CreateSession(ctx, input.StoreID, input.OrderIDs, input.ActorID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Fulfillment session created",
		zap.String("session_id", session.ID),
		zap.String("code", session.Code),
		zap.Int("orders", len(input.OrderIDs)),
	)
	return session, nil
}

func (uc *fulfillmentUseCase) GetSession(ctx context.Context, storeID, sessionID string) (*dto.SessionDetail, error) {
	session, orders, lines, progress, err := uc.repo.GetSessionDetail(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionDetail{
		Session:      session,
		Orders:       orders,
		PickingLines: lines,
		Progress:     progress,
	}, nil
}

func (uc *fulfillmentUseCase) RecordPick(ctx context.Context, input *dto.PickInput) (*model.PickingLine, error) {
	if input.By <= 0 {
		return nil, apperr.New(apperr.KindStateConflict, "picked quantity must be positive")
	}
	return uc.repo.AddPicked(ctx, input.StoreID, input.SessionID, input.ProductID, input.By)
}

func (uc *fulfillmentUseCase) StartPacking(ctx context.Context, input *dto.StartPackingInput) (*dto.SessionDetail, error) {
	if err := uc.repo.StartPacking(ctx, input.StoreID, input.SessionID, input.AcceptPartial); err != nil {
		return nil, err
	}
	uc.logger.Info("Session moved to packing",
		zap.String("session_id", input.SessionID),
		zap.Bool("accept_partial", input.AcceptPartial),
	)
	return uc.GetSession(ctx, input.StoreID, input.SessionID)
}

func (uc *fulfillmentUseCase) Pack(ctx context.Context, input *dto.PackInput) (*dto.PackResult, error) {
	progress, err := uc.increment(ctx, &allocator.Request{
		StoreID:   input.StoreID,
		SessionID: input.SessionID,
		OrderID:   input.OrderID,
		ProductID: input.ProductID,
		By:        input.By,
	})
	if err != nil {
		return nil, err
	}

	completed, err := uc.completeIfPacked(ctx, input.StoreID, input.SessionID, input.OrderID, input.ActorID)
	if err != nil {
		return nil, err
	}

	return &dto.PackResult{Progress: progress, OrderCompleted: completed}, nil
}

func (uc *fulfillmentUseCase) PackAll(ctx context.Context, input *dto.PackAllInput) ([]dto.PackResult, error) {
	availability, err := uc.repo.ListAvailable(ctx, input.SessionID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if len(availability) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound,
			"no packing progress for order %s in session %s", input.OrderID, input.SessionID)
	}

	results := []dto.PackResult{}
	for _, a := range availability {
		by := a.Remaining()
		if by > a.Available() {
			by = a.Available()
		}
		if by <= 0 {
			continue
		}

		progress, err := uc.increment(ctx, &allocator.Request{
			StoreID:   input.StoreID,
			SessionID: input.SessionID,
			OrderID:   input.OrderID,
			ProductID: a.ProductID,
			By:        by,
		})
		if err != nil {
			// A concurrent worker may have consumed the availability we
			// planned against; report what was applied so far.
			if apperr.IsKind(err, apperr.KindStateConflict) {
				uc.logger.Warn("Pack-all increment lost availability",
					zap.String("order_id", input.OrderID),
					zap.String("product_id", a.ProductID),
					zap.Error(err),
				)
				continue
			}
			return nil, err
		}
		results = append(results, dto.PackResult{Progress: progress})
	}

	completed, err := uc.completeIfPacked(ctx, input.StoreID, input.SessionID, input.OrderID, input.ActorID)
	if err != nil {
		return nil, err
	}
	if completed && len(results) > 0 {
		results[len(results)-1].OrderCompleted = true
	}
	return results, nil
}

// increment drives the backend chain, absorbing the optimistic fallback's
// concurrent-update errors with a bounded retry.
func (uc *fulfillmentUseCase) increment(ctx context.Context, req *allocator.Request) (*model.PackingProgress, error) {
	var lastErr error
	for attempt := 0; attempt < uc.cfg.CASMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.KindTransient, "packing increment interrupted", ctx.Err())
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}

		progress, err := uc.alloc.Increment(ctx, req)
		if err == nil {
			return progress, nil
		}
		if !apperr.IsKind(err, apperr.KindConcurrentUpdate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// completeIfPacked advances the order to ready_to_ship once every progress
// row is fully allocated, which commits the stock deduction.
func (uc *fulfillmentUseCase) completeIfPacked(ctx context.Context, storeID, sessionID, orderID string, actorID *string) (bool, error) {
	progress, err := uc.repo.ListOrderProgress(ctx, sessionID, orderID)
	if err != nil {
		return false, err
	}
	if len(progress) == 0 {
		return false, nil
	}
	for _, p := range progress {
		if !p.Complete() {
			return false, nil
		}
	}

	_, err = uc.orders.Transition(ctx, &orderdto.TransitionInput{
		StoreID: storeID,
		OrderID: orderID,
		To:      model.OrderReadyToShip,
		ActorID: actorID,
	})
	if err != nil {
		// A concurrent packer may have completed the order first; that is
		// the outcome we wanted. Any other conflict, say a cancellation
		// racing the last increment, propagates.
		if apperr.IsKind(err, apperr.KindStateConflict) {
			current, gerr := uc.orders.Get(ctx, storeID, orderID)
			if gerr == nil && current.Status.StockCommitted() {
				return true, nil
			}
		}
		return false, err
	}

	uc.logger.Info("Order fully packed",
		zap.String("order_id", orderID),
		zap.String("session_id", sessionID),
	)
	return true, nil
}

func (uc *fulfillmentUseCase) Abandon(ctx context.Context, input *dto.AbandonInput) error {
	if err := uc.repo.Abandon(ctx, input.StoreID, input.SessionID); err != nil {
		return err
	}
	uc.logger.Info("Session abandoned", zap.String("session_id", input.SessionID))
	return nil
}

func (uc *fulfillmentUseCase) ListStale(ctx context.Context, storeID string) ([]model.FulfillmentSession, error) {
	return uc.repo.ListStale(ctx, storeID, uc.cfg.StaleSessionAfter)
}
