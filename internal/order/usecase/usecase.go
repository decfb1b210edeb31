package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo      order.Repository
	applier   ledger.Applier
	detacher  order.SessionDetacher
	publisher ledger.Publisher
	logger    logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, applier ledger.Applier, detacher order.SessionDetacher, publisher ledger.Publisher, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		applier:   applier,
		detacher:  detacher,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *orderUseCase) Create(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	status := input.Status
	if status == "" {
		status = model.OrderPending
	}
	if status != model.OrderPending && status != model.OrderConfirmed {
		return nil, apperr.Newf(apperr.KindStateConflict, "orders cannot be created as %s", status)
	}
	if len(input.Items) == 0 {
		return nil, apperr.New(apperr.KindStateConflict, "order needs at least one line item")
	}

	now := time.Now()
	o := &model.Order{
		ID:        uuid.New().String(),
		StoreID:   input.StoreID,
		Reference: input.Reference,
		Status:    status,
		CreatedBy: input.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Newf(apperr.KindStateConflict, "line item quantity must be positive for product %s", item.ProductID)
		}
		o.Items = append(o.Items, model.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := uc.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	uc.logger.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("reference", o.Reference),
		zap.String("status", string(o.Status)),
	)
	return o, nil
}

func (uc *orderUseCase) Get(ctx context.Context, storeID, orderID string) (*model.Order, error) {
	return uc.repo.GetByID(ctx, storeID, orderID)
}

func (uc *orderUseCase) List(ctx context.Context, storeID string, status model.OrderStatus, page, pageSize int) ([]model.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return uc.repo.List(ctx, storeID, status, page, pageSize)
}

// Transition is the only decrement and restoration path for stock. The
// status update and its ledger movements share one transaction, so a failed
// movement leaves the order untouched.
func (uc *orderUseCase) Transition(ctx context.Context, input *dto.TransitionInput) (*model.Order, error) {
	tx, err := uc.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := uc.repo.GetForUpdate(ctx, tx, input.StoreID, input.OrderID)
	if err != nil {
		return nil, err
	}

	if !order.CanTransition(o.Status, input.To) {
		return nil, apperr.Newf(apperr.KindStateConflict,
			"order %s is %s and cannot move to %s", o.Reference, o.Status, input.To)
	}

	var movements []*model.InventoryMovement
	switch order.TransitionEffect(o.Status, input.To) {
	case order.EffectCommit:
		movements, err = uc.applyAll(ctx, tx, o, -1, input.ActorID)
	case order.EffectRevert:
		movements, err = uc.applyAll(ctx, tx, o, +1, input.ActorID)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, tx, o.ID, input.To); err != nil {
		return nil, err
	}

	// Leaving the preparation path while batched orphans the session slot.
	if o.SessionID != nil && input.To != model.OrderInPreparation {
		if err := uc.detacher.DetachOrder(ctx, tx, o.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromPG(err)
	}

	for _, m := range movements {
		if uc.publisher != nil {
			uc.publisher.Publish(m)
		}
		if m.Clamped {
			uc.logger.Warn("Stock decrement clamped at zero",
				zap.String("product_id", m.ProductID),
				zap.String("order_id", o.ID),
			)
		}
	}

	uc.logger.Info("Order transitioned",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(input.To)),
	)

	o.Status = input.To
	if input.To != model.OrderInPreparation {
		o.SessionID = nil
	}
	return o, nil
}

func (uc *orderUseCase) applyAll(ctx context.Context, tx *sqlx.Tx, o *model.Order, sign int, actorID *string) ([]*model.InventoryMovement, error) {
	movementType := model.MovementCommitted
	if sign > 0 {
		movementType = model.MovementReverted
	}

	movements := make([]*model.InventoryMovement, 0, len(o.Items))
	for _, item := range o.Items {
		orderID := o.ID
		m, err := uc.applier.ApplyWithTx(ctx, tx, &ledgerdto.ApplyInput{
			StoreID:   o.StoreID,
			ProductID: item.ProductID,
			Delta:     sign * item.Quantity,
			Type:      movementType,
			OrderID:   &orderID,
			ActorID:   actorID,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// UpdateItems locks the order row before checking the guards, so a
// concurrent transition that commits stock cannot slip into the gap between
// the check and the rewrite.
func (uc *orderUseCase) UpdateItems(ctx context.Context, input *dto.UpdateItemsInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.New(apperr.KindStateConflict, "order needs at least one line item")
	}

	var o *model.Order
	err := uc.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		o, err = uc.repo.GetForUpdate(ctx, tx, input.StoreID, input.OrderID)
		if err != nil {
			return err
		}

		committed, err := uc.repo.HasCommittedMovement(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if committed {
			return apperr.Newf(apperr.KindIntegrity,
				"order %s has committed stock movements; line items are locked", o.Reference)
		}
		if o.SessionID != nil {
			return apperr.Newf(apperr.KindStateConflict,
				"order %s is in an active fulfillment session; remove it first", o.Reference)
		}

		items := make([]model.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			if item.Quantity <= 0 {
				return apperr.Newf(apperr.KindStateConflict, "line item quantity must be positive for product %s", item.ProductID)
			}
			items = append(items, model.OrderItem{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		if err := uc.repo.ReplaceItems(ctx, tx, o.ID, items); err != nil {
			return err
		}
		o.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *orderUseCase) Delete(ctx context.Context, storeID, orderID string) error {
	return uc.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		o, err := uc.repo.GetForUpdate(ctx, tx, storeID, orderID)
		if err != nil {
			return err
		}

		committed, err := uc.repo.HasCommittedMovement(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if committed {
			return apperr.Newf(apperr.KindIntegrity,
				"order %s has committed stock movements and cannot be deleted; cancel it instead", o.Reference)
		}
		if o.SessionID != nil {
			return apperr.Newf(apperr.KindStateConflict,
				"order %s is in an active fulfillment session; remove it first", o.Reference)
		}

		return uc.repo.Delete(ctx, tx, o.ID)
	})
}
