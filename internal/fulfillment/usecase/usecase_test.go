package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/allocator"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	orderdto "github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, fields ...zap.Field) {}
func (nopLogger) Info(msg string, fields ...zap.Field)  {}
func (nopLogger) Warn(msg string, fields ...zap.Field)  {}
func (nopLogger) Error(msg string, fields ...zap.Field) {}
func (nopLogger) Fatal(msg string, fields ...zap.Field) {}
func (nopLogger) Sync() error                           { return nil }

var _ logger.ZapLogger = nopLogger{}

type fakeSessionRepo struct {
	progress []model.PackingProgress
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, storeID string, orderIDs []string, createdBy *string) (*model.FulfillmentSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) GetSessionDetail(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, []model.Order, []model.PickingLine, []model.PackingProgress, error) {
	return nil, nil, nil, nil, nil
}

func (f *fakeSessionRepo) AddPicked(ctx context.Context, storeID, sessionID, productID string, by int) (*model.PickingLine, error) {
	return nil, nil
}

func (f *fakeSessionRepo) StartPacking(ctx context.Context, storeID, sessionID string, acceptPartial bool) error {
	return nil
}

func (f *fakeSessionRepo) ListOrderProgress(ctx context.Context, sessionID, orderID string) ([]model.PackingProgress, error) {
	return f.progress, nil
}

func (f *fakeSessionRepo) ListAvailable(ctx context.Context, sessionID, orderID string) ([]fulfillment.ProductAvailability, error) {
	return nil, nil
}

func (f *fakeSessionRepo) Abandon(ctx context.Context, storeID, sessionID string) error {
	return nil
}

func (f *fakeSessionRepo) DetachOrder(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	return nil
}

func (f *fakeSessionRepo) ListStale(ctx context.Context, storeID string, olderThan time.Duration) ([]model.FulfillmentSession, error) {
	return nil, nil
}

var _ fulfillment.Repository = (*fakeSessionRepo)(nil)

// fakeAllocator returns the queued errors first, then succeeds.
type fakeAllocator struct {
	errs     []error
	progress *model.PackingProgress
	calls    int
}

func (f *fakeAllocator) Increment(ctx context.Context, req *allocator.Request) (*model.PackingProgress, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.progress, nil
}

type fakeOrders struct {
	transitionErr error
	status        model.OrderStatus
	transitions   int
}

func (f *fakeOrders) Create(ctx context.Context, input *orderdto.CreateOrderInput) (*model.Order, error) {
	return nil, nil
}

func (f *fakeOrders) Get(ctx context.Context, storeID, orderID string) (*model.Order, error) {
	return &model.Order{ID: orderID, StoreID: storeID, Reference: "ORD-100", Status: f.status}, nil
}

func (f *fakeOrders) List(ctx context.Context, storeID string, status model.OrderStatus, page, pageSize int) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (f *fakeOrders) Transition(ctx context.Context, input *orderdto.TransitionInput) (*model.Order, error) {
	f.transitions++
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	f.status = input.To
	return &model.Order{ID: input.OrderID, Status: input.To}, nil
}

func (f *fakeOrders) UpdateItems(ctx context.Context, input *orderdto.UpdateItemsInput) (*model.Order, error) {
	return nil, nil
}

func (f *fakeOrders) Delete(ctx context.Context, storeID, orderID string) error {
	return nil
}

func completeProgress() *model.PackingProgress {
	return &model.PackingProgress{
		ID:             "prog-1",
		SessionID:      "sess-1",
		OrderID:        "order-1",
		ProductID:      "prod-1",
		QuantityNeeded: 2,
		QuantityPacked: 2,
	}
}

func packInput() *dto.PackInput {
	return &dto.PackInput{
		StoreID:   "store-1",
		SessionID: "sess-1",
		OrderID:   "order-1",
		ProductID: "prod-1",
		By:        1,
	}
}

func newTestUseCase(repo *fakeSessionRepo, alloc *fakeAllocator, orders *fakeOrders) fulfillment.UseCase {
	return NewFulfillmentUseCase(repo, alloc, orders, Config{CASMaxRetries: 3}, nopLogger{})
}

func TestPackCompletesFullyAllocatedOrder(t *testing.T) {
	repo := &fakeSessionRepo{progress: []model.PackingProgress{*completeProgress()}}
	alloc := &fakeAllocator{progress: completeProgress()}
	orders := &fakeOrders{status: model.OrderInPreparation}
	uc := newTestUseCase(repo, alloc, orders)

	result, err := uc.Pack(context.Background(), packInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OrderCompleted {
		t.Fatal("expected the order to be completed")
	}
	if orders.transitions != 1 {
		t.Fatalf("expected one transition, got %d", orders.transitions)
	}
}

func TestPackTreatsRacedCompletionAsDone(t *testing.T) {
	repo := &fakeSessionRepo{progress: []model.PackingProgress{*completeProgress()}}
	alloc := &fakeAllocator{progress: completeProgress()}
	orders := &fakeOrders{
		transitionErr: apperr.New(apperr.KindStateConflict, "order ORD-100 is ready_to_ship and cannot move to ready_to_ship"),
		status:        model.OrderReadyToShip,
	}
	uc := newTestUseCase(repo, alloc, orders)

	result, err := uc.Pack(context.Background(), packInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OrderCompleted {
		t.Fatal("expected a raced completion to report the order as done")
	}
}

func TestPackSurfacesCancellationConflict(t *testing.T) {
	repo := &fakeSessionRepo{progress: []model.PackingProgress{*completeProgress()}}
	alloc := &fakeAllocator{progress: completeProgress()}
	orders := &fakeOrders{
		transitionErr: apperr.New(apperr.KindStateConflict, "order ORD-100 is cancelled and cannot move to ready_to_ship"),
		status:        model.OrderCancelled,
	}
	uc := newTestUseCase(repo, alloc, orders)

	_, err := uc.Pack(context.Background(), packInput())
	if !apperr.IsKind(err, apperr.KindStateConflict) {
		t.Fatalf("expected the cancellation conflict to surface, got %v", err)
	}
}

func TestPackRetriesOptimisticConflicts(t *testing.T) {
	repo := &fakeSessionRepo{progress: []model.PackingProgress{*completeProgress()}}
	alloc := &fakeAllocator{
		errs: []error{
			apperr.New(apperr.KindConcurrentUpdate, "packing progress changed concurrently"),
			apperr.New(apperr.KindConcurrentUpdate, "packing progress changed concurrently"),
		},
		progress: completeProgress(),
	}
	orders := &fakeOrders{status: model.OrderInPreparation}
	uc := newTestUseCase(repo, alloc, orders)

	result, err := uc.Pack(context.Background(), packInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alloc.calls != 3 {
		t.Fatalf("expected 3 increment attempts, got %d", alloc.calls)
	}
	if !result.OrderCompleted {
		t.Fatal("expected the order to be completed after retries")
	}
}

func TestPackGivesUpAfterMaxRetries(t *testing.T) {
	repo := &fakeSessionRepo{}
	alloc := &fakeAllocator{
		errs: []error{
			apperr.New(apperr.KindConcurrentUpdate, "packing progress changed concurrently"),
			apperr.New(apperr.KindConcurrentUpdate, "packing progress changed concurrently"),
			apperr.New(apperr.KindConcurrentUpdate, "packing progress changed concurrently"),
		},
	}
	orders := &fakeOrders{status: model.OrderInPreparation}
	uc := newTestUseCase(repo, alloc, orders)

	_, err := uc.Pack(context.Background(), packInput())
	if !apperr.IsKind(err, apperr.KindConcurrentUpdate) {
		t.Fatalf("expected the last concurrent-update error, got %v", err)
	}
	if alloc.calls != 3 {
		t.Fatalf("expected 3 increment attempts, got %d", alloc.calls)
	}
}
