package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/broker"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// OrderListener ingests marketplace order events. Orders arrive confirmed:
// the marketplace already took payment, so they go straight into the
// fulfillment-eligible pool. Stock is not touched here; the deduction
// happens when packing completes.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       order.UseCase
	logger   logger.ZapLogger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc order.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order intake listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order intake listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	Reference string             `json:"reference"`
	StoreID   string             `json:"store_id"`
	Items     []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("reference", event.Payload.Reference))

	items := make([]dto.CreateOrderItemInput, 0, len(event.Payload.Items))
	for _, item := range event.Payload.Items {
		items = append(items, dto.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	_, err := l.uc.Create(ctx, &dto.CreateOrderInput{
		StoreID:   event.Payload.StoreID,
		Reference: event.Payload.Reference,
		Status:    model.OrderConfirmed,
		Items:     items,
	})
	if err != nil {
		// Redeliveries of an already-ingested order are expected; anything
		// else needs an operator.
		if apperr.IsKind(err, apperr.KindStateConflict) {
			l.logger.Warn("Skipping order event",
				zap.String("reference", event.Payload.Reference),
				zap.Error(err),
			)
			return
		}
		l.logger.Error("Failed to create order from event",
			zap.String("reference", event.Payload.Reference),
			zap.Error(err),
		)
	}
}
