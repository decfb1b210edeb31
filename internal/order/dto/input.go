package dto

import "github.com/fekuna/omnipos-fulfillment-service/internal/model"

type CreateOrderInput struct {
	StoreID   string
	Reference string
	Status    model.OrderStatus // pending or confirmed; anything else is rejected
	Items     []CreateOrderItemInput
	ActorID   *string
}

type CreateOrderItemInput struct {
	ProductID string
	Quantity  int
}

type TransitionInput struct {
	StoreID string
	OrderID string
	To      model.OrderStatus
	ActorID *string
}

type UpdateItemsInput struct {
	StoreID string
	OrderID string
	Items   []CreateOrderItemInput
}
