package dto

import "github.com/fekuna/omnipos-fulfillment-service/internal/model"

// ApplyInput is one stock mutation request. Delta is signed: negative for
// commits, positive for restorations and receipts.
type ApplyInput struct {
	StoreID   string
	ProductID string
	Delta     int
	Type      model.MovementType
	OrderID   *string
	Notes     string
	ActorID   *string
}

type ReceiptInput struct {
	StoreID   string
	ProductID string
	Quantity  int
	Notes     string
	ActorID   *string
}

type ReturnInput struct {
	StoreID   string
	ProductID string
	OrderID   string
	Quantity  int
	Notes     string
	ActorID   *string
}
