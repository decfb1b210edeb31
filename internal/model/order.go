package model

import "time"

// OrderStatus is the order lifecycle state. The transition rules live in
// the order package; this type only enumerates the closed value set.
type OrderStatus string

const (
	OrderPending       OrderStatus = "pending"
	OrderConfirmed     OrderStatus = "confirmed"
	OrderInPreparation OrderStatus = "in_preparation"
	OrderReadyToShip   OrderStatus = "ready_to_ship"
	OrderShipped       OrderStatus = "shipped"
	OrderDelivered     OrderStatus = "delivered"
	OrderCancelled     OrderStatus = "cancelled"
	OrderRejected      OrderStatus = "rejected"
	OrderReturned      OrderStatus = "returned"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderInPreparation, OrderReadyToShip,
		OrderShipped, OrderDelivered, OrderCancelled, OrderRejected, OrderReturned:
		return true
	}
	return false
}

// Terminal reports whether the status ends the order's life.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCancelled, OrderRejected, OrderReturned, OrderDelivered:
		return true
	}
	return false
}

// StockCommitted reports whether stock has been deducted for an order in
// this status: ready_to_ship and every later shipping state.
func (s OrderStatus) StockCommitted() bool {
	switch s {
	case OrderReadyToShip, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

type Order struct {
	ID        string      `db:"id" json:"id"`
	StoreID   string      `db:"store_id" json:"store_id"`
	Reference string      `db:"reference" json:"reference"`
	Status    OrderStatus `db:"status" json:"status"`
	SessionID *string     `db:"session_id" json:"session_id"` // active session membership, nil when unbatched
	CreatedBy *string     `db:"created_by" json:"created_by"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
	Items     []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID        string `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}
