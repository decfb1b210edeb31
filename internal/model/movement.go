package model

import "time"

// MovementType is the cause of a stock change.
type MovementType string

const (
	// MovementCommitted is the deduction when an order reaches ready_to_ship.
	MovementCommitted MovementType = "committed"
	// MovementRestored is a generic restoration outside the order flow.
	MovementRestored MovementType = "restored"
	// MovementReverted undoes a committed deduction (cancellation or a step
	// back out of the shipping states).
	MovementReverted MovementType = "reverted"
	// MovementExternalReceipt is incoming stock from a supplier delivery.
	MovementExternalReceipt MovementType = "external_receipt"
	// MovementReturn is a customer return re-entering stock.
	MovementReturn MovementType = "return"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementCommitted, MovementRestored, MovementReverted,
		MovementExternalReceipt, MovementReturn:
		return true
	}
	return false
}

// InventoryMovement is an append-only audit record. Rows are written exactly
// once per net stock change and never updated or deleted.
type InventoryMovement struct {
	ID           string       `db:"id" json:"id"`
	StoreID      string       `db:"store_id" json:"store_id"`
	ProductID    string       `db:"product_id" json:"product_id"`
	OrderID      *string      `db:"order_id" json:"order_id"`
	MovementType MovementType `db:"movement_type" json:"movement_type"`
	Delta        int          `db:"delta" json:"delta"`
	StockBefore  int          `db:"stock_before" json:"stock_before"`
	StockAfter   int          `db:"stock_after" json:"stock_after"`
	// Clamped marks a decrement that was cut short at zero instead of
	// driving stock negative. Operators use it to detect data drift.
	Clamped   bool      `db:"clamped" json:"clamped"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedBy *string   `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
