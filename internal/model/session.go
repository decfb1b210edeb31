package model

import "time"

// SessionStatus is the fulfillment session lifecycle state.
type SessionStatus string

const (
	SessionPicking   SessionStatus = "picking"
	SessionPacking   SessionStatus = "packing"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPicking, SessionPacking, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Active reports whether the session still accepts work.
func (s SessionStatus) Active() bool {
	return s == SessionPicking || s == SessionPacking
}

// FulfillmentSession batches orders for simultaneous picking and packing.
// Sessions are never deleted, only transitioned; the rows stay for audit.
type FulfillmentSession struct {
	ID             string        `db:"id" json:"id"`
	StoreID        string        `db:"store_id" json:"store_id"`
	Code           string        `db:"code" json:"code"`
	Status         SessionStatus `db:"status" json:"status"`
	CreatedBy      *string       `db:"created_by" json:"created_by"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	LastActivityAt time.Time     `db:"last_activity_at" json:"last_activity_at"`
}

// SessionOrder links an order to a session. The orders.session_id column
// marks the active membership; these rows are kept after the session ends
// so the audit trail survives order removal.
type SessionOrder struct {
	SessionID string    `db:"session_id" json:"session_id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// PickingLine is the aggregated demand for one product across every order
// in a session. quantity_picked tracks the physically recovered units and
// is independent of any single order.
type PickingLine struct {
	ID             string    `db:"id" json:"id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	QuantityNeeded int       `db:"quantity_needed" json:"quantity_needed"`
	QuantityPicked int       `db:"quantity_picked" json:"quantity_picked"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PackingProgress tracks the allocation of picked units to one order. The
// aggregate of quantity_packed across a session's orders never exceeds the
// sibling picking line's quantity_picked.
type PackingProgress struct {
	ID             string    `db:"id" json:"id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	OrderID        string    `db:"order_id" json:"order_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	QuantityNeeded int       `db:"quantity_needed" json:"quantity_needed"`
	QuantityPacked int       `db:"quantity_packed" json:"quantity_packed"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Complete reports whether this order/product pair is fully allocated.
func (p PackingProgress) Complete() bool {
	return p.QuantityPacked >= p.QuantityNeeded
}
