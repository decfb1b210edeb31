package model

import "testing"

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderPending, OrderConfirmed, OrderInPreparation, OrderReadyToShip,
		OrderShipped, OrderDelivered, OrderCancelled, OrderRejected, OrderReturned,
	} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "open", "READY_TO_SHIP"} {
		if s.Valid() {
			t.Errorf("%q must not be valid", s)
		}
	}
}

func TestOrderStatusStockCommitted(t *testing.T) {
	committed := map[OrderStatus]bool{
		OrderPending:       false,
		OrderConfirmed:     false,
		OrderInPreparation: false,
		OrderReadyToShip:   true,
		OrderShipped:       true,
		OrderDelivered:     true,
		OrderCancelled:     false,
		OrderRejected:      false,
		OrderReturned:      false,
	}
	for s, want := range committed {
		if got := s.StockCommitted(); got != want {
			t.Errorf("StockCommitted(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderPending:       false,
		OrderConfirmed:     false,
		OrderInPreparation: false,
		OrderReadyToShip:   false,
		OrderShipped:       false,
		OrderDelivered:     true,
		OrderCancelled:     true,
		OrderRejected:      true,
		OrderReturned:      true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestSessionStatusActive(t *testing.T) {
	active := map[SessionStatus]bool{
		SessionPicking:   true,
		SessionPacking:   true,
		SessionCompleted: false,
		SessionCancelled: false,
	}
	for s, want := range active {
		if got := s.Active(); got != want {
			t.Errorf("Active(%s) = %v, want %v", s, got, want)
		}
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	if SessionStatus("draft").Valid() {
		t.Error("unknown session status must not be valid")
	}
}

func TestMovementTypeValid(t *testing.T) {
	for _, m := range []MovementType{
		MovementCommitted, MovementRestored, MovementReverted,
		MovementExternalReceipt, MovementReturn,
	} {
		if !m.Valid() {
			t.Errorf("%s must be valid", m)
		}
	}
	if MovementType("adjustment").Valid() {
		t.Error("unknown movement type must not be valid")
	}
}

func TestPackingProgressComplete(t *testing.T) {
	cases := []struct {
		packed, needed int
		want           bool
	}{
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
		{0, 0, true},
	}
	for _, tc := range cases {
		p := PackingProgress{QuantityPacked: tc.packed, QuantityNeeded: tc.needed}
		if got := p.Complete(); got != tc.want {
			t.Errorf("Complete(%d/%d) = %v, want %v", tc.packed, tc.needed, got, tc.want)
		}
	}
}
