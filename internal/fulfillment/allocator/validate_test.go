package allocator

import (
	"strings"
	"testing"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

func validState() *State {
	sessionID := "sess-1"
	return &State{
		Session: &model.FulfillmentSession{
			ID:     "sess-1",
			Code:   "FS-20260831-0001",
			Status: model.SessionPacking,
		},
		Order: &model.Order{
			ID:        "order-1",
			Reference: "ORD-100",
			Status:    model.OrderInPreparation,
			SessionID: &sessionID,
		},
		Progress: &model.PackingProgress{
			ID:             "prog-1",
			SessionID:      "sess-1",
			OrderID:        "order-1",
			ProductID:      "prod-1",
			QuantityNeeded: 5,
			QuantityPacked: 2,
		},
		Line: &model.PickingLine{
			SessionID:      "sess-1",
			ProductID:      "prod-1",
			QuantityNeeded: 10,
			QuantityPicked: 10,
		},
		AggregatePacked: 4,
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := Validate(validState(), 3); err != nil {
		t.Fatalf("expected valid increment, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *State)
		by      int
		kind    apperr.Kind
		message string
	}{
		{
			name:   "zero increment",
			mutate: func(s *State) {},
			by:     0,
			kind:   apperr.KindStateConflict,
		},
		{
			name:   "negative increment",
			mutate: func(s *State) {},
			by:     -1,
			kind:   apperr.KindStateConflict,
		},
		{
			name:    "session still picking",
			mutate:  func(s *State) { s.Session.Status = model.SessionPicking },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "not packing",
		},
		{
			name:    "session cancelled",
			mutate:  func(s *State) { s.Session.Status = model.SessionCancelled },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "not packing",
		},
		{
			name:   "progress from another session",
			mutate: func(s *State) { s.Progress.SessionID = "sess-2" },
			by:     1,
			kind:   apperr.KindNotFound,
		},
		{
			name:    "order already ready_to_ship",
			mutate:  func(s *State) { s.Order.Status = model.OrderReadyToShip },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "already ready_to_ship",
		},
		{
			name:    "order shipped by direct dispatch",
			mutate:  func(s *State) { s.Order.Status = model.OrderShipped },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "already shipped",
		},
		{
			name:    "order cancelled",
			mutate:  func(s *State) { s.Order.Status = model.OrderCancelled },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "already cancelled",
		},
		{
			name:    "order detached from session",
			mutate:  func(s *State) { s.Order.SessionID = nil },
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "no longer in session",
		},
		{
			name: "order claimed by another session",
			mutate: func(s *State) {
				other := "sess-2"
				s.Order.SessionID = &other
			},
			by:      1,
			kind:    apperr.KindStateConflict,
			message: "no longer in session",
		},
		{
			name:    "beyond the order's need",
			mutate:  func(s *State) {},
			by:      4,
			kind:    apperr.KindStateConflict,
			message: "fully packed",
		},
		{
			name: "beyond the picked aggregate",
			mutate: func(s *State) {
				s.Line.QuantityPicked = 6
			},
			by:      3,
			kind:    apperr.KindStateConflict,
			message: "no more units available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validState()
			tt.mutate(s)
			err := Validate(s, tt.by)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := apperr.KindOf(err); got != tt.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tt.kind, got, err)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected message containing %q, got %q", tt.message, err.Error())
			}
		})
	}
}

// The exact boundary: packing up to the picked aggregate is legal, one past
// it is not.
func TestValidateAggregateBoundary(t *testing.T) {
	s := validState()
	s.AggregatePacked = 9
	s.Progress.QuantityPacked = 4

	if err := Validate(s, 1); err != nil {
		t.Fatalf("increment to the exact picked quantity should pass, got %v", err)
	}

	s.AggregatePacked = 10
	s.Progress.QuantityPacked = 4
	err := Validate(s, 1)
	if err == nil {
		t.Fatal("increment past the picked quantity should fail")
	}
	if !apperr.IsKind(err, apperr.KindStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
