package allocator

import (
	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
)

// State is everything an increment decision needs, read under whatever
// consistency the backend provides.
type State struct {
	Session  *model.FulfillmentSession
	Order    *model.Order
	Progress *model.PackingProgress
	Line     *model.PickingLine
	// AggregatePacked is the sum of quantity_packed across all orders for
	// this (session, product), including the target row.
	AggregatePacked int
}

// Validate is the single validation contract every backend enforces. The
// stored function mirrors this sequence in SQL; the transactional and
// optimistic backends call it directly. Correctness must not depend on
// which backend runs.
func Validate(s *State, by int) error {
	if by <= 0 {
		return apperr.New(apperr.KindStateConflict, "increment must be positive")
	}

	if s.Session.Status != model.SessionPacking {
		return apperr.Newf(apperr.KindStateConflict,
			"session %s is %s, not packing", s.Session.Code, s.Session.Status)
	}

	if s.Progress.SessionID != s.Session.ID {
		return apperr.Newf(apperr.KindNotFound,
			"packing progress %s does not belong to session %s", s.Progress.ID, s.Session.ID)
	}

	if s.Order.Status.StockCommitted() || s.Order.Status.Terminal() {
		return apperr.Newf(apperr.KindStateConflict,
			"order %s is already %s", s.Order.Reference, s.Order.Status)
	}

	// A detached order may have joined another session by now; its leftover
	// progress rows must not absorb this session's picked units.
	if s.Order.SessionID == nil || *s.Order.SessionID != s.Session.ID {
		return apperr.Newf(apperr.KindStateConflict,
			"order %s is no longer in session %s", s.Order.Reference, s.Session.Code)
	}

	if s.Progress.QuantityPacked+by > s.Progress.QuantityNeeded {
		return apperr.Newf(apperr.KindStateConflict,
			"order %s already fully packed for product %s (%d of %d packed)",
			s.Order.Reference, s.Progress.ProductID,
			s.Progress.QuantityPacked, s.Progress.QuantityNeeded)
	}

	if s.AggregatePacked+by > s.Line.QuantityPicked {
		return apperr.Newf(apperr.KindStateConflict,
			"no more units available for product %s (%d picked, %d packed)",
			s.Progress.ProductID, s.Line.QuantityPicked, s.AggregatePacked)
	}

	return nil
}
