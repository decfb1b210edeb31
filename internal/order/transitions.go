package order

import "github.com/fekuna/omnipos-fulfillment-service/internal/model"

// StockEffect is the ledger side effect of a status transition.
type StockEffect int

const (
	// EffectNone leaves the ledger untouched.
	EffectNone StockEffect = iota
	// EffectCommit deducts every line item (movement type committed).
	EffectCommit
	// EffectRevert restores every line item (movement type reverted).
	EffectRevert
)

var statusRank = map[model.OrderStatus]int{
	model.OrderPending:       1,
	model.OrderConfirmed:     2,
	model.OrderInPreparation: 3,
	model.OrderReadyToShip:   4,
	model.OrderShipped:       5,
	model.OrderDelivered:     6,
}

// CanTransition reports whether from → to is a legal order transition.
//
// The main flow ranks pending < confirmed < in_preparation < ready_to_ship <
// shipped < delivered and permits movement in either direction; cancelled and
// rejected are reachable from every non-terminal state; returned only from
// the shipped or delivered states. Terminal states have no exits except
// delivered → returned.
func CanTransition(from, to model.OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}

	switch from {
	case model.OrderCancelled, model.OrderRejected, model.OrderReturned:
		return false
	case model.OrderDelivered:
		return to == model.OrderReturned
	}

	switch to {
	case model.OrderCancelled, model.OrderRejected:
		return true
	case model.OrderReturned:
		return from == model.OrderShipped
	}

	_, fromMain := statusRank[from]
	_, toMain := statusRank[to]
	return fromMain && toMain
}

// TransitionEffect returns the ledger side effect of a legal transition.
//
// Stock is deducted exactly once, on entering the committed zone
// (ready_to_ship and later), and restored exactly once, on leaving it,
// whether by cancellation, rejection or a step back to an earlier state.
// Entering returned carries no automatic effect: customer returns re-enter
// stock through explicit return movements, unit by unit, because returned
// goods are not always resellable.
func TransitionEffect(from, to model.OrderStatus) StockEffect {
	if to == model.OrderReturned {
		return EffectNone
	}
	switch {
	case !from.StockCommitted() && to.StockCommitted():
		return EffectCommit
	case from.StockCommitted() && !to.StockCommitted():
		return EffectRevert
	}
	return EffectNone
}
