package dto

import "github.com/fekuna/omnipos-fulfillment-service/internal/model"

// SessionDetail is the full operator view of one session.
type SessionDetail struct {
	Session      *model.FulfillmentSession `json:"session"`
	Orders       []model.Order             `json:"orders"`
	PickingLines []model.PickingLine       `json:"picking_lines"`
	Progress     []model.PackingProgress   `json:"progress"`
}

// PackResult reports one packing increment plus whether it completed the
// order's allocation.
type PackResult struct {
	Progress       *model.PackingProgress `json:"progress"`
	OrderCompleted bool                   `json:"order_completed"`
}
