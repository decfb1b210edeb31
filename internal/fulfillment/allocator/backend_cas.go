package allocator

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// CASBackend is the last-resort optimistic path: read without locks, run the
// shared validations client-side, then write conditioned on quantity_packed
// being unchanged since the read. A zero-row update means another worker got
// there first and surfaces as a concurrent-update error for the caller to
// retry.
type CASBackend struct {
	DB *sqlx.DB
}

func NewCASBackend(db *sqlx.DB) *CASBackend {
	return &CASBackend{DB: db}
}

func (b *CASBackend) Name() string { return "optimistic-cas" }

func (b *CASBackend) Increment(ctx context.Context, req *Request) (*model.PackingProgress, error) {
	state, err := b.readState(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := Validate(state, req.By); err != nil {
		return nil, err
	}

	expected := state.Progress.QuantityPacked
	var updated model.PackingProgress
	err = b.DB.GetContext(ctx, &updated, `
        UPDATE packing_progress
        SET quantity_packed = quantity_packed + $1, updated_at = now()
        WHERE id = $2 AND quantity_packed = $3
        RETURNING *
    `, req.By, state.Progress.ID, expected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindConcurrentUpdate,
				"packing progress for order %s product %s changed concurrently, retry",
				req.OrderID, req.ProductID)
		}
		return nil, apperr.FromPG(err)
	}

	_, err = b.DB.ExecContext(ctx, `
        UPDATE fulfillment_sessions
        SET last_activity_at = now(), updated_at = now()
        WHERE id = $1
    `, req.SessionID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	return &updated, nil
}

func (b *CASBackend) readState(ctx context.Context, req *Request) (*State, error) {
	var session model.FulfillmentSession
	err := b.DB.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 AND store_id = $2`,
		req.SessionID, req.StoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "session %s not found", req.SessionID)
		}
		return nil, apperr.FromPG(err)
	}

	var progress model.PackingProgress
	err = b.DB.GetContext(ctx, &progress, `
        SELECT * FROM packing_progress
        WHERE session_id = $1 AND order_id = $2 AND product_id = $3
    `, req.SessionID, req.OrderID, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound,
				"no packing progress for order %s product %s in session %s",
				req.OrderID, req.ProductID, req.SessionID)
		}
		return nil, apperr.FromPG(err)
	}

	var order model.Order
	err = b.DB.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %s not found", req.OrderID)
		}
		return nil, apperr.FromPG(err)
	}

	var line model.PickingLine
	err = b.DB.GetContext(ctx, &line, `
        SELECT * FROM picking_lines WHERE session_id = $1 AND product_id = $2
    `, req.SessionID, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound,
				"no picking line for product %s in session %s", req.ProductID, req.SessionID)
		}
		return nil, apperr.FromPG(err)
	}

	var aggregate int
	err = b.DB.GetContext(ctx, &aggregate, `
        SELECT COALESCE(SUM(quantity_packed), 0) FROM packing_progress
        WHERE session_id = $1 AND product_id = $2
    `, req.SessionID, req.ProductID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	return &State{
		Session:         &session,
		Order:           &order,
		Progress:        &progress,
		Line:            &line,
		AggregatePacked: aggregate,
	}, nil
}
