package allocator

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// TxBackend reimplements the stored function as an explicit application
// transaction: the same validation sequence under the same row locks, just
// driven from Go.
type TxBackend struct {
	DB *sqlx.DB
}

func NewTxBackend(db *sqlx.DB) *TxBackend {
	return &TxBackend{DB: db}
}

func (b *TxBackend) Name() string { return "explicit-transaction" }

func (b *TxBackend) Increment(ctx context.Context, req *Request) (*model.PackingProgress, error) {
	tx, err := b.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	state, err := readStateLocked(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if err := Validate(state, req.By); err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, state.Progress, `
        UPDATE packing_progress
        SET quantity_packed = quantity_packed + $1, updated_at = now()
        WHERE id = $2
        RETURNING *
    `, req.By, state.Progress.ID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE fulfillment_sessions
        SET last_activity_at = now(), updated_at = now()
        WHERE id = $1
    `, req.SessionID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromPG(err)
	}
	return state.Progress, nil
}

// readStateLocked loads the validation state with row locks on the session,
// the progress row and its sibling picking line. Two concurrent callers on
// the same rows serialize here; the second sees the first's committed state.
func readStateLocked(ctx context.Context, tx *sqlx.Tx, req *Request) (*State, error) {
	var session model.FulfillmentSession
	err := tx.GetContext(ctx, &session, `
        SELECT * FROM fulfillment_sessions
        WHERE id = $1 AND store_id = $2
        FOR UPDATE
    `, req.SessionID, req.StoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "session %s not found", req.SessionID)
		}
		return nil, apperr.FromPG(err)
	}

	var progress model.PackingProgress
	err = tx.GetContext(ctx, &progress, `
        SELECT * FROM packing_progress
        WHERE session_id = $1 AND order_id = $2 AND product_id = $3
        FOR UPDATE
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
	err = tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %s not found", req.OrderID)
		}
		return nil, apperr.FromPG(err)
	}

	var line model.PickingLine
	err = tx.GetContext(ctx, &line, `
        SELECT * FROM picking_lines
        WHERE session_id = $1 AND product_id = $2
        FOR UPDATE
    `, req.SessionID, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound,
				"no picking line for product %s in session %s", req.ProductID, req.SessionID)
		}
		return nil, apperr.FromPG(err)
	}

	var aggregate int
	err = tx.GetContext(ctx, &aggregate, `
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
