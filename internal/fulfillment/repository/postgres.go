package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// CreateSession claims the member orders, generates the session code and
// builds the picking lines in one transaction. Order rows are locked before
// eligibility checks so two concurrent sessions cannot double-book an order.
func (r *PGRepository) CreateSession(ctx context.Context, storeID string, orderIDs []string, createdBy *string) (*model.FulfillmentSession, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	code, err := nextSessionCode(ctx, tx, storeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.FulfillmentSession{
		ID:             uuid.New().String(),
		StoreID:        storeID,
		Code:           code,
		Status:         model.SessionPicking,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}
	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO fulfillment_sessions (
            id, store_id, code, status, created_by, created_at, updated_at, last_activity_at
        )
        VALUES (
            :id, :store_id, :code, :status, :created_by, :created_at, :updated_at, :last_activity_at
        )
    `, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", apperr.FromPG(err))
	}

	for _, orderID := range orderIDs {
		var o model.Order
		err = tx.GetContext(ctx, &o,
			`SELECT * FROM orders WHERE id = $1 AND store_id = $2 FOR UPDATE`,
			orderID, storeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
			}
			return nil, apperr.FromPG(err)
		}

		if o.Status != model.OrderConfirmed {
			return nil, apperr.Newf(apperr.KindStateConflict,
				"order %s is %s, not eligible for fulfillment", o.Reference, o.Status)
		}
		if o.SessionID != nil {
			return nil, apperr.Newf(apperr.KindStateConflict,
				"order %s is already in an active session", o.Reference)
		}

		_, err = tx.ExecContext(ctx, `
            UPDATE orders SET status = $1, session_id = $2, updated_at = $3 WHERE id = $4
        `, model.OrderInPreparation, session.ID, now, orderID)
		if err != nil {
			return nil, apperr.FromPG(err)
		}

		_, err = tx.ExecContext(ctx, `
            INSERT INTO session_orders (session_id, order_id, added_at) VALUES ($1, $2, $3)
        `, session.ID, orderID, now)
		if err != nil {
			return nil, apperr.FromPG(err)
		}
	}

	// Aggregate demand per product across every member order.
	query, args, err := sqlx.In(`
        SELECT product_id, SUM(quantity) AS quantity
        FROM order_items WHERE order_id IN (?)
        GROUP BY product_id ORDER BY product_id
    `, orderIDs)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var demand []struct {
		ProductID string `db:"product_id"`
		Quantity  int    `db:"quantity"`
	}
	if err := tx.SelectContext(ctx, &demand, query, args...); err != nil {
		return nil, apperr.FromPG(err)
	}

	for _, d := range demand {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO picking_lines (id, session_id, product_id, quantity_needed, quantity_picked, updated_at)
            VALUES ($1, $2, $3, $4, 0, $5)
        `, uuid.New().String(), session.ID, d.ProductID, d.Quantity, now)
		if err != nil {
			return nil, apperr.FromPG(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromPG(err)
	}
	return session, nil
}

// nextSessionCode allocates a date-bucketed sequential code. The advisory
// lock serializes concurrent allocations for the same store and day, so two
// sessions can never draw the same sequence number.
func nextSessionCode(ctx context.Context, tx *sqlx.Tx, storeID string) (string, error) {
	// One instant drives the counter bucket, the advisory lock key and the
	// code's date, so an allocation straddling midnight stays consistent.
	now := time.Now()
	bucket := sessionCodeBucket(now)

	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, storeID+":"+bucket)
	if err != nil {
		return "", apperr.FromPG(err)
	}

	var seq int
	err = tx.GetContext(ctx, &seq, `
        INSERT INTO session_code_counters (store_id, bucket_date, last_seq)
        VALUES ($1, $2, 1)
        ON CONFLICT (store_id, bucket_date)
        DO UPDATE SET last_seq = session_code_counters.last_seq + 1
        RETURNING last_seq
    `, storeID, bucket)
	if err != nil {
		return "", apperr.FromPG(err)
	}

	return formatSessionCode(now, seq), nil
}

func sessionCodeBucket(now time.Time) string {
	return now.Format("2006-01-02")
}

func formatSessionCode(now time.Time, seq int) string {
	return fmt.Sprintf("FS-%s-%04d", now.Format("20060102"), seq)
}

func (r *PGRepository) GetSession(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, error) {
	var session model.FulfillmentSession
	err := r.DB.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 AND store_id = $2`,
		sessionID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "session %s not found", sessionID)
		}
		return nil, apperr.FromPG(err)
	}
	return &session, nil
}

func (r *PGRepository) GetSessionDetail(ctx context.Context, storeID, sessionID string) (*model.FulfillmentSession, []model.Order, []model.PickingLine, []model.PackingProgress, error) {
	session, err := r.GetSession(ctx, storeID, sessionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// Membership lives on orders.session_id; session_orders only records
	// when an order joined and survives detachment for audit.
	orders := []model.Order{}
	err = r.DB.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE session_id = $1 ORDER BY reference`, sessionID)
	if err != nil {
		return nil, nil, nil, nil, apperr.FromPG(err)
	}

	lines := []model.PickingLine{}
	err = r.DB.SelectContext(ctx, &lines,
		`SELECT * FROM picking_lines WHERE session_id = $1 ORDER BY product_id`, sessionID)
	if err != nil {
		return nil, nil, nil, nil, apperr.FromPG(err)
	}

	progress := []model.PackingProgress{}
	err = r.DB.SelectContext(ctx, &progress,
		`SELECT * FROM packing_progress WHERE session_id = $1 ORDER BY order_id, product_id`, sessionID)
	if err != nil {
		return nil, nil, nil, nil, apperr.FromPG(err)
	}

	return session, orders, lines, progress, nil
}

func (r *PGRepository) AddPicked(ctx context.Context, storeID, sessionID, productID string, by int) (*model.PickingLine, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var session model.FulfillmentSession
	err = tx.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 AND store_id = $2 FOR UPDATE`,
		sessionID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "session %s not found", sessionID)
		}
		return nil, apperr.FromPG(err)
	}
	if session.Status != model.SessionPicking {
		return nil, apperr.Newf(apperr.KindStateConflict,
			"session %s is %s, not picking", session.Code, session.Status)
	}

	var line model.PickingLine
	err = tx.GetContext(ctx, &line, `
        SELECT * FROM picking_lines
        WHERE session_id = $1 AND product_id = $2
        FOR UPDATE
    `, sessionID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound,
				"no picking line for product %s in session %s", productID, sessionID)
		}
		return nil, apperr.FromPG(err)
	}

	err = tx.GetContext(ctx, &line, `
        UPDATE picking_lines
        SET quantity_picked = quantity_picked + $1, updated_at = now()
        WHERE id = $2
        RETURNING *
    `, by, line.ID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE fulfillment_sessions SET last_activity_at = now(), updated_at = now() WHERE id = $1
    `, sessionID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromPG(err)
	}
	return &line, nil
}

func (r *PGRepository) StartPacking(ctx context.Context, storeID, sessionID string, acceptPartial bool) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var session model.FulfillmentSession
	err = tx.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 AND store_id = $2 FOR UPDATE`,
		sessionID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Newf(apperr.KindNotFound, "session %s not found", sessionID)
		}
		return apperr.FromPG(err)
	}
	if session.Status != model.SessionPicking {
		return apperr.Newf(apperr.KindStateConflict,
			"session %s is %s, not picking", session.Code, session.Status)
	}

	if !acceptPartial {
		var short []string
		err = tx.SelectContext(ctx, &short, `
            SELECT product_id FROM picking_lines
            WHERE session_id = $1 AND quantity_picked < quantity_needed
            ORDER BY product_id
        `, sessionID)
		if err != nil {
			return apperr.FromPG(err)
		}
		if len(short) > 0 {
			return apperr.Newf(apperr.KindStateConflict,
				"session %s has %d under-picked products; pick the remainder or accept partial",
				session.Code, len(short))
		}
	}

	// One progress row per (order, product), needed copied from the line
	// items as they stand at the picking/packing boundary. Membership comes
	// from orders.session_id so detached orders get no rows.
	_, err = tx.ExecContext(ctx, `
        INSERT INTO packing_progress (id, session_id, order_id, product_id, quantity_needed, quantity_packed, updated_at)
        SELECT gen_random_uuid()::text, $1, oi.order_id, oi.product_id, oi.quantity, 0, now()
        FROM order_items oi
        JOIN orders o ON o.id = oi.order_id AND o.session_id = $1
    `, sessionID)
	if err != nil {
		return apperr.FromPG(err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE fulfillment_sessions
        SET status = $1, last_activity_at = now(), updated_at = now()
        WHERE id = $2
    `, model.SessionPacking, sessionID)
	if err != nil {
		return apperr.FromPG(err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

func (r *PGRepository) ListOrderProgress(ctx context.Context, sessionID, orderID string) ([]model.PackingProgress, error) {
	progress := []model.PackingProgress{}
	err := r.DB.SelectContext(ctx, &progress, `
        SELECT * FROM packing_progress
        WHERE session_id = $1 AND order_id = $2
        ORDER BY product_id
    `, sessionID, orderID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return progress, nil
}

func (r *PGRepository) ListAvailable(ctx context.Context, sessionID, orderID string) ([]fulfillment.ProductAvailability, error) {
	availability := []fulfillment.ProductAvailability{}
	err := r.DB.SelectContext(ctx, &availability, `
        SELECT
            pp.product_id,
            pp.quantity_needed,
            pp.quantity_packed,
            pl.quantity_picked,
            agg.aggregate_packed
        FROM packing_progress pp
        JOIN picking_lines pl
            ON pl.session_id = pp.session_id AND pl.product_id = pp.product_id
        JOIN LATERAL (
            SELECT COALESCE(SUM(quantity_packed), 0) AS aggregate_packed
            FROM packing_progress
            WHERE session_id = pp.session_id AND product_id = pp.product_id
        ) agg ON true
        WHERE pp.session_id = $1 AND pp.order_id = $2
        ORDER BY pp.product_id
    `, sessionID, orderID)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return availability, nil
}

func (r *PGRepository) Abandon(ctx context.Context, storeID, sessionID string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var session model.FulfillmentSession
	err = tx.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 AND store_id = $2 FOR UPDATE`,
		sessionID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Newf(apperr.KindNotFound, "session %s not found", sessionID)
		}
		return apperr.FromPG(err)
	}
	if !session.Status.Active() {
		return apperr.Newf(apperr.KindStateConflict,
			"session %s is already %s", session.Code, session.Status)
	}

	// Members still in preparation go back to confirmed, their pre-session
	// status. Orders that already left the session were detached on their
	// own transitions.
	_, err = tx.ExecContext(ctx, `
        UPDATE orders
        SET status = $1, session_id = NULL, updated_at = now()
        WHERE session_id = $2 AND status = $3
    `, model.OrderConfirmed, sessionID, model.OrderInPreparation)
	if err != nil {
		return apperr.FromPG(err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE fulfillment_sessions
        SET status = $1, last_activity_at = now(), updated_at = now()
        WHERE id = $2
    `, model.SessionCancelled, sessionID)
	if err != nil {
		return apperr.FromPG(err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

// DetachOrder runs on the caller's transaction, with the order row already
// locked by the caller. Emptying the session of active orders closes it:
// completed when any packing happened, cancelled otherwise.
func (r *PGRepository) DetachOrder(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	var sessionID *string
	err := tx.GetContext(ctx, &sessionID,
		`SELECT session_id FROM orders WHERE id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
		}
		return apperr.FromPG(err)
	}
	if sessionID == nil {
		return nil
	}

	var session model.FulfillmentSession
	err = tx.GetContext(ctx, &session,
		`SELECT * FROM fulfillment_sessions WHERE id = $1 FOR UPDATE`, *sessionID)
	if err != nil {
		return apperr.FromPG(err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET session_id = NULL, updated_at = now() WHERE id = $1`, orderID)
	if err != nil {
		return apperr.FromPG(err)
	}

	if !session.Status.Active() {
		return nil
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining,
		`SELECT COUNT(*) FROM orders WHERE session_id = $1`, session.ID)
	if err != nil {
		return apperr.FromPG(err)
	}
	if remaining > 0 {
		_, err = tx.ExecContext(ctx, `
            UPDATE fulfillment_sessions SET last_activity_at = now(), updated_at = now() WHERE id = $1
        `, session.ID)
		return apperr.FromPG(err)
	}

	var anyPacked bool
	err = tx.GetContext(ctx, &anyPacked, `
        SELECT EXISTS (
            SELECT 1 FROM packing_progress WHERE session_id = $1 AND quantity_packed > 0
        )
    `, session.ID)
	if err != nil {
		return apperr.FromPG(err)
	}

	final := model.SessionCancelled
	if anyPacked {
		final = model.SessionCompleted
	}
	_, err = tx.ExecContext(ctx, `
        UPDATE fulfillment_sessions
        SET status = $1, last_activity_at = now(), updated_at = now()
        WHERE id = $2
    `, final, session.ID)
	return apperr.FromPG(err)
}

func (r *PGRepository) ListStale(ctx context.Context, storeID string, olderThan time.Duration) ([]model.FulfillmentSession, error) {
	sessions := []model.FulfillmentSession{}
	err := r.DB.SelectContext(ctx, &sessions, `
        SELECT * FROM fulfillment_sessions
        WHERE store_id = $1
          AND status IN ($2, $3)
          AND last_activity_at < now() - $4::interval
        ORDER BY last_activity_at
    `, storeID, model.SessionPicking, model.SessionPacking,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return sessions, nil
}
