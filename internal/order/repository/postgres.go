package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	return tx, nil
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

func (r *PGRepository) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO orders (id, store_id, reference, status, created_by, created_at, updated_at)
        VALUES (:id, :store_id, :reference, :status, :created_by, :created_at, :updated_at)
    `, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", apperr.FromPG(err))
	}

	for i := range order.Items {
		_, err = tx.NamedExecContext(ctx, `
            INSERT INTO order_items (id, order_id, product_id, quantity)
            VALUES (:id, :order_id, :product_id, :quantity)
        `, &order.Items[i])
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", apperr.FromPG(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, storeID, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.DB.GetContext(ctx, &order,
		`SELECT * FROM orders WHERE id = $1 AND store_id = $2`, orderID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
		}
		return nil, apperr.FromPG(err)
	}

	if err := r.loadItems(ctx, r.DB, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGRepository) List(ctx context.Context, storeID string, status model.OrderStatus, page, pageSize int) ([]model.Order, int, error) {
	query := `SELECT * FROM orders WHERE store_id = $1`
	countQuery := `SELECT COUNT(*) FROM orders WHERE store_id = $1`
	args := []interface{}{storeID}

	if status != "" {
		query += ` AND status = $2`
		countQuery += ` AND status = $2`
		args = append(args, status)
	}

	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, apperr.FromPG(err)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, (page-1)*pageSize)
	orders := []model.Order{}
	if err := r.DB.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, apperr.FromPG(err)
	}
	return orders, count, nil
}

func (r *PGRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, storeID, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.GetContext(ctx, &order,
		`SELECT * FROM orders WHERE id = $1 AND store_id = $2 FOR UPDATE`, orderID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
		}
		return nil, apperr.FromPG(err)
	}

	if err := r.loadItems(ctx, tx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, orderID string, status model.OrderStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", apperr.FromPG(err))
	}
	return nil
}

func (r *PGRepository) HasCommittedMovement(ctx context.Context, tx *sqlx.Tx, orderID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
        SELECT EXISTS (
            SELECT 1 FROM inventory_movements
            WHERE order_id = $1 AND movement_type = $2
        )
    `, orderID, model.MovementCommitted)
	if err != nil {
		return false, apperr.FromPG(err)
	}
	return exists, nil
}

func (r *PGRepository) ReplaceItems(ctx context.Context, tx *sqlx.Tx, orderID string, items []model.OrderItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return apperr.FromPG(err)
	}
	for i := range items {
		_, err := tx.NamedExecContext(ctx, `
            INSERT INTO order_items (id, order_id, product_id, quantity)
            VALUES (:id, :order_id, :product_id, :quantity)
        `, &items[i])
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", apperr.FromPG(err))
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return apperr.FromPG(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

type itemLoader interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *PGRepository) loadItems(ctx context.Context, q itemLoader, order *model.Order) error {
	items := []model.OrderItem{}
	err := q.SelectContext(ctx, &items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id`, order.ID)
	if err != nil {
		return apperr.FromPG(err)
	}
	order.Items = items
	return nil
}
