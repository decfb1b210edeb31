package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
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

func (r *PGRepository) Apply(ctx context.Context, input *dto.ApplyInput) (*model.InventoryMovement, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	movement, err := r.ApplyWithTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.FromPG(err)
	}
	return movement, nil
}

// ApplyWithTx locks the product row, computes the new stock, writes the
// movement record and updates the product, all on the caller's transaction.
// Decrements clamp at zero; the shortfall is recorded on the movement so
// the delta sum always matches the stock change.
func (r *PGRepository) ApplyWithTx(ctx context.Context, tx *sqlx.Tx, input *dto.ApplyInput) (*model.InventoryMovement, error) {
	if input.Delta == 0 {
		return nil, apperr.New(apperr.KindStateConflict, "stock delta must be non-zero")
	}
	if !input.Type.Valid() {
		return nil, apperr.Newf(apperr.KindStateConflict, "unknown movement type %q", input.Type)
	}

	var product model.Product
	err := tx.GetContext(ctx, &product,
		`SELECT * FROM products WHERE id = $1 AND store_id = $2 FOR UPDATE`,
		input.ProductID, input.StoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "product %s not found", input.ProductID)
		}
		return nil, apperr.FromPG(err)
	}

	stockBefore := product.Stock
	stockAfter := stockBefore + input.Delta
	clamped := false
	if input.Delta < 0 && stockAfter < 0 {
		// Historical drift tolerance: cut the decrement short instead of
		// failing, but flag it for the operators.
		stockAfter = 0
		clamped = true
	}

	now := time.Now()
	movement := &model.InventoryMovement{
		ID:           uuid.New().String(),
		StoreID:      input.StoreID,
		ProductID:    input.ProductID,
		OrderID:      input.OrderID,
		MovementType: input.Type,
		Delta:        stockAfter - stockBefore,
		StockBefore:  stockBefore,
		StockAfter:   stockAfter,
		Clamped:      clamped,
		Notes:        input.Notes,
		CreatedBy:    input.ActorID,
		CreatedAt:    now,
	}

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO inventory_movements (
            id, store_id, product_id, order_id, movement_type,
            delta, stock_before, stock_after, clamped, notes, created_by, created_at
        )
        VALUES (
            :id, :store_id, :product_id, :order_id, :movement_type,
            :delta, :stock_before, :stock_after, :clamped, :notes, :created_by, :created_at
        )
    `, movement)
	if err != nil {
		return nil, fmt.Errorf("failed to log movement: %w", apperr.FromPG(err))
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET stock = $1, updated_at = $2 WHERE id = $3`,
		stockAfter, now, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", apperr.FromPG(err))
	}

	return movement, nil
}

func (r *PGRepository) GetProduct(ctx context.Context, storeID, productID string) (*model.Product, error) {
	var product model.Product
	err := r.DB.GetContext(ctx, &product,
		`SELECT * FROM products WHERE id = $1 AND store_id = $2`, productID, storeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "product %s not found", productID)
		}
		return nil, apperr.FromPG(err)
	}
	return &product, nil
}

func (r *PGRepository) ListProducts(ctx context.Context, storeID string, page, pageSize int) ([]model.Product, int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM products WHERE store_id = $1`, storeID)
	if err != nil {
		return nil, 0, apperr.FromPG(err)
	}

	products := []model.Product{}
	err = r.DB.SelectContext(ctx, &products, `
        SELECT * FROM products WHERE store_id = $1
        ORDER BY sku LIMIT $2 OFFSET $3
    `, storeID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperr.FromPG(err)
	}
	return products, count, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.OrderID != "" {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.Type != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.Type
	}
	if f.Clamped != nil {
		conditions = append(conditions, "clamped = :clamped")
		args["clamped"] = *f.Clamped
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM inventory_movements` + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, apperr.FromPG(err)
	}
	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	args["limit"] = f.PageSize
	args["offset"] = (f.Page - 1) * f.PageSize
	listQuery := `SELECT * FROM inventory_movements` + whereClause +
		` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	movements := []model.InventoryMovement{}
	rows, err = r.DB.NamedQueryContext(ctx, listQuery, args)
	if err != nil {
		return nil, 0, apperr.FromPG(err)
	}
	defer rows.Close()
	for rows.Next() {
		var m model.InventoryMovement
		if err := rows.StructScan(&m); err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, count, rows.Err()
}
