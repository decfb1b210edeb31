package allocator

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// ProcBackend delegates the whole increment to the increment_packing SQL
// function: one statement, all validations and row locks server-side.
type ProcBackend struct {
	DB *sqlx.DB
}

func NewProcBackend(db *sqlx.DB) *ProcBackend {
	return &ProcBackend{DB: db}
}

func (b *ProcBackend) Name() string { return "stored-procedure" }

func (b *ProcBackend) Increment(ctx context.Context, req *Request) (*model.PackingProgress, error) {
	var progress model.PackingProgress
	err := b.DB.GetContext(ctx, &progress,
		`SELECT * FROM increment_packing($1, $2, $3, $4)`,
		req.SessionID, req.OrderID, req.ProductID, req.By)
	if err != nil {
		if apperr.IsUndefinedFunction(err) {
			return nil, fmt.Errorf("%w: increment_packing not installed", ErrBackendUnavailable)
		}
		return nil, apperr.FromPG(err)
	}
	return &progress, nil
}
