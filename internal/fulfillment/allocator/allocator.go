package allocator

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// ErrBackendUnavailable marks a backend that cannot run in this deployment
// (for example, the stored function is not installed). The chain moves on to
// the next backend; every other error is final.
var ErrBackendUnavailable = errors.New("allocator backend unavailable")

type Request struct {
	StoreID   string
	SessionID string
	OrderID   string
	ProductID string
	By        int
}

// Backend performs one validated packing increment atomically.
type Backend interface {
	Name() string
	Increment(ctx context.Context, req *Request) (*model.PackingProgress, error)
}

// Chain tries backends in order, falling through only on
// ErrBackendUnavailable. All backends enforce the identical validation
// contract (Validate), so the result is the same whichever one runs.
type Chain struct {
	backends []Backend
	logger   logger.ZapLogger
}

func NewChain(log logger.ZapLogger, backends ...Backend) *Chain {
	return &Chain{backends: backends, logger: log}
}

func (c *Chain) Increment(ctx context.Context, req *Request) (*model.PackingProgress, error) {
	var lastErr error
	for _, backend := range c.backends {
		progress, err := backend.Increment(ctx, req)
		if err == nil {
			return progress, nil
		}
		if !errors.Is(err, ErrBackendUnavailable) {
			return nil, err
		}
		c.logger.Warn("Allocator backend unavailable, falling back",
			zap.String("backend", backend.Name()),
			zap.Error(err),
		)
		lastErr = err
	}
	return nil, lastErr
}
