package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// RouteRegistrar lets each domain handler attach its routes.
type RouteRegistrar interface {
	Register(mux *http.ServeMux)
}

type WebServer struct {
	server *http.Server
	logger logger.ZapLogger
}

func NewWebServer(addr string, log logger.ZapLogger, handlers ...RouteRegistrar) *WebServer {
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.Register(mux)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := auth.Middleware(requestLogger(log, mux))

	return &WebServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

func (ws *WebServer) Start() error {
	ws.logger.Info("Starting HTTP server", zap.String("addr", ws.server.Addr))
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.logger.Info("Shutting down HTTP server")
	return ws.server.Shutdown(ctx)
}

func requestLogger(log logger.ZapLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
