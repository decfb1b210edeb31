package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger"
	"github.com/fekuna/omnipos-fulfillment-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/server"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
)

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{uc: uc, logger: log}
}

func (h *LedgerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/stock/receipts", h.recordReceipt)
	mux.HandleFunc("POST /v1/stock/returns", h.recordReturn)
	mux.HandleFunc("GET /v1/stock", h.listStock)
	mux.HandleFunc("GET /v1/stock/{productID}", h.getSnapshot)
	mux.HandleFunc("GET /v1/movements", h.listMovements)
}

type receiptRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

func (h *LedgerHandler) recordReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	movement, err := h.uc.RecordReceipt(r.Context(), &dto.ReceiptInput{
		StoreID:   auth.GetStoreID(r.Context()),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, movement)
}

type returnRequest struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

func (h *LedgerHandler) recordReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	movement, err := h.uc.RecordReturn(r.Context(), &dto.ReturnInput{
		StoreID:   auth.GetStoreID(r.Context()),
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, movement)
}

func (h *LedgerHandler) listStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	products, total, err := h.uc.ListStock(r.Context(), auth.GetStoreID(r.Context()), page, pageSize)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteList(w, products, &server.Meta{Page: page, PageSize: pageSize, Total: total})
}

func (h *LedgerHandler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	product, err := h.uc.GetStockSnapshot(r.Context(),
		auth.GetStoreID(r.Context()), r.PathValue("productID"))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, product)
}

func (h *LedgerHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filters := &dto.MovementFilters{
		StoreID:   auth.GetStoreID(r.Context()),
		ProductID: q.Get("product_id"),
		OrderID:   q.Get("order_id"),
		Type:      q.Get("type"),
		Page:      page,
		PageSize:  pageSize,
	}
	if v := q.Get("clamped"); v != "" {
		clamped := v == "true"
		filters.Clamped = &clamped
	}

	movements, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteList(w, movements, &server.Meta{
		Page:     filters.Page,
		PageSize: filters.PageSize,
		Total:    total,
	})
}
