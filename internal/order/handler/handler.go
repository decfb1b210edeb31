package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/model"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order"
	"github.com/fekuna/omnipos-fulfillment-service/internal/order/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/server"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/orders", h.create)
	mux.HandleFunc("GET /v1/orders", h.list)
	mux.HandleFunc("GET /v1/orders/{orderID}", h.get)
	mux.HandleFunc("POST /v1/orders/{orderID}/transition", h.transition)
	mux.HandleFunc("PUT /v1/orders/{orderID}/items", h.updateItems)
	mux.HandleFunc("DELETE /v1/orders/{orderID}", h.delete)
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Reference string        `json:"reference"`
	Status    string        `json:"status"`
	Items     []itemRequest `json:"items"`
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	items := make([]dto.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, dto.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.uc.Create(r.Context(), &dto.CreateOrderInput{
		StoreID:   auth.GetStoreID(r.Context()),
		Reference: req.Reference,
		Status:    model.OrderStatus(req.Status),
		Items:     items,
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.Get(r.Context(), auth.GetStoreID(r.Context()), r.PathValue("orderID"))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	orders, total, err := h.uc.List(r.Context(),
		auth.GetStoreID(r.Context()), model.OrderStatus(q.Get("status")), page, pageSize)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteList(w, orders, &server.Meta{Page: page, PageSize: pageSize, Total: total})
}

type transitionRequest struct {
	To string `json:"to"`
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	o, err := h.uc.Transition(r.Context(), &dto.TransitionInput{
		StoreID: auth.GetStoreID(r.Context()),
		OrderID: r.PathValue("orderID"),
		To:      model.OrderStatus(req.To),
		ActorID: auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

type updateItemsRequest struct {
	Items []itemRequest `json:"items"`
}

func (h *OrderHandler) updateItems(w http.ResponseWriter, r *http.Request) {
	var req updateItemsRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	items := make([]dto.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, dto.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.uc.UpdateItems(r.Context(), &dto.UpdateItemsInput{
		StoreID: auth.GetStoreID(r.Context()),
		OrderID: r.PathValue("orderID"),
		Items:   items,
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.uc.Delete(r.Context(), auth.GetStoreID(r.Context()), r.PathValue("orderID"))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
