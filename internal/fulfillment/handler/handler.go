package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-fulfillment-service/internal/auth"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment"
	"github.com/fekuna/omnipos-fulfillment-service/internal/fulfillment/dto"
	"github.com/fekuna/omnipos-fulfillment-service/internal/server"
	"github.com/fekuna/omnipos-fulfillment-service/pkg/logger"
)

type FulfillmentHandler struct {
	uc     fulfillment.UseCase
	logger logger.ZapLogger
}

func NewFulfillmentHandler(uc fulfillment.UseCase, log logger.ZapLogger) *FulfillmentHandler {
	return &FulfillmentHandler{uc: uc, logger: log}
}

func (h *FulfillmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", h.createSession)
	mux.HandleFunc("GET /v1/sessions/stale", h.listStale)
	mux.HandleFunc("GET /v1/sessions/{sessionID}", h.getSession)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/picks", h.recordPick)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/start-packing", h.startPacking)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/pack", h.pack)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/orders/{orderID}/pack-all", h.packAll)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/abandon", h.abandon)
}

type createSessionRequest struct {
	OrderIDs []string `json:"order_ids"`
}

func (h *FulfillmentHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	session, err := h.uc.CreateSession(r.Context(), &dto.CreateSessionInput{
		StoreID:  auth.GetStoreID(r.Context()),
		OrderIDs: req.OrderIDs,
		ActorID:  auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, session)
}

func (h *FulfillmentHandler) getSession(w http.ResponseWriter, r *http.Request) {
	detail, err := h.uc.GetSession(r.Context(),
		auth.GetStoreID(r.Context()), r.PathValue("sessionID"))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, detail)
}

type pickRequest struct {
	ProductID string `json:"product_id"`
	By        int    `json:"by"`
}

func (h *FulfillmentHandler) recordPick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	line, err := h.uc.RecordPick(r.Context(), &dto.PickInput{
		StoreID:   auth.GetStoreID(r.Context()),
		SessionID: r.PathValue("sessionID"),
		ProductID: req.ProductID,
		By:        req.By,
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, line)
}

type startPackingRequest struct {
	AcceptPartial bool `json:"accept_partial"`
}

func (h *FulfillmentHandler) startPacking(w http.ResponseWriter, r *http.Request) {
	var req startPackingRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	detail, err := h.uc.StartPacking(r.Context(), &dto.StartPackingInput{
		StoreID:       auth.GetStoreID(r.Context()),
		SessionID:     r.PathValue("sessionID"),
		AcceptPartial: req.AcceptPartial,
		ActorID:       auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, detail)
}

type packRequest struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	By        int    `json:"by"`
}

func (h *FulfillmentHandler) pack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	result, err := h.uc.Pack(r.Context(), &dto.PackInput{
		StoreID:   auth.GetStoreID(r.Context()),
		SessionID: r.PathValue("sessionID"),
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		By:        req.By,
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, result)
}

func (h *FulfillmentHandler) packAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.uc.PackAll(r.Context(), &dto.PackAllInput{
		StoreID:   auth.GetStoreID(r.Context()),
		SessionID: r.PathValue("sessionID"),
		OrderID:   r.PathValue("orderID"),
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, results)
}

func (h *FulfillmentHandler) abandon(w http.ResponseWriter, r *http.Request) {
	err := h.uc.Abandon(r.Context(), &dto.AbandonInput{
		StoreID:   auth.GetStoreID(r.Context()),
		SessionID: r.PathValue("sessionID"),
		ActorID:   auth.GetActorID(r.Context()),
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FulfillmentHandler) listStale(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.uc.ListStale(r.Context(), auth.GetStoreID(r.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, sessions)
}
