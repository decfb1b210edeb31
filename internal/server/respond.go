package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
)

// Response is the envelope for every JSON reply.
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorBody  `json:"error,omitempty"`
	Meta  *Meta       `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Retryable tells automated callers whether backoff-and-retry can help.
	Retryable bool `json:"retryable"`
}

type Meta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

func WriteList(w http.ResponseWriter, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Data: data, Meta: meta})
}

// WriteError maps the error taxonomy onto HTTP statuses. Operators see the
// specific rule that was violated, not a generic failure: the same packing
// increment is often fired by several near-simultaneous clicks.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &ErrorBody{Code: "INTERNAL", Message: "internal error"}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Code = string(appErr.Kind)
		body.Message = appErr.Message
		body.Retryable = apperr.Retryable(err)
		switch appErr.Kind {
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindStateConflict, apperr.KindConcurrentUpdate:
			status = http.StatusConflict
		case apperr.KindIntegrity:
			status = http.StatusUnprocessableEntity
		case apperr.KindTransient:
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: body})
}

func DecodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.Wrap(apperr.KindStateConflict, "invalid request body", err)
	}
	return nil
}
