package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-fulfillment-service/internal/apperr"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{
			name:       "not found",
			err:        apperr.New(apperr.KindNotFound, "session not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   string(apperr.KindNotFound),
		},
		{
			name:       "state conflict",
			err:        apperr.New(apperr.KindStateConflict, "session is completed"),
			wantStatus: http.StatusConflict,
			wantCode:   string(apperr.KindStateConflict),
		},
		{
			name:       "concurrent update",
			err:        apperr.New(apperr.KindConcurrentUpdate, "progress changed underfoot"),
			wantStatus: http.StatusConflict,
			wantCode:   string(apperr.KindConcurrentUpdate),
			retryable:  true,
		},
		{
			name:       "integrity",
			err:        apperr.New(apperr.KindIntegrity, "movements already committed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(apperr.KindIntegrity),
		},
		{
			name:       "transient",
			err:        apperr.New(apperr.KindTransient, "lock wait timed out"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   string(apperr.KindTransient),
			retryable:  true,
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
		{
			name:       "wrapped conflict",
			err:        fmt.Errorf("handler: %w", apperr.New(apperr.KindStateConflict, "already packed")),
			wantStatus: http.StatusConflict,
			wantCode:   string(apperr.KindStateConflict),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("Content-Type = %q", ct)
			}

			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if resp.Error == nil {
				t.Fatal("error body missing")
			}
			if resp.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tc.wantCode)
			}
			if resp.Error.Retryable != tc.retryable {
				t.Fatalf("retryable = %v, want %v", resp.Error.Retryable, tc.retryable)
			}
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"))

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Error.Message != "internal error" {
		t.Fatalf("internal details must not leak, got %q", resp.Error.Message)
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Data["id"] != "abc" {
		t.Fatalf("data = %v", resp.Data)
	}
}

func TestWriteListCarriesMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteList(rec, []int{1, 2, 3}, &Meta{Page: 2, PageSize: 3, Total: 9})

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Meta == nil || resp.Meta.Total != 9 || resp.Meta.Page != 2 {
		t.Fatalf("meta = %+v", resp.Meta)
	}
}
