package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/http/middleware"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

func TestNewInviteResponses_Empty(t *testing.T) {
	out := NewInviteResponses(nil)
	if out == nil || len(out) != 0 {
		t.Errorf("NewInviteResponses(nil) = %#v, want empty non-nil slice", out)
	}
}

func TestNewRegistrationResponse_Locked(t *testing.T) {
	now := time.Now()
	reg := &domain.Registration{
		ID:       uuid.New(),
		Status:   domain.RegistrationStatusValid,
		LockedAt: &now,
	}
	resp := NewRegistrationResponse(reg)
	if !resp.Locked || resp.Status != "valid" {
		t.Errorf("response = %+v, want locked valid", resp)
	}
}

func TestActor(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := Actor(rec, req); ok || rec.Code != http.StatusUnauthorized {
		t.Errorf("Actor() without account ok=%v status=%d, want 401", ok, rec.Code)
	}

	id := uuid.New()
	req = req.WithContext(middleware.WithAccountID(req.Context(), id))
	got, ok := Actor(httptest.NewRecorder(), req)
	if !ok || got != id {
		t.Errorf("Actor() = %s, %v, want %s", got, ok, id)
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantOK bool
	}{
		{"valid", uuid.NewString(), true},
		{"garbage", "abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.value)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			_, ok := IDParam(rec, req, "id")
			if ok != tt.wantOK {
				t.Errorf("IDParam() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK && rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
