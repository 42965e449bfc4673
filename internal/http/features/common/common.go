// Package common holds response shapes and request helpers shared by the
// registration and invite handlers.
package common

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/http/middleware"
	"github.com/tendant/turnaplay-teams/internal/httputil"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// RegistrationResponse is the wire form of a registration.
type RegistrationResponse struct {
	ID               string     `json:"id"`
	CompetitionID    string     `json:"competition_id"`
	CaptainAccountID string     `json:"captain_account_id"`
	TeamName         string     `json:"team_name"`
	Status           string     `json:"status"`
	Locked           bool       `json:"locked"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LockedAt         *time.Time `json:"locked_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// InviteResponse is the wire form of an invite.
type InviteResponse struct {
	ID               string     `json:"id"`
	RegistrationID   string     `json:"registration_id"`
	InviteeAccountID string     `json:"invitee_account_id"`
	InvitedBy        string     `json:"invited_by"`
	Status           string     `json:"status"`
	CloseReason      string     `json:"close_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
}

// InviteOutcomeResponse pairs an invite with the registration after a
// transition.
type InviteOutcomeResponse struct {
	Invite       InviteResponse       `json:"invite"`
	Registration RegistrationResponse `json:"registration"`
}

// NewRegistrationResponse converts a registration for the wire.
func NewRegistrationResponse(reg *domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:               reg.ID.String(),
		CompetitionID:    reg.CompetitionID.String(),
		CaptainAccountID: reg.CaptainAccountID.String(),
		TeamName:         reg.TeamName,
		Status:           string(reg.Status),
		Locked:           reg.IsLocked(),
		CreatedAt:        reg.CreatedAt,
		UpdatedAt:        reg.UpdatedAt,
		LockedAt:         reg.LockedAt,
		CancelledAt:      reg.CancelledAt,
	}
}

// NewInviteResponse converts an invite for the wire.
func NewInviteResponse(inv *domain.Invite) InviteResponse {
	return InviteResponse{
		ID:               inv.ID.String(),
		RegistrationID:   inv.RegistrationID.String(),
		InviteeAccountID: inv.InviteeAccountID.String(),
		InvitedBy:        inv.InvitedBy.String(),
		Status:           string(inv.Status),
		CloseReason:      string(inv.CloseReason),
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		RespondedAt:      inv.RespondedAt,
	}
}

// NewInviteResponses converts a list of invites. The result is never nil so
// it encodes as [].
func NewInviteResponses(invites []*domain.Invite) []InviteResponse {
	out := make([]InviteResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, NewInviteResponse(inv))
	}
	return out
}

// Actor returns the authenticated account or writes 401.
func Actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return accountID, true
}

// IDParam parses a UUID path parameter or writes 400.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
