package registrations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/http/features/common"
	"github.com/tendant/turnaplay-teams/internal/httputil"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"github.com/tendant/turnaplay-teams/pkg/teams"
)

// AccountResolver finds the account an invite is addressed to by handle.
type AccountResolver interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error)
}

// Handler handles team registration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *teams.Service
	accounts AccountResolver
}

// NewHandler creates a new registrations handler.
func NewHandler(logger *slog.Logger, service *teams.Service, accounts AccountResolver) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		accounts: accounts,
	}
}

// CreateRequest represents a registration create request.
type CreateRequest struct {
	CompetitionID string `json:"competition_id"`
	GameAccountID string `json:"game_account_id"`
	TeamName      string `json:"team_name"`
}

// InviteRequest addresses an invite by account ID or by username/email.
// Exactly one must be set.
type InviteRequest struct {
	AccountID       string `json:"account_id,omitempty"`
	UsernameOrEmail string `json:"username_or_email,omitempty"`
}

// MemberResponse is one active roster seat.
type MemberResponse struct {
	AccountID     string    `json:"account_id"`
	GameAccountID string    `json:"game_account_id"`
	Role          string    `json:"role"`
	InviteID      *string   `json:"invite_id,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// RosterResponse is the registration with its members and invites.
type RosterResponse struct {
	Registration common.RegistrationResponse `json:"registration"`
	Members      []MemberResponse            `json:"members"`
	Invites      []common.InviteResponse     `json:"invites"`
}

// EventResponse is one audit history entry.
type EventResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id"`
	SubjectID  *string   `json:"subject_id,omitempty"`
	InviteID   *string   `json:"invite_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Create enters a new team with the caller as captain.
// POST /v1/registrations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	competitionID, err := uuid.Parse(req.CompetitionID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "competition_id must be a UUID")
		return
	}
	gameAccountID, err := uuid.Parse(req.GameAccountID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "game_account_id must be a UUID")
		return
	}

	reg, err := h.service.CreateRegistration(r.Context(), competitionID, actorID, gameAccountID, req.TeamName)
	if err != nil {
		h.fail(w, r, "create registration", err)
		return
	}

	httputil.JSON(w, http.StatusCreated, common.NewRegistrationResponse(reg))
}

// Roster returns the registration with its members and invites.
// GET /v1/registrations/{id}
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	if _, ok := common.Actor(w, r); !ok {
		return
	}
	registrationID, ok := common.IDParam(w, r, "id")
	if !ok {
		return
	}

	roster, err := h.service.GetRoster(r.Context(), registrationID)
	if err != nil {
		h.fail(w, r, "get roster", err)
		return
	}

	resp := RosterResponse{
		Registration: common.NewRegistrationResponse(roster.Registration),
		Members:      make([]MemberResponse, 0, len(roster.Members)),
		Invites:      common.NewInviteResponses(roster.Invites),
	}
	for _, m := range roster.Members {
		resp.Members = append(resp.Members, MemberResponse{
			AccountID:     m.AccountID.String(),
			GameAccountID: m.GameAccountID.String(),
			Role:          string(m.Role),
			InviteID:      nullableID(m.InviteID),
			JoinedAt:      m.JoinedAt,
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Events returns the registration's audit history.
// GET /v1/registrations/{id}/events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}
	registrationID, ok := common.IDParam(w, r, "id")
	if !ok {
		return
	}

	events, err := h.service.ListEvents(r.Context(), registrationID, actorID)
	if err != nil {
		h.fail(w, r, "list events", err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventResponse{
			ID:         e.ID.String(),
			Type:       string(e.Type),
			ActorID:    e.ActorID.String(),
			SubjectID:  nullableID(e.SubjectID),
			InviteID:   nullableID(e.InviteID),
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt,
		})
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"events": resp})
}

// Invite issues an invite from the captain.
// POST /v1/registrations/{id}/invites
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}
	registrationID, ok := common.IDParam(w, r, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	req.UsernameOrEmail = strings.TrimSpace(req.UsernameOrEmail)
	if (req.AccountID == "") == (req.UsernameOrEmail == "") {
		httputil.Error(w, http.StatusBadRequest, "exactly one of account_id or username_or_email is required")
		return
	}

	var inviteeID uuid.UUID
	if req.AccountID != "" {
		id, err := uuid.Parse(req.AccountID)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "account_id must be a UUID")
			return
		}
		inviteeID = id
	} else {
		account, err := h.accounts.GetByUsernameOrEmail(r.Context(), req.UsernameOrEmail)
		if err != nil {
			h.fail(w, r, "resolve invitee", err)
			return
		}
		inviteeID = account.ID
	}

	outcome, err := h.service.InviteMember(r.Context(), registrationID, actorID, inviteeID)
	if err != nil {
		h.fail(w, r, "invite member", err)
		return
	}

	httputil.JSON(w, http.StatusCreated, common.InviteOutcomeResponse{
		Invite:       common.NewInviteResponse(outcome.Invite),
		Registration: common.NewRegistrationResponse(outcome.Registration),
	})
}

// Submit locks a valid roster.
// POST /v1/registrations/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "submit registration", h.service.SubmitRegistration)
}

// Cancel withdraws the team. Repeating the call succeeds.
// POST /v1/registrations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "cancel registration", h.service.CancelRegistration)
}

// Leave takes the caller off the roster.
// POST /v1/registrations/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "leave registration", h.service.LeaveRegistration)
}

// RemoveMember evicts a member.
// DELETE /v1/registrations/{id}/members/{account}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	accountID, ok := common.IDParam(w, r, "account")
	if !ok {
		return
	}
	h.mutate(w, r, "remove member", func(ctx context.Context, registrationID, actorID uuid.UUID) (*domain.Registration, error) {
		return h.service.RemoveMember(ctx, registrationID, actorID, accountID)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, registrationID, actorID uuid.UUID) (*domain.Registration, error)) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}
	registrationID, ok := common.IDParam(w, r, "id")
	if !ok {
		return
	}

	reg, err := fn(r.Context(), registrationID, actorID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewRegistrationResponse(reg))
}

// fail writes the domain error. Only unexpected failures are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if domain.KindOf(err) == domain.KindInternal && !errors.Is(err, context.Canceled) {
		h.logger.Error(op+" failed", "error", err, "path", r.URL.Path)
	}
	httputil.DomainError(w, err)
}

func nullableID(id uuid.NullUUID) *string {
	if !id.Valid {
		return nil
	}
	s := id.UUID.String()
	return &s
}
