package invites

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/http/features/common"
	"github.com/tendant/turnaplay-teams/internal/httputil"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"github.com/tendant/turnaplay-teams/pkg/teams"
)

// Handler handles invite endpoints.
type Handler struct {
	logger  *slog.Logger
	service *teams.Service
}

// NewHandler creates a new invites handler.
func NewHandler(logger *slog.Logger, service *teams.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// SummaryResponse is the pending invite badge for the caller.
type SummaryResponse struct {
	PendingCount    int        `json:"pending_count"`
	LatestCreatedAt *time.Time `json:"latest_created_at,omitempty"`
}

// List returns invites addressed to or issued by the caller.
// GET /v1/invites?direction=incoming|outgoing&status=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var status domain.InviteStatus
	if label := q.Get("status"); label != "" {
		parsed, ok := domain.ParseInviteStatus(label)
		if !ok {
			httputil.Error(w, http.StatusBadRequest, "status must be one of pending, accepted, rejected, cancelled")
			return
		}
		status = parsed
	}

	var (
		list []*domain.Invite
		err  error
	)
	switch direction := q.Get("direction"); direction {
	case "", "incoming":
		list, err = h.service.ListIncomingInvites(r.Context(), actorID, status)
	case "outgoing":
		list, err = h.service.ListOutgoingInvites(r.Context(), actorID, status)
	default:
		httputil.Error(w, http.StatusBadRequest, "direction must be incoming or outgoing")
		return
	}
	if err != nil {
		h.fail(w, r, "list invites", err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"invites": common.NewInviteResponses(list)})
}

// Summary reports how many invites await the caller.
// GET /v1/invites/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}

	summary, err := h.service.PendingInviteSummary(r.Context(), actorID)
	if err != nil {
		h.fail(w, r, "invite summary", err)
		return
	}

	httputil.JSON(w, http.StatusOK, SummaryResponse{
		PendingCount:    summary.PendingCount,
		LatestCreatedAt: summary.LatestCreatedAt,
	})
}

// AcceptRequest names the game account the caller joins with.
type AcceptRequest struct {
	GameAccountID string `json:"game_account_id"`
}

// Accept joins the caller to the inviting team.
// POST /v1/invites/{id}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var req AcceptRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	gameAccountID, err := uuid.Parse(req.GameAccountID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "game_account_id must be a UUID")
		return
	}

	h.transition(w, r, "accept invite", func(ctx context.Context, actorID, inviteID uuid.UUID) (*teams.InviteOutcome, error) {
		return h.service.RespondToInvite(ctx, inviteID, actorID, teams.DecisionAccept, gameAccountID)
	})
}

// Reject declines the invite.
// POST /v1/invites/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject invite", func(ctx context.Context, actorID, inviteID uuid.UUID) (*teams.InviteOutcome, error) {
		return h.service.RespondToInvite(ctx, inviteID, actorID, teams.DecisionReject, uuid.Nil)
	})
}

// Cancel withdraws a pending invite. Captain only.
// POST /v1/invites/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel invite", func(ctx context.Context, actorID, inviteID uuid.UUID) (*teams.InviteOutcome, error) {
		return h.service.CancelInvite(ctx, inviteID, actorID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, actorID, inviteID uuid.UUID) (*teams.InviteOutcome, error)) {
	actorID, ok := common.Actor(w, r)
	if !ok {
		return
	}
	inviteID, ok := common.IDParam(w, r, "id")
	if !ok {
		return
	}

	outcome, err := fn(r.Context(), actorID, inviteID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	httputil.JSON(w, http.StatusOK, common.InviteOutcomeResponse{
		Invite:       common.NewInviteResponse(outcome.Invite),
		Registration: common.NewRegistrationResponse(outcome.Registration),
	})
}

// fail writes the domain error. Only unexpected failures are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if domain.KindOf(err) == domain.KindInternal && !errors.Is(err, context.Canceled) {
		h.logger.Error(op+" failed", "error", err, "path", r.URL.Path)
	}
	httputil.DomainError(w, err)
}
