package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus represents the lifecycle state of an invite.
// Pending is the only non-terminal state.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusRejected  InviteStatus = "rejected"
	InviteStatusCancelled InviteStatus = "cancelled"
)

// ParseInviteStatus converts a label to an InviteStatus.
func ParseInviteStatus(label string) (InviteStatus, bool) {
	switch s := InviteStatus(label); s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusRejected, InviteStatusCancelled:
		return s, true
	default:
		return "", false
	}
}

// CloseReason records why an invite left Pending without the invitee deciding.
type CloseReason string

const (
	CloseReasonNone                  CloseReason = ""
	CloseReasonCancelledByCaptain    CloseReason = "cancelled_by_captain"
	CloseReasonRegistrationCancelled CloseReason = "registration_cancelled"
	CloseReasonRosterFull            CloseReason = "roster_full"
)

// Invite is an offer for one account to join one registration.
// Invites are never deleted; terminal rows are kept for audit.
type Invite struct {
	ID               uuid.UUID
	RegistrationID   uuid.UUID
	InviteeAccountID uuid.UUID
	InvitedBy        uuid.UUID
	Status           InviteStatus
	CloseReason      CloseReason
	CreatedAt        time.Time
	UpdatedAt        time.Time
	RespondedAt      *time.Time
}

// IsPending returns true if the invite still awaits a decision.
func (i *Invite) IsPending() bool {
	return i.Status == InviteStatusPending
}

// Transition moves a pending invite to a terminal status.
func (i *Invite) Transition(to InviteStatus, reason CloseReason, at time.Time) error {
	if !i.IsPending() {
		return ErrInvalidState
	}
	if to == InviteStatusPending {
		return ErrInvalidState
	}
	i.Status = to
	i.CloseReason = reason
	i.UpdatedAt = at
	i.RespondedAt = &at
	return nil
}

// InviteSummary is the polling view of an account's inbox.
type InviteSummary struct {
	PendingCount    int
	LatestCreatedAt *time.Time
}
