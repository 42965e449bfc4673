package domain

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole distinguishes the captain from invited members.
type MembershipRole string

const (
	MembershipRoleCaptain MembershipRole = "captain"
	MembershipRoleMember  MembershipRole = "member"
)

// RemovalReason records how a membership ended.
type RemovalReason string

const (
	RemovalReasonEvicted               RemovalReason = "evicted"
	RemovalReasonLeft                  RemovalReason = "left"
	RemovalReasonRegistrationCancelled RemovalReason = "registration_cancelled"
)

// Membership represents an account's seat on a registration's roster.
type Membership struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	CompetitionID  uuid.UUID
	AccountID      uuid.UUID
	GameAccountID  uuid.UUID
	Role           MembershipRole
	InviteID       uuid.NullUUID
	JoinedAt       time.Time
	RemovedAt      *time.Time
	RemovalReason  RemovalReason
}

// IsActive returns true if the membership has not been removed.
func (m *Membership) IsActive() bool {
	return m.RemovedAt == nil
}
