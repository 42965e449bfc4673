package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a committed team transition.
type EventType string

const (
	EventRegistrationCreated       EventType = "registration.created"
	EventRegistrationStatusChanged EventType = "registration.status_changed"
	EventRegistrationLocked        EventType = "registration.locked"
	EventRegistrationCancelled     EventType = "registration.cancelled"
	EventInviteCreated             EventType = "invite.created"
	EventInviteAccepted            EventType = "invite.accepted"
	EventInviteRejected            EventType = "invite.rejected"
	EventInviteCancelled           EventType = "invite.cancelled"
	EventMemberJoined              EventType = "member.joined"
	EventMemberRemoved             EventType = "member.removed"
	EventMemberLeft                EventType = "member.left"
)

// Event is one row of a registration's history. Events are written in the
// same transaction as the change they describe.
type Event struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	Type           EventType
	ActorID        uuid.UUID
	SubjectID      uuid.NullUUID
	InviteID       uuid.NullUUID
	Detail         string
	OccurredAt     time.Time
}
