package domain

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the computed validity of a team registration.
type RegistrationStatus string

const (
	RegistrationStatusForming   RegistrationStatus = "forming"
	RegistrationStatusValid     RegistrationStatus = "valid"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// Registration is one team's entry into one competition ("team detail").
type Registration struct {
	ID               uuid.UUID
	CompetitionID    uuid.UUID
	CaptainAccountID uuid.UUID
	TeamName         string
	Status           RegistrationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LockedAt         *time.Time
	CancelledAt      *time.Time
}

// IsCancelled returns true once the registration has been cancelled.
func (r *Registration) IsCancelled() bool {
	return r.Status == RegistrationStatusCancelled
}

// IsLocked returns true if the captain has submitted the roster.
func (r *Registration) IsLocked() bool {
	return r.LockedAt != nil
}

// IsClosed reports whether the roster no longer accepts changes.
// A locked registration can still be cancelled by its captain.
func (r *Registration) IsClosed() bool {
	return r.IsCancelled() || r.IsLocked()
}

// IsCaptain reports whether accountID is the registration's captain.
func (r *Registration) IsCaptain(accountID uuid.UUID) bool {
	return r.CaptainAccountID == accountID
}

// NextStatus computes the status a registration must hold given its
// current roster. Cancelled is terminal.
func NextStatus(current RegistrationStatus, activeMembers, pendingInvites int, size TeamSize) RegistrationStatus {
	if current == RegistrationStatusCancelled {
		return current
	}
	if activeMembers >= size.Required && pendingInvites == 0 {
		return RegistrationStatusValid
	}
	return RegistrationStatusForming
}
