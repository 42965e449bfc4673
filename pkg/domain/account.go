package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole mirrors the role column of the user directory.
type AccountRole string

const (
	AccountRoleUser      AccountRole = "user"
	AccountRoleOrganizer AccountRole = "organizer"
	AccountRoleAdmin     AccountRole = "admin"
)

// Account is a read-only view of a user in the account directory.
// This service never writes accounts.
type Account struct {
	ID          uuid.UUID
	Username    string
	Email       string
	DisplayName string
	Role        AccountRole
	Active      bool
	CreatedAt   time.Time
}

// IsAdmin returns true if the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == AccountRoleAdmin
}

// GameAccount is an account's in-game identity for one game. Seats are
// taken with a game account; the directory owns these rows.
type GameAccount struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	GameID     uuid.UUID
	InGameName string
	Active     bool
	CreatedAt  time.Time
}

// Competition is the slice of a tournament the team workflow needs.
type Competition struct {
	ID               uuid.UUID
	Name             string
	GameID           uuid.UUID
	RequiredTeamSize int
	MaxTeamSize      int
	CreatedAt        time.Time
}

// TeamSize bundles the roster bounds of a competition.
type TeamSize struct {
	Required int
	Max      int
}

// HasRoomFor reports whether a roster of count members can take one more.
func (s TeamSize) HasRoomFor(count int) bool {
	return count < s.Max
}
