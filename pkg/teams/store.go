package teams

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// AccountDirectory is the read-only view of user accounts and their game
// accounts.
type AccountDirectory interface {
	IsActive(ctx context.Context, accountID uuid.UUID) (bool, error)
	GetGameAccount(ctx context.Context, gameAccountID uuid.UUID) (*domain.GameAccount, error)
}

// AdminLookup reports whether an account holds the admin role.
type AdminLookup interface {
	IsAdmin(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// CompetitionCatalog is the read-only view of competition rules.
type CompetitionCatalog interface {
	RequiredTeamSize(ctx context.Context, competitionID uuid.UUID) (int, error)
	MaxTeamSize(ctx context.Context, competitionID uuid.UUID) (int, error)
	GameID(ctx context.Context, competitionID uuid.UUID) (uuid.UUID, error)
}

// Store persists registrations, invites and memberships.
type Store interface {
	Reader

	// InTx runs fn inside one transaction. A non-nil error from fn rolls
	// the transaction back and is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// InSnapshot runs fn inside a read-only transaction that takes no
	// registration lock.
	InSnapshot(ctx context.Context, fn func(snap Snapshot) error) error
}

// Snapshot is a consistent read-only view spanning several queries.
type Snapshot interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	ListActiveMemberships(ctx context.Context, registrationID uuid.UUID) ([]*domain.Membership, error)
	ListInvites(ctx context.Context, registrationID uuid.UUID) ([]*domain.Invite, error)
}

// Reader serves lock-free reads.
type Reader interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetInvite(ctx context.Context, id uuid.UUID) (*domain.Invite, error)
	ListIncomingInvites(ctx context.Context, accountID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error)
	ListOutgoingInvites(ctx context.Context, captainID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error)
	PendingInviteSummary(ctx context.Context, accountID uuid.UUID) (*domain.InviteSummary, error)
	ListEvents(ctx context.Context, registrationID uuid.UUID) ([]*domain.Event, error)
}

// Tx is the set of reads and writes available while a registration is locked.
type Tx interface {
	// LockRegistration loads the registration and holds an exclusive lock
	// on it until the transaction ends.
	LockRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	CreateRegistration(ctx context.Context, reg *domain.Registration) error
	UpdateRegistration(ctx context.Context, reg *domain.Registration) error
	// FindOpenRegistration returns the captain's non-cancelled registration
	// for the competition, or domain.ErrRegistrationNotFound.
	FindOpenRegistration(ctx context.Context, competitionID, captainID uuid.UUID) (*domain.Registration, error)

	GetInvite(ctx context.Context, id uuid.UUID) (*domain.Invite, error)
	CreateInvite(ctx context.Context, inv *domain.Invite) error
	UpdateInvite(ctx context.Context, inv *domain.Invite) error
	HasPendingInvite(ctx context.Context, registrationID, accountID uuid.UUID) (bool, error)
	ListPendingInvites(ctx context.Context, registrationID uuid.UUID) ([]*domain.Invite, error)
	ListInvites(ctx context.Context, registrationID uuid.UUID) ([]*domain.Invite, error)

	// GetActiveMembership returns domain.ErrNotMember when the account has
	// no active seat on the registration.
	GetActiveMembership(ctx context.Context, registrationID, accountID uuid.UUID) (*domain.Membership, error)
	HasActiveMembershipInCompetition(ctx context.Context, competitionID, accountID uuid.UUID) (bool, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	UpdateMembership(ctx context.Context, m *domain.Membership) error
	CountActiveMemberships(ctx context.Context, registrationID uuid.UUID) (int, error)
	ListActiveMemberships(ctx context.Context, registrationID uuid.UUID) ([]*domain.Membership, error)

	AppendEvents(ctx context.Context, events []domain.Event) error
}

// EventEmitter receives events after their transaction has committed.
type EventEmitter interface {
	Emit(ctx context.Context, events []domain.Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, []domain.Event) {}
