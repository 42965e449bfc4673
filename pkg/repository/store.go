package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"github.com/tendant/turnaplay-teams/pkg/teams"
)

// Store binds the team repositories into the transactional store the
// coordinator runs on.
type Store struct {
	db            *sql.DB
	dialect       Dialect
	history       bool
	Registrations *RegistrationsRepository
	Invites       *InvitesRepository
	Memberships   *MembershipsRepository
	Events        *EventsRepository
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEventHistory controls whether committed events are written to
// registration_events. History is on by default.
func WithEventHistory(enabled bool) StoreOption {
	return func(s *Store) { s.history = enabled }
}

// NewStore creates a store over db.
func NewStore(db *sql.DB, dialect Dialect, opts ...StoreOption) *Store {
	s := &Store{
		db:            db,
		dialect:       dialect,
		history:       true,
		Registrations: NewRegistrationsRepository(db, dialect),
		Invites:       NewInvitesRepository(db, dialect),
		Memberships:   NewMembershipsRepository(db, dialect),
		Events:        NewEventsRepository(db, dialect),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ teams.Store    = (*Store)(nil)
	_ teams.Tx       = (*storeTx)(nil)
	_ teams.Snapshot = (*storeTx)(nil)
)

// InTx implements teams.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx teams.Tx) error) error {
	return Tx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&storeTx{q: tx, s: s})
	})
}

// InSnapshot implements teams.Store.
func (s *Store) InSnapshot(ctx context.Context, fn func(snap teams.Snapshot) error) error {
	return ReadTx(ctx, s.db, s.dialect, func(tx *sql.Tx) error {
		return fn(&storeTx{q: tx, s: s})
	})
}

func (s *Store) GetRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return s.Registrations.GetByID(ctx, id)
}

func (s *Store) GetInvite(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return s.Invites.GetByID(ctx, id)
}

func (s *Store) ListIncomingInvites(ctx context.Context, accountID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	return s.Invites.ListIncoming(ctx, accountID, status)
}

func (s *Store) ListOutgoingInvites(ctx context.Context, captainID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	return s.Invites.ListOutgoing(ctx, captainID, status)
}

func (s *Store) PendingInviteSummary(ctx context.Context, accountID uuid.UUID) (*domain.InviteSummary, error) {
	return s.Invites.PendingSummary(ctx, accountID)
}

func (s *Store) ListEvents(ctx context.Context, registrationID uuid.UUID) ([]*domain.Event, error) {
	return s.Events.ListByRegistration(ctx, registrationID)
}

type storeTx struct {
	q Querier
	s *Store
}

func (t *storeTx) GetRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return t.s.Registrations.GetByIDTx(ctx, t.q, id)
}

func (t *storeTx) LockRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return t.s.Registrations.GetForUpdateTx(ctx, t.q, id)
}

func (t *storeTx) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	return t.s.Registrations.CreateTx(ctx, t.q, reg)
}

func (t *storeTx) UpdateRegistration(ctx context.Context, reg *domain.Registration) error {
	return t.s.Registrations.UpdateTx(ctx, t.q, reg)
}

func (t *storeTx) FindOpenRegistration(ctx context.Context, competitionID, captainID uuid.UUID) (*domain.Registration, error) {
	return t.s.Registrations.FindOpenTx(ctx, t.q, competitionID, captainID)
}

func (t *storeTx) GetInvite(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return t.s.Invites.GetByIDTx(ctx, t.q, id)
}

func (t *storeTx) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	return t.s.Invites.CreateTx(ctx, t.q, inv)
}

func (t *storeTx) UpdateInvite(ctx context.Context, inv *domain.Invite) error {
	return t.s.Invites.UpdateTx(ctx, t.q, inv)
}

func (t *storeTx) HasPendingInvite(ctx context.Context, registrationID, accountID uuid.UUID) (bool, error) {
	return t.s.Invites.HasPendingTx(ctx, t.q, registrationID, accountID)
}

func (t *storeTx) ListPendingInvites(ctx context.Context, registrationID uuid.UUID) ([]*domain.Invite, error) {
	return t.s.Invites.ListPendingTx(ctx, t.q, registrationID)
}

func (t *storeTx) ListInvites(ctx context.Context, registrationID uuid.UUID) ([]*domain.Invite, error) {
	return t.s.Invites.ListByRegistrationTx(ctx, t.q, registrationID)
}

func (t *storeTx) GetActiveMembership(ctx context.Context, registrationID, accountID uuid.UUID) (*domain.Membership, error) {
	return t.s.Memberships.GetActiveTx(ctx, t.q, registrationID, accountID)
}

func (t *storeTx) HasActiveMembershipInCompetition(ctx context.Context, competitionID, accountID uuid.UUID) (bool, error) {
	return t.s.Memberships.ExistsActiveInCompetitionTx(ctx, t.q, competitionID, accountID)
}

func (t *storeTx) CreateMembership(ctx context.Context, m *domain.Membership) error {
	return t.s.Memberships.CreateTx(ctx, t.q, m)
}

func (t *storeTx) UpdateMembership(ctx context.Context, m *domain.Membership) error {
	return t.s.Memberships.UpdateTx(ctx, t.q, m)
}

func (t *storeTx) CountActiveMemberships(ctx context.Context, registrationID uuid.UUID) (int, error) {
	return t.s.Memberships.CountActiveTx(ctx, t.q, registrationID)
}

func (t *storeTx) ListActiveMemberships(ctx context.Context, registrationID uuid.UUID) ([]*domain.Membership, error) {
	return t.s.Memberships.ListActiveTx(ctx, t.q, registrationID)
}

func (t *storeTx) AppendEvents(ctx context.Context, events []domain.Event) error {
	if !t.s.history || len(events) == 0 {
		return nil
	}
	return t.s.Events.AppendTx(ctx, t.q, events)
}
