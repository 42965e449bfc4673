package teams

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
)

// Roster is a consistent view of one registration.
type Roster struct {
	Registration *domain.Registration
	Members      []*domain.Membership
	Invites      []*domain.Invite
}

// GetRoster returns the registration with its active members and every
// invite it has issued. The three parts come from one read snapshot, so they
// agree with each other without blocking writers.
func (svc *Service) GetRoster(ctx context.Context, registrationID uuid.UUID) (*Roster, error) {
	ctx, span := svc.startSpan(ctx, "GetRoster", attribute.String("registration.id", registrationID.String()))
	defer span.End()

	roster := &Roster{}
	err := svc.store.InSnapshot(ctx, func(snap Snapshot) error {
		var err error
		if roster.Registration, err = snap.GetRegistration(ctx, registrationID); err != nil {
			return err
		}
		if roster.Members, err = snap.ListActiveMemberships(ctx, registrationID); err != nil {
			return err
		}
		roster.Invites, err = snap.ListInvites(ctx, registrationID)
		return err
	})
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	return roster, nil
}

// ListIncomingInvites returns invites addressed to accountID, newest first.
// An empty status returns every status.
func (svc *Service) ListIncomingInvites(ctx context.Context, accountID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	return svc.store.ListIncomingInvites(ctx, accountID, status)
}

// ListOutgoingInvites returns invites issued by teams captainID leads.
func (svc *Service) ListOutgoingInvites(ctx context.Context, captainID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	return svc.store.ListOutgoingInvites(ctx, captainID, status)
}

// PendingInviteSummary reports how many invites await accountID.
func (svc *Service) PendingInviteSummary(ctx context.Context, accountID uuid.UUID) (*domain.InviteSummary, error) {
	return svc.store.PendingInviteSummary(ctx, accountID)
}

// ListEvents returns a registration's history to whoever may manage it.
func (svc *Service) ListEvents(ctx context.Context, registrationID, actorID uuid.UUID) ([]*domain.Event, error) {
	reg, err := svc.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	ok, err := svc.authorizer.CanManage(ctx, actorID, reg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotCaptain
	}
	return svc.store.ListEvents(ctx, registrationID)
}
