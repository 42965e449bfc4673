package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/auth"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Decision is an invitee's answer to an invite.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// InviteOutcome pairs an invite with the registration state its transition
// produced.
type InviteOutcome struct {
	Invite       *domain.Invite
	Registration *domain.Registration
}

// CreateRegistration enters a new team into a competition with captainID as
// its first member, seated under gameAccountID.
func (svc *Service) CreateRegistration(ctx context.Context, competitionID, captainID, gameAccountID uuid.UUID, teamName string) (*domain.Registration, error) {
	ctx, span := svc.startSpan(ctx, "CreateRegistration",
		attribute.String("competition.id", competitionID.String()),
		attribute.String("actor.id", captainID.String()),
	)
	defer span.End()

	reg, err := svc.createRegistration(ctx, competitionID, captainID, gameAccountID, teamName)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("registration.id", reg.ID.String()))
	return reg, nil
}

func (svc *Service) createRegistration(ctx context.Context, competitionID, captainID, gameAccountID uuid.UUID, teamName string) (*domain.Registration, error) {
	name, err := auth.SanitizeTeamName(teamName)
	if err != nil {
		return nil, err
	}
	size, err := svc.teamSize(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	now := svc.clock()
	reg := &domain.Registration{
		ID:               svc.newID(),
		CompetitionID:    competitionID,
		CaptainAccountID: captainID,
		TeamName:         name,
		Status:           domain.RegistrationStatusForming,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var sc *scope
	err = svc.store.InTx(ctx, func(tx Tx) error {
		sc = &scope{ctx: ctx, tx: tx, svc: svc, reg: reg, size: size, actor: captainID, now: now}
		if err := sc.requireActive(captainID); err != nil {
			return err
		}
		if err := sc.requireGameAccount(captainID, gameAccountID); err != nil {
			return err
		}

		_, err := tx.FindOpenRegistration(ctx, competitionID, captainID)
		if err == nil {
			return domain.ErrDuplicateRegistration
		}
		if !errors.Is(err, domain.ErrRegistrationNotFound) {
			return err
		}

		if err := tx.CreateRegistration(ctx, reg); err != nil {
			return err
		}
		sc.record(domain.EventRegistrationCreated, captainID, uuid.Nil, reg.TeamName)

		if _, err := sc.addMember(captainID, gameAccountID, domain.MembershipRoleCaptain, uuid.Nil); err != nil {
			return err
		}
		if err := sc.recompute(); err != nil {
			return err
		}
		return sc.flush()
	})
	if err != nil {
		return nil, err
	}

	svc.emitter.Emit(ctx, sc.events)
	return reg, nil
}

// InviteMember issues an invite from the captain to inviteeID. The
// registration must still be forming.
func (svc *Service) InviteMember(ctx context.Context, registrationID, actorID, inviteeID uuid.UUID) (*InviteOutcome, error) {
	var inv *domain.Invite
	reg, err := svc.withRegistration(ctx, "InviteMember", registrationID, actorID, func(s *scope) error {
		if err := s.authorize(); err != nil {
			return err
		}
		if s.reg.IsClosed() {
			return domain.ErrRegistrationClosed
		}
		if s.reg.Status != domain.RegistrationStatusForming {
			return domain.ErrInvalidState
		}

		var err error
		inv, err = s.createInvite(inviteeID)
		if err != nil {
			return err
		}
		trace.SpanFromContext(s.ctx).SetAttributes(attribute.String("invite.id", inv.ID.String()))
		return s.recompute()
	})
	if err != nil {
		return nil, err
	}
	return &InviteOutcome{Invite: inv, Registration: reg}, nil
}

// RespondToInvite records the invitee's decision. Accepting seats the
// invitee under gameAccountID; if that fills the roster the remaining pending
// invites are cancelled. gameAccountID is ignored for rejections.
func (svc *Service) RespondToInvite(ctx context.Context, inviteID, actorID uuid.UUID, decision Decision, gameAccountID uuid.UUID) (*InviteOutcome, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, fmt.Errorf("unknown invite decision %q", decision)
	}
	return svc.transitionInvite(ctx, "RespondToInvite", inviteID, actorID, func(s *scope, inv *domain.Invite) error {
		if decision == DecisionAccept {
			return s.acceptInvite(inv, gameAccountID)
		}
		return s.rejectInvite(inv)
	})
}

// CancelInvite withdraws a pending invite.
func (svc *Service) CancelInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*InviteOutcome, error) {
	return svc.transitionInvite(ctx, "CancelInvite", inviteID, actorID, func(s *scope, inv *domain.Invite) error {
		return s.cancelInvite(inv)
	})
}

func (svc *Service) transitionInvite(ctx context.Context, op string, inviteID, actorID uuid.UUID, fn func(*scope, *domain.Invite) error) (*InviteOutcome, error) {
	// An invite never moves between registrations, so the unlocked read is
	// only used to find which registration to lock.
	found, err := svc.store.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	var inv *domain.Invite
	reg, err := svc.withRegistration(ctx, op, found.RegistrationID, actorID, func(s *scope) error {
		trace.SpanFromContext(s.ctx).SetAttributes(attribute.String("invite.id", inviteID.String()))

		var err error
		inv, err = s.tx.GetInvite(s.ctx, inviteID)
		if err != nil {
			return err
		}
		if err := fn(s, inv); err != nil {
			return err
		}
		return s.recompute()
	})
	if err != nil {
		return nil, err
	}
	return &InviteOutcome{Invite: inv, Registration: reg}, nil
}

// RemoveMember evicts a non-captain member.
func (svc *Service) RemoveMember(ctx context.Context, registrationID, actorID, accountID uuid.UUID) (*domain.Registration, error) {
	return svc.withRegistration(ctx, "RemoveMember", registrationID, actorID, func(s *scope) error {
		if err := s.authorize(); err != nil {
			return err
		}
		if s.reg.IsClosed() {
			return domain.ErrRegistrationClosed
		}
		if err := s.removeMember(accountID, domain.RemovalReasonEvicted); err != nil {
			return err
		}
		return s.recompute()
	})
}

// LeaveRegistration takes the actor off a roster they belong to.
func (svc *Service) LeaveRegistration(ctx context.Context, registrationID, actorID uuid.UUID) (*domain.Registration, error) {
	return svc.withRegistration(ctx, "LeaveRegistration", registrationID, actorID, func(s *scope) error {
		if s.reg.IsClosed() {
			return domain.ErrRegistrationClosed
		}
		if err := s.removeMember(s.actor, domain.RemovalReasonLeft); err != nil {
			return err
		}
		return s.recompute()
	})
}

// SubmitRegistration locks a valid roster. Locking twice is a no-op.
func (svc *Service) SubmitRegistration(ctx context.Context, registrationID, actorID uuid.UUID) (*domain.Registration, error) {
	return svc.withRegistration(ctx, "SubmitRegistration", registrationID, actorID, func(s *scope) error {
		if err := s.authorize(); err != nil {
			return err
		}
		if s.reg.IsCancelled() {
			return domain.ErrRegistrationClosed
		}
		if s.reg.IsLocked() {
			return nil
		}
		if s.reg.Status != domain.RegistrationStatusValid {
			return domain.ErrInvalidState
		}

		lockedAt := s.now
		s.reg.LockedAt = &lockedAt
		s.dirty = true
		s.record(domain.EventRegistrationLocked, uuid.Nil, uuid.Nil, "")
		return nil
	})
}

// CancelRegistration withdraws the team. Pending invites are cancelled and
// the roster emptied in the same transaction. Cancelling twice is a no-op.
func (svc *Service) CancelRegistration(ctx context.Context, registrationID, actorID uuid.UUID) (*domain.Registration, error) {
	return svc.withRegistration(ctx, "CancelRegistration", registrationID, actorID, func(s *scope) error {
		if err := s.authorize(); err != nil {
			return err
		}
		if s.reg.IsCancelled() {
			return nil
		}

		if err := s.cancelPending(domain.CloseReasonRegistrationCancelled); err != nil {
			return err
		}
		if err := s.removeAll(domain.RemovalReasonRegistrationCancelled); err != nil {
			return err
		}

		cancelledAt := s.now
		s.reg.Status = domain.RegistrationStatusCancelled
		s.reg.CancelledAt = &cancelledAt
		s.dirty = true
		s.record(domain.EventRegistrationCancelled, uuid.Nil, uuid.Nil, "")
		return nil
	})
}
