package teams

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// Invite lifecycle: pending -> accepted | rejected | cancelled. Every check
// below runs on the locked registration.

// createInvite issues a pending invite for inviteeID.
func (s *scope) createInvite(inviteeID uuid.UUID) (*domain.Invite, error) {
	pending, err := s.tx.HasPendingInvite(s.ctx, s.reg.ID, inviteeID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrDuplicateInvite
	}

	if err := s.requireActive(inviteeID); err != nil {
		return nil, err
	}

	_, err = s.tx.GetActiveMembership(s.ctx, s.reg.ID, inviteeID)
	if err == nil {
		return nil, domain.ErrAlreadyMember
	}
	if !errors.Is(err, domain.ErrNotMember) {
		return nil, err
	}

	onTeam, err := s.tx.HasActiveMembershipInCompetition(s.ctx, s.reg.CompetitionID, inviteeID)
	if err != nil {
		return nil, err
	}
	if onTeam {
		return nil, domain.ErrAlreadyOnTeam
	}

	inv := &domain.Invite{
		ID:               s.svc.newID(),
		RegistrationID:   s.reg.ID,
		InviteeAccountID: inviteeID,
		InvitedBy:        s.actor,
		Status:           domain.InviteStatusPending,
		CreatedAt:        s.now,
		UpdatedAt:        s.now,
	}
	if err := s.tx.CreateInvite(s.ctx, inv); err != nil {
		return nil, err
	}
	s.record(domain.EventInviteCreated, inviteeID, inv.ID, "")
	return inv, nil
}

// checkRespondable rejects transitions on a closed registration or a
// settled invite.
func (s *scope) checkRespondable(inv *domain.Invite) error {
	if s.reg.IsClosed() {
		return domain.ErrRegistrationClosed
	}
	if !inv.IsPending() {
		return domain.ErrInvalidState
	}
	return nil
}

// acceptInvite seats the invitee under gameAccountID and settles the invite.
func (s *scope) acceptInvite(inv *domain.Invite, gameAccountID uuid.UUID) error {
	// Invites swept when the roster filled lost the capacity race. Only the
	// invitee is told so; anyone else sees a settled invite.
	if inv.InviteeAccountID == s.actor && !s.reg.IsClosed() &&
		inv.Status == domain.InviteStatusCancelled && inv.CloseReason == domain.CloseReasonRosterFull {
		return domain.ErrCapacityExceeded
	}
	if err := s.checkRespondable(inv); err != nil {
		return err
	}
	if inv.InviteeAccountID != s.actor {
		return domain.ErrNotInvitee
	}
	if err := s.requireActive(s.actor); err != nil {
		return err
	}
	if err := s.requireGameAccount(s.actor, gameAccountID); err != nil {
		return err
	}

	if _, err := s.addMember(s.actor, gameAccountID, domain.MembershipRoleMember, inv.ID); err != nil {
		return err
	}
	if err := s.settle(inv, domain.InviteStatusAccepted, domain.CloseReasonNone); err != nil {
		return err
	}
	return s.closeIfFull()
}

// rejectInvite settles the invite without touching the roster.
func (s *scope) rejectInvite(inv *domain.Invite) error {
	if err := s.checkRespondable(inv); err != nil {
		return err
	}
	if inv.InviteeAccountID != s.actor {
		return domain.ErrNotInvitee
	}
	return s.settle(inv, domain.InviteStatusRejected, domain.CloseReasonNone)
}

// cancelInvite withdraws a pending invite on the captain's behalf.
func (s *scope) cancelInvite(inv *domain.Invite) error {
	if err := s.checkRespondable(inv); err != nil {
		return err
	}
	if err := s.authorize(); err != nil {
		return err
	}
	return s.settle(inv, domain.InviteStatusCancelled, domain.CloseReasonCancelledByCaptain)
}

// closeIfFull cancels the remaining pending invites once the roster has
// reached the competition maximum.
func (s *scope) closeIfFull() error {
	count, err := s.memberCount()
	if err != nil {
		return err
	}
	if s.size.HasRoomFor(count) {
		return nil
	}
	return s.cancelPending(domain.CloseReasonRosterFull)
}

// cancelPending cancels every pending invite of the registration.
func (s *scope) cancelPending(reason domain.CloseReason) error {
	pending, err := s.tx.ListPendingInvites(s.ctx, s.reg.ID)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		if err := s.settle(inv, domain.InviteStatusCancelled, reason); err != nil {
			return err
		}
	}
	return nil
}

func (s *scope) settle(inv *domain.Invite, to domain.InviteStatus, reason domain.CloseReason) error {
	if err := inv.Transition(to, reason, s.now); err != nil {
		return err
	}
	if err := s.tx.UpdateInvite(s.ctx, inv); err != nil {
		return err
	}

	var typ domain.EventType
	switch to {
	case domain.InviteStatusAccepted:
		typ = domain.EventInviteAccepted
	case domain.InviteStatusRejected:
		typ = domain.EventInviteRejected
	default:
		typ = domain.EventInviteCancelled
	}
	s.record(typ, inv.InviteeAccountID, inv.ID, string(reason))
	return nil
}
