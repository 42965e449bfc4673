package teams

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// addMember seats accountID on the roster under gameAccountID.
func (s *scope) addMember(accountID, gameAccountID uuid.UUID, role domain.MembershipRole, inviteID uuid.UUID) (*domain.Membership, error) {
	_, err := s.tx.GetActiveMembership(s.ctx, s.reg.ID, accountID)
	if err == nil {
		return nil, domain.ErrAlreadyMember
	}
	if !errors.Is(err, domain.ErrNotMember) {
		return nil, err
	}

	count, err := s.memberCount()
	if err != nil {
		return nil, err
	}
	if !s.size.HasRoomFor(count) {
		return nil, domain.ErrCapacityExceeded
	}

	onTeam, err := s.tx.HasActiveMembershipInCompetition(s.ctx, s.reg.CompetitionID, accountID)
	if err != nil {
		return nil, err
	}
	if onTeam {
		return nil, domain.ErrAlreadyOnTeam
	}

	m := &domain.Membership{
		ID:             s.svc.newID(),
		RegistrationID: s.reg.ID,
		CompetitionID:  s.reg.CompetitionID,
		AccountID:      accountID,
		GameAccountID:  gameAccountID,
		Role:           role,
		JoinedAt:       s.now,
	}
	if inviteID != uuid.Nil {
		m.InviteID = uuid.NullUUID{UUID: inviteID, Valid: true}
	}
	if err := s.tx.CreateMembership(s.ctx, m); err != nil {
		return nil, err
	}
	s.record(domain.EventMemberJoined, accountID, inviteID, string(role))
	return m, nil
}

// removeMember takes a non-captain off the roster.
func (s *scope) removeMember(accountID uuid.UUID, reason domain.RemovalReason) error {
	m, err := s.tx.GetActiveMembership(s.ctx, s.reg.ID, accountID)
	if err != nil {
		return err
	}
	if m.Role == domain.MembershipRoleCaptain || s.reg.IsCaptain(accountID) {
		return domain.ErrCannotRemoveCaptain
	}
	return s.release(m, reason)
}

// removeAll empties the roster, captain included.
func (s *scope) removeAll(reason domain.RemovalReason) error {
	members, err := s.tx.ListActiveMemberships(s.ctx, s.reg.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := s.release(m, reason); err != nil {
			return err
		}
	}
	return nil
}

func (s *scope) release(m *domain.Membership, reason domain.RemovalReason) error {
	removedAt := s.now
	m.RemovedAt = &removedAt
	m.RemovalReason = reason
	if err := s.tx.UpdateMembership(s.ctx, m); err != nil {
		return err
	}

	typ := domain.EventMemberRemoved
	if reason == domain.RemovalReasonLeft {
		typ = domain.EventMemberLeft
	}
	s.record(typ, m.AccountID, uuid.Nil, string(reason))
	return nil
}

// memberCount returns the number of active members.
func (s *scope) memberCount() (int, error) {
	return s.tx.CountActiveMemberships(s.ctx, s.reg.ID)
}
