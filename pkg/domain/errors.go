package domain

import "errors"

// Authorization errors
var (
	ErrNotCaptain = errors.New("only the team captain can perform this action")
	ErrNotInvitee = errors.New("only the invited account can respond to this invite")
)

// State errors
var (
	ErrInvalidState       = errors.New("invite or registration is not in a state that allows this action")
	ErrRegistrationClosed = errors.New("registration is closed")
)

// Integrity errors
var (
	ErrDuplicateInvite       = errors.New("a pending invite already exists for this account")
	ErrAlreadyMember         = errors.New("account is already a member of this team")
	ErrDuplicateRegistration = errors.New("captain already has a registration for this competition")
	ErrDuplicateTeamName     = errors.New("team name is already taken in this competition")
	ErrAlreadyOnTeam         = errors.New("account already belongs to another team in this competition")
	ErrNotMember             = errors.New("account is not a member of this team")
	ErrCannotRemoveCaptain   = errors.New("the captain cannot be removed from the team")
)

// Input errors
var (
	ErrInvalidTeamName = errors.New("team name must be between 1 and 100 characters")
)

// Capacity errors
var (
	ErrCapacityExceeded = errors.New("team is already full")
)

// Referential errors
var (
	ErrInactiveAccount = errors.New("account is not active")
)

// Lookup errors
var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrCompetitionNotFound  = errors.New("competition not found")
	ErrGameAccountNotFound  = errors.New("game account not found")
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindIntegrity     Kind = "integrity"
	KindCapacity      Kind = "capacity"
	KindInvalidInput  Kind = "invalid_input"
	KindReferential   Kind = "referential"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotCaptain, KindAuthorization},
	{ErrNotInvitee, KindAuthorization},
	{ErrInvalidState, KindState},
	{ErrRegistrationClosed, KindState},
	{ErrDuplicateInvite, KindIntegrity},
	{ErrAlreadyMember, KindIntegrity},
	{ErrDuplicateRegistration, KindIntegrity},
	{ErrDuplicateTeamName, KindIntegrity},
	{ErrAlreadyOnTeam, KindIntegrity},
	{ErrNotMember, KindIntegrity},
	{ErrCannotRemoveCaptain, KindIntegrity},
	{ErrCapacityExceeded, KindCapacity},
	{ErrInvalidTeamName, KindInvalidInput},
	{ErrInactiveAccount, KindReferential},
	{ErrRegistrationNotFound, KindNotFound},
	{ErrInviteNotFound, KindNotFound},
	{ErrAccountNotFound, KindNotFound},
	{ErrCompetitionNotFound, KindNotFound},
	{ErrGameAccountNotFound, KindNotFound},
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsValidation reports whether err is a recoverable workflow rejection
// rather than an infrastructure failure.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindInternal, KindNotFound:
		return false
	default:
		return err != nil
	}
}
