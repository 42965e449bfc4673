package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// uniqueIndex ties a unique index to the domain error it enforces. Postgres
// reports the index by name; SQLite reports the indexed columns.
type uniqueIndex struct {
	name    string
	columns string
	err     error
}

var uniqueIndexes = []uniqueIndex{
	{"ux_registrations_open_captain", "registrations.competition_id, registrations.captain_account_id", domain.ErrDuplicateRegistration},
	{"ux_registrations_open_team_name", "registrations.competition_id, registrations.team_name_key", domain.ErrDuplicateTeamName},
	{"ux_invites_pending", "invites.registration_id, invites.invitee_account_id", domain.ErrDuplicateInvite},
	{"ux_memberships_active", "memberships.registration_id, memberships.account_id", domain.ErrAlreadyMember},
	{"ux_memberships_active_competition", "memberships.competition_id, memberships.account_id", domain.ErrAlreadyOnTeam},
}

// mapUniqueViolation translates a unique-index violation into its domain
// error. Other errors are returned unchanged.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return err
		}
		for _, idx := range uniqueIndexes {
			if pqErr.Constraint == idx.name {
				return idx.err
			}
		}
		return err
	}

	if !isSQLiteUniqueViolation(err) {
		return err
	}
	message := err.Error()
	for _, idx := range uniqueIndexes {
		if strings.Contains(message, idx.columns) || strings.Contains(message, idx.name) {
			return idx.err
		}
	}
	return err
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
