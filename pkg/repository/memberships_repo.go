package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// MembershipsRepository handles roster persistence. Removed memberships are
// kept with removed_at set.
type MembershipsRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB, dialect Dialect) *MembershipsRepository {
	return &MembershipsRepository{db: db, dialect: dialect}
}

const membershipColumns = `id, registration_id, competition_id, account_id, game_account_id, role,
	invite_id, joined_at, removed_at, removal_reason`

// CreateTx creates a new membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, m *domain.Membership) error {
	query := r.dialect.Rebind(`
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := q.ExecContext(ctx, query,
		m.ID,
		m.RegistrationID,
		m.CompetitionID,
		m.AccountID,
		m.GameAccountID,
		m.Role,
		m.InviteID,
		toMillis(m.JoinedAt),
		nullMillis(m.RemovedAt),
		m.RemovalReason,
	)
	return mapUniqueViolation(err)
}

// UpdateTx persists a membership's removal.
func (r *MembershipsRepository) UpdateTx(ctx context.Context, q Querier, m *domain.Membership) error {
	query := r.dialect.Rebind(`
		UPDATE memberships
		SET removed_at = ?, removal_reason = ?
		WHERE id = ?
	`)
	result, err := q.ExecContext(ctx, query, nullMillis(m.RemovedAt), m.RemovalReason, m.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotMember
	}

	return nil
}

// GetActiveTx returns the account's active membership in a registration.
func (r *MembershipsRepository) GetActiveTx(ctx context.Context, q Querier, registrationID, accountID uuid.UUID) (*domain.Membership, error) {
	query := r.dialect.Rebind(`
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE registration_id = ? AND account_id = ? AND removed_at IS NULL
	`)
	m, err := scanMembership(q.QueryRowContext(ctx, query, registrationID, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotMember
	}
	return m, err
}

// ExistsActiveInCompetitionTx reports whether the account is on any active
// roster for the competition.
func (r *MembershipsRepository) ExistsActiveInCompetitionTx(ctx context.Context, q Querier, competitionID, accountID uuid.UUID) (bool, error) {
	query := r.dialect.Rebind(`
		SELECT EXISTS(
			SELECT 1 FROM memberships
			WHERE competition_id = ? AND account_id = ? AND removed_at IS NULL
		)
	`)
	var exists bool
	err := q.QueryRowContext(ctx, query, competitionID, accountID).Scan(&exists)
	return exists, err
}

// CountActiveTx counts a registration's active members.
func (r *MembershipsRepository) CountActiveTx(ctx context.Context, q Querier, registrationID uuid.UUID) (int, error) {
	query := r.dialect.Rebind(`
		SELECT COUNT(*) FROM memberships
		WHERE registration_id = ? AND removed_at IS NULL
	`)
	var count int
	err := q.QueryRowContext(ctx, query, registrationID).Scan(&count)
	return count, err
}

// ListActiveTx retrieves a registration's roster, captain first.
func (r *MembershipsRepository) ListActiveTx(ctx context.Context, q Querier, registrationID uuid.UUID) ([]*domain.Membership, error) {
	query := r.dialect.Rebind(`
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE registration_id = ? AND removed_at IS NULL
		ORDER BY CASE WHEN role = 'captain' THEN 0 ELSE 1 END, joined_at ASC, id ASC
	`)

	rows, err := q.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	m := &domain.Membership{}
	var joinedAt int64
	var removedAt sql.NullInt64
	err := row.Scan(
		&m.ID,
		&m.RegistrationID,
		&m.CompetitionID,
		&m.AccountID,
		&m.GameAccountID,
		&m.Role,
		&m.InviteID,
		&joinedAt,
		&removedAt,
		&m.RemovalReason,
	)
	if err != nil {
		return nil, err
	}
	m.JoinedAt = fromMillis(joinedAt)
	m.RemovedAt = timePtr(removedAt)
	return m, nil
}
