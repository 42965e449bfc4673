package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// RegistrationsRepository handles team registration persistence.
type RegistrationsRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewRegistrationsRepository creates a new registrations repository.
func NewRegistrationsRepository(db *sql.DB, dialect Dialect) *RegistrationsRepository {
	return &RegistrationsRepository{db: db, dialect: dialect}
}

const registrationColumns = `id, competition_id, captain_account_id, team_name, status,
	created_at, updated_at, locked_at, cancelled_at`

// CreateTx inserts a registration within a transaction.
func (r *RegistrationsRepository) CreateTx(ctx context.Context, q Querier, reg *domain.Registration) error {
	query := r.dialect.Rebind(`
		INSERT INTO registrations (id, competition_id, captain_account_id, team_name, team_name_key,
			status, created_at, updated_at, locked_at, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := q.ExecContext(ctx, query,
		reg.ID, reg.CompetitionID, reg.CaptainAccountID, reg.TeamName, teamNameKey(reg.TeamName),
		reg.Status, toMillis(reg.CreatedAt), toMillis(reg.UpdatedAt),
		nullMillis(reg.LockedAt), nullMillis(reg.CancelledAt),
	)
	return mapUniqueViolation(err)
}

// UpdateTx persists the mutable fields of a registration.
func (r *RegistrationsRepository) UpdateTx(ctx context.Context, q Querier, reg *domain.Registration) error {
	query := r.dialect.Rebind(`
		UPDATE registrations
		SET status = ?, updated_at = ?, locked_at = ?, cancelled_at = ?
		WHERE id = ?
	`)
	result, err := q.ExecContext(ctx, query,
		reg.Status, toMillis(reg.UpdatedAt), nullMillis(reg.LockedAt), nullMillis(reg.CancelledAt), reg.ID,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

// GetByID retrieves a registration without locking it.
func (r *RegistrationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx retrieves a registration within a transaction.
func (r *RegistrationsRepository) GetByIDTx(ctx context.Context, q Querier, id uuid.UUID) (*domain.Registration, error) {
	query := r.dialect.Rebind(`SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`)
	return scanRegistration(q.QueryRowContext(ctx, query, id))
}

// GetForUpdateTx retrieves a registration and locks its row until the
// transaction ends.
func (r *RegistrationsRepository) GetForUpdateTx(ctx context.Context, q Querier, id uuid.UUID) (*domain.Registration, error) {
	query := r.dialect.Rebind(`SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?` + r.dialect.forUpdate())
	return scanRegistration(q.QueryRowContext(ctx, query, id))
}

// FindOpenTx returns the captain's non-cancelled registration for a competition.
func (r *RegistrationsRepository) FindOpenTx(ctx context.Context, q Querier, competitionID, captainID uuid.UUID) (*domain.Registration, error) {
	query := r.dialect.Rebind(`
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE competition_id = ? AND captain_account_id = ? AND status <> 'cancelled'
	`)
	return scanRegistration(q.QueryRowContext(ctx, query, competitionID, captainID))
}

func scanRegistration(row *sql.Row) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var createdAt, updatedAt int64
	var lockedAt, cancelledAt sql.NullInt64
	err := row.Scan(
		&reg.ID, &reg.CompetitionID, &reg.CaptainAccountID, &reg.TeamName, &reg.Status,
		&createdAt, &updatedAt, &lockedAt, &cancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	reg.CreatedAt = fromMillis(createdAt)
	reg.UpdatedAt = fromMillis(updatedAt)
	reg.LockedAt = timePtr(lockedAt)
	reg.CancelledAt = timePtr(cancelledAt)
	return reg, nil
}

// teamNameKey is the case-folded form team names are compared by.
func teamNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
