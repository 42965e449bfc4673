package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// InvitesRepository handles invite persistence. Invites are never deleted.
type InvitesRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewInvitesRepository creates a new invites repository.
func NewInvitesRepository(db *sql.DB, dialect Dialect) *InvitesRepository {
	return &InvitesRepository{db: db, dialect: dialect}
}

const inviteColumns = `i.id, i.registration_id, i.invitee_account_id, i.invited_by, i.status,
	i.close_reason, i.created_at, i.updated_at, i.responded_at`

// CreateTx inserts a pending invite within a transaction.
func (r *InvitesRepository) CreateTx(ctx context.Context, q Querier, inv *domain.Invite) error {
	query := r.dialect.Rebind(`
		INSERT INTO invites (id, registration_id, invitee_account_id, invited_by, status,
			close_reason, created_at, updated_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := q.ExecContext(ctx, query,
		inv.ID, inv.RegistrationID, inv.InviteeAccountID, inv.InvitedBy, inv.Status,
		inv.CloseReason, toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt), nullMillis(inv.RespondedAt),
	)
	return mapUniqueViolation(err)
}

// UpdateTx persists an invite's status change.
func (r *InvitesRepository) UpdateTx(ctx context.Context, q Querier, inv *domain.Invite) error {
	query := r.dialect.Rebind(`
		UPDATE invites
		SET status = ?, close_reason = ?, updated_at = ?, responded_at = ?
		WHERE id = ?
	`)
	result, err := q.ExecContext(ctx, query,
		inv.Status, inv.CloseReason, toMillis(inv.UpdatedAt), nullMillis(inv.RespondedAt), inv.ID,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInviteNotFound
	}
	return nil
}

// GetByID retrieves an invite by ID.
func (r *InvitesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

// GetByIDTx retrieves an invite within a transaction.
func (r *InvitesRepository) GetByIDTx(ctx context.Context, q Querier, id uuid.UUID) (*domain.Invite, error) {
	query := r.dialect.Rebind(`SELECT ` + inviteColumns + ` FROM invites i WHERE i.id = ?`)
	inv, err := scanInvite(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	return inv, err
}

// HasPendingTx reports whether a pending invite exists for the pair.
func (r *InvitesRepository) HasPendingTx(ctx context.Context, q Querier, registrationID, accountID uuid.UUID) (bool, error) {
	query := r.dialect.Rebind(`
		SELECT EXISTS(
			SELECT 1 FROM invites
			WHERE registration_id = ? AND invitee_account_id = ? AND status = 'pending'
		)
	`)
	var exists bool
	err := q.QueryRowContext(ctx, query, registrationID, accountID).Scan(&exists)
	return exists, err
}

// ListPendingTx returns a registration's pending invites, oldest first.
func (r *InvitesRepository) ListPendingTx(ctx context.Context, q Querier, registrationID uuid.UUID) ([]*domain.Invite, error) {
	query := r.dialect.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites i
		WHERE i.registration_id = ? AND i.status = 'pending'
		ORDER BY i.created_at ASC, i.id ASC
	`)
	return r.list(ctx, q, query, registrationID)
}

// ListByRegistrationTx returns every invite of a registration, oldest first.
func (r *InvitesRepository) ListByRegistrationTx(ctx context.Context, q Querier, registrationID uuid.UUID) ([]*domain.Invite, error) {
	query := r.dialect.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites i
		WHERE i.registration_id = ?
		ORDER BY i.created_at ASC, i.id ASC
	`)
	return r.list(ctx, q, query, registrationID)
}

// ListIncoming returns invites addressed to an account, newest first.
// An empty status matches every status.
func (r *InvitesRepository) ListIncoming(ctx context.Context, accountID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	query := r.dialect.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites i
		WHERE i.invitee_account_id = ? AND (? = '' OR i.status = ?)
		ORDER BY i.created_at DESC, i.id DESC
	`)
	return r.list(ctx, r.db, query, accountID, string(status), string(status))
}

// ListOutgoing returns invites issued by registrations the account captains,
// newest first. An empty status matches every status.
func (r *InvitesRepository) ListOutgoing(ctx context.Context, captainID uuid.UUID, status domain.InviteStatus) ([]*domain.Invite, error) {
	query := r.dialect.Rebind(`
		SELECT ` + inviteColumns + `
		FROM invites i
		INNER JOIN registrations reg ON reg.id = i.registration_id
		WHERE reg.captain_account_id = ? AND (? = '' OR i.status = ?)
		ORDER BY i.created_at DESC, i.id DESC
	`)
	return r.list(ctx, r.db, query, captainID, string(status), string(status))
}

// PendingSummary counts an account's pending invites and reports the newest.
func (r *InvitesRepository) PendingSummary(ctx context.Context, accountID uuid.UUID) (*domain.InviteSummary, error) {
	query := r.dialect.Rebind(`
		SELECT COUNT(*), MAX(created_at)
		FROM invites
		WHERE invitee_account_id = ? AND status = 'pending'
	`)
	var count int
	var latest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count, &latest); err != nil {
		return nil, err
	}
	return &domain.InviteSummary{PendingCount: count, LatestCreatedAt: timePtr(latest)}, nil
}

func (r *InvitesRepository) list(ctx context.Context, q Querier, query string, args ...any) ([]*domain.Invite, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row rowScanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var createdAt, updatedAt int64
	var respondedAt sql.NullInt64
	err := row.Scan(
		&inv.ID, &inv.RegistrationID, &inv.InviteeAccountID, &inv.InvitedBy, &inv.Status,
		&inv.CloseReason, &createdAt, &updatedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	inv.RespondedAt = timePtr(respondedAt)
	return inv, nil
}
