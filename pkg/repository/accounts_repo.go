package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// AccountsRepository reads the account directory.
type AccountsRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *sql.DB, dialect Dialect) *AccountsRepository {
	return &AccountsRepository{db: db, dialect: dialect}
}

const accountColumns = `id, username, email, display_name, role, is_active, created_at`

// GetByID retrieves an account by ID.
func (r *AccountsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsernameOrEmail retrieves an account by username or email.
// Emails are matched case-insensitively.
func (r *AccountsRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	query := r.dialect.Rebind(`
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE username = ? OR email = ?
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		LIMIT 1
	`)
	return scanAccount(r.db.QueryRowContext(ctx, query, identifier, strings.ToLower(identifier), identifier))
}

// IsActive reports whether the account may captain or join a team.
func (r *AccountsRepository) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	query := r.dialect.Rebind(`SELECT is_active FROM accounts WHERE id = ?`)
	var active bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrAccountNotFound
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// IsAdmin reports whether the account holds the admin role and is active.
func (r *AccountsRepository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	account, err := r.GetByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.Active && account.IsAdmin(), nil
}

// GetGameAccount retrieves a game account by ID.
func (r *AccountsRepository) GetGameAccount(ctx context.Context, id uuid.UUID) (*domain.GameAccount, error) {
	query := r.dialect.Rebind(`
		SELECT id, account_id, game_id, ingame_name, is_active, created_at
		FROM game_accounts
		WHERE id = ?
	`)

	var ga domain.GameAccount
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ga.ID, &ga.AccountID, &ga.GameID, &ga.InGameName, &ga.Active, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGameAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	ga.CreatedAt = fromMillis(createdAt)
	return &ga, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var createdAt int64
	err := row.Scan(
		&account.ID, &account.Username, &account.Email, &account.DisplayName,
		&account.Role, &account.Active, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	account.CreatedAt = fromMillis(createdAt)
	return account, nil
}
