// Package testutil builds SQLite-backed fixtures for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"github.com/tendant/turnaplay-teams/pkg/repository"
	"github.com/tendant/turnaplay-teams/pkg/teams"
)

// OpenDB opens a migrated SQLite database in a temporary directory. The
// database is closed when the test ends.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, repository.Config{
		Driver: repository.DialectSQLite,
		Path:   filepath.Join(t.TempDir(), "teams.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := repository.Migrate(ctx, db, repository.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture bundles a database with the repositories and coordinator over it.
// Every competition it creates is played in Game unless stated otherwise,
// and every account it creates gets an active game account for Game.
type Fixture struct {
	DB           *sql.DB
	Accounts     *repository.AccountsRepository
	Competitions *repository.CompetitionsRepository
	Store        *repository.Store
	Service      *teams.Service
	Game         uuid.UUID

	gameAccounts map[uuid.UUID]uuid.UUID
}

// New builds a fixture. opts are passed to teams.NewService.
func New(t testing.TB, opts ...teams.Option) *Fixture {
	t.Helper()

	db := OpenDB(t)
	accounts := repository.NewAccountsRepository(db, repository.DialectSQLite)
	competitions := repository.NewCompetitionsRepository(db, repository.DialectSQLite)
	store := repository.NewStore(db, repository.DialectSQLite)

	f := &Fixture{
		DB:           db,
		Accounts:     accounts,
		Competitions: competitions,
		Store:        store,
		Service:      teams.NewService(store, accounts, competitions, opts...),
		gameAccounts: make(map[uuid.UUID]uuid.UUID),
	}
	f.Game = f.NewGame(t, "Default Game")
	return f
}

// Account inserts an active user account and returns its ID.
func (f *Fixture) Account(t testing.TB, username string) uuid.UUID {
	t.Helper()
	return f.account(t, username, domain.AccountRoleUser, true)
}

// InactiveAccount inserts a deactivated account and returns its ID.
func (f *Fixture) InactiveAccount(t testing.TB, username string) uuid.UUID {
	t.Helper()
	return f.account(t, username, domain.AccountRoleUser, false)
}

// Admin inserts an active admin account and returns its ID.
func (f *Fixture) Admin(t testing.TB, username string) uuid.UUID {
	t.Helper()
	return f.account(t, username, domain.AccountRoleAdmin, true)
}

func (f *Fixture) account(t testing.TB, username string, role domain.AccountRole, active bool) uuid.UUID {
	t.Helper()
	account := &domain.Account{
		ID:          uuid.New(),
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
		Role:        role,
		Active:      active,
		CreatedAt:   time.Now(),
	}
	if err := InsertAccount(context.Background(), f.DB, account); err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	f.gameAccounts[account.ID] = f.GameAccount(t, account.ID, f.Game, true)
	return account.ID
}

// GameAccountOf returns the game account created for accountID in Game.
func (f *Fixture) GameAccountOf(t testing.TB, accountID uuid.UUID) uuid.UUID {
	t.Helper()
	id, ok := f.gameAccounts[accountID]
	if !ok {
		t.Fatalf("no game account for %s", accountID)
	}
	return id
}

// GameAccount inserts a game account for accountID in gameID.
func (f *Fixture) GameAccount(t testing.TB, accountID, gameID uuid.UUID, active bool) uuid.UUID {
	t.Helper()
	ga := &domain.GameAccount{
		ID:         uuid.New(),
		AccountID:  accountID,
		GameID:     gameID,
		InGameName: "player-" + uuid.NewString()[:8],
		Active:     active,
		CreatedAt:  time.Now(),
	}
	if err := InsertGameAccount(context.Background(), f.DB, ga); err != nil {
		t.Fatalf("create game account: %v", err)
	}
	return ga.ID
}

// NewGame inserts a game and returns its ID.
func (f *Fixture) NewGame(t testing.TB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := InsertGame(context.Background(), f.DB, id, name); err != nil {
		t.Fatalf("create game %s: %v", name, err)
	}
	return id
}

// SetAccountActive flips an account's active flag.
func (f *Fixture) SetAccountActive(t testing.TB, accountID uuid.UUID, active bool) {
	t.Helper()
	if _, err := f.DB.ExecContext(context.Background(),
		`UPDATE accounts SET is_active = ? WHERE id = ?`, active, accountID); err != nil {
		t.Fatalf("set account active: %v", err)
	}
}

// Competition inserts a competition in Game with the given roster bounds.
func (f *Fixture) Competition(t testing.TB, required, max int) uuid.UUID {
	t.Helper()
	c := &domain.Competition{
		ID:               uuid.New(),
		Name:             "Competition " + uuid.NewString()[:8],
		GameID:           f.Game,
		RequiredTeamSize: required,
		MaxTeamSize:      max,
		CreatedAt:        time.Now(),
	}
	if err := InsertCompetition(context.Background(), f.DB, c); err != nil {
		t.Fatalf("create competition: %v", err)
	}
	return c.ID
}

// The directory tables are owned by other services; these inserts seed
// them for tests only.

// InsertGame seeds a game row.
func InsertGame(ctx context.Context, db *sql.DB, id uuid.UUID, name string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO games (id, name) VALUES (?, ?)`, id, name)
	return err
}

// InsertAccount seeds an account row.
func InsertAccount(ctx context.Context, db *sql.DB, a *domain.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, display_name, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Username, strings.ToLower(a.Email), a.DisplayName, a.Role, a.Active, a.CreatedAt.UnixMilli())
	return err
}

// InsertGameAccount seeds a game account row.
func InsertGameAccount(ctx context.Context, db *sql.DB, ga *domain.GameAccount) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO game_accounts (id, account_id, game_id, ingame_name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ga.ID, ga.AccountID, ga.GameID, ga.InGameName, ga.Active, ga.CreatedAt.UnixMilli())
	return err
}

// InsertCompetition seeds a competition row.
func InsertCompetition(ctx context.Context, db *sql.DB, c *domain.Competition) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO competitions (id, name, game_id, required_team_size, max_team_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.GameID, c.RequiredTeamSize, c.MaxTeamSize, c.CreatedAt.UnixMilli())
	return err
}
