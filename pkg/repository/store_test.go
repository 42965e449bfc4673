package repository_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/testutil"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"github.com/tendant/turnaplay-teams/pkg/repository"
	"github.com/tendant/turnaplay-teams/pkg/teams"
)

func newRegistration(competitionID, captainID uuid.UUID, name string) *domain.Registration {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Registration{
		ID:               uuid.New(),
		CompetitionID:    competitionID,
		CaptainAccountID: captainID,
		TeamName:         name,
		Status:           domain.RegistrationStatusForming,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	if err := repository.Migrate(ctx, db, repository.DialectSQLite); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var applied int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied migrations = %d, want 1", applied)
	}
}

func TestApplyMigrations_SkipsDownSection(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"extra/001_widgets.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE widgets (id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE widgets;\n")},
		"extra/README.md":       {Data: []byte("not a migration")},
	}
	for i := 0; i < 2; i++ {
		if err := repository.ApplyMigrations(ctx, db, repository.DialectSQLite, fsys, "extra"); err != nil {
			t.Fatalf("ApplyMigrations() run %d error = %v", i+1, err)
		}
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO widgets (id) VALUES ('w1')`); err != nil {
		t.Errorf("widgets table missing: %v", err)
	}
}

func TestUniqueIndexes_MapToDomainErrors(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	comp := f.Competition(t, 2, 4)
	captain := f.Account(t, "captain")
	other := f.Account(t, "other")
	member := f.Account(t, "member")

	regs := f.Store.Registrations
	reg := newRegistration(comp, captain, "Night Owls")
	if err := regs.CreateTx(ctx, f.DB, reg); err != nil {
		t.Fatalf("CreateTx() error = %v", err)
	}

	t.Run("open registration per captain", func(t *testing.T) {
		err := regs.CreateTx(ctx, f.DB, newRegistration(comp, captain, "Early Birds"))
		if !errors.Is(err, domain.ErrDuplicateRegistration) {
			t.Errorf("CreateTx() error = %v, want ErrDuplicateRegistration", err)
		}
	})

	t.Run("team name per competition", func(t *testing.T) {
		err := regs.CreateTx(ctx, f.DB, newRegistration(comp, other, " NIGHT OWLS"))
		if !errors.Is(err, domain.ErrDuplicateTeamName) {
			t.Errorf("CreateTx() error = %v, want ErrDuplicateTeamName", err)
		}
	})

	now := time.Now().UTC().Truncate(time.Millisecond)
	inv := &domain.Invite{
		ID: uuid.New(), RegistrationID: reg.ID, InviteeAccountID: member, InvitedBy: captain,
		Status: domain.InviteStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := f.Store.Invites.CreateTx(ctx, f.DB, inv); err != nil {
		t.Fatalf("invite CreateTx() error = %v", err)
	}

	t.Run("one pending invite", func(t *testing.T) {
		dup := *inv
		dup.ID = uuid.New()
		if err := f.Store.Invites.CreateTx(ctx, f.DB, &dup); !errors.Is(err, domain.ErrDuplicateInvite) {
			t.Errorf("CreateTx() error = %v, want ErrDuplicateInvite", err)
		}
	})

	seat := &domain.Membership{
		ID: uuid.New(), RegistrationID: reg.ID, CompetitionID: comp, AccountID: member,
		GameAccountID: f.GameAccountOf(t, member), Role: domain.MembershipRoleMember, JoinedAt: now,
	}
	if err := f.Store.Memberships.CreateTx(ctx, f.DB, seat); err != nil {
		t.Fatalf("membership CreateTx() error = %v", err)
	}

	t.Run("one active seat per registration", func(t *testing.T) {
		dup := *seat
		dup.ID = uuid.New()
		// Both membership indexes cover this row; either may report first.
		err := f.Store.Memberships.CreateTx(ctx, f.DB, &dup)
		if !errors.Is(err, domain.ErrAlreadyMember) && !errors.Is(err, domain.ErrAlreadyOnTeam) {
			t.Errorf("CreateTx() error = %v, want ErrAlreadyMember or ErrAlreadyOnTeam", err)
		}
	})

	t.Run("one team per competition", func(t *testing.T) {
		otherReg := newRegistration(comp, other, "Early Birds")
		if err := regs.CreateTx(ctx, f.DB, otherReg); err != nil {
			t.Fatalf("CreateTx() error = %v", err)
		}
		dup := *seat
		dup.ID = uuid.New()
		dup.RegistrationID = otherReg.ID
		if err := f.Store.Memberships.CreateTx(ctx, f.DB, &dup); !errors.Is(err, domain.ErrAlreadyOnTeam) {
			t.Errorf("CreateTx() error = %v, want ErrAlreadyOnTeam", err)
		}
	})
}

func TestRegistrations_CancelledFreesName(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	comp := f.Competition(t, 2, 4)
	captain := f.Account(t, "captain")

	regs := f.Store.Registrations
	reg := newRegistration(comp, captain, "Night Owls")
	if err := regs.CreateTx(ctx, f.DB, reg); err != nil {
		t.Fatalf("CreateTx() error = %v", err)
	}

	cancelledAt := time.Now().UTC().Truncate(time.Millisecond)
	reg.Status = domain.RegistrationStatusCancelled
	reg.CancelledAt = &cancelledAt
	if err := regs.UpdateTx(ctx, f.DB, reg); err != nil {
		t.Fatalf("UpdateTx() error = %v", err)
	}

	got, err := regs.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.CancelledAt == nil || !got.CancelledAt.Equal(cancelledAt) {
		t.Errorf("CancelledAt = %v, want %v", got.CancelledAt, cancelledAt)
	}

	if _, err := regs.FindOpenTx(ctx, f.DB, comp, captain); !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Errorf("FindOpenTx() error = %v, want ErrRegistrationNotFound", err)
	}
	if err := regs.CreateTx(ctx, f.DB, newRegistration(comp, captain, "Night Owls")); err != nil {
		t.Errorf("CreateTx() after cancel error = %v", err)
	}
}

func TestAccounts_Lookup(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	alice := f.Account(t, "alice")
	admin := f.Admin(t, "root")
	sleepy := f.InactiveAccount(t, "sleepy")

	tests := []struct {
		name       string
		identifier string
		want       uuid.UUID
	}{
		{"username", "alice", alice},
		{"email", "alice@example.com", alice},
		{"email any case", "ALICE@Example.com", alice},
		{"trimmed", "  root ", admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Accounts.GetByUsernameOrEmail(ctx, tt.identifier)
			if err != nil {
				t.Fatalf("GetByUsernameOrEmail(%q) error = %v", tt.identifier, err)
			}
			if got.ID != tt.want {
				t.Errorf("GetByUsernameOrEmail(%q) = %s, want %s", tt.identifier, got.ID, tt.want)
			}
		})
	}

	if _, err := f.Accounts.GetByUsernameOrEmail(ctx, "nobody"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("GetByUsernameOrEmail(nobody) error = %v, want ErrAccountNotFound", err)
	}

	if active, err := f.Accounts.IsActive(ctx, sleepy); err != nil || active {
		t.Errorf("IsActive(inactive) = %v, %v", active, err)
	}
	if _, err := f.Accounts.IsActive(ctx, uuid.New()); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("IsActive(unknown) error = %v, want ErrAccountNotFound", err)
	}

	if ok, err := f.Accounts.IsAdmin(ctx, admin); err != nil || !ok {
		t.Errorf("IsAdmin(admin) = %v, %v", ok, err)
	}
	if ok, err := f.Accounts.IsAdmin(ctx, alice); err != nil || ok {
		t.Errorf("IsAdmin(user) = %v, %v", ok, err)
	}
	f.SetAccountActive(t, admin, false)
	if ok, _ := f.Accounts.IsAdmin(ctx, admin); ok {
		t.Error("deactivated admin should not pass IsAdmin")
	}
}

func TestAccounts_GetGameAccount(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	alice := f.Account(t, "alice")
	retired := f.GameAccount(t, alice, f.Game, false)

	got, err := f.Accounts.GetGameAccount(ctx, f.GameAccountOf(t, alice))
	if err != nil {
		t.Fatalf("GetGameAccount() error = %v", err)
	}
	if got.AccountID != alice || got.GameID != f.Game || !got.Active {
		t.Errorf("GetGameAccount() = %+v, want active account of alice in %s", got, f.Game)
	}

	got, err = f.Accounts.GetGameAccount(ctx, retired)
	if err != nil {
		t.Fatalf("GetGameAccount(retired) error = %v", err)
	}
	if got.Active {
		t.Error("GetGameAccount(retired).Active = true, want false")
	}

	if _, err := f.Accounts.GetGameAccount(ctx, uuid.New()); !errors.Is(err, domain.ErrGameAccountNotFound) {
		t.Errorf("GetGameAccount(unknown) error = %v, want ErrGameAccountNotFound", err)
	}
}

func TestCompetitions_TeamSize(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	comp := f.Competition(t, 3, 5)

	required, err := f.Competitions.RequiredTeamSize(ctx, comp)
	if err != nil || required != 3 {
		t.Errorf("RequiredTeamSize() = %d, %v; want 3", required, err)
	}
	maxSize, err := f.Competitions.MaxTeamSize(ctx, comp)
	if err != nil || maxSize != 5 {
		t.Errorf("MaxTeamSize() = %d, %v; want 5", maxSize, err)
	}
	if game, err := f.Competitions.GameID(ctx, comp); err != nil || game != f.Game {
		t.Errorf("GameID() = %s, %v; want %s", game, err, f.Game)
	}
	if _, err := f.Competitions.RequiredTeamSize(ctx, uuid.New()); !errors.Is(err, domain.ErrCompetitionNotFound) {
		t.Errorf("RequiredTeamSize(unknown) error = %v, want ErrCompetitionNotFound", err)
	}

	bad := &domain.Competition{ID: uuid.New(), Name: "broken", GameID: f.Game, RequiredTeamSize: 4, MaxTeamSize: 2, CreatedAt: time.Now()}
	if err := testutil.InsertCompetition(ctx, f.DB, bad); err == nil {
		t.Error("competitions should reject max below required")
	}
}

func TestStore_InTxRollsBack(t *testing.T) {
	f := testutil.New(t)
	ctx := context.Background()
	comp := f.Competition(t, 2, 4)
	captain := f.Account(t, "captain")

	reg := newRegistration(comp, captain, "Night Owls")
	sentinel := errors.New("abort")
	err := f.Store.InTx(ctx, func(tx teams.Tx) error {
		if err := tx.CreateRegistration(ctx, reg); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("InTx() error = %v, want sentinel", err)
	}
	if _, err := f.Store.GetRegistration(ctx, reg.ID); !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Errorf("GetRegistration() error = %v, want ErrRegistrationNotFound after rollback", err)
	}
}

func TestStore_WithoutEventHistory(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	store := repository.NewStore(db, repository.DialectSQLite, repository.WithEventHistory(false))

	captain := &domain.Account{ID: uuid.New(), Username: "captain", Email: "captain@example.com", Role: domain.AccountRoleUser, Active: true, CreatedAt: time.Now()}
	if err := testutil.InsertAccount(ctx, db, captain); err != nil {
		t.Fatalf("create account: %v", err)
	}
	game := uuid.New()
	if err := testutil.InsertGame(ctx, db, game, "Chess"); err != nil {
		t.Fatalf("create game: %v", err)
	}
	comp := &domain.Competition{ID: uuid.New(), Name: "Cup", GameID: game, RequiredTeamSize: 1, MaxTeamSize: 2, CreatedAt: time.Now()}
	if err := testutil.InsertCompetition(ctx, db, comp); err != nil {
		t.Fatalf("create competition: %v", err)
	}

	reg := newRegistration(comp.ID, captain.ID, "Night Owls")
	err := store.InTx(ctx, func(tx teams.Tx) error {
		if err := tx.CreateRegistration(ctx, reg); err != nil {
			return err
		}
		return tx.AppendEvents(ctx, []domain.Event{{
			ID: uuid.New(), RegistrationID: reg.ID, Type: domain.EventRegistrationCreated,
			ActorID: captain.ID, OccurredAt: time.Now(),
		}})
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	events, err := store.ListEvents(ctx, reg.ID)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("ListEvents() = %d events, want none", len(events))
	}
}
