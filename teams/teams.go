// Package teams embeds the team formation workflow into a host
// application.
//
// Setup:
//
//  1. Apply the schema, either with AutoMigrate or from
//     pkg/repository/migrations using your preferred tool
//  2. Create a Teams instance and mount its routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/turnaplay?sslmode=disable")
//
//	t, err := teams.New(teams.Config{
//	    DB:        db,
//	    JWTSecret: "shared-secret-with-the-identity-provider",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if the schema is missing
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", t.Router())
//	http.ListenAndServe(":8080", r)
//
// Access tokens are issued elsewhere; the token subject is the acting
// account ID.
package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/auditlog"
	"github.com/tendant/turnaplay-teams/internal/config"
	internalhttp "github.com/tendant/turnaplay-teams/internal/http"
	"github.com/tendant/turnaplay-teams/internal/http/middleware"
	"github.com/tendant/turnaplay-teams/pkg/auth"
	"github.com/tendant/turnaplay-teams/pkg/repository"
	engine "github.com/tendant/turnaplay-teams/pkg/teams"
	"go.uber.org/zap"
)

// Config holds the configuration for the teams library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// Driver is "postgres" (default) or "sqlite".
	Driver string

	// JWTSecret verifies access tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the expected issuer claim (default: "simple-idm").
	JWTIssuer string

	// AutoMigrate applies the embedded schema instead of requiring it.
	AutoMigrate bool

	// AdminOverride lets admin accounts act as any team's captain.
	AdminOverride bool

	// AuditMode is one of all, db, log, off (default: all).
	AuditMode string

	// AuditLogger receives committed events when AuditMode logs them
	// (default: no-op).
	AuditLogger *zap.Logger

	// MaxRequestBodySize bounds request bodies in bytes (default: 64 KiB).
	MaxRequestBodySize int64

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Teams is an embedded team formation instance.
type Teams struct {
	config   Config
	accounts *repository.AccountsRepository
	service  *engine.Service
	verifier *auth.TokenVerifier
}

// New creates a Teams instance. It fails if required tables don't exist
// and AutoMigrate is off.
func New(cfg Config) (*Teams, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	dialect, err := repository.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}

	ctx := context.Background()
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DB, dialect); err != nil {
			return nil, fmt.Errorf("teams: migrate: %w", err)
		}
	}
	if err := validateSchema(ctx, cfg.DB); err != nil {
		return nil, err
	}

	accounts := repository.NewAccountsRepository(cfg.DB, dialect)
	competitions := repository.NewCompetitionsRepository(cfg.DB, dialect)
	store := repository.NewStore(cfg.DB, dialect, repository.WithEventHistory(auditlog.PersistsHistory(cfg.AuditMode)))

	opts := []engine.Option{
		engine.WithEmitter(auditlog.New(cfg.AuditLogger, cfg.AuditMode)),
	}
	if cfg.AdminOverride {
		opts = append(opts, engine.WithAuthorizer(engine.CaptainOrAdmin{Admins: accounts}))
	}

	return &Teams{
		config:   cfg,
		accounts: accounts,
		service:  engine.NewService(store, accounts, competitions, opts...),
		verifier: auth.NewTokenVerifier(auth.TokenConfig{
			JWTSecret: []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
		}),
	}, nil
}

// Router returns an http.Handler serving every /v1 team route and /health.
// Rate limiting and security headers are left to the host.
func (t *Teams) Router() http.Handler {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		Logger:     t.config.Logger,
		Service:    t.service,
		Accounts:   t.accounts,
		Verifier:   t.verifier,
		Validation: config.ValidationConfig{MaxRequestBodySize: t.config.MaxRequestBodySize},
	})
}

// Service returns the registration coordinator for direct use.
func (t *Teams) Service() *engine.Service {
	return t.service
}

// AuthMiddleware returns middleware that validates access tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(t.AuthMiddleware())
//	    r.Get("/my-teams", handler)
//	})
func (t *Teams) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(t.verifier)
}

// GetAccountID extracts the acting account from a request.
// Use after AuthMiddleware.
func GetAccountID(r *http.Request) (uuid.UUID, bool) {
	return middleware.GetAccountID(r.Context())
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("teams: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("teams: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("teams: JWTSecret must be at least 32 characters")
	}
	switch cfg.AuditMode {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("teams: unknown AuditMode %q", cfg.AuditMode)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Driver == "" {
		cfg.Driver = string(repository.DialectPostgres)
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-idm"
	}
	if cfg.AuditMode == "" {
		cfg.AuditMode = auditlog.ModeAll
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 64 << 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required tables exist.
func validateSchema(ctx context.Context, db *sql.DB) error {
	requiredTables := []string{"accounts", "games", "game_accounts", "competitions", "registrations", "invites", "memberships", "registration_events"}

	for _, table := range requiredTables {
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("teams: missing table '%s' - run migrations first: %w", table, err)
		}
	}
	return nil
}
