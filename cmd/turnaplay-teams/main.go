package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/turnaplay-teams/internal/auditlog"
	"github.com/tendant/turnaplay-teams/internal/config"
	httpserver "github.com/tendant/turnaplay-teams/internal/http"
	"github.com/tendant/turnaplay-teams/internal/telemetry"
	"github.com/tendant/turnaplay-teams/pkg/auth"
	"github.com/tendant/turnaplay-teams/pkg/repository"
	"github.com/tendant/turnaplay-teams/pkg/teams"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()
	if cfg.HasTracing() {
		logger.Info("tracing enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	auditZap, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create audit logger: %w", err)
	}
	defer func() { _ = auditZap.Sync() }()

	// Connect to database
	dbCfg := cfg.DB()
	db, err := repository.NewDB(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("connected to database", "driver", dbCfg.Driver)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db, dbCfg.Driver); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema up to date")
	}

	// Initialize repositories
	accounts := repository.NewAccountsRepository(db, dbCfg.Driver)
	competitions := repository.NewCompetitionsRepository(db, dbCfg.Driver)
	store := repository.NewStore(db, dbCfg.Driver,
		repository.WithEventHistory(auditlog.PersistsHistory(cfg.Audit.Mode)))

	// Initialize the coordinator
	opts := []teams.Option{
		teams.WithEmitter(auditlog.New(auditZap, cfg.Audit.Mode)),
	}
	if cfg.AdminOverride {
		opts = append(opts, teams.WithAuthorizer(teams.CaptainOrAdmin{Admins: accounts}))
		logger.Info("admin override enabled")
	}
	service := teams.NewService(store, accounts, competitions, opts...)

	verifier := auth.NewTokenVerifier(auth.TokenConfig{
		JWTSecret: []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
	})

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Service:         service,
		Accounts:        accounts,
		Verifier:        verifier,
		RateLimit:       cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
	})

	// Create HTTP server
	addr := cfg.ListenAddr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "audit_log", cfg.Audit.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// issueToken prints an access token for local testing:
//
//	turnaplay-teams token <account-id> [ttl]
func issueToken(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: turnaplay-teams token <account-id> [ttl]")
	}
	accountID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	ttl := auth.DefaultAccessTokenTTL
	if len(args) > 1 {
		if ttl, err = time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}

	verifier := auth.NewTokenVerifier(auth.TokenConfig{
		JWTSecret: []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
	})
	token, err := verifier.IssueAccessToken(accountID, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
