package teams

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tendant/turnaplay-teams/pkg/teams"

// Service is the registration coordinator. Every mutating operation runs in
// one transaction holding the registration's lock, and recomputes the
// registration's status before committing.
type Service struct {
	store      Store
	accounts   AccountDirectory
	catalog    CompetitionCatalog
	authorizer Authorizer
	emitter    EventEmitter
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() uuid.UUID
}

// Option configures a Service.
type Option func(*Service)

// WithAuthorizer replaces the captain-only authorization predicate.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) {
		if a != nil {
			s.authorizer = a
		}
	}
}

// WithEmitter receives events after each successful commit.
func WithEmitter(e EventEmitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid.New.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewService creates a new registration coordinator.
func NewService(store Store, accounts AccountDirectory, catalog CompetitionCatalog, opts ...Option) *Service {
	s := &Service{
		store:      store,
		accounts:   accounts,
		catalog:    catalog,
		authorizer: CaptainOnly{},
		emitter:    noopEmitter{},
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		newID:      uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scope is the unit of work for one locked registration.
type scope struct {
	ctx    context.Context
	tx     Tx
	svc    *Service
	reg    *domain.Registration
	size   domain.TeamSize
	actor  uuid.UUID
	now    time.Time
	dirty  bool
	events []domain.Event
}

func (s *scope) record(typ domain.EventType, subject uuid.UUID, inviteID uuid.UUID, detail string) {
	e := domain.Event{
		ID:             s.svc.newID(),
		RegistrationID: s.reg.ID,
		Type:           typ,
		ActorID:        s.actor,
		Detail:         detail,
		OccurredAt:     s.now,
	}
	if subject != uuid.Nil {
		e.SubjectID = uuid.NullUUID{UUID: subject, Valid: true}
	}
	if inviteID != uuid.Nil {
		e.InviteID = uuid.NullUUID{UUID: inviteID, Valid: true}
	}
	s.events = append(s.events, e)
}

// authorize applies the captain-only predicate.
func (s *scope) authorize() error {
	ok, err := s.svc.authorizer.CanManage(s.ctx, s.actor, s.reg)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return domain.ErrNotCaptain
	}
	return nil
}

func (s *scope) requireActive(accountID uuid.UUID) error {
	active, err := s.svc.accounts.IsActive(s.ctx, accountID)
	if err != nil {
		return err
	}
	if !active {
		return domain.ErrInactiveAccount
	}
	return nil
}

// requireGameAccount checks that gameAccountID is an active game account
// owned by accountID for the competition's game.
func (s *scope) requireGameAccount(accountID, gameAccountID uuid.UUID) error {
	ga, err := s.svc.accounts.GetGameAccount(s.ctx, gameAccountID)
	if err != nil {
		return err
	}
	if !ga.Active {
		return fmt.Errorf("%w: game account is not active", domain.ErrInactiveAccount)
	}
	if ga.AccountID != accountID {
		return fmt.Errorf("%w: game account belongs to another account", domain.ErrInactiveAccount)
	}

	gameID, err := s.svc.catalog.GameID(s.ctx, s.reg.CompetitionID)
	if err != nil {
		return err
	}
	if ga.GameID != gameID {
		return fmt.Errorf("%w: game account does not match the competition's game", domain.ErrInactiveAccount)
	}
	return nil
}

// recompute derives the registration status from the current roster and
// pending invites.
func (s *scope) recompute() error {
	count, err := s.tx.CountActiveMemberships(s.ctx, s.reg.ID)
	if err != nil {
		return err
	}
	pending, err := s.tx.ListPendingInvites(s.ctx, s.reg.ID)
	if err != nil {
		return err
	}

	next := domain.NextStatus(s.reg.Status, count, len(pending), s.size)
	if next != s.reg.Status {
		s.record(domain.EventRegistrationStatusChanged, uuid.Nil, uuid.Nil,
			fmt.Sprintf("%s -> %s", s.reg.Status, next))
		s.reg.Status = next
		s.dirty = true
	}
	return nil
}

// flush writes the registration row, when changed, and the buffered events.
func (s *scope) flush() error {
	if s.dirty {
		s.reg.UpdatedAt = s.now
		if err := s.tx.UpdateRegistration(s.ctx, s.reg); err != nil {
			return err
		}
	}
	return s.tx.AppendEvents(s.ctx, s.events)
}

func (svc *Service) teamSize(ctx context.Context, competitionID uuid.UUID) (domain.TeamSize, error) {
	required, err := svc.catalog.RequiredTeamSize(ctx, competitionID)
	if err != nil {
		return domain.TeamSize{}, err
	}
	maxSize, err := svc.catalog.MaxTeamSize(ctx, competitionID)
	if err != nil {
		return domain.TeamSize{}, err
	}
	return domain.TeamSize{Required: required, Max: maxSize}, nil
}

// withRegistration locks the registration, runs fn and commits. Events are
// emitted only after a successful commit.
func (svc *Service) withRegistration(ctx context.Context, op string, registrationID, actor uuid.UUID, fn func(s *scope) error) (*domain.Registration, error) {
	ctx, span := svc.startSpan(ctx, op,
		attribute.String("registration.id", registrationID.String()),
		attribute.String("actor.id", actor.String()),
	)
	defer span.End()

	var sc *scope
	err := svc.store.InTx(ctx, func(tx Tx) error {
		reg, err := tx.LockRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		size, err := svc.teamSize(ctx, reg.CompetitionID)
		if err != nil {
			return err
		}
		sc = &scope{ctx: ctx, tx: tx, svc: svc, reg: reg, size: size, actor: actor, now: svc.clock()}
		if err := fn(sc); err != nil {
			return err
		}
		return sc.flush()
	})
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("registration.status", string(sc.reg.Status)))
	svc.emitter.Emit(ctx, sc.events)
	return sc.reg, nil
}

// clock returns the current time at the precision the store keeps.
func (svc *Service) clock() time.Time {
	return svc.now().UTC().Truncate(time.Millisecond)
}

func (svc *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return svc.tracer.Start(ctx, "teams."+op, trace.WithAttributes(attrs...))
}

// endSpan records err on span. Workflow rejections are expected outcomes and
// do not mark the span as failed.
func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	if domain.IsValidation(err) {
		span.SetAttributes(attribute.String("teams.rejection", string(domain.KindOf(err))))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
