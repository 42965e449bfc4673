package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/pkg/domain"
)

// EventsRepository stores the append-only history of each registration.
type EventsRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewEventsRepository creates a new events repository.
func NewEventsRepository(db *sql.DB, dialect Dialect) *EventsRepository {
	return &EventsRepository{db: db, dialect: dialect}
}

// AppendTx writes events in order within a transaction.
func (r *EventsRepository) AppendTx(ctx context.Context, q Querier, events []domain.Event) error {
	query := r.dialect.Rebind(`
		INSERT INTO registration_events (id, registration_id, event_type, actor_id, subject_id,
			invite_id, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, e := range events {
		_, err := q.ExecContext(ctx, query,
			e.ID, e.RegistrationID, e.Type, e.ActorID, e.SubjectID,
			e.InviteID, e.Detail, toMillis(e.OccurredAt),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByRegistration returns a registration's history in write order.
func (r *EventsRepository) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*domain.Event, error) {
	query := r.dialect.Rebind(`
		SELECT id, registration_id, event_type, actor_id, subject_id, invite_id, detail, occurred_at
		FROM registration_events
		WHERE registration_id = ?
		ORDER BY seq ASC
	`)
	rows, err := r.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e := &domain.Event{}
		var occurredAt int64
		err := rows.Scan(
			&e.ID, &e.RegistrationID, &e.Type, &e.ActorID, &e.SubjectID,
			&e.InviteID, &e.Detail, &occurredAt,
		)
		if err != nil {
			return nil, err
		}
		e.OccurredAt = fromMillis(occurredAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
