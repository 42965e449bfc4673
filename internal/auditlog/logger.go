// Package auditlog writes committed team events to the structured log.
package auditlog

import (
	"context"

	"github.com/tendant/turnaplay-teams/pkg/domain"
	"go.uber.org/zap"
)

// Mode values: "all" (history table + zap), "db" (history table only),
// "log" (zap only), "off" (disabled).
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Logger forwards committed events to zap. It implements teams.EventEmitter.
type Logger struct {
	zapLog *zap.Logger
	mode   string
}

// New creates a new audit Logger.
func New(zapLog *zap.Logger, mode string) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{zapLog: zapLog, mode: mode}
}

// PersistsHistory reports whether events should be written to the
// registration_events table under mode.
func PersistsHistory(mode string) bool {
	return mode == ModeAll || mode == ModeDB
}

func (l *Logger) logs() bool {
	return l.mode == ModeAll || l.mode == ModeLog
}

// Emit logs each event. A nil Logger is a no-op.
func (l *Logger) Emit(_ context.Context, events []domain.Event) {
	if l == nil || !l.logs() {
		return
	}
	for _, e := range events {
		l.logToZap(e)
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(e domain.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("event_id", e.ID.String()),
		zap.String("event_type", string(e.Type)),
		zap.String("registration_id", e.RegistrationID.String()),
		zap.String("actor_id", e.ActorID.String()),
		zap.Time("occurred_at", e.OccurredAt),
	}
	if e.SubjectID.Valid {
		fields = append(fields, zap.String("subject_id", e.SubjectID.UUID.String()))
	}
	if e.InviteID.Valid {
		fields = append(fields, zap.String("invite_id", e.InviteID.UUID.String()))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	l.zapLog.Info("audit event", fields...)
}
