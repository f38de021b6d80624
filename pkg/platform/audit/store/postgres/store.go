// Package postgres stores audit events in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ascend/pkg/domain"
	audit "ascend/pkg/platform/audit"
	txcontext "ascend/pkg/platform/tx"
)

const selectColumns = `SELECT category, timestamp, participant_id, subject, action,
	reason, amount, request_id, actor_id FROM audit_events`

// Store implements audit.Store. Append joins the transaction carried in the
// context, so the row commits or rolls back with the change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one row. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	var exec interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		exec = tx
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, timestamp, participant_id, subject,
			action, reason, amount, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		nullableParticipant(event.ParticipantID),
		event.Subject,
		event.Action,
		event.Reason,
		event.Amount,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", event.Action, err)
	}
	return nil
}

// ListByParticipant returns a participant's events, oldest first.
func (s *Store) ListByParticipant(ctx context.Context, participantID domain.ParticipantID) ([]audit.Event, error) {
	return s.query(ctx, selectColumns+` WHERE participant_id = $1 ORDER BY timestamp ASC`, uuid.UUID(participantID))
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.query(ctx, selectColumns+` ORDER BY timestamp DESC LIMIT $1`, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e           audit.Event
			category    string
			participant uuid.NullUUID
		)
		if err := rows.Scan(&category, &e.Timestamp, &participant, &e.Subject, &e.Action,
			&e.Reason, &e.Amount, &e.RequestID, &e.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if participant.Valid {
			e.ParticipantID = domain.ParticipantID(participant.UUID)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableParticipant(id domain.ParticipantID) uuid.NullUUID {
	if id.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(id), Valid: true}
}
