package postgres

import (
	"context"
	"fmt"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Insert(ctx context.Context, event *model.AuthEvent) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO auth_events (id, subject, event_type, success, user_agent, session_id, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		event.ID, event.Subject, event.EventType, event.Success,
		event.UserAgent, event.SessionID, event.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, filter store.AuditFilter) ([]model.AuthEvent, error) {
	query := `SELECT id, subject, event_type, success, user_agent, session_id, error_message, created_at
	          FROM auth_events WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Subject != "" {
		query += fmt.Sprintf(` AND subject = $%d`, argIdx)
		args = append(args, filter.Subject)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(` AND event_type = $%d`, argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auth events: %w", err)
	}
	defer rows.Close()

	var events []model.AuthEvent
	for rows.Next() {
		var e model.AuthEvent
		if err := rows.Scan(&e.ID, &e.Subject, &e.EventType, &e.Success,
			&e.UserAgent, &e.SessionID, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan auth event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
