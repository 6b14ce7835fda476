package audit

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// PostgresStore persists the audit trail in PostgreSQL so operator
// queries survive restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the schema exists and returns the store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is required")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

const insertEvent = `
INSERT INTO audit_events (
    occurred_at, request_id, submission_id, action, status, reason,
    id_number_masked, face_backend, client_ip, device
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, insertEvent,
		event.Timestamp, event.RequestID, event.SubmissionID, event.Action,
		event.Status, event.Reason, event.IDNumberMasked, event.FaceBackend,
		event.ClientIP, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
SELECT occurred_at, request_id, submission_id, action, status, reason,
       id_number_masked, face_backend, client_ip, device
  FROM audit_events
 ORDER BY id DESC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.Timestamp, &event.RequestID, &event.SubmissionID, &event.Action,
			&event.Status, &event.Reason, &event.IDNumberMasked, &event.FaceBackend,
			&event.ClientIP, &event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
