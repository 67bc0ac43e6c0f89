// Package postgres persists audit entries in PostgreSQL over database/sql
// with the lib/pq driver.
//
// Expected schema:
//
//	audit_entries(id uuid primary key, meeting_id text not null,
//	              event text not null, policy text not null,
//	              payload jsonb, occurred_at timestamptz not null)
//
// The table carries no update path. Row immutability is enforced here by
// only ever issuing INSERT and SELECT.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"notarius/internal/audit"
	"notarius/pkg/domain"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries (id, meeting_id, event, policy, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.MeetingID.String(),
		string(entry.Event),
		string(entry.Policy),
		[]byte(entry.Payload),
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListForMeeting(ctx context.Context, meetingID domain.MeetingID) ([]audit.Entry, error) {
	query := `
		SELECT id, meeting_id, event, policy, payload, occurred_at
		FROM audit_entries
		WHERE meeting_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, meetingID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var entry audit.Entry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.MeetingID, &entry.Event, &entry.Policy, &payload, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Payload = payload
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
