// Package postgres implements the meeting stores on pgx.
//
// Expected schema:
//
//	meetings(id text primary key, title text, organizer text,
//	         started_at timestamptz, ended_at timestamptz)
//	actions(id text primary key, meeting_id text, title text, assignee text,
//	        status text, due_at timestamptz, created_at timestamptz,
//	        acknowledged_at timestamptz)
//	decisions(id text primary key, meeting_id text, title text,
//	          finalized_at timestamptz)
//	briefs(id text primary key, meeting_id text, decision_id text,
//	       body text, created_at timestamptz)
//	consents(meeting_id text primary key, profile text, scope text[],
//	         retention_days int, data_residency text, accepted_at timestamptz)
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notarius/internal/consent"
	"notarius/internal/meeting"
	"notarius/pkg/domain"
	"notarius/pkg/platform/sentinel"
)

// Store implements every meeting store interface over one pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetMeetingDetail(ctx context.Context, id domain.MeetingID) (*meeting.Detail, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, organizer, started_at, ended_at
		FROM meetings WHERE id = $1
	`, id.String())

	var detail meeting.Detail
	err := row.Scan(&detail.ID, &detail.Title, &detail.Organizer, &detail.StartedAt, &detail.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *Store) Get(ctx context.Context, id domain.ActionID) (*meeting.Action, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, meeting_id, title, assignee, status, due_at, created_at, acknowledged_at
		FROM actions WHERE id = $1
	`, id.String())

	var action meeting.Action
	err := row.Scan(&action.ID, &action.MeetingID, &action.Title, &action.Assignee,
		&action.Status, &action.DueAt, &action.CreatedAt, &action.AcknowledgedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *Store) Put(ctx context.Context, action *meeting.Action) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO actions (id, meeting_id, title, assignee, status, due_at, created_at, acknowledged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			assignee = EXCLUDED.assignee,
			status = EXCLUDED.status,
			due_at = EXCLUDED.due_at,
			acknowledged_at = EXCLUDED.acknowledged_at
	`, action.ID.String(), action.MeetingID.String(), action.Title, action.Assignee,
		string(action.Status), action.DueAt, action.CreatedAt, action.AcknowledgedAt)
	return err
}

func (s *Store) SetStatus(ctx context.Context, id domain.ActionID, status meeting.ActionStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE actions SET status = $2,
			acknowledged_at = CASE WHEN $2 <> 'open' THEN now() ELSE acknowledged_at END
		WHERE id = $1
	`, id.String(), string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListByMeeting(ctx context.Context, meetingID domain.MeetingID) ([]meeting.Action, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, meeting_id, title, assignee, status, due_at, created_at, acknowledged_at
		FROM actions WHERE meeting_id = $1
		ORDER BY created_at ASC
	`, meetingID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []meeting.Action
	for rows.Next() {
		var action meeting.Action
		if err := rows.Scan(&action.ID, &action.MeetingID, &action.Title, &action.Assignee,
			&action.Status, &action.DueAt, &action.CreatedAt, &action.AcknowledgedAt); err != nil {
			return nil, err
		}
		out = append(out, action)
	}
	return out, rows.Err()
}

func (s *Store) DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM actions WHERE meeting_id = $1`, meetingID.String())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM actions WHERE meeting_id = $1`, meetingID.String()).Scan(&n)
	return n, err
}

// Decisions returns a DecisionStore view over the same pool.
func (s *Store) Decisions() meeting.DecisionStore { return (*decisionStore)(s) }

// Briefs returns a BriefStore view over the same pool.
func (s *Store) Briefs() meeting.BriefStore { return (*briefStore)(s) }

// Consents returns a ConsentStore view over the same pool.
func (s *Store) Consents() meeting.ConsentStore { return (*consentStore)(s) }

type decisionStore Store

func (s *decisionStore) Put(ctx context.Context, decision *meeting.Decision) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO decisions (id, meeting_id, title, finalized_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, finalized_at = EXCLUDED.finalized_at
	`, decision.ID.String(), decision.MeetingID.String(), decision.Title, decision.FinalizedAt)
	return err
}

func (s *decisionStore) DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM decisions WHERE meeting_id = $1`, meetingID.String())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *decisionStore) CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM decisions WHERE meeting_id = $1`, meetingID.String()).Scan(&n)
	return n, err
}

type briefStore Store

func (s *briefStore) Put(ctx context.Context, brief *meeting.Brief) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO briefs (id, meeting_id, decision_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body
	`, brief.ID.String(), brief.MeetingID.String(), brief.DecisionID.String(), brief.Body, brief.CreatedAt)
	return err
}

func (s *briefStore) DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM briefs WHERE meeting_id = $1`, meetingID.String())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *briefStore) CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM briefs WHERE meeting_id = $1`, meetingID.String()).Scan(&n)
	return n, err
}

type consentStore Store

func (s *consentStore) Get(ctx context.Context, meetingID domain.MeetingID) (*consent.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT meeting_id, profile, scope, retention_days, data_residency, accepted_at
		FROM consents WHERE meeting_id = $1
	`, meetingID.String())

	var record consent.Record
	var scope []string
	err := row.Scan(&record.MeetingID, &record.Profile, &scope,
		&record.RetentionDays, &record.DataResidency, &record.AcceptedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.Scope = make([]consent.Scope, 0, len(scope))
	for _, s := range scope {
		record.Scope = append(record.Scope, consent.Scope(s))
	}
	return &record, nil
}

func (s *consentStore) Replace(ctx context.Context, record consent.Record) error {
	scope := make([]string, 0, len(record.Scope))
	for _, sc := range record.Scope {
		scope = append(scope, string(sc))
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consents (meeting_id, profile, scope, retention_days, data_residency, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (meeting_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			scope = EXCLUDED.scope,
			retention_days = EXCLUDED.retention_days,
			data_residency = EXCLUDED.data_residency,
			accepted_at = EXCLUDED.accepted_at
	`, record.MeetingID.String(), string(record.Profile), scope,
		record.RetentionDays, string(record.DataResidency), record.AcceptedAt)
	return err
}

func (s *consentStore) DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM consents WHERE meeting_id = $1`, meetingID.String())
	return err
}
