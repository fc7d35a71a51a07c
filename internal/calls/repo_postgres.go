package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresRepo persists the call store in Postgres via database/sql (pgx stdlib).
//
// Assumed tables: calls, recordings, call_actions, tickets with
// UNIQUE (provider_call_id) and UNIQUE (ticket_number).

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `
id, provider_call_id, from_number, to_number, direction, status,
duration, language, transcript, intent, created_at, updated_at`

func scanCall(row interface{ Scan(...any) error }) (Call, error) {
	var c Call
	var providerCallID, toNumber, transcript, intent sql.NullString
	err := row.Scan(
		&c.ID,
		&providerCallID,
		&c.From,
		&toNumber,
		&c.Direction,
		&c.Status,
		&c.DurationSeconds,
		&c.Language,
		&transcript,
		&intent,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	c.ProviderCallID = providerCallID.String
	c.To = toNumber.String
	c.Transcript = transcript.String
	c.Intent = intent.String
	return c, nil
}

func (r *PostgresRepo) CreateCall(ctx context.Context, c Call) (Call, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		nullable(c.ProviderCallID),
		c.From,
		nullable(c.To),
		c.Direction,
		c.Status,
		c.DurationSeconds,
		c.Language,
		nullable(c.Transcript),
		nullable(c.Intent),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) GetCall(ctx context.Context, id string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE id = $1
`
	c, err := scanCall(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) GetCallByProviderID(ctx context.Context, providerCallID string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE provider_call_id = $1
`
	c, err := scanCall(r.db.QueryRowContext(ctx, q, providerCallID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) UpdateCall(ctx context.Context, c Call) (Call, error) {
	const q = `
UPDATE calls
SET provider_call_id = $2, status = $3, duration = $4, language = $5,
    transcript = $6, intent = $7, updated_at = $8
WHERE id = $1
RETURNING ` + callColumns + `
`
	updated, err := scanCall(r.db.QueryRowContext(ctx, q,
		c.ID,
		nullable(c.ProviderCallID),
		c.Status,
		c.DurationSeconds,
		c.Language,
		nullable(c.Transcript),
		nullable(c.Intent),
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return updated, nil
}

func (r *PostgresRepo) ListCalls(ctx context.Context, f ListFilter) ([]Call, error) {
	q := `
SELECT ` + callColumns + `
FROM calls
WHERE 1=1`
	args := []any{}
	if f.Direction != "" {
		args = append(args, f.Direction)
		q += fmt.Sprintf(" AND direction = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListCallsInRange(ctx context.Context, from, to time.Time) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE created_at >= $1 AND created_at < $2
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) AddRecording(ctx context.Context, rec Recording) (Recording, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO recordings (id, call_id, provider_recording_id, url, duration, transcript, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.CallID,
		nullable(rec.ProviderRecordingID),
		rec.URL,
		rec.DurationSeconds,
		nullable(rec.Transcript),
		rec.CreatedAt,
	)
	if err != nil {
		return Recording{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) UpdateRecording(ctx context.Context, rec Recording) (Recording, error) {
	const q = `
UPDATE recordings
SET duration = $2, transcript = $3
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, rec.ID, rec.DurationSeconds, nullable(rec.Transcript))
	if err != nil {
		return Recording{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Recording{}, ErrNotFound
	}
	return rec, nil
}

func (r *PostgresRepo) AddAction(ctx context.Context, a CallAction) (CallAction, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	const q = `
INSERT INTO call_actions (id, call_id, action_type, details, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.CallID,
		a.Type,
		nullable(a.Details),
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return CallAction{}, err
	}
	return a, nil
}

func (r *PostgresRepo) ListActions(ctx context.Context, callID string) ([]CallAction, error) {
	const q = `
SELECT id, call_id, action_type, details, status, created_at, updated_at
FROM call_actions
WHERE call_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallAction, 0)
	for rows.Next() {
		var a CallAction
		var details sql.NullString
		if err := rows.Scan(&a.ID, &a.CallID, &a.Type, &details, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Details = details.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) AddTicket(ctx context.Context, t Ticket) (Ticket, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	const q = `
INSERT INTO tickets (id, call_id, ticket_number, subject, description, status, assigned_to, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		t.ID,
		t.CallID,
		t.TicketNumber,
		t.Subject,
		t.Description,
		t.Status,
		nullable(t.AssignedTo),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return Ticket{}, err
	}
	return t, nil
}

func (r *PostgresRepo) ListTickets(ctx context.Context, callID string) ([]Ticket, error) {
	const q = `
SELECT id, call_id, ticket_number, subject, description, status, assigned_to, created_at, updated_at
FROM tickets
WHERE call_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Ticket, 0)
	for rows.Next() {
		var t Ticket
		var assignedTo sql.NullString
		if err := rows.Scan(&t.ID, &t.CallID, &t.TicketNumber, &t.Subject, &t.Description, &t.Status, &assignedTo, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.AssignedTo = assignedTo.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
