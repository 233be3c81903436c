package persist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionRow is one playback of a scenario.
type SessionRow struct {
	ID        uuid.UUID
	Script    string
	Chapter   int
	StartLine int
	StartedAt time.Time
	EndedAt   *time.Time
	Lines     int
}

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create records the start of a playback under a fresh id.
func (r *SessionRepo) Create(ctx context.Context, script string, chapter, startLine int) (*SessionRow, error) {
	row := &SessionRow{
		ID:        uuid.New(),
		Script:    script,
		Chapter:   chapter,
		StartLine: startLine,
		StartedAt: time.Now(),
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO adv_sessions (id, script, chapter, start_line, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.ID, row.Script, row.Chapter, row.StartLine, row.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Finish stamps the end of a playback and the number of lines shown.
func (r *SessionRepo) Finish(ctx context.Context, id uuid.UUID, lines int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE adv_sessions SET ended_at = NOW(), lines = $2 WHERE id = $1`,
		id, lines,
	)
	return err
}

// Load returns nil, nil when the session does not exist.
func (r *SessionRepo) Load(ctx context.Context, id uuid.UUID) (*SessionRow, error) {
	row := &SessionRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, script, chapter, start_line, started_at, ended_at, lines
		 FROM adv_sessions WHERE id = $1`, id,
	).Scan(&row.ID, &row.Script, &row.Chapter, &row.StartLine, &row.StartedAt, &row.EndedAt, &row.Lines)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Recent lists the latest sessions, newest first.
func (r *SessionRepo) Recent(ctx context.Context, limit int) ([]SessionRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, script, chapter, start_line, started_at, ended_at, lines
		 FROM adv_sessions ORDER BY started_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.ID, &s.Script, &s.Chapter, &s.StartLine, &s.StartedAt, &s.EndedAt, &s.Lines); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
