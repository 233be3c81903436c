package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BacklogRow is one shown line of a session.
type BacklogRow struct {
	Seq       int
	TextID    int
	CharaID   int
	CharaName string
	Text      string
}

type BacklogRepo struct {
	db *DB
}

func NewBacklogRepo(db *DB) *BacklogRepo {
	return &BacklogRepo{db: db}
}

// Append stores one line. Re-recording a seq overwrites it.
func (r *BacklogRepo) Append(ctx context.Context, session uuid.UUID, row BacklogRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO adv_backlog (session_id, seq, text_id, chara_id, chara_name, body)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, seq) DO UPDATE
		 SET text_id = EXCLUDED.text_id, chara_id = EXCLUDED.chara_id,
		     chara_name = EXCLUDED.chara_name, body = EXCLUDED.body`,
		session, row.Seq, row.TextID, row.CharaID, row.CharaName, row.Text,
	)
	return err
}

// AppendBatch stores lines in a single transaction. Seqs already stored
// are left as they are.
func (r *BacklogRepo) AppendBatch(ctx context.Context, session uuid.UUID, rows []BacklogRow) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, row := range rows {
			if _, err := tx.Exec(ctx,
				`INSERT INTO adv_backlog (session_id, seq, text_id, chara_id, chara_name, body)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (session_id, seq) DO NOTHING`,
				session, row.Seq, row.TextID, row.CharaID, row.CharaName, row.Text,
			); err != nil {
				return fmt.Errorf("backlog insert seq %d: %w", row.Seq, err)
			}
		}
		return nil
	})
}

// List returns a session's lines in the order they were shown.
func (r *BacklogRepo) List(ctx context.Context, session uuid.UUID) ([]BacklogRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT seq, text_id, chara_id, chara_name, body
		 FROM adv_backlog WHERE session_id = $1 ORDER BY seq`, session,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacklogRow
	for rows.Next() {
		var b BacklogRow
		if err := rows.Scan(&b.Seq, &b.TextID, &b.CharaID, &b.CharaName, &b.Text); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
