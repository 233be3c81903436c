package main

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/murenne/ADVLite/internal/adv"
	"github.com/murenne/ADVLite/internal/persist"
	"go.uber.org/zap"
)

// dbRecorder writes backlog lines of one session. Lines whose insert fails
// are kept and retried as one batch by Flush.
type dbRecorder struct {
	repo    *persist.BacklogRepo
	session uuid.UUID
	log     *zap.Logger

	mu     sync.Mutex
	failed []persist.BacklogRow
}

var _ adv.Recorder = (*dbRecorder)(nil)

func newDBRecorder(repo *persist.BacklogRepo, session uuid.UUID, log *zap.Logger) *dbRecorder {
	return &dbRecorder{repo: repo, session: session, log: log}
}

func (r *dbRecorder) RecordLine(ctx context.Context, seq int, it adv.BackLogItem) error {
	row := persist.BacklogRow{
		Seq:       seq,
		TextID:    it.TextID,
		CharaID:   it.CharaID,
		CharaName: it.CharaName,
		Text:      it.Text,
	}
	if err := r.repo.Append(ctx, r.session, row); err != nil {
		r.mu.Lock()
		r.failed = append(r.failed, row)
		r.mu.Unlock()
		return err
	}
	return nil
}

// Flush retries every failed line in one transaction.
func (r *dbRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	rows := r.failed
	r.failed = nil
	r.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}
	r.log.Info("retrying backlog lines", zap.Int("count", len(rows)))
	if err := r.repo.AppendBatch(ctx, r.session, rows); err != nil {
		r.mu.Lock()
		r.failed = append(rows, r.failed...)
		r.mu.Unlock()
		return err
	}
	return nil
}
