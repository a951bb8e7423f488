package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
	infraprom "github.com/laghulabs/laghu/internal/infra/prometheus"
)

// ClickRecorder is the resolver's port for appending one click per
// successful resolution. The synchronous recorder writes straight to the
// store; the queued recorder (ClickPublisher) hands the event to JetStream
// and lets the consumer persist it.
type ClickRecorder interface {
	Record(ctx context.Context, linkID string, at time.Time) error
}

type storeClickRecorder struct {
	repo repository.ClickRepository
}

// NewStoreClickRecorder returns a recorder that inserts clicks directly
// into the click table.
func NewStoreClickRecorder(repo repository.ClickRepository) ClickRecorder {
	return &storeClickRecorder{repo: repo}
}

func (r *storeClickRecorder) Record(ctx context.Context, linkID string, at time.Time) error {
	err := r.repo.Create(ctx, &model.Click{
		ID:        uuid.New().String(),
		LinkID:    linkID,
		CreatedAt: at,
	})
	if err == nil {
		infraprom.ClicksRecorded.WithLabelValues("sync").Inc()
	}
	return err
}
