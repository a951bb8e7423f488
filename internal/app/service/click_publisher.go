package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickPublisher is the queued ClickRecorder: it hands the click to
// JetStream and lets the consumer persist it. Deployments that prefer the
// redirect path to never touch Postgres use this mode.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a JetStream-backed click recorder.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Record publishes one click event to the click stream.
func (p *ClickPublisher) Record(_ context.Context, linkID string, at time.Time) error {
	click := model.Click{
		ID:        uuid.New().String(),
		LinkID:    linkID,
		CreatedAt: at,
	}

	data, err := json.Marshal(click)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
