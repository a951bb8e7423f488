package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/laghulabs/laghu/internal/app/model"
	"github.com/laghulabs/laghu/internal/app/repository"
	infraprom "github.com/laghulabs/laghu/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ClickConsumer drains the click stream into the click table. It is the
// durable half of the queued recording mode.
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   repository.ClickRepository
}

// NewClickConsumer creates a click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, repo repository.ClickRepository) *ClickConsumer {
	return &ClickConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist, then begins
// consuming click events in the background.
func (c *ClickConsumer) Start() error {
	_, err := c.js.StreamInfo(model.ClickStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch click messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var click model.Click
			if err := json.Unmarshal(msg.Data, &click); err != nil {
				c.logger.Error("failed to unmarshal click", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &click); err != nil {
				c.logger.Error("failed to store click",
					zap.String("id", click.ID),
					zap.String("link_id", click.LinkID),
					zap.Error(err))
				msg.Nak()
				continue
			}

			infraprom.ClicksRecorded.WithLabelValues("queue").Inc()
			c.logger.Debug("click stored",
				zap.String("id", click.ID),
				zap.String("link_id", click.LinkID),
				zap.Time("created_at", click.CreatedAt),
			)

			msg.Ack()
		}
	}
}
