package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
)

type publishCounter interface {
	RecordEventPublished()
}

// Publisher appends fact records to a Redis stream for the notification
// fanout. Publishing is fire-and-forget: a failed append is logged and never
// fails the admission that produced it.
type Publisher struct {
	rdb     *redis.Client
	stream  string
	maxLen  int64
	metrics publishCounter
	logger  *zap.Logger
}

// NewPublisher constructs the publisher.
func NewPublisher(rdb *redis.Client, cfg config.EventsConfig, metrics publishCounter, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{rdb: rdb, stream: cfg.Stream, maxLen: cfg.MaxLen, metrics: metrics, logger: logger}
}

// Publish appends one fact record to the stream.
func (p *Publisher) Publish(ctx context.Context, event models.EnrollmentEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal enrollment event",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		p.logger.Error("publish enrollment event",
			zap.String("event_id", event.ID),
			zap.Int64("student_id", event.StudentID),
			zap.Int64("class_id", event.ClassID),
			zap.String("event", string(event.Event)),
			zap.Error(err))
		return
	}

	if p.metrics != nil {
		p.metrics.RecordEventPublished()
	}
	p.logger.Debug("enrollment event published",
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Event)),
		zap.Int64("student_id", event.StudentID),
		zap.Int64("class_id", event.ClassID))
}
