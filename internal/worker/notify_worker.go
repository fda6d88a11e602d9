package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
	"github.com/regworks/enroll-api/pkg/jobs"
)

// Delivery is one notification to push to a student endpoint.
type Delivery struct {
	Endpoint  string
	ClassName string
	Message   string
}

// Sender pushes a delivery over one channel (email, webhook).
type Sender interface {
	Name() string
	// Endpoint selects the delivery endpoint from a subscription, empty
	// when the subscription does not cover this channel.
	Endpoint(sub *models.Subscription) string
	Send(ctx context.Context, d Delivery) error
}

type subscriptionReader interface {
	Get(ctx context.Context, studentID, classID int64) (*models.Subscription, error)
}

type classNamer interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

type deliveryCounter interface {
	RecordDelivery(channel string, ok bool)
}

// NotifyWorker consumes fact records from the enrollment event stream
// through its own consumer group and dispatches deliveries via the retrying
// job queue. Each channel runs an independent worker, so email and webhook
// consumers progress and fail independently (at-least-once per group).
type NotifyWorker struct {
	rdb           *redis.Client
	subscriptions subscriptionReader
	classes       classNamer
	sender        Sender
	queue         *jobs.Queue
	metrics       deliveryCounter
	stream        string
	group         string
	consumer      string
	block         time.Duration
	log           *zap.Logger
}

// NewNotifyWorker constructs a worker bound to one delivery channel.
func NewNotifyWorker(rdb *redis.Client, subs subscriptionReader, classes classNamer, sender Sender, cfg config.EventsConfig, metrics deliveryCounter, log *zap.Logger) *NotifyWorker {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", sender.Name()+"_notify_worker"))

	w := &NotifyWorker{
		rdb:           rdb,
		subscriptions: subs,
		classes:       classes,
		sender:        sender,
		metrics:       metrics,
		stream:        cfg.Stream,
		group:         sender.Name() + "-consumers",
		consumer:      sender.Name() + "-1",
		block:         cfg.ConsumerBlock,
		log:           log,
	}
	w.queue = jobs.NewQueue(sender.Name()+"-deliveries", w.deliver, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     log,
	})
	return w
}

// Start joins the consumer group and consumes until the context is
// cancelled. Blocks; run it on its own goroutine.
func (w *NotifyWorker) Start(ctx context.Context) {
	if err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "0").Err(); err != nil && !isBusyGroup(err) {
		w.log.Error("create consumer group", zap.Error(err))
		return
	}

	w.queue.Start(ctx)
	defer w.queue.Stop()
	w.log.Info("notify worker started", zap.String("stream", w.stream), zap.String("group", w.group))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("notify worker stopped")
			return
		default:
		}

		streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.group,
			Consumer: w.consumer,
			Streams:  []string{w.stream, ">"},
			Count:    16,
			Block:    w.block,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Warn("read event stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.handle(ctx, msg)
				// Ack regardless of dispatch outcome: retries are the
				// queue's job, and a poison message must not wedge the
				// group.
				if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
					w.log.Warn("ack event", zap.String("msg_id", msg.ID), zap.Error(err))
				}
			}
		}
	}
}

func (w *NotifyWorker) handle(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		w.log.Warn("event without payload", zap.String("msg_id", msg.ID))
		return
	}
	var event models.EnrollmentEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Warn("unmarshal event", zap.String("msg_id", msg.ID), zap.Error(err))
		return
	}

	sub, err := w.subscriptions.Get(ctx, event.StudentID, event.ClassID)
	if err != nil {
		// No opt-in for this pair, or registry briefly unreachable.
		w.log.Debug("no subscription for event",
			zap.String("event_id", event.ID),
			zap.Int64("student_id", event.StudentID),
			zap.Int64("class_id", event.ClassID))
		return
	}
	endpoint := w.sender.Endpoint(sub)
	if endpoint == "" {
		return
	}

	className := fmt.Sprintf("class %d", event.ClassID)
	if class, err := w.classes.FindByID(ctx, event.ClassID); err == nil {
		className = class.Name
	}

	delivery := Delivery{
		Endpoint:  endpoint,
		ClassName: className,
		Message:   composeMessage(event, className),
	}
	if err := w.queue.Enqueue(jobs.Job{ID: event.ID, Type: string(event.Event), Payload: delivery}); err != nil {
		w.log.Error("enqueue delivery", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, job jobs.Job) error {
	delivery, ok := job.Payload.(Delivery)
	if !ok {
		w.log.Error("unexpected job payload", zap.String("job_id", job.ID))
		return nil
	}
	err := w.sender.Send(ctx, delivery)
	if w.metrics != nil {
		w.metrics.RecordDelivery(w.sender.Name(), err == nil)
	}
	return err
}

func composeMessage(event models.EnrollmentEvent, className string) string {
	switch event.Event {
	case models.EventAdmitted:
		return fmt.Sprintf("You have been enrolled in %s", className)
	case models.EventWaitlisted:
		return fmt.Sprintf("You have been placed on the waitlist for %s at position %d", className, event.Rank)
	case models.EventDropped:
		return fmt.Sprintf("You have been dropped from %s", className)
	case models.EventRemovedFromWaitlist:
		return fmt.Sprintf("You have been removed from the waitlist for %s", className)
	default:
		return fmt.Sprintf("Enrollment update for %s", className)
	}
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
