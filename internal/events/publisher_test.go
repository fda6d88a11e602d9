package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
)

type countingMetrics struct {
	published int
}

func (c *countingMetrics) RecordEventPublished() { c.published++ }

func TestPublishAppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	metrics := &countingMetrics{}
	publisher := NewPublisher(rdb, config.EventsConfig{Stream: "enrollment-events", MaxLen: 100}, metrics, zap.NewNop())

	publisher.Publish(context.Background(), models.EnrollmentEvent{
		StudentID: 1, ClassID: 100, Event: models.EventAdmitted,
	})

	msgs, err := rdb.XRange(context.Background(), "enrollment-events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["payload"].(string)
	require.True(t, ok)
	var event models.EnrollmentEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	assert.Equal(t, int64(1), event.StudentID)
	assert.Equal(t, int64(100), event.ClassID)
	assert.Equal(t, models.EventAdmitted, event.Event)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	assert.Equal(t, 1, metrics.published)
}

func TestPublishSwallowsStreamFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	metrics := &countingMetrics{}
	publisher := NewPublisher(rdb, config.EventsConfig{Stream: "enrollment-events", MaxLen: 100}, metrics, zap.NewNop())

	// Must not panic or error out; the admission that produced the event
	// already committed.
	publisher.Publish(context.Background(), models.EnrollmentEvent{
		StudentID: 1, ClassID: 100, Event: models.EventAdmitted,
	})
	assert.Zero(t, metrics.published)
}
