package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/regworks/enroll-api/internal/models"
)

func subscriptionKey(studentID, classID int64) string {
	return fmt.Sprintf("subscription:%d:%d", studentID, classID)
}

func studentSubscriptionsKey(studentID int64) string {
	return fmt.Sprintf("student:%d:subscriptions", studentID)
}

// subscribeScript creates the endpoint hash and index entry only when no
// subscription exists yet for the pair.
var subscribeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], 'email', ARGV[1], 'webhook_url', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`)

// unsubscribeScript removes the hash and its index entry together.
var unsubscribeScript = redis.NewScript(`
local removed = redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return removed
`)

// SubscriptionRepository stores per-student, per-class notification opt-ins
// on Redis hashes with a per-student index set. It is a side registry: the
// admission path never consults it.
type SubscriptionRepository struct {
	rdb *redis.Client
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(rdb *redis.Client) *SubscriptionRepository {
	return &SubscriptionRepository{rdb: rdb}
}

// Add creates a subscription. Returns ErrDuplicateEntry when one already
// exists for the pair; callers must delete first to replace endpoints.
func (r *SubscriptionRepository) Add(ctx context.Context, sub models.Subscription) error {
	keys := []string{subscriptionKey(sub.StudentID, sub.ClassID), studentSubscriptionsKey(sub.StudentID)}
	created, err := subscribeScript.Run(ctx, r.rdb, keys, sub.Email, sub.WebhookURL, sub.ClassID).Int()
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	if created == 0 {
		return ErrDuplicateEntry
	}
	return nil
}

// Exists reports whether a subscription is registered for the pair.
func (r *SubscriptionRepository) Exists(ctx context.Context, studentID, classID int64) (bool, error) {
	n, err := r.rdb.Exists(ctx, subscriptionKey(studentID, classID)).Result()
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return n == 1, nil
}

// Get returns the subscription for the pair, or ErrNoEntry.
func (r *SubscriptionRepository) Get(ctx context.Context, studentID, classID int64) (*models.Subscription, error) {
	fields, err := r.rdb.HGetAll(ctx, subscriptionKey(studentID, classID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNoEntry
	}
	return &models.Subscription{
		StudentID:  studentID,
		ClassID:    classID,
		Email:      fields["email"],
		WebhookURL: fields["webhook_url"],
	}, nil
}

// List returns every subscription held by the student.
func (r *SubscriptionRepository) List(ctx context.Context, studentID int64) ([]models.Subscription, error) {
	members, err := r.rdb.SMembers(ctx, studentSubscriptionsKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	subs := make([]models.Subscription, 0, len(members))
	for _, raw := range members {
		var classID int64
		if _, err := fmt.Sscanf(raw, "%d", &classID); err != nil {
			return nil, fmt.Errorf("parse subscription class %q: %w", raw, err)
		}
		sub, err := r.Get(ctx, studentID, classID)
		if err == ErrNoEntry {
			// Index momentarily ahead of a concurrent unsubscribe.
			continue
		}
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

// Delete removes the subscription for the pair. Returns ErrNoEntry when
// absent.
func (r *SubscriptionRepository) Delete(ctx context.Context, studentID, classID int64) error {
	keys := []string{subscriptionKey(studentID, classID), studentSubscriptionsKey(studentID)}
	removed, err := unsubscribeScript.Run(ctx, r.rdb, keys, classID).Int()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if removed == 0 {
		return ErrNoEntry
	}
	return nil
}
