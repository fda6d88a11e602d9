package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/regworks/enroll-api/internal/models"
)

// Sentinel errors surfaced by the waitlist store. Services translate them
// into the HTTP-aware error types.
var (
	// ErrDuplicateEntry indicates the student already holds a waitlist
	// position for the class.
	ErrDuplicateEntry = errors.New("waitlist entry already exists")
	// ErrNoEntry indicates no waitlist position exists for the pair.
	ErrNoEntry = errors.New("waitlist entry not found")
	// ErrCorruptQueue indicates a rank gap, duplicate or fractional score
	// was observed; the queue is never repaired silently.
	ErrCorruptQueue = errors.New("waitlist ranks are not dense")
)

func classWaitlistKey(classID int64) string {
	return fmt.Sprintf("class:%d:waitlist", classID)
}

func studentWaitlistsKey(studentID int64) string {
	return fmt.Sprintf("student:%d:waitlists", studentID)
}

// appendScript assigns rank max+1 and writes the class entry and its
// student-side mirror in one atomic unit. Returns -1 when the student is
// already queued.
var appendScript = redis.NewScript(`
local cur = redis.call('ZSCORE', KEYS[1], ARGV[1])
if cur then return -1 end
local max = 0
local top = redis.call('ZRANGE', KEYS[1], -1, -1, 'WITHSCORES')
if top[2] then max = tonumber(top[2]) end
local rank = max + 1
redis.call('ZADD', KEYS[1], rank, ARGV[1])
redis.call('ZADD', KEYS[2], rank, ARGV[2])
return rank
`)

// removeScript deletes an entry and its mirror, then decrements the rank of
// every entry behind it in both the class queue and each owner's mirror.
// Running as one script makes the whole compaction atomic per class: no
// observer can see a transient gap or duplicate rank.
var removeScript = redis.NewScript(`
local rank = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not rank then return 0 end
rank = tonumber(rank)
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZREM', 'student:' .. ARGV[1] .. ':waitlists', ARGV[2])
local tail = redis.call('ZRANGEBYSCORE', KEYS[1], rank + 1, '+inf', 'WITHSCORES')
for i = 1, #tail, 2 do
	local member = tail[i]
	local score = tonumber(tail[i + 1])
	redis.call('ZADD', KEYS[1], score - 1, member)
	redis.call('ZADD', 'student:' .. member .. ':waitlists', score - 1, ARGV[2])
end
return 1
`)

// WaitlistRepository maintains the per-class ordered waitlists and their
// per-student mirrors on Redis sorted sets. Canonical ranks are dense
// positive integers; sorted-set scores are an internal detail and never
// carry fractional placement values.
type WaitlistRepository struct {
	rdb *redis.Client
}

// NewWaitlistRepository constructs the repository.
func NewWaitlistRepository(rdb *redis.Client) *WaitlistRepository {
	return &WaitlistRepository{rdb: rdb}
}

// Append places the student at the back of the class waitlist and returns
// the assigned rank. Concurrent appends on the same class serialize on the
// store; rank order matches store commit order.
func (r *WaitlistRepository) Append(ctx context.Context, classID, studentID int64) (int, error) {
	keys := []string{classWaitlistKey(classID), studentWaitlistsKey(studentID)}
	rank, err := appendScript.Run(ctx, r.rdb, keys, studentID, classID).Int()
	if err != nil {
		return 0, fmt.Errorf("append waitlist entry: %w", err)
	}
	if rank < 0 {
		return 0, ErrDuplicateEntry
	}
	return rank, nil
}

// Remove deletes the student's entry and re-densifies the remaining ranks so
// positions stay contiguous starting at 1.
func (r *WaitlistRepository) Remove(ctx context.Context, classID, studentID int64) error {
	keys := []string{classWaitlistKey(classID)}
	removed, err := removeScript.Run(ctx, r.rdb, keys, studentID, classID).Int()
	if err != nil {
		return fmt.Errorf("remove waitlist entry: %w", err)
	}
	if removed == 0 {
		return ErrNoEntry
	}
	return nil
}

// Lookup returns the student's rank on the class waitlist.
func (r *WaitlistRepository) Lookup(ctx context.Context, classID, studentID int64) (int, error) {
	score, err := r.rdb.ZScore(ctx, classWaitlistKey(classID), fmt.Sprintf("%d", studentID)).Result()
	if err == redis.Nil {
		return 0, ErrNoEntry
	}
	if err != nil {
		return 0, fmt.Errorf("lookup waitlist entry: %w", err)
	}
	rank, err := toRank(score)
	if err != nil {
		return 0, err
	}
	return rank, nil
}

// ListByClass returns the class queue in ascending rank order. Density is
// verified on every read: a gap or duplicate is reported, never repaired.
func (r *WaitlistRepository) ListByClass(ctx context.Context, classID int64) ([]models.WaitlistEntry, error) {
	rows, err := r.rdb.ZRangeWithScores(ctx, classWaitlistKey(classID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list class waitlist: %w", err)
	}
	entries := make([]models.WaitlistEntry, 0, len(rows))
	for i, row := range rows {
		studentID, err := memberID(row.Member)
		if err != nil {
			return nil, err
		}
		rank, err := toRank(row.Score)
		if err != nil {
			return nil, err
		}
		if rank != i+1 {
			return nil, fmt.Errorf("class %d rank %d at position %d: %w", classID, rank, i+1, ErrCorruptQueue)
		}
		entries = append(entries, models.WaitlistEntry{ClassID: classID, StudentID: studentID, Rank: rank})
	}
	return entries, nil
}

// ListByStudent returns every waitlist the student is on, in ascending rank
// order.
func (r *WaitlistRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentWaitlist, error) {
	rows, err := r.rdb.ZRangeWithScores(ctx, studentWaitlistsKey(studentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list student waitlists: %w", err)
	}
	waitlists := make([]models.StudentWaitlist, 0, len(rows))
	for _, row := range rows {
		classID, err := memberID(row.Member)
		if err != nil {
			return nil, err
		}
		rank, err := toRank(row.Score)
		if err != nil {
			return nil, err
		}
		waitlists = append(waitlists, models.StudentWaitlist{ClassID: classID, Rank: rank})
	}
	return waitlists, nil
}

// SizeByClass returns the current length of a class's waitlist.
func (r *WaitlistRepository) SizeByClass(ctx context.Context, classID int64) (int, error) {
	count, err := r.rdb.ZCard(ctx, classWaitlistKey(classID)).Result()
	if err != nil {
		return 0, fmt.Errorf("size class waitlist: %w", err)
	}
	return int(count), nil
}

// CountByStudent returns the number of distinct class waitlists the student
// currently occupies.
func (r *WaitlistRepository) CountByStudent(ctx context.Context, studentID int64) (int, error) {
	count, err := r.rdb.ZCard(ctx, studentWaitlistsKey(studentID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count student waitlists: %w", err)
	}
	return int(count), nil
}

func toRank(score float64) (int, error) {
	if score < 1 || score != math.Trunc(score) {
		return 0, fmt.Errorf("score %v: %w", score, ErrCorruptQueue)
	}
	return int(score), nil
}

func memberID(member interface{}) (int64, error) {
	raw, ok := member.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected member type %T", member)
	}
	var id int64
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0, fmt.Errorf("parse member %q: %w", raw, err)
	}
	return id, nil
}
