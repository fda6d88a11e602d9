package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWaitlistRepo(t *testing.T) *WaitlistRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewWaitlistRepository(rdb)
}

func TestAppendAssignsDenseRanks(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	for i, studentID := range []int64{11, 12, 13} {
		rank, err := repo.Append(ctx, 100, studentID)
		require.NoError(t, err)
		assert.Equal(t, i+1, rank)
	}

	size, err := repo.SizeByClass(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	entries, err := repo.ListByClass(ctx, 100)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(11), entries[0].StudentID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(13), entries[2].StudentID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestAppendRejectsDuplicate(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, 100, 11)
	require.NoError(t, err)

	_, err = repo.Append(ctx, 100, 11)
	require.ErrorIs(t, err, ErrDuplicateEntry)

	size, err := repo.SizeByClass(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestAppendMaintainsStudentMirror(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, 100, 11)
	require.NoError(t, err)
	_, err = repo.Append(ctx, 200, 99)
	require.NoError(t, err)
	_, err = repo.Append(ctx, 200, 11)
	require.NoError(t, err)

	count, err := repo.CountByStudent(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	waitlists, err := repo.ListByStudent(ctx, 11)
	require.NoError(t, err)
	require.Len(t, waitlists, 2)
	assert.Equal(t, int64(100), waitlists[0].ClassID)
	assert.Equal(t, 1, waitlists[0].Rank)
	assert.Equal(t, int64(200), waitlists[1].ClassID)
	assert.Equal(t, 2, waitlists[1].Rank)
}

func TestRemoveHeadRedensifiesRanks(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	for _, studentID := range []int64{11, 12, 13} {
		_, err := repo.Append(ctx, 100, studentID)
		require.NoError(t, err)
	}

	require.NoError(t, repo.Remove(ctx, 100, 11))

	entries, err := repo.ListByClass(ctx, 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(12), entries[0].StudentID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(13), entries[1].StudentID)
	assert.Equal(t, 2, entries[1].Rank)

	// Survivors see the compacted rank through their own mirror too.
	waitlists, err := repo.ListByStudent(ctx, 13)
	require.NoError(t, err)
	require.Len(t, waitlists, 1)
	assert.Equal(t, 2, waitlists[0].Rank)

	count, err := repo.CountByStudent(ctx, 11)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRemoveMiddleLeavesHeadUntouched(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	for _, studentID := range []int64{11, 12, 13} {
		_, err := repo.Append(ctx, 100, studentID)
		require.NoError(t, err)
	}

	require.NoError(t, repo.Remove(ctx, 100, 12))

	rank, err := repo.Lookup(ctx, 100, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	rank, err = repo.Lookup(ctx, 100, 13)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
}

func TestRemoveMissingEntry(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	require.ErrorIs(t, repo.Remove(ctx, 100, 11), ErrNoEntry)

	_, err := repo.Append(ctx, 100, 11)
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, 100, 11))
	require.ErrorIs(t, repo.Remove(ctx, 100, 11), ErrNoEntry)
}

func TestRemoveOnlyTouchesOwnClassMirror(t *testing.T) {
	repo := newWaitlistRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, 100, 11)
	require.NoError(t, err)
	_, err = repo.Append(ctx, 200, 11)
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, 100, 11))

	count, err := repo.CountByStudent(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rank, err := repo.Lookup(ctx, 200, 11)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
}

func TestLookupMissing(t *testing.T) {
	repo := newWaitlistRepo(t)

	_, err := repo.Lookup(context.Background(), 100, 11)
	require.ErrorIs(t, err, ErrNoEntry)
}
