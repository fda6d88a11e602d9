package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
)

type mockWaitlistQueue struct {
	queues  map[int64][]int64
	failure error
}

func (m *mockWaitlistQueue) Remove(ctx context.Context, classID, studentID int64) error {
	if m.failure != nil {
		return m.failure
	}
	queue := m.queues[classID]
	for i, id := range queue {
		if id == studentID {
			m.queues[classID] = append(queue[:i], queue[i+1:]...)
			return nil
		}
	}
	return repository.ErrNoEntry
}

func (m *mockWaitlistQueue) SizeByClass(ctx context.Context, classID int64) (int, error) {
	if m.failure != nil {
		return 0, m.failure
	}
	return len(m.queues[classID]), nil
}

func (m *mockWaitlistQueue) ListByClass(ctx context.Context, classID int64) ([]models.WaitlistEntry, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	entries := make([]models.WaitlistEntry, 0, len(m.queues[classID]))
	for i, id := range m.queues[classID] {
		entries = append(entries, models.WaitlistEntry{ClassID: classID, StudentID: id, Rank: i + 1})
	}
	return entries, nil
}

func (m *mockWaitlistQueue) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentWaitlist, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	var result []models.StudentWaitlist
	for classID, queue := range m.queues {
		for i, id := range queue {
			if id == studentID {
				result = append(result, models.StudentWaitlist{ClassID: classID, Rank: i + 1})
			}
		}
	}
	return result, nil
}

type mockClassCatalog struct {
	classes map[int64]*models.Class
}

func (m *mockClassCatalog) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func newWaitlistFixture() (*WaitlistService, *mockWaitlistQueue, *mockPublisher) {
	queue := &mockWaitlistQueue{queues: map[int64][]int64{100: {2, 3}}}
	classes := &mockClassCatalog{classes: map[int64]*models.Class{
		100: {ID: 100, Name: "Algorithms", InstructorID: 9, Capacity: 2},
	}}
	users := &mockUsers{users: map[int64]*models.User{
		2: {ID: 2, Name: "Ben", Role: models.RoleStudent},
		3: {ID: 3, Name: "Cleo", Role: models.RoleStudent},
		9: {ID: 9, Name: "Prof. Knuth", Role: models.RoleInstructor},
	}}
	publisher := &mockPublisher{}
	return NewWaitlistService(queue, classes, users, publisher, NewMetricsService(), zap.NewNop()), queue, publisher
}

func TestListForStudent(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	waitlists, err := svc.ListForStudent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, waitlists, 1)
	assert.Equal(t, int64(100), waitlists[0].ClassID)
	assert.Equal(t, 1, waitlists[0].Rank)
}

func TestListForStudentEmpty(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.ListForStudent(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOnWaitlist))
}

func TestListForClassResolvesNamesInRankOrder(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	rows, err := svc.ListForClass(context.Background(), 9, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ben", rows[0].Student.Name)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "Cleo", rows[1].Student.Name)
	assert.Equal(t, 2, rows[1].Rank)
}

func TestListForClassRequiresOwnership(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.ListForClass(context.Background(), 2, 100)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.ListForClass(context.Background(), 9, 999)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRemoveCompactsAndPublishes(t *testing.T) {
	svc, queue, publisher := newWaitlistFixture()

	err := svc.Remove(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, queue.queues[100])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventRemovedFromWaitlist, publisher.events[0].Event)

	// The survivor moved up to rank 1.
	waitlists, err := svc.ListForStudent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, waitlists[0].Rank)

	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.waitlistDepth.WithLabelValues("100")))
}

func TestRemoveNotOnWaitlist(t *testing.T) {
	svc, _, publisher := newWaitlistFixture()

	err := svc.Remove(context.Background(), 7, 100)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOnWaitlist))
	assert.Empty(t, publisher.events)
}

func TestCorruptQueueSurfacesInvariantViolation(t *testing.T) {
	svc, queue, _ := newWaitlistFixture()
	queue.failure = repository.ErrCorruptQueue

	_, err := svc.ListForStudent(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvariantViolation))
}
