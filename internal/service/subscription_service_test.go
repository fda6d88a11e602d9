package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
)

type mockSubscriptionStore struct {
	subs map[int64]map[int64]models.Subscription
}

func (m *mockSubscriptionStore) key(studentID int64) map[int64]models.Subscription {
	if m.subs == nil {
		m.subs = make(map[int64]map[int64]models.Subscription)
	}
	if m.subs[studentID] == nil {
		m.subs[studentID] = make(map[int64]models.Subscription)
	}
	return m.subs[studentID]
}

func (m *mockSubscriptionStore) Add(ctx context.Context, sub models.Subscription) error {
	byClass := m.key(sub.StudentID)
	if _, ok := byClass[sub.ClassID]; ok {
		return repository.ErrDuplicateEntry
	}
	byClass[sub.ClassID] = sub
	return nil
}

func (m *mockSubscriptionStore) List(ctx context.Context, studentID int64) ([]models.Subscription, error) {
	var result []models.Subscription
	for _, sub := range m.key(studentID) {
		result = append(result, sub)
	}
	return result, nil
}

func (m *mockSubscriptionStore) Delete(ctx context.Context, studentID, classID int64) error {
	byClass := m.key(studentID)
	if _, ok := byClass[classID]; !ok {
		return repository.ErrNoEntry
	}
	delete(byClass, classID)
	return nil
}

func newSubscriptionFixture() (*SubscriptionService, *mockSubscriptionStore) {
	store := &mockSubscriptionStore{}
	users := &mockUsers{users: map[int64]*models.User{
		1: {ID: 1, Name: "Ada", Role: models.RoleStudent},
	}}
	classes := &mockClassCatalog{classes: map[int64]*models.Class{
		100: {ID: 100, Name: "Algorithms", InstructorID: 9, Capacity: 2},
	}}
	return NewSubscriptionService(store, users, classes, validator.New(), zap.NewNop()), store
}

func TestSubscribe(t *testing.T) {
	svc, store := newSubscriptionFixture()

	sub, err := svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 100, Email: "ada@example.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.edu", sub.Email)
	assert.Contains(t, store.subs[1], int64(100))
}

func TestSubscribeRequiresEndpoint(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{StudentID: 1, ClassID: 100})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubscribeRejectsMalformedEndpoints(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 100, Email: "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 100, WebhookURL: "not a url",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubscribeDuplicateConflicts(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 100, Email: "ada@example.edu",
	})
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 100, WebhookURL: "https://hooks.example.edu/ada",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubscribeUnknownStudentOrClass(t *testing.T) {
	svc, _ := newSubscriptionFixture()

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 42, ClassID: 100, Email: "ghost@example.edu",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Subscribe(context.Background(), SubscribeRequest{
		StudentID: 1, ClassID: 999, Email: "ada@example.edu",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUnsubscribe(t *testing.T) {
	svc, store := newSubscriptionFixture()
	store.key(1)[100] = models.Subscription{StudentID: 1, ClassID: 100, Email: "ada@example.edu"}

	require.NoError(t, svc.Unsubscribe(context.Background(), 1, 100))
	assert.NotContains(t, store.subs[1], int64(100))

	err := svc.Unsubscribe(context.Background(), 1, 100)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
