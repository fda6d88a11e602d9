package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
)

type subscriptionStore interface {
	Add(ctx context.Context, sub models.Subscription) error
	List(ctx context.Context, studentID int64) ([]models.Subscription, error)
	Delete(ctx context.Context, studentID, classID int64) error
}

// SubscribeRequest describes a notification opt-in.
type SubscribeRequest struct {
	StudentID  int64  `json:"student_id" validate:"required"`
	ClassID    int64  `json:"class_id" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

// SubscriptionService manages per-student, per-class notification endpoints.
// It never touches admission state.
type SubscriptionService struct {
	subscriptions subscriptionStore
	users         userReader
	classes       classReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSubscriptionService constructs SubscriptionService.
func NewSubscriptionService(subscriptions subscriptionStore, users userReader, classes classReader, validate *validator.Validate, logger *zap.Logger) *SubscriptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{subscriptions: subscriptions, users: users, classes: classes, validator: validate, logger: logger}
}

// Subscribe registers notification endpoints for a student and class pair.
func (s *SubscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) (*models.Subscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}
	sub := models.Subscription{
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		Email:      req.Email,
		WebhookURL: req.WebhookURL,
	}
	if !sub.HasEndpoint() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of email or webhook_url is required")
	}

	if _, err := s.users.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load class")
	}

	if err := s.subscriptions.Add(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subscription already exists for this class; unsubscribe first to replace it")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create subscription")
	}

	s.logger.Info("subscription created",
		zap.Int64("student_id", req.StudentID), zap.Int64("class_id", req.ClassID))
	return &sub, nil
}

// List returns every subscription held by the student.
func (s *SubscriptionService) List(ctx context.Context, studentID int64) ([]models.Subscription, error) {
	subs, err := s.subscriptions.List(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list subscriptions")
	}
	return subs, nil
}

// Unsubscribe removes the subscription for the pair.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, studentID, classID int64) error {
	if err := s.subscriptions.Delete(ctx, studentID, classID); err != nil {
		if errors.Is(err, repository.ErrNoEntry) {
			return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete subscription")
	}
	s.logger.Info("subscription deleted",
		zap.Int64("student_id", studentID), zap.Int64("class_id", classID))
	return nil
}
