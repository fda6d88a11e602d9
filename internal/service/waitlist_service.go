package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
)

type waitlistQueue interface {
	Remove(ctx context.Context, classID, studentID int64) error
	ListByClass(ctx context.Context, classID int64) ([]models.WaitlistEntry, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentWaitlist, error)
	SizeByClass(ctx context.Context, classID int64) (int, error)
}

type classReader interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindManyByID(ctx context.Context, ids []int64) (map[int64]models.User, error)
}

// WaitlistService exposes waitlist views and explicit removal.
type WaitlistService struct {
	waitlists waitlistQueue
	classes   classReader
	users     userDirectory
	publisher factPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewWaitlistService constructs WaitlistService.
func NewWaitlistService(waitlists waitlistQueue, classes classReader, users userDirectory, publisher factPublisher, metrics *MetricsService, logger *zap.Logger) *WaitlistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistService{waitlists: waitlists, classes: classes, users: users, publisher: publisher, metrics: metrics, logger: logger}
}

// ListForStudent returns every waitlist position the student holds.
func (s *WaitlistService) ListForStudent(ctx context.Context, studentID int64) ([]models.StudentWaitlist, error) {
	waitlists, err := s.waitlists.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, s.queueFault(err, studentID, "failed to list student waitlists")
	}
	if len(waitlists) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotOnWaitlist, "student is not on a waitlist")
	}
	return waitlists, nil
}

// ListForClass returns the ordered queue for a class the instructor teaches,
// with student identities resolved.
func (s *WaitlistService) ListForClass(ctx context.Context, instructorID, classID int64) ([]models.ClassWaitlistRow, error) {
	if _, err := s.users.FindByID(ctx, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load instructor")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load class")
	}
	if class.InstructorID != instructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor not assigned to this class")
	}

	entries, err := s.waitlists.ListByClass(ctx, classID)
	if err != nil {
		return nil, s.queueFault(err, classID, "failed to list class waitlist")
	}

	ids := make([]int64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.StudentID
	}
	students, err := s.users.FindManyByID(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve students")
	}

	rows := make([]models.ClassWaitlistRow, 0, len(entries))
	for _, entry := range entries {
		student, ok := students[entry.StudentID]
		if !ok {
			student = models.User{ID: entry.StudentID}
		}
		student.Role = ""
		rows = append(rows, models.ClassWaitlistRow{Student: student, Rank: entry.Rank})
	}
	return rows, nil
}

// Remove takes the student off a class waitlist; remaining ranks are
// re-densified by the store before this returns.
func (s *WaitlistService) Remove(ctx context.Context, studentID, classID int64) error {
	start := time.Now()
	err := s.waitlists.Remove(ctx, classID, studentID)
	s.metrics.ObserveStoreOperation("waitlist_remove", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNoEntry) {
			return appErrors.Clone(appErrors.ErrNotOnWaitlist, "student is not on the waiting list for this class")
		}
		return s.queueFault(err, classID, "failed to remove waitlist entry")
	}
	if size, err := s.waitlists.SizeByClass(ctx, classID); err == nil {
		s.metrics.SetWaitlistDepth(classID, size)
	}

	s.publisher.Publish(ctx, models.EnrollmentEvent{
		StudentID: studentID, ClassID: classID, Event: models.EventRemovedFromWaitlist,
	})
	s.logger.Info("student removed from waitlist",
		zap.Int64("student_id", studentID), zap.Int64("class_id", classID))
	return nil
}

// queueFault distinguishes invariant violations from plain store faults.
// Rank corruption is always logged and surfaced, never repaired inline.
func (s *WaitlistService) queueFault(err error, id int64, message string) error {
	if errors.Is(err, repository.ErrCorruptQueue) {
		s.logger.Error("waitlist rank invariant violated", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInvariantViolation.Code, appErrors.ErrInvariantViolation.Status, "waitlist ranks are corrupt")
	}
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}
