package service

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	"github.com/regworks/enroll-api/pkg/config"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
)

// admitAttempts bounds how often a request re-runs the seat decision after
// losing a compare-and-swap race.
const admitAttempts = 3

type rosterStore interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	AdmitStudent(ctx context.Context, classID, studentID int64) (bool, error)
	DropStudent(ctx context.Context, classID, studentID int64) (bool, error)
}

type waitlistStore interface {
	Append(ctx context.Context, classID, studentID int64) (int, error)
	Lookup(ctx context.Context, classID, studentID int64) (int, error)
	SizeByClass(ctx context.Context, classID int64) (int, error)
	CountByStudent(ctx context.Context, studentID int64) (int, error)
}

type userReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type factPublisher interface {
	Publish(ctx context.Context, event models.EnrollmentEvent)
}

// Decision classifies the outcome of an enrollment request.
type Decision string

const (
	DecisionAdmitted   Decision = "ADMITTED"
	DecisionWaitlisted Decision = "WAITLISTED"
	DecisionRejected   Decision = "REJECTED"
	DecisionDropped    Decision = "DROPPED"
)

// RejectionReason explains why an over-capacity request was turned away.
// Rejections are valid business outcomes, not faults.
type RejectionReason string

const (
	ReasonAdministrativeFreeze RejectionReason = "ADMINISTRATIVE_FREEZE"
	ReasonWaitlistLimitReached RejectionReason = "WAITLIST_LIMIT_REACHED"
	ReasonClassAndWaitlistFull RejectionReason = "CLASS_AND_WAITLIST_FULL"
)

// EnrollmentOutcome is the result of an admission decision.
type EnrollmentOutcome struct {
	Decision Decision        `json:"decision"`
	Rank     int             `json:"rank,omitempty"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Message  string          `json:"message"`
}

// AdmissionService is the decision engine: it consults the roster and
// waitlist stores, applies capacity, freeze and per-student-limit policy and
// issues the single store write the decision calls for.
type AdmissionService struct {
	roster    rosterStore
	waitlists waitlistStore
	users     userReader
	publisher factPublisher
	policy    config.PolicyConfig
	metrics   *MetricsService
	frozen    atomic.Bool
	logger    *zap.Logger
}

// NewAdmissionService constructs AdmissionService.
func NewAdmissionService(roster rosterStore, waitlists waitlistStore, users userReader, publisher factPublisher, policy config.PolicyConfig, metrics *MetricsService, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxWaitlistsPerStudent <= 0 {
		policy.MaxWaitlistsPerStudent = 3
	}
	if policy.WaitlistCapacity <= 0 {
		policy.WaitlistCapacity = 15
	}
	s := &AdmissionService{
		roster:    roster,
		waitlists: waitlists,
		users:     users,
		publisher: publisher,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
	}
	s.frozen.Store(policy.FrozenAtBoot)
	return s
}

// Frozen reports whether new waitlist admissions are suspended.
func (s *AdmissionService) Frozen() bool {
	return s.frozen.Load()
}

// SetFrozen toggles the administrative freeze. Direct seat admissions and
// drops are unaffected.
func (s *AdmissionService) SetFrozen(frozen bool) {
	s.frozen.Store(frozen)
	s.logger.Info("waitlist freeze toggled", zap.Bool("frozen", frozen))
}

// RequestEnrollment decides whether the student is admitted to a seat,
// deferred to the waitlist, or rejected.
func (s *AdmissionService) RequestEnrollment(ctx context.Context, studentID, classID int64) (*EnrollmentOutcome, error) {
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or class not found")
		}
		return nil, s.storeFault(err, "failed to load student")
	}

	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if class.HasEnrolled(studentID) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPresent, "student is already enrolled in this class")
	}
	if _, err := s.waitlists.Lookup(ctx, classID, studentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPresent, "student is already on the waitlist for this class")
	} else if !errors.Is(err, repository.ErrNoEntry) {
		return nil, s.storeFault(err, "failed to check waitlist")
	}

	// Seat path. The conditional write re-checks capacity and membership at
	// write time, so losing the race just means the decision is re-run on
	// fresh state.
	for attempt := 0; attempt < admitAttempts; attempt++ {
		if class.SeatsTaken()+1 > class.Capacity {
			break
		}
		start := time.Now()
		admitted, err := s.roster.AdmitStudent(ctx, classID, studentID)
		s.metrics.ObserveStoreOperation("roster_admit", time.Since(start))
		if err != nil {
			return nil, s.storeFault(err, "failed to admit student")
		}
		if admitted {
			s.publisher.Publish(ctx, models.EnrollmentEvent{
				StudentID: studentID, ClassID: classID, Event: models.EventAdmitted,
			})
			s.logger.Info("student admitted",
				zap.Int64("student_id", studentID), zap.Int64("class_id", classID))
			return &EnrollmentOutcome{
				Decision: DecisionAdmitted,
				Message:  "student successfully enrolled in class",
			}, nil
		}

		s.metrics.RecordCASRetry()
		class, err = s.loadClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		if class.HasEnrolled(studentID) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyPresent, "student is already enrolled in this class")
		}
	}

	return s.deferToWaitlist(ctx, studentID, classID)
}

func (s *AdmissionService) deferToWaitlist(ctx context.Context, studentID, classID int64) (*EnrollmentOutcome, error) {
	if s.frozen.Load() {
		return &EnrollmentOutcome{
			Decision: DecisionRejected,
			Reason:   ReasonAdministrativeFreeze,
			Message:  "unable to add student to waitlist due to administrative freeze",
		}, nil
	}

	count, err := s.waitlists.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, s.storeFault(err, "failed to count student waitlists")
	}
	if count >= s.policy.MaxWaitlistsPerStudent {
		return &EnrollmentOutcome{
			Decision: DecisionRejected,
			Reason:   ReasonWaitlistLimitReached,
			Message:  "student already holds the maximum number of waitlist positions",
		}, nil
	}

	size, err := s.waitlists.SizeByClass(ctx, classID)
	if err != nil {
		return nil, s.storeFault(err, "failed to size class waitlist")
	}
	if size >= s.policy.WaitlistCapacity {
		return &EnrollmentOutcome{
			Decision: DecisionRejected,
			Reason:   ReasonClassAndWaitlistFull,
			Message:  "class and waitlist are both full",
		}, nil
	}

	start := time.Now()
	rank, err := s.waitlists.Append(ctx, classID, studentID)
	s.metrics.ObserveStoreOperation("waitlist_append", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyPresent, "student is already on the waitlist for this class")
		}
		return nil, s.storeFault(err, "failed to append waitlist entry")
	}
	// Ranks are dense, so the assigned rank is the queue depth.
	s.metrics.SetWaitlistDepth(classID, rank)

	s.publisher.Publish(ctx, models.EnrollmentEvent{
		StudentID: studentID, ClassID: classID, Event: models.EventWaitlisted, Rank: rank,
	})
	s.logger.Info("student waitlisted",
		zap.Int64("student_id", studentID), zap.Int64("class_id", classID), zap.Int("rank", rank))
	return &EnrollmentOutcome{
		Decision: DecisionWaitlisted,
		Rank:     rank,
		Message:  "student added to the waitlist",
	}, nil
}

// DropEnrollment removes the student from the enrolled list and records the
// drop. The vacated seat is NOT backfilled from the waitlist; promotion is a
// separate administrative action.
func (s *AdmissionService) DropEnrollment(ctx context.Context, studentID, classID int64) (*EnrollmentOutcome, error) {
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or class not found")
		}
		return nil, s.storeFault(err, "failed to load student")
	}
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}

	start := time.Now()
	dropped, err := s.roster.DropStudent(ctx, classID, studentID)
	s.metrics.ObserveStoreOperation("roster_drop", time.Since(start))
	if err != nil {
		return nil, s.storeFault(err, "failed to drop student")
	}
	if !dropped {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student is not enrolled in the class")
	}

	s.publisher.Publish(ctx, models.EnrollmentEvent{
		StudentID: studentID, ClassID: classID, Event: models.EventDropped,
	})
	s.logger.Info("student dropped",
		zap.Int64("student_id", studentID), zap.Int64("class_id", classID))
	return &EnrollmentOutcome{
		Decision: DecisionDropped,
		Message:  "student successfully dropped class",
	}, nil
}

// AdministrativeDrop lets an instructor drop a student from a class they
// teach. Same outcome as a student drop; the extra ownership check is the
// only difference.
func (s *AdmissionService) AdministrativeDrop(ctx context.Context, instructorID, studentID, classID int64) (*EnrollmentOutcome, error) {
	instructor, err := s.users.FindByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor or class not found")
		}
		return nil, s.storeFault(err, "failed to load instructor")
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.InstructorID != instructor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor not assigned to this class")
	}
	s.logger.Info("administrative drop requested",
		zap.Int64("instructor_id", instructorID),
		zap.Int64("student_id", studentID), zap.Int64("class_id", classID))
	return s.DropEnrollment(ctx, studentID, classID)
}

// loadClass reads a class record and verifies the capacity invariant. A
// detected overshoot is surfaced, never repaired, since silent repair could
// mask a concurrency bug.
func (s *AdmissionService) loadClass(ctx context.Context, classID int64) (*models.Class, error) {
	class, err := s.roster.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student or class not found")
		}
		return nil, s.storeFault(err, "failed to load class")
	}
	if class.SeatsTaken() > class.Capacity {
		s.logger.Error("capacity invariant violated",
			zap.Int64("class_id", classID),
			zap.Int("enrolled", class.SeatsTaken()),
			zap.Int("capacity", class.Capacity))
		return nil, appErrors.Clone(appErrors.ErrInvariantViolation, "class enrollment exceeds capacity")
	}
	return class, nil
}

func (s *AdmissionService) storeFault(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}
