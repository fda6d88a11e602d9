package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/pkg/config"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/export"
)

type rosterAdmin interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	ListAll(ctx context.Context) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id int64) (bool, error)
	UpdateCapacity(ctx context.Context, id int64, capacity int) (bool, error)
	UpdateInstructor(ctx context.Context, id, instructorID int64) (bool, error)
}

type waitlistSizer interface {
	SizeByClass(ctx context.Context, classID int64) (int, error)
	CountByStudent(ctx context.Context, studentID int64) (int, error)
}

// CreateClassRequest describes a registrar class creation.
type CreateClassRequest struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required"`
	CourseCode    string `json:"course_code" validate:"required"`
	SectionNumber int    `json:"section_number" validate:"required,gt=0"`
	Department    string `json:"department" validate:"required"`
	InstructorID  int64  `json:"instructor_id" validate:"required,gt=0"`
	Capacity      int    `json:"capacity" validate:"required,gt=0"`
}

// RosterExport is a rendered roster document.
type RosterExport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ClassService covers registrar class management and the class views served
// to students and instructors.
type ClassService struct {
	roster    rosterAdmin
	waitlists waitlistSizer
	users     userDirectory
	policy    config.PolicyConfig
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(roster rosterAdmin, waitlists waitlistSizer, users userDirectory, policy config.PolicyConfig, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.WaitlistCapacity <= 0 {
		policy.WaitlistCapacity = 15
	}
	if policy.MaxWaitlistsPerStudent <= 0 {
		policy.MaxWaitlistsPerStudent = 3
	}
	return &ClassService{
		roster:    roster,
		waitlists: waitlists,
		users:     users,
		policy:    policy,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create registers a new class with empty membership.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if _, err := s.roster.FindByID(ctx, req.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class with ID %d already exists", req.ID))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to check class")
	}
	if _, err := s.users.FindByID(ctx, req.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load instructor")
	}

	class := &models.Class{
		ID:            req.ID,
		Name:          req.Name,
		CourseCode:    req.CourseCode,
		SectionNumber: req.SectionNumber,
		Department:    req.Department,
		InstructorID:  req.InstructorID,
		Capacity:      req.Capacity,
	}
	if err := s.roster.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.Int64("class_id", class.ID), zap.String("course_code", class.CourseCode))
	return class, nil
}

// Delete removes a class record. Waitlist entries are not cascaded; they are
// cleaned up by explicit removal.
func (s *ClassService) Delete(ctx context.Context, classID int64) error {
	deleted, err := s.roster.Delete(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete class")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.logger.Info("class deleted", zap.Int64("class_id", classID))
	return nil
}

// UpdateCapacity changes a class's seat capacity. Shrinking below the
// current enrollment is refused so the capacity invariant keeps holding.
func (s *ClassService) UpdateCapacity(ctx context.Context, classID int64, capacity int) error {
	if capacity <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "capacity must be positive")
	}
	class, err := s.roster.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load class")
	}
	if capacity < class.SeatsTaken() {
		return appErrors.Clone(appErrors.ErrConflict, "capacity cannot be reduced below current enrollment")
	}
	if _, err := s.roster.UpdateCapacity(ctx, classID, capacity); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update capacity")
	}
	s.logger.Info("class capacity updated", zap.Int64("class_id", classID), zap.Int("capacity", capacity))
	return nil
}

// UpdateInstructor reassigns a class to another instructor.
func (s *ClassService) UpdateInstructor(ctx context.Context, classID, instructorID int64) error {
	if _, err := s.users.FindByID(ctx, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load instructor")
	}
	updated, err := s.roster.UpdateInstructor(ctx, classID, instructorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update instructor")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.logger.Info("class instructor updated", zap.Int64("class_id", classID), zap.Int64("instructor_id", instructorID))
	return nil
}

// ListAvailable returns the classes the student can still act on, with live
// seat and waitlist occupancy. A class whose only opening is its waitlist is
// hidden from students already holding the maximum number of waitlist
// positions.
func (s *ClassService) ListAvailable(ctx context.Context, studentID int64) ([]models.ClassSummary, error) {
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student")
	}
	held, err := s.waitlists.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count student waitlists")
	}
	atWaitlistLimit := held >= s.policy.MaxWaitlistsPerStudent

	classes, err := s.roster.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list classes")
	}

	instructorIDs := make([]int64, 0, len(classes))
	for _, class := range classes {
		instructorIDs = append(instructorIDs, class.InstructorID)
	}
	instructors, err := s.users.FindManyByID(ctx, instructorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve instructors")
	}

	summaries := make([]models.ClassSummary, 0, len(classes))
	for _, class := range classes {
		if atWaitlistLimit && class.SeatsTaken() >= class.Capacity {
			continue
		}
		size, err := s.waitlists.SizeByClass(ctx, class.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to size waitlist")
		}
		instructor := instructors[class.InstructorID]
		instructor.Role = ""
		summaries = append(summaries, models.ClassSummary{
			ID:              class.ID,
			Name:            class.Name,
			CourseCode:      class.CourseCode,
			SectionNumber:   class.SectionNumber,
			Department:      class.Department,
			Instructor:      instructor,
			CurrentEnroll:   class.SeatsTaken(),
			MaxEnroll:       class.Capacity,
			CurrentWaitlist: size,
			MaxWaitlist:     s.policy.WaitlistCapacity,
		})
	}
	return summaries, nil
}

// EnrolledRoster returns the enrolled students of a class the instructor
// teaches, in admission order.
func (s *ClassService) EnrolledRoster(ctx context.Context, instructorID, classID int64) ([]models.User, error) {
	class, err := s.classForInstructor(ctx, instructorID, classID)
	if err != nil {
		return nil, err
	}
	return s.resolveMembers(ctx, class.Enrolled)
}

// DroppedRoster returns the students who dropped the class.
func (s *ClassService) DroppedRoster(ctx context.Context, instructorID, classID int64) ([]models.User, error) {
	class, err := s.classForInstructor(ctx, instructorID, classID)
	if err != nil {
		return nil, err
	}
	return s.resolveMembers(ctx, class.Dropped)
}

// ExportRoster renders the class roster as CSV or PDF for download.
func (s *ClassService) ExportRoster(ctx context.Context, instructorID, classID int64, format string) (*RosterExport, error) {
	class, err := s.classForInstructor(ctx, instructorID, classID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.resolveMembers(ctx, class.Enrolled)
	if err != nil {
		return nil, err
	}
	dropped, err := s.resolveMembers(ctx, class.Dropped)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: []string{"Student ID", "Name", "Status"}}
	for _, student := range enrolled {
		data.Rows = append(data.Rows, []string{fmt.Sprintf("%d", student.ID), student.Name, "enrolled"})
	}
	for _, student := range dropped {
		data.Rows = append(data.Rows, []string{fmt.Sprintf("%d", student.ID), student.Name, "dropped"})
	}

	title := fmt.Sprintf("%s section %d roster", class.CourseCode, class.SectionNumber)
	switch format {
	case "pdf":
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &RosterExport{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("roster-%d.pdf", classID),
		}, nil
	case "", "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &RosterExport{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("roster-%d.csv", classID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ClassService) classForInstructor(ctx context.Context, instructorID, classID int64) (*models.Class, error) {
	if _, err := s.users.FindByID(ctx, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load instructor")
	}
	class, err := s.roster.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor or class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load class")
	}
	if class.InstructorID != instructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "instructor not assigned to this class")
	}
	return class, nil
}

func (s *ClassService) resolveMembers(ctx context.Context, ids []int64) ([]models.User, error) {
	users, err := s.users.FindManyByID(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve students")
	}
	members := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user, ok := users[id]
		if !ok {
			user = models.User{ID: id}
		}
		user.Role = ""
		members = append(members, user)
	}
	return members, nil
}
