package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regworks/enroll-api/internal/service"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/response"
)

// EnrollmentHandler exposes admission endpoints.
type EnrollmentHandler struct {
	admissions *service.AdmissionService
	metrics    *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(admissions *service.AdmissionService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{admissions: admissions, metrics: metrics}
}

// Enroll godoc
// @Summary Request enrollment in a class
// @Tags Enrollments
// @Produce json
// @Param class_id path int true "Class ID"
// @Param student_id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/enrollments/{student_id} [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.admissions.RequestEnrollment(c.Request.Context(), studentID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAdmission(string(outcome.Decision))
	response.JSON(c, http.StatusOK, outcome)
}

// Drop godoc
// @Summary Drop an enrollment
// @Tags Enrollments
// @Produce json
// @Param class_id path int true "Class ID"
// @Param student_id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/enrollments/{student_id} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.admissions.DropEnrollment(c.Request.Context(), studentID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// InstructorDrop godoc
// @Summary Drop a student from a class the instructor teaches
// @Tags Enrollments
// @Produce json
// @Param class_id path int true "Class ID"
// @Param student_id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/roster/{student_id} [delete]
func (h *EnrollmentHandler) InstructorDrop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.admissions.AdministrativeDrop(c.Request.Context(), claims.UserID, studentID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}
