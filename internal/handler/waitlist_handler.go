package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regworks/enroll-api/internal/service"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/response"
)

// WaitlistHandler exposes waitlist views and removal.
type WaitlistHandler struct {
	waitlists *service.WaitlistService
}

// NewWaitlistHandler constructs WaitlistHandler.
func NewWaitlistHandler(waitlists *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlists: waitlists}
}

// StudentView godoc
// @Summary List a student's waitlist positions
// @Tags Waitlists
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{student_id}/waitlists [get]
func (h *WaitlistHandler) StudentView(c *gin.Context) {
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.waitlists.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// ClassView godoc
// @Summary List a class waitlist in rank order
// @Tags Waitlists
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/waitlist [get]
func (h *WaitlistHandler) ClassView(c *gin.Context) {
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
	rows, err := h.waitlists.ListForClass(c.Request.Context(), claims.UserID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows)
}

// Remove godoc
// @Summary Remove a student from a class waitlist
// @Tags Waitlists
// @Produce json
// @Param class_id path int true "Class ID"
// @Param student_id path int true "Student ID"
// @Success 204
// @Router /classes/{class_id}/waitlist/{student_id} [delete]
func (h *WaitlistHandler) Remove(c *gin.Context) {
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
	if err := h.waitlists.Remove(c.Request.Context(), studentID, classID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
