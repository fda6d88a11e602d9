package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regworks/enroll-api/internal/service"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/response"
)

// ClassHandler exposes class management and roster view endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

type updateCapacityRequest struct {
	Capacity int `json:"capacity"`
}

type updateInstructorRequest struct {
	InstructorID int64 `json:"instructor_id"`
}

// List godoc
// @Summary List classes with live seat and waitlist occupancy
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summaries, err := h.classes.ListAvailable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries)
}

// Create godoc
// @Summary Create a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Delete godoc
// @Summary Delete a class
// @Tags Classes
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 204
// @Router /classes/{class_id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.classes.Delete(c.Request.Context(), classID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateCapacity godoc
// @Summary Update class capacity
// @Tags Classes
// @Accept json
// @Produce json
// @Param class_id path int true "Class ID"
// @Param payload body updateCapacityRequest true "Capacity payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/capacity [put]
func (h *ClassHandler) UpdateCapacity(c *gin.Context) {
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req updateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.classes.UpdateCapacity(c.Request.Context(), classID, req.Capacity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class_id": classID, "capacity": req.Capacity})
}

// UpdateInstructor godoc
// @Summary Reassign a class instructor
// @Tags Classes
// @Accept json
// @Produce json
// @Param class_id path int true "Class ID"
// @Param payload body updateInstructorRequest true "Instructor payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/instructor [put]
func (h *ClassHandler) UpdateInstructor(c *gin.Context) {
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req updateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.classes.UpdateInstructor(c.Request.Context(), classID, req.InstructorID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class_id": classID, "instructor_id": req.InstructorID})
}

// EnrolledRoster godoc
// @Summary List enrolled students of a class
// @Tags Classes
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/roster/enrolled [get]
func (h *ClassHandler) EnrolledRoster(c *gin.Context) {
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
	students, err := h.classes.EnrolledRoster(c.Request.Context(), claims.UserID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// DroppedRoster godoc
// @Summary List students who dropped a class
// @Tags Classes
// @Produce json
// @Param class_id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{class_id}/roster/dropped [get]
func (h *ClassHandler) DroppedRoster(c *gin.Context) {
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
	students, err := h.classes.DroppedRoster(c.Request.Context(), claims.UserID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// ExportRoster godoc
// @Summary Download a class roster as CSV or PDF
// @Tags Classes
// @Produce octet-stream
// @Param class_id path int true "Class ID"
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /classes/{class_id}/roster/export [get]
func (h *ClassHandler) ExportRoster(c *gin.Context) {
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
	doc, err := h.classes.ExportRoster(c.Request.Context(), claims.UserID, classID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
