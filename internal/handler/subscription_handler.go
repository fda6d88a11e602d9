package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regworks/enroll-api/internal/service"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/response"
)

// SubscriptionHandler exposes notification opt-in endpoints.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler constructs SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// Create godoc
// @Summary Subscribe to enrollment notifications for a class
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param student_id path int true "Student ID"
// @Param payload body service.SubscribeRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Router /students/{student_id}/subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = studentID

	sub, err := h.subscriptions.Subscribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// List godoc
// @Summary List a student's subscriptions
// @Tags Subscriptions
// @Produce json
// @Param student_id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{student_id}/subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	subs, err := h.subscriptions.List(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs)
}

// Delete godoc
// @Summary Remove a subscription
// @Tags Subscriptions
// @Produce json
// @Param student_id path int true "Student ID"
// @Param class_id path int true "Class ID"
// @Success 204
// @Router /students/{student_id}/subscriptions/{class_id} [delete]
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	studentID, err := pathID(c, "student_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	classID, err := pathID(c, "class_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.subscriptions.Unsubscribe(c.Request.Context(), studentID, classID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
