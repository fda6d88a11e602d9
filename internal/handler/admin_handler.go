package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/regworks/enroll-api/internal/service"
	appErrors "github.com/regworks/enroll-api/pkg/errors"
	"github.com/regworks/enroll-api/pkg/response"
)

// AdminHandler exposes registrar controls over the admission engine.
type AdminHandler struct {
	admissions *service.AdmissionService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admissions *service.AdmissionService) *AdminHandler {
	return &AdminHandler{admissions: admissions}
}

type freezeRequest struct {
	Frozen *bool `json:"frozen"`
}

// GetFreeze godoc
// @Summary Read the enrollment freeze flag
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/freeze [get]
func (h *AdminHandler) GetFreeze(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"frozen": h.admissions.Frozen()})
}

// SetFreeze godoc
// @Summary Toggle the enrollment freeze flag
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body freezeRequest true "Freeze payload"
// @Success 200 {object} response.Envelope
// @Router /admin/freeze [put]
func (h *AdminHandler) SetFreeze(c *gin.Context) {
	var req freezeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Frozen == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "frozen must be a boolean"))
		return
	}
	h.admissions.SetFrozen(*req.Frozen)
	response.JSON(c, http.StatusOK, gin.H{"frozen": h.admissions.Frozen()})
}
