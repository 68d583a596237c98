package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/service"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/response"
)

// ManagerHandler wires HTTP endpoints to the manager service.
type ManagerHandler struct {
	managers *service.ManagerService
}

// NewManagerHandler creates a new handler.
func NewManagerHandler(managers *service.ManagerService) *ManagerHandler {
	return &ManagerHandler{managers: managers}
}

// Apply godoc
// @Summary Submit a volunteer manager application
// @Tags Managers
// @Accept json
// @Produce json
// @Param payload body dto.SubmitManagerPayload true "Application form"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /managers [post]
func (h *ManagerHandler) Apply(c *gin.Context) {
	var payload dto.SubmitManagerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	manager, err := h.managers.Apply(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, manager)
}

// List godoc
// @Summary List volunteer managers
// @Tags Managers
// @Produce json
// @Param district query string false "District filter"
// @Param tag query string false "Tag filter"
// @Param search query string false "Name or email search"
// @Success 200 {object} response.Envelope
// @Router /managers [get]
// @Security BearerAuth
func (h *ManagerHandler) List(c *gin.Context) {
	var query dto.ManagerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	managers, err := h.managers.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, managers, nil)
}

// Get godoc
// @Summary Get one manager
// @Tags Managers
// @Produce json
// @Param id path string true "Manager id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /managers/{id} [get]
// @Security BearerAuth
func (h *ManagerHandler) Get(c *gin.Context) {
	manager, err := h.managers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, manager, nil)
}

// UpdateTags godoc
// @Summary Replace staff-assigned tags
// @Tags Managers
// @Accept json
// @Produce json
// @Param id path string true "Manager id"
// @Param payload body dto.UpdateTagsPayload true "Tags"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /managers/{id}/tags [patch]
// @Security BearerAuth
func (h *ManagerHandler) UpdateTags(c *gin.Context) {
	var payload dto.UpdateTagsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tags payload"))
		return
	}

	manager, err := h.managers.UpdateTags(c.Request.Context(), c.Param("id"), payload.Tags)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, manager, nil)
}

// Profile godoc
// @Summary Own manager profile
// @Tags Managers
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /managers/me [get]
// @Security BearerAuth
func (h *ManagerHandler) Profile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	manager, err := h.managers.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, manager, nil)
}

// UpdateProfile godoc
// @Summary Update own manager profile
// @Description Self-service settings form; email and phone are immutable.
// @Tags Managers
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfilePayload true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /managers/me [put]
// @Security BearerAuth
func (h *ManagerHandler) UpdateProfile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload dto.UpdateProfilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	manager, err := h.managers.UpdateProfile(c.Request.Context(), claims.Email, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, manager, nil)
}
