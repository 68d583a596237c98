package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/service"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/response"
)

// GroupHandler wires HTTP endpoints to the group service.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler creates a new handler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create godoc
// @Summary Create a manager group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupPayload true "Group"
// @Success 201 {object} response.Envelope
// @Router /manager-groups [post]
// @Security BearerAuth
func (h *GroupHandler) Create(c *gin.Context) {
	var payload dto.CreateGroupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}

	group, err := h.groups.Create(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, group)
}

// List godoc
// @Summary List manager groups
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /manager-groups [get]
// @Security BearerAuth
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get one group
// @Tags Groups
// @Produce json
// @Param id path string true "Group id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /manager-groups/{id} [get]
// @Security BearerAuth
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete a group
// @Tags Groups
// @Param id path string true "Group id"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /manager-groups/{id} [delete]
// @Security BearerAuth
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddMember godoc
// @Summary Add a manager to a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group id"
// @Param payload body dto.AddMemberPayload true "Member"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /manager-groups/{id}/members [post]
// @Security BearerAuth
func (h *GroupHandler) AddMember(c *gin.Context) {
	var payload dto.AddMemberPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid member payload"))
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), c.Param("id"), payload.ManagerID); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.GroupMember{GroupID: c.Param("id")})
}

// RemoveMember godoc
// @Summary Remove a manager from a group
// @Tags Groups
// @Param id path string true "Group id"
// @Param managerId path string true "Manager id"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /manager-groups/{id}/members/{managerId} [delete]
// @Security BearerAuth
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groups.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("managerId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary List managers in a group
// @Tags Groups
// @Produce json
// @Param id path string true "Group id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /manager-groups/{id}/members [get]
// @Security BearerAuth
func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.groups.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}
