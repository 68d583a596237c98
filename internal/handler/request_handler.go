package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/service"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/response"
)

// RequestHandler wires HTTP endpoints to the request and timeline services.
type RequestHandler struct {
	requests *service.RequestService
	timeline *service.TimelineService
	metrics  *service.MetricsService
}

// NewRequestHandler creates a new handler.
func NewRequestHandler(requests *service.RequestService, timeline *service.TimelineService, metrics *service.MetricsService) *RequestHandler {
	return &RequestHandler{requests: requests, timeline: timeline, metrics: metrics}
}

// Submit godoc
// @Summary Submit a support request
// @Description Public intake form; returns the applicant reference code.
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequestPayload true "Request form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	var payload dto.SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	result, err := h.requests.Submit(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSubmission()

	response.Created(c, result)
}

// List godoc
// @Summary List support requests
// @Tags Requests
// @Produce json
// @Param district query string false "District filter"
// @Param status query string false "Status filter"
// @Param verification query string false "Verification filter"
// @Param priority query string false "Priority filter"
// @Param search query string false "Name, reference, or phone search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
// @Security BearerAuth
func (h *RequestHandler) List(c *gin.Context) {
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	result, err := h.requests.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Requests, result.Pagination)
}

// Get godoc
// @Summary Get one support request
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
// @Security BearerAuth
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// UpdateStatus godoc
// @Summary Update request status
// @Description Changes the triage status and appends a status_change timeline entry.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.UpdateStatusPayload true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/status [patch]
// @Security BearerAuth
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.UpdateStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	request, err := h.requests.UpdateStatus(c.Request.Context(), c.Param("id"), claims.Email, payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// UpdateVerification godoc
// @Summary Update request verification status
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.UpdateVerificationPayload true "New verification status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/verification [patch]
// @Security BearerAuth
func (h *RequestHandler) UpdateVerification(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.UpdateVerificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}

	request, err := h.requests.UpdateVerification(c.Request.Context(), c.Param("id"), claims.Email, payload.VerificationStatus)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// UpdatePriority godoc
// @Summary Update request priority
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.UpdatePriorityPayload true "New priority"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/priority [patch]
// @Security BearerAuth
func (h *RequestHandler) UpdatePriority(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.UpdatePriorityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid priority payload"))
		return
	}

	request, err := h.requests.UpdatePriority(c.Request.Context(), c.Param("id"), claims.Email, payload.Priority)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// UpdateNotes godoc
// @Summary Update admin notes
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.UpdateNotesPayload true "Notes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/notes [patch]
// @Security BearerAuth
func (h *RequestHandler) UpdateNotes(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.UpdateNotesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notes payload"))
		return
	}

	request, err := h.requests.UpdateAdminNotes(c.Request.Context(), c.Param("id"), claims.Email, payload.AdminNotes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// AddComment godoc
// @Summary Add a comment to a request timeline
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.AddCommentPayload true "Comment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests/{id}/comments [post]
// @Security BearerAuth
func (h *RequestHandler) AddComment(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.AddCommentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	entry, err := h.requests.AddComment(c.Request.Context(), c.Param("id"), claims.Email, payload.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// Timeline godoc
// @Summary Full request timeline, newest first
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/timeline [get]
// @Security BearerAuth
func (h *RequestHandler) Timeline(c *gin.Context) {
	if _, err := h.requests.Get(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.timeline.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export filtered requests as CSV or PDF
// @Tags Requests
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /requests/export [get]
// @Security BearerAuth
func (h *RequestHandler) Export(c *gin.Context) {
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	data, filename, contentType, err := h.requests.Export(c.Request.Context(), query, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
