package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/service"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/response"
)

// OnboardingHandler wires the public OTP onboarding endpoints.
type OnboardingHandler struct {
	onboarding *service.OnboardingService
	metrics    *service.MetricsService
}

// NewOnboardingHandler creates a new handler.
func NewOnboardingHandler(onboarding *service.OnboardingService, metrics *service.MetricsService) *OnboardingHandler {
	return &OnboardingHandler{onboarding: onboarding, metrics: metrics}
}

// SendCode godoc
// @Summary Send a verification code to a manager applicant
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param payload body dto.SendCodePayload true "Email"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /managers/onboarding/send-code [post]
func (h *OnboardingHandler) SendCode(c *gin.Context) {
	var payload dto.SendCodePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.onboarding.SendCode(c.Request.Context(), payload.Email); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordOTPMail()

	response.JSON(c, http.StatusAccepted, gin.H{"sent": true}, nil)
}

// VerifyCode godoc
// @Summary Verify a code without consuming it
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param payload body dto.VerifyCodePayload true "Email and code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /managers/onboarding/verify-code [post]
func (h *OnboardingHandler) VerifyCode(c *gin.Context) {
	var payload dto.VerifyCodePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.onboarding.VerifyCode(c.Request.Context(), payload.Email, payload.OTP); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"valid": true}, nil)
}

// Activate godoc
// @Summary Complete onboarding and create a staff account
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param payload body dto.ActivatePayload true "Email, code, and password"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /managers/onboarding/activate [post]
func (h *OnboardingHandler) Activate(c *gin.Context) {
	var payload dto.ActivatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.onboarding.Activate(c.Request.Context(), payload.Email, payload.OTP, payload.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}
