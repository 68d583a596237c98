package dto

// SendCodePayload requests an OTP mail for a manager email.
type SendCodePayload struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyCodePayload checks an OTP without consuming it.
type VerifyCodePayload struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// ActivatePayload completes onboarding: re-verifies the OTP, creates the
// staff account, and marks the manager verified.
type ActivatePayload struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}
