package mailer

import (
	"fmt"
	"net/url"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/arunalla/relief-intake-api/pkg/config"
)

// Sender delivers transactional mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendOTP(email, otp string) error
}

// SendGridSender delivers OTP mail through the SendGrid API.
type SendGridSender struct {
	client      *sendgrid.Client
	fromName    string
	fromAddress string
	setupURL    string
	otpMinutes  int
}

// NewSendGrid builds a sender from email configuration.
func NewSendGrid(cfg config.EmailConfig, otpMinutes int) *SendGridSender {
	if otpMinutes <= 0 {
		otpMinutes = 15
	}
	return &SendGridSender{
		client:      sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		setupURL:    cfg.SetupURL,
		otpMinutes:  otpMinutes,
	}
}

// SendOTP mails a one-time verification code with an auto-verify link.
func (s *SendGridSender) SendOTP(email, otp string) error {
	from := mail.NewEmail(s.fromName, s.fromAddress)
	to := mail.NewEmail("", email)

	link := fmt.Sprintf("%s?email=%s&otp=%s", s.setupURL, url.QueryEscape(email), url.QueryEscape(otp))
	plain := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", otp, s.otpMinutes)
	html := fmt.Sprintf(`<h1>Verification Code</h1>
<p>Your verification code is: <strong>%s</strong></p>
<p>This code will expire in %d minutes.</p>
<p>Or click the link below to verify automatically:</p>
<a href=%q>Verify Account</a>`, otp, s.otpMinutes, link)

	message := mail.NewSingleEmail(from, "Your Verification Code", to, plain, html)
	resp, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send otp mail: sendgrid status %d", resp.StatusCode)
	}
	return nil
}
