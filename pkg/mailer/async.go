package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arunalla/relief-intake-api/pkg/jobs"
)

// OTPJob is the payload carried by queued verification mail.
type OTPJob struct {
	Email string
	OTP   string
}

// AsyncSender fronts a Sender with a worker queue so HTTP handlers never
// wait on the mail provider. Failed sends retry per the queue config.
type AsyncSender struct {
	queue *jobs.Queue
}

// NewAsyncSender wraps the base sender in a queue.
func NewAsyncSender(base Sender, cfg jobs.QueueConfig) *AsyncSender {
	sender := &AsyncSender{}
	sender.queue = jobs.NewQueue("otp-mail", func(_ context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(OTPJob)
		if !ok {
			return fmt.Errorf("unexpected otp job payload %T", job.Payload)
		}
		return base.SendOTP(payload.Email, payload.OTP)
	}, cfg)
	return sender
}

// Start begins queue workers.
func (s *AsyncSender) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains workers.
func (s *AsyncSender) Stop() {
	s.queue.Stop()
}

// SendOTP enqueues the mail and returns immediately.
func (s *AsyncSender) SendOTP(email, otp string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "otp",
		Payload: OTPJob{Email: email, OTP: otp},
	})
}
