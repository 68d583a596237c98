package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/mailer"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// OnboardingService runs the OTP flow that turns a verified volunteer
// application into a staff account with the MANAGER role.
type OnboardingService struct {
	managers managerStore
	users    userStore
	sender   mailer.Sender
	logger   *zap.Logger
	otpTTL   time.Duration
}

// NewOnboardingService constructs the service.
func NewOnboardingService(managers managerStore, users userStore, sender mailer.Sender, otpTTL time.Duration, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if otpTTL <= 0 {
		otpTTL = 15 * time.Minute
	}
	return &OnboardingService{
		managers: managers,
		users:    users,
		sender:   sender,
		logger:   logger,
		otpTTL:   otpTTL,
	}
}

// SendCode issues a fresh 6-digit code to the manager's email. Issuing a
// new code invalidates any previous one.
func (s *OnboardingService) SendCode(ctx context.Context, email string) error {
	manager, err := s.findManager(ctx, email)
	if err != nil {
		return err
	}

	code := fmt.Sprintf("%06d", randomInt(1000000))
	expiresAt := time.Now().UTC().Add(s.otpTTL)
	if err := s.managers.SetOTP(ctx, manager.ID, code, expiresAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store verification code")
	}

	if err := s.sender.SendOTP(manager.Email, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue verification mail")
	}

	s.logger.Info("verification code sent", zap.String("manager_id", manager.ID))
	return nil
}

// VerifyCode checks a code without consuming it, so the setup form can
// validate before asking for a password.
func (s *OnboardingService) VerifyCode(ctx context.Context, email, code string) error {
	manager, err := s.findManager(ctx, email)
	if err != nil {
		return err
	}
	return checkOTP(manager, code)
}

// Activate completes onboarding: the code is re-checked, a staff account
// is created with the MANAGER role, and the application is marked
// verified, which also clears the code.
func (s *OnboardingService) Activate(ctx context.Context, email, code, password string) (*models.User, error) {
	manager, err := s.findManager(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := checkOTP(manager, code); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, manager.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account already exists for this email")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        manager.Email,
		PasswordHash: string(hash),
		FullName:     manager.FullName,
		Role:         models.RoleManager,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create account")
	}

	if err := s.managers.MarkVerified(ctx, manager.Email); err != nil {
		// The account exists at this point; leaving the application
		// unverified is recoverable, losing the account is not.
		s.logger.Warn("failed to mark manager verified after activation",
			zap.String("manager_id", manager.ID), zap.Error(err))
	}

	s.logger.Info("manager account activated", zap.String("user_id", user.ID))
	return user, nil
}

func (s *OnboardingService) findManager(ctx context.Context, email string) (*models.Manager, error) {
	manager, err := s.managers.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no application found for this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load application")
	}
	return manager, nil
}

func checkOTP(manager *models.Manager, code string) error {
	if manager.OTPCode == nil || *manager.OTPCode != code {
		return appErrors.ErrOTPInvalid
	}
	if manager.OTPExpiresAt == nil || time.Now().UTC().After(*manager.OTPExpiresAt) {
		return appErrors.ErrOTPExpired
	}
	return nil
}
