package verification

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"
)

const codeDigits = 6

var (
	ErrResendTooSoon  = utils.NewAppError(http.StatusTooManyRequests, "RESEND_TOO_SOON", "Please wait before requesting another code")
	ErrInvalidCode    = utils.BadRequest("INVALID_CODE", "Verification code is invalid")
	ErrCodeExpired    = utils.BadRequest("CODE_EXPIRED", "Verification code has expired")
	ErrSMSUnavailable = utils.NewAppError(http.StatusServiceUnavailable, "SMS_UNAVAILABLE", "Could not send the verification code, try again")
)

type DBLayer interface {
	ReplaceCode(ctx context.Context, vc *models.VerificationCode) error
	LatestCode(ctx context.Context, phone string) (*models.VerificationCode, error)
}

// Cooldown guards how often a phone may request a new code.
type Cooldown interface {
	Acquire(ctx context.Context, phone string) (bool, time.Duration, error)
	Release(ctx context.Context, phone string) error
}

type SMSPublisher interface {
	PublishSMS(ctx context.Context, req models.SMSRequest) error
}

type Service struct {
	DB       DBLayer
	Cooldown Cooldown
	SMS      SMSPublisher
	Config   config.VerificationConfig
	Logger   *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, cooldown Cooldown, sms SMSPublisher, cfg config.VerificationConfig, log *logger.Logger) *Service {
	return &Service{DB: db, Cooldown: cooldown, SMS: sms, Config: cfg, Logger: log, now: time.Now}
}

// Send issues a fresh code for the phone and hands the text to the SMS relay.
func (s *Service) Send(ctx context.Context, in models.SendCodeRequest) (*models.SendCodeResponse, error) {
	in.Phone = utils.NormalizePhone(in.Phone)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	ok, wait, err := s.Cooldown.Acquire(ctx, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("resend cooldown: %w", err)
	}
	if !ok {
		s.Logger.LogSecurity("VERIFICATION_THROTTLED", fmt.Sprintf("phone %s retry in %s", mask(in.Phone), wait.Round(time.Second)))
		return nil, ErrResendTooSoon
	}

	code, err := utils.GenerateNumericCode(codeDigits)
	if err != nil {
		s.release(ctx, in.Phone)
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	vc := &models.VerificationCode{
		Phone:     in.Phone,
		Code:      code,
		ExpiresAt: now.Add(s.Config.CodeTTL),
		CreatedAt: now,
	}
	if err := s.DB.ReplaceCode(ctx, vc); err != nil {
		s.release(ctx, in.Phone)
		return nil, fmt.Errorf("store code: %w", err)
	}

	sms := models.SMSRequest{
		EventID:   utils.GenerateEventID(),
		Phone:     in.Phone,
		Message:   fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.Config.CodeTTL.Minutes())),
		CreatedAt: now,
	}
	if err := s.SMS.PublishSMS(ctx, sms); err != nil {
		s.Logger.Error("VERIFICATION", fmt.Sprintf("SMS request for %s failed: %v", mask(in.Phone), err))
		s.release(ctx, in.Phone)
		return nil, ErrSMSUnavailable
	}

	s.Logger.Info("VERIFICATION", fmt.Sprintf("Code issued for %s", mask(in.Phone)))
	resp := &models.SendCodeResponse{Message: "Verification code sent", ExpiresAt: vc.ExpiresAt}
	if s.Config.DevEcho {
		resp.Code = code
	}
	return resp, nil
}

// Verify checks code against the newest one issued for phone. It never consumes it.
func (s *Service) Verify(ctx context.Context, phone, code string) error {
	phone = utils.NormalizePhone(phone)
	vc, err := s.DB.LatestCode(ctx, phone)
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if vc == nil || subtle.ConstantTimeCompare([]byte(vc.Code), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	if !s.now().Before(vc.ExpiresAt) {
		return ErrCodeExpired
	}
	return nil
}

func (s *Service) release(ctx context.Context, phone string) {
	if err := s.Cooldown.Release(ctx, phone); err != nil {
		s.Logger.Warn("VERIFICATION", fmt.Sprintf("release cooldown for %s: %v", mask(phone), err))
	}
}

// mask keeps the last four digits for logs.
func mask(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
