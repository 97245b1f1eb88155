package teamaccess

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"
)

var (
	ErrInvalidOperation     = utils.BadRequest("INVALID_OPERATION", "Operation must look like 9426+777=")
	ErrMissingOperation     = utils.BadRequest("MISSING_OPERATION", "Operation is required")
	ErrInvalidSequenceOrder = utils.BadRequest("INVALID_SEQUENCE_ORDER", "sequenceOrder must be at least 1")
	ErrCodeNotFound         = utils.NotFound("CODE_NOT_FOUND", "Access code not found")
	ErrInvalidSequence      = utils.NewAppError(http.StatusUnauthorized, "INVALID_SEQUENCE", "Invalid access sequence")
)

type DBLayer interface {
	ListCodes(ctx context.Context) ([]models.TeamAccessCode, error)
	ActiveCodes(ctx context.Context) ([]models.TeamAccessCode, error)
	GetCode(ctx context.Context, id int64) (*models.TeamAccessCode, error)
	CreateCode(ctx context.Context, c *models.TeamAccessCode) error
	UpdateCode(ctx context.Context, c *models.TeamAccessCode, columns ...string) error
	DeleteCode(ctx context.Context, id int64) error
}

// TokenIssuer mints the bearer token handed out after a successful unlock.
type TokenIssuer interface {
	IssueTeamToken() (string, time.Time, error)
}

type Service struct {
	DB     DBLayer
	Tokens TokenIssuer
	Logger *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, tokens TokenIssuer, log *logger.Logger) *Service {
	return &Service{DB: db, Tokens: tokens, Logger: log, now: time.Now}
}

// ---------------- UNLOCK ----------------

// Unlock compares the entered operations against the active codes, in order.
func (s *Service) Unlock(ctx context.Context, operations []string) (*models.UnlockResponse, error) {
	codes, err := s.DB.ActiveCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access codes: %w", err)
	}
	if len(codes) == 0 || !matches(codes, operations) {
		s.Logger.LogSecurity("UNLOCK_FAILED", fmt.Sprintf("%d operations entered, %d expected", len(operations), len(codes)))
		return nil, ErrInvalidSequence
	}

	token, expiresAt, err := s.Tokens.IssueTeamToken()
	if err != nil {
		return nil, fmt.Errorf("issue team token: %w", err)
	}
	s.Logger.LogSecurity("UNLOCKED", "team portal unlocked")
	return &models.UnlockResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func matches(codes []models.TeamAccessCode, operations []string) bool {
	if len(codes) != len(operations) {
		return false
	}
	ok := 1
	for i, c := range codes {
		ok &= subtle.ConstantTimeCompare([]byte(Normalize(c.Operation)), []byte(Normalize(operations[i])))
	}
	return ok == 1
}

// ---------------- CODES ----------------

func (s *Service) ListCodes(ctx context.Context) ([]models.TeamAccessCode, error) {
	return s.DB.ListCodes(ctx)
}

// CreateCode appends to the sequence when sequenceOrder is omitted. New codes are active by default.
func (s *Service) CreateCode(ctx context.Context, in models.AccessCodeInput) (*models.TeamAccessCode, error) {
	if in.Operation == nil || strings.TrimSpace(*in.Operation) == "" {
		return nil, ErrMissingOperation
	}
	operation := strings.TrimSpace(*in.Operation)
	if _, err := Evaluate(operation); err != nil {
		return nil, err
	}

	order := 0
	if in.SequenceOrder != nil {
		if order = *in.SequenceOrder; order < 1 {
			return nil, ErrInvalidSequenceOrder
		}
	} else {
		existing, err := s.DB.ListCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list access codes: %w", err)
		}
		for _, c := range existing {
			order = max(order, c.SequenceOrder)
		}
		order++
	}

	c := &models.TeamAccessCode{
		Operation:     operation,
		SequenceOrder: order,
		IsActive:      in.IsActive == nil || *in.IsActive,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateCode(ctx, c); err != nil {
		return nil, fmt.Errorf("create access code: %w", err)
	}
	s.Logger.LogSecurity("ACCESS_CODE_CREATED", fmt.Sprintf("code %d at position %d", c.ID, c.SequenceOrder))
	return c, nil
}

func (s *Service) UpdateCode(ctx context.Context, id int64, in models.AccessCodeInput) (*models.TeamAccessCode, error) {
	c, err := s.getCode(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if in.Operation != nil {
		operation := strings.TrimSpace(*in.Operation)
		if operation == "" {
			return nil, ErrMissingOperation
		}
		if _, err := Evaluate(operation); err != nil {
			return nil, err
		}
		c.Operation = operation
		columns = append(columns, "operation")
	}
	if in.SequenceOrder != nil {
		if *in.SequenceOrder < 1 {
			return nil, ErrInvalidSequenceOrder
		}
		c.SequenceOrder = *in.SequenceOrder
		columns = append(columns, "sequence_order")
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
		columns = append(columns, "is_active")
	}
	if len(columns) == 0 {
		return c, nil
	}

	if err := s.DB.UpdateCode(ctx, c, columns...); err != nil {
		return nil, fmt.Errorf("update access code %d: %w", id, err)
	}
	s.Logger.LogSecurity("ACCESS_CODE_UPDATED", fmt.Sprintf("code %d: %s", id, strings.Join(columns, ",")))
	return c, nil
}

func (s *Service) DeleteCode(ctx context.Context, id int64) (*models.TeamAccessCode, error) {
	c, err := s.getCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.DeleteCode(ctx, id); err != nil {
		return nil, fmt.Errorf("delete access code %d: %w", id, err)
	}
	s.Logger.LogSecurity("ACCESS_CODE_DELETED", fmt.Sprintf("code %d", id))
	return c, nil
}

func (s *Service) getCode(ctx context.Context, id int64) (*models.TeamAccessCode, error) {
	c, err := s.DB.GetCode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load access code %d: %w", id, err)
	}
	if c == nil {
		return nil, ErrCodeNotFound
	}
	return c, nil
}
