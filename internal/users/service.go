package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/utils"
)

var (
	ErrUserNotFound = utils.NotFound("USER_NOT_FOUND", "User not found")
	ErrPhoneExists  = utils.Conflict("PHONE_EXISTS", "A user with this phone already exists")
	ErrMissingPhone = utils.BadRequest("MISSING_PHONE", "phone query parameter is required")
	ErrInvalidName  = utils.BadRequest("INVALID_NAME", "Name cannot be empty")
)

type DBLayer interface {
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User, columns ...string) error
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	u, err := s.DB.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = utils.NormalizePhone(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.DB.GetUserByPhone(ctx, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneExists
	}

	now := time.Now()
	u := &models.User{Name: in.Name, Phone: in.Phone, Address: in.Address, CreatedAt: now, UpdatedAt: now}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update merges name and address. The phone is the account key and never changes here.
func (s *Service) Update(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	u, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	columns := []string{"updated_at"}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		u.Name = name
		columns = append(columns, "name")
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
		columns = append(columns, "address")
	}
	u.UpdatedAt = time.Now()

	if err := s.DB.UpdateUser(ctx, u, columns...); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}
