package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Phone     string    `bun:"phone,unique,notnull" json:"phone"`
	Address   string    `bun:"address" json:"address"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

type UserInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Address string `json:"address" validate:"max=500"`
}

type UserUpdate struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// VerificationCode is single use; a newer code for the same phone replaces it.
type VerificationCode struct {
	bun.BaseModel `bun:"table:verification_codes,alias:vc"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Phone     string    `bun:"phone,notnull" json:"phone"`
	Code      string    `bun:"code,notnull" json:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expiresAt"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type SendCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

type VerifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=7,max=20"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type SendCodeResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
	Code      string    `json:"code,omitempty"`
}
