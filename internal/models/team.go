package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TeamAccessCode is one step of the calculator unlock sequence, e.g. "9426+777=".
type TeamAccessCode struct {
	bun.BaseModel `bun:"table:team_access_codes,alias:tac"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Operation     string    `bun:"operation,notnull" json:"operation"`
	SequenceOrder int       `bun:"sequence_order,notnull" json:"sequenceOrder"`
	IsActive      bool      `bun:"is_active,notnull" json:"isActive"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type AccessCodeInput struct {
	Operation     *string `json:"operation"`
	SequenceOrder *int    `json:"sequenceOrder"`
	IsActive      *bool   `json:"isActive"`
}

type UnlockRequest struct {
	Operations []string `json:"operations" validate:"required,min=1"`
}

type UnlockResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type EvaluateRequest struct {
	Operation string `json:"operation"`
}

type EvaluateResponse struct {
	Operation string  `json:"operation"`
	Result    float64 `json:"result"`
}
