package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentCOD  = "cod"
	PaymentCard = "card"
)

// ValidStatus reports whether s is one of the four order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                int64        `bun:"id,pk,autoincrement" json:"id"`
	OrderNumber       string       `bun:"order_number,unique,notnull" json:"orderNumber"`
	CustomerName      string       `bun:"customer_name,notnull" json:"customerName"`
	CustomerPhone     string       `bun:"customer_phone,notnull" json:"customerPhone"`
	CustomerAddress   string       `bun:"customer_address,notnull" json:"customerAddress"`
	TotalAmount       float64      `bun:"total_amount,notnull" json:"totalAmount"`
	Status            string       `bun:"status,notnull" json:"status"`
	IsConfirmedByTeam bool         `bun:"is_confirmed_by_team,notnull" json:"isConfirmedByTeam"`
	IsVerified        bool         `bun:"is_verified,notnull" json:"isVerified"`
	PaymentMethod     string       `bun:"payment_method,notnull" json:"paymentMethod"`
	PaymentIntentID   *string      `bun:"payment_intent_id" json:"paymentIntentId,omitempty"`
	CreatedAt         time.Time    `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt         time.Time    `bun:"updated_at,notnull" json:"updatedAt"`
	Items             []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

// Cancellable is false once the team confirmed the order or it reached a final status.
func (o *Order) Cancellable() bool {
	return !o.IsConfirmedByTeam && o.Status != StatusCancelled && o.Status != StatusCompleted
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderID     int64   `bun:"order_id,notnull" json:"orderId"`
	ProductID   int64   `bun:"product_id,notnull" json:"productId"`
	ProductName string  `bun:"product_name,notnull" json:"productName"`
	Variant     *string `bun:"variant" json:"variant"`
	Size        *string `bun:"size" json:"size"`
	Quantity    int     `bun:"quantity,notnull" json:"quantity"`
	Price       float64 `bun:"price,notnull" json:"price"`
	ImageURL    *string `bun:"image_url" json:"imageUrl"`
}

type OrderFilter struct {
	Phone  string
	Status string
	Search string
	Limit  int
}

// ---------------- REQUEST BODIES ----------------

type CartLine struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	VariantID *int64  `json:"variantId,omitempty"`
	Size      *string `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerName     string     `json:"customerName" validate:"required,max=120"`
	CustomerPhone    string     `json:"customerPhone" validate:"required,min=7,max=20"`
	CustomerAddress  string     `json:"customerAddress" validate:"required,max=500"`
	VerificationCode string     `json:"verificationCode" validate:"required,len=6,numeric"`
	PaymentMethod    string     `json:"paymentMethod" validate:"omitempty,oneof=cod card"`
	Items            []CartLine `json:"items" validate:"required,min=1,dive"`
}

type CheckoutResponse struct {
	Order        *Order `json:"order"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

type OrderUpdate struct {
	Status            *string `json:"status"`
	CustomerName      *string `json:"customerName"`
	CustomerPhone     *string `json:"customerPhone"`
	CustomerAddress   *string `json:"customerAddress"`
	IsConfirmedByTeam *bool   `json:"isConfirmedByTeam"`
	IsVerified        *bool   `json:"isVerified"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

type CancelRequest struct {
	Phone string `json:"phone"`
}
