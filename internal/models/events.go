package models

import "time"

const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventOrderCancelled = "order.cancelled"
	EventOrderDeleted   = "order.deleted"
)

// OrderEvent is the payload on the order topics and the team SSE feed.
type OrderEvent struct {
	EventID     string    `json:"eventId"`
	Type        string    `json:"type"`
	OrderID     int64     `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	Confirmed   bool      `json:"isConfirmedByTeam"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// SMSRequest asks the relay to deliver a text message.
type SMSRequest struct {
	EventID   string    `json:"eventId"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
