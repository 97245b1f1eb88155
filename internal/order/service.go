package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order/db"
	"storefront/internal/payment"
	"storefront/internal/utils"
	"storefront/internal/verification"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var (
	ErrOrderNotFound    = utils.NotFound("ORDER_NOT_FOUND", "Order not found")
	ErrOrderCancelled   = utils.BadRequest("ORDER_CANCELLED", "Cancelled orders cannot be confirmed")
	ErrOrderConfirmed   = utils.BadRequest("ORDER_CONFIRMED", "The team already confirmed this order, it is too late to cancel")
	ErrNotCancellable   = utils.BadRequest("ORDER_NOT_CANCELLABLE", "Order can no longer be cancelled")
	ErrInvalidStatus    = utils.BadRequest("INVALID_STATUS", "Status must be one of pending, preparing, completed, cancelled")
	ErrMissingPhone     = utils.BadRequest("MISSING_PHONE", "phone query parameter is required")
	ErrInvalidCustomer  = utils.BadRequest("INVALID_CUSTOMER", "Customer name, phone and address cannot be empty")
	ErrPhoneMismatch    = utils.NewAppError(http.StatusForbidden, "FORBIDDEN", "Order does not belong to this phone")
	ErrInvalidQRPayload = utils.BadRequest("INVALID_QR", "QR code is not a valid order code")
)

type DBLayer interface {
	PlaceOrder(ctx context.Context, p db.Placement) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order, columns ...string) error
	DeleteOrder(ctx context.Context, id int64) error
}

type Quoter interface {
	Quote(ctx context.Context, lines []models.CartLine) (*cart.Quote, error)
}

type CodeVerifier interface {
	Verify(ctx context.Context, phone, code string) error
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, o *models.Order) (*payment.Intent, error)
	CancelIntent(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error
}

// Feed receives every order event for the team portal stream.
type Feed interface {
	Emit(ev models.OrderEvent) int
}

type Service struct {
	DB       DBLayer
	Cart     Quoter
	Codes    CodeVerifier
	Payments PaymentGateway
	Events   EventPublisher
	Feed     Feed
	Logger   *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, quoter Quoter, codes CodeVerifier, payments PaymentGateway, events EventPublisher, feed Feed, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Cart:     quoter,
		Codes:    codes,
		Payments: payments,
		Events:   events,
		Feed:     feed,
		Logger:   log,
		now:      time.Now,
	}
}

// ---------------- CHECKOUT ----------------

// Checkout verifies the phone, prices the cart and stores the order atomically.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = utils.NormalizePhone(req.CustomerPhone)
	req.CustomerAddress = strings.TrimSpace(req.CustomerAddress)
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCOD
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	if err := s.Codes.Verify(ctx, req.CustomerPhone, req.VerificationCode); err != nil {
		return nil, err
	}

	quote, err := s.Cart.Quote(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &models.Order{
		OrderNumber:     utils.GenerateOrderNumber(now),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		TotalAmount:     quote.Total,
		Status:          models.StatusPending,
		IsVerified:      true,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           quote.Snapshot(),
	}

	var intent *payment.Intent
	if o.PaymentMethod == models.PaymentCard {
		intent, err = s.Payments.CreateIntent(ctx, o)
		if err != nil {
			return nil, err
		}
		o.PaymentIntentID = &intent.ID
	}

	draws := make([]db.StockDraw, 0, len(quote.Items))
	for _, l := range quote.Items {
		draws = append(draws, db.StockDraw{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}

	err = s.DB.PlaceOrder(ctx, db.Placement{
		Order: o,
		Draws: draws,
		Customer: &models.User{
			Name:      o.CustomerName,
			Phone:     o.CustomerPhone,
			Address:   o.CustomerAddress,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Code: req.VerificationCode,
	})
	if err != nil {
		if intent != nil {
			s.cancelIntent(ctx, intent.ID)
		}
		switch {
		case errors.Is(err, db.ErrCodeRejected):
			return nil, verification.ErrInvalidCode
		case errors.Is(err, db.ErrOutOfStock):
			return nil, cart.ErrInsufficientStock
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.Logger.LogOrder("PLACED", o.OrderNumber, fmt.Sprintf("%d items, total %.2f, %s", len(o.Items), o.TotalAmount, o.PaymentMethod))
	s.notify(ctx, models.EventOrderCreated, o)

	resp := &models.CheckoutResponse{Order: o}
	if intent != nil {
		resp.ClientSecret = intent.ClientSecret
	}
	return resp, nil
}

// ---------------- READS ----------------

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.DB.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// History lists one customer's orders, newest first.
func (s *Service) History(ctx context.Context, phone string, limit int) ([]models.Order, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" {
		return nil, ErrMissingPhone
	}
	return s.list(ctx, models.OrderFilter{Phone: phone, Limit: limit})
}

// List is the team view with status and free-text filters.
func (s *Service) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !models.ValidStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	f.Phone = utils.NormalizePhone(f.Phone)
	f.Search = strings.TrimSpace(f.Search)
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	if f.Limit <= 0 || f.Limit > MaxLimit {
		f.Limit = DefaultLimit
	}
	orders, err := s.DB.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ---------------- LIFECYCLE ----------------

// Confirm marks the order as accepted by the team; pending moves to preparing.
func (s *Service) Confirm(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == models.StatusCancelled {
		return nil, ErrOrderCancelled
	}

	o.IsConfirmedByTeam = true
	if o.Status == models.StatusPending {
		o.Status = models.StatusPreparing
	}
	o.UpdatedAt = s.now()
	if err := s.DB.UpdateOrder(ctx, o, "is_confirmed_by_team", "status", "updated_at"); err != nil {
		return nil, fmt.Errorf("confirm order %d: %w", id, err)
	}

	s.Logger.LogOrder("CONFIRMED", o.OrderNumber, "confirmed by team")
	s.notify(ctx, models.EventOrderUpdated, o)
	return o, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	if !models.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := o.Status
	o.Status = status
	o.UpdatedAt = s.now()
	if err := s.DB.UpdateOrder(ctx, o, "status", "updated_at"); err != nil {
		return nil, fmt.Errorf("update status of order %d: %w", id, err)
	}

	s.Logger.LogOrder("STATUS", o.OrderNumber, fmt.Sprintf("%s -> %s", previous, status))
	s.afterStatusChange(ctx, o, previous)
	return o, nil
}

// Cancel is the customer path. A non-empty phone must match the order's.
func (s *Service) Cancel(ctx context.Context, id int64, phone string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if phone = utils.NormalizePhone(phone); phone != "" && phone != o.CustomerPhone {
		s.Logger.LogSecurity("CANCEL_DENIED", fmt.Sprintf("order %s phone mismatch", o.OrderNumber))
		return nil, ErrPhoneMismatch
	}
	if o.IsConfirmedByTeam {
		return nil, ErrOrderConfirmed
	}
	if !o.Cancellable() {
		return nil, ErrNotCancellable
	}

	previous := o.Status
	o.Status = models.StatusCancelled
	o.UpdatedAt = s.now()
	if err := s.DB.UpdateOrder(ctx, o, "status", "updated_at"); err != nil {
		return nil, fmt.Errorf("cancel order %d: %w", id, err)
	}

	s.Logger.LogOrder("CANCELLED", o.OrderNumber, "cancelled by customer")
	s.afterStatusChange(ctx, o, previous)
	return o, nil
}

// Update merges the given fields into the order.
func (s *Service) Update(ctx context.Context, id int64, in models.OrderUpdate) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := o.Status
	columns := []string{"updated_at"}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if !models.ValidStatus(status) {
			return nil, ErrInvalidStatus
		}
		o.Status = status
		columns = append(columns, "status")
	}
	if in.CustomerName != nil {
		if o.CustomerName = strings.TrimSpace(*in.CustomerName); o.CustomerName == "" {
			return nil, ErrInvalidCustomer
		}
		columns = append(columns, "customer_name")
	}
	if in.CustomerPhone != nil {
		if o.CustomerPhone = utils.NormalizePhone(*in.CustomerPhone); o.CustomerPhone == "" {
			return nil, ErrInvalidCustomer
		}
		columns = append(columns, "customer_phone")
	}
	if in.CustomerAddress != nil {
		if o.CustomerAddress = strings.TrimSpace(*in.CustomerAddress); o.CustomerAddress == "" {
			return nil, ErrInvalidCustomer
		}
		columns = append(columns, "customer_address")
	}
	if in.IsConfirmedByTeam != nil {
		o.IsConfirmedByTeam = *in.IsConfirmedByTeam
		columns = append(columns, "is_confirmed_by_team")
	}
	if in.IsVerified != nil {
		o.IsVerified = *in.IsVerified
		columns = append(columns, "is_verified")
	}
	o.UpdatedAt = s.now()

	if err := s.DB.UpdateOrder(ctx, o, columns...); err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	s.Logger.LogOrder("UPDATED", o.OrderNumber, strings.Join(columns[1:], ","))
	s.afterStatusChange(ctx, o, previous)
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.DeleteOrder(ctx, id); err != nil {
		return nil, fmt.Errorf("delete order %d: %w", id, err)
	}

	s.Logger.LogOrder("DELETED", o.OrderNumber, "deleted by team")
	s.notify(ctx, models.EventOrderDeleted, o)
	return o, nil
}

// afterStatusChange publishes the right event and abandons an open card payment
// when the order has just been cancelled.
func (s *Service) afterStatusChange(ctx context.Context, o *models.Order, previous string) {
	if o.Status == models.StatusCancelled && previous != models.StatusCancelled {
		if o.PaymentIntentID != nil {
			s.cancelIntent(ctx, *o.PaymentIntentID)
		}
		s.notify(ctx, models.EventOrderCancelled, o)
		return
	}
	s.notify(ctx, models.EventOrderUpdated, o)
}

func (s *Service) cancelIntent(ctx context.Context, id string) {
	if err := s.Payments.CancelIntent(ctx, id); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("payment intent %s left open: %v", id, err))
	}
}

// notify is best-effort: failures are logged and never fail the request.
func (s *Service) notify(ctx context.Context, eventType string, o *models.Order) {
	ev := models.OrderEvent{
		EventID:     utils.GenerateEventID(),
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Confirmed:   o.IsConfirmedByTeam,
		OccurredAt:  s.now(),
	}
	if err := s.Events.PublishOrderEvent(ctx, ev); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("%s for %s not published: %v", eventType, o.OrderNumber, err))
	}
	if s.Feed != nil {
		s.Feed.Emit(ev)
	}
}
