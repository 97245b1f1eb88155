package order_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
	"storefront/internal/order/db"
	"storefront/internal/payment"
	"storefront/internal/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) PlaceOrder(ctx context.Context, p db.Placement) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateOrder(ctx context.Context, o *models.Order, columns ...string) error {
	args := m.Called(ctx, o, columns)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockQuoter struct {
	mock.Mock
}

func (m *MockQuoter) Quote(ctx context.Context, lines []models.CartLine) (*cart.Quote, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Quote), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) CreateIntent(ctx context.Context, o *models.Order) (*payment.Intent, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockPayments) CancelIntent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type recordingFeed struct {
	events []models.OrderEvent
}

func (f *recordingFeed) Emit(ev models.OrderEvent) int {
	f.events = append(f.events, ev)
	return 1
}

type mocks struct {
	db       *MockDBLayer
	quoter   *MockQuoter
	codes    *MockVerifier
	payments *MockPayments
	events   *MockEvents
	feed     *recordingFeed
}

func newTestService() (*order.Service, *mocks) {
	m := &mocks{
		db:       new(MockDBLayer),
		quoter:   new(MockQuoter),
		codes:    new(MockVerifier),
		payments: new(MockPayments),
		events:   new(MockEvents),
		feed:     &recordingFeed{},
	}
	svc := order.NewService(m.db, m.quoter, m.codes, m.payments, m.events, m.feed, logger.NewWriterLogger(io.Discard))
	return svc, m
}

func strPtr(s string) *string { return &s }

func checkoutRequest(method string) models.CheckoutRequest {
	return models.CheckoutRequest{
		CustomerName:     "  Ana Diaz ",
		CustomerPhone:    "(555) 010-2030",
		CustomerAddress:  "12 Main St",
		VerificationCode: "123456",
		PaymentMethod:    method,
		Items:            []models.CartLine{{ProductID: 1, Quantity: 2}},
	}
}

func testQuote() *cart.Quote {
	return &cart.Quote{
		Items:    []cart.Line{{ProductID: 1, ProductName: "Tour Tee", Quantity: 2, UnitPrice: 20, LineTotal: 40}},
		Subtotal: 40,
		Shipping: 5,
		Total:    45,
	}
}

func TestCheckoutCashOnDelivery(t *testing.T) {
	svc, m := newTestService()

	m.codes.On("Verify", mock.Anything, "5550102030", "123456").Return(nil)
	m.quoter.On("Quote", mock.Anything, mock.Anything).Return(testQuote(), nil)
	var placed db.Placement
	m.db.On("PlaceOrder", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		placed = args.Get(1).(db.Placement)
		placed.Order.ID = 7
	}).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev models.OrderEvent) bool {
		return ev.Type == models.EventOrderCreated && ev.OrderID == 7
	})).Return(nil)

	resp, err := svc.Checkout(context.Background(), checkoutRequest(""))
	require.NoError(t, err)

	o := resp.Order
	assert.Equal(t, "Ana Diaz", o.CustomerName)
	assert.Equal(t, "5550102030", o.CustomerPhone)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.True(t, o.IsVerified)
	assert.Equal(t, 45.0, o.TotalAmount)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, o.OrderNumber)
	require.Len(t, o.Items, 1)
	assert.Empty(t, resp.ClientSecret)

	assert.Equal(t, "123456", placed.Code)
	require.Len(t, placed.Draws, 1)
	assert.Equal(t, 2, placed.Draws[0].Quantity)
	assert.Equal(t, "5550102030", placed.Customer.Phone)

	require.Len(t, m.feed.events, 1)
	m.payments.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	m.events.AssertExpectations(t)
}

func TestCheckoutCardCreatesIntent(t *testing.T) {
	svc, m := newTestService()

	m.codes.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.quoter.On("Quote", mock.Anything, mock.Anything).Return(testQuote(), nil)
	m.payments.On("CreateIntent", mock.Anything, mock.Anything).Return(&payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil)
	m.db.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Checkout(context.Background(), checkoutRequest(models.PaymentCard))
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", resp.ClientSecret)
	require.NotNil(t, resp.Order.PaymentIntentID)
	assert.Equal(t, "pi_1", *resp.Order.PaymentIntentID)
}

func TestCheckoutCancelsIntentWhenStockRunsOut(t *testing.T) {
	svc, m := newTestService()

	m.codes.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.quoter.On("Quote", mock.Anything, mock.Anything).Return(testQuote(), nil)
	m.payments.On("CreateIntent", mock.Anything, mock.Anything).Return(&payment.Intent{ID: "pi_2"}, nil)
	m.payments.On("CancelIntent", mock.Anything, "pi_2").Return(nil)
	m.db.On("PlaceOrder", mock.Anything, mock.Anything).Return(db.ErrOutOfStock)

	_, err := svc.Checkout(context.Background(), checkoutRequest(models.PaymentCard))
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)
	m.payments.AssertExpectations(t)
	m.events.AssertNotCalled(t, "PublishOrderEvent", mock.Anything, mock.Anything)
}

func TestCheckoutRejectsConsumedCode(t *testing.T) {
	svc, m := newTestService()

	m.codes.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.quoter.On("Quote", mock.Anything, mock.Anything).Return(testQuote(), nil)
	m.db.On("PlaceOrder", mock.Anything, mock.Anything).Return(db.ErrCodeRejected)

	_, err := svc.Checkout(context.Background(), checkoutRequest(""))
	assert.ErrorIs(t, err, verification.ErrInvalidCode)
}

func TestCheckoutStopsAtVerification(t *testing.T) {
	svc, m := newTestService()

	m.codes.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(verification.ErrCodeExpired)

	_, err := svc.Checkout(context.Background(), checkoutRequest(""))
	assert.ErrorIs(t, err, verification.ErrCodeExpired)
	m.quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	m.db.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
}

func TestCheckoutValidatesRequest(t *testing.T) {
	svc, _ := newTestService()

	req := checkoutRequest("bitcoin")
	_, err := svc.Checkout(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paymentMethod")

	req = checkoutRequest("")
	req.Items = nil
	_, err = svc.Checkout(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items")
}

func TestGetOrderNotFound(t *testing.T) {
	svc, m := newTestService()
	m.db.On("GetOrder", mock.Anything, int64(9)).Return(nil, nil)

	_, err := svc.GetOrder(context.Background(), 9)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHistoryRequiresPhone(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.History(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, order.ErrMissingPhone)

	m.db.On("ListOrders", mock.Anything, models.OrderFilter{Phone: "5550102030", Limit: order.DefaultLimit}).Return([]models.Order{{ID: 1}}, nil)
	orders, err := svc.History(context.Background(), "555.010.2030", 0)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.List(context.Background(), models.OrderFilter{Status: "shipped"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestConfirmMovesPendingToPreparing(t *testing.T) {
	svc, m := newTestService()
	o := &models.Order{ID: 1, OrderNumber: "ORD-1", Status: models.StatusPending}

	m.db.On("GetOrder", mock.Anything, int64(1)).Return(o, nil)
	m.db.On("UpdateOrder", mock.Anything, o, mock.Anything).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev models.OrderEvent) bool {
		return ev.Type == models.EventOrderUpdated && ev.Confirmed
	})).Return(nil)

	got, err := svc.Confirm(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.IsConfirmedByTeam)
	assert.Equal(t, models.StatusPreparing, got.Status)
	m.events.AssertExpectations(t)
}

func TestConfirmKeepsLaterStatus(t *testing.T) {
	svc, m := newTestService()
	o := &models.Order{ID: 1, Status: models.StatusCompleted}

	m.db.On("GetOrder", mock.Anything, int64(1)).Return(o, nil)
	m.db.On("UpdateOrder", mock.Anything, o, mock.Anything).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.Confirm(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestConfirmRejectsCancelled(t *testing.T) {
	svc, m := newTestService()
	m.db.On("GetOrder", mock.Anything, int64(1)).Return(&models.Order{ID: 1, Status: models.StatusCancelled}, nil)

	_, err := svc.Confirm(context.Background(), 1)
	assert.ErrorIs(t, err, order.ErrOrderCancelled)
}

func TestCancel(t *testing.T) {
	cases := []struct {
		name  string
		order models.Order
		phone string
		want  error
	}{
		{"phone mismatch", models.Order{Status: models.StatusPending, CustomerPhone: "5550102030"}, "5559999999", order.ErrPhoneMismatch},
		{"confirmed", models.Order{Status: models.StatusPreparing, CustomerPhone: "5550102030", IsConfirmedByTeam: true}, "5550102030", order.ErrOrderConfirmed},
		{"completed", models.Order{Status: models.StatusCompleted, CustomerPhone: "5550102030"}, "", order.ErrNotCancellable},
		{"already cancelled", models.Order{Status: models.StatusCancelled, CustomerPhone: "5550102030"}, "", order.ErrNotCancellable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newTestService()
			o := tc.order
			o.ID = 3
			m.db.On("GetOrder", mock.Anything, int64(3)).Return(&o, nil)

			_, err := svc.Cancel(context.Background(), 3, tc.phone)
			assert.ErrorIs(t, err, tc.want)
			m.db.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCancelAbandonsCardPayment(t *testing.T) {
	svc, m := newTestService()
	o := &models.Order{ID: 3, OrderNumber: "ORD-3", Status: models.StatusPending, CustomerPhone: "5550102030", PaymentIntentID: strPtr("pi_3")}

	m.db.On("GetOrder", mock.Anything, int64(3)).Return(o, nil)
	m.db.On("UpdateOrder", mock.Anything, o, mock.Anything).Return(nil)
	m.payments.On("CancelIntent", mock.Anything, "pi_3").Return(errors.New("stripe down"))
	m.events.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev models.OrderEvent) bool {
		return ev.Type == models.EventOrderCancelled
	})).Return(errors.New("broker down"))

	got, err := svc.Cancel(context.Background(), 3, "(555) 010-2030")
	require.NoError(t, err, "payment and broker failures are best-effort")
	assert.Equal(t, models.StatusCancelled, got.Status)
	m.payments.AssertExpectations(t)
	assert.Len(t, m.feed.events, 1)
}

func TestUpdateStatus(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.UpdateStatus(context.Background(), 1, "lost")
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	o := &models.Order{ID: 1, Status: models.StatusPreparing}
	m.db.On("GetOrder", mock.Anything, int64(1)).Return(o, nil)
	m.db.On("UpdateOrder", mock.Anything, o, []string{"status", "updated_at"}).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.UpdateStatus(context.Background(), 1, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestUpdateMergesFields(t *testing.T) {
	svc, m := newTestService()
	o := &models.Order{ID: 1, Status: models.StatusPending, CustomerName: "Ana", CustomerAddress: "12 Main"}

	m.db.On("GetOrder", mock.Anything, int64(1)).Return(o, nil)
	m.db.On("UpdateOrder", mock.Anything, o, []string{"updated_at", "customer_address", "is_verified"}).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil)

	verified := false
	got, err := svc.Update(context.Background(), 1, models.OrderUpdate{CustomerAddress: strPtr(" 9 Elm "), IsVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, "9 Elm", got.CustomerAddress)
	assert.Equal(t, "Ana", got.CustomerName)
	assert.False(t, got.IsVerified)
}

func TestUpdateRejectsBlankCustomer(t *testing.T) {
	svc, m := newTestService()
	m.db.On("GetOrder", mock.Anything, int64(1)).Return(&models.Order{ID: 1, CustomerName: "Ana"}, nil)

	_, err := svc.Update(context.Background(), 1, models.OrderUpdate{CustomerName: strPtr("   ")})
	assert.ErrorIs(t, err, order.ErrInvalidCustomer)
}

func TestDelete(t *testing.T) {
	svc, m := newTestService()
	o := &models.Order{ID: 4, OrderNumber: "ORD-4"}

	m.db.On("GetOrder", mock.Anything, int64(4)).Return(o, nil)
	m.db.On("DeleteOrder", mock.Anything, int64(4)).Return(nil)
	m.events.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(ev models.OrderEvent) bool {
		return ev.Type == models.EventOrderDeleted
	})).Return(nil)

	got, err := svc.Delete(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "ORD-4", got.OrderNumber)
	m.events.AssertExpectations(t)
}
