package order_api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	catalogdb "storefront/internal/catalog/db"
	"storefront/internal/config"
	"storefront/internal/database/dbtest"
	"storefront/internal/kafka"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
	orderdb "storefront/internal/order/db"
	"storefront/internal/order/order_api"
	"storefront/internal/payment"
	"storefront/internal/receipt"
	"storefront/internal/sse"
	"storefront/internal/verification"
	verificationdb "storefront/internal/verification/db"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const phone = "5550102030"

type testEnv struct {
	router  http.Handler
	bun     *bun.DB
	qr      *receipt.QRGenerator
	feed    *sse.OrderFeed
	token   string
	product *models.Product
}

func setup(t *testing.T) *testEnv {
	bunDB := dbtest.New(t)
	log := logger.NewWriterLogger(io.Discard)
	now := time.Now()

	p := &models.Product{Name: "Tour Tee", Slug: "tour-tee", Price: 20, Stock: 10, MediaType: models.MediaTypeImage, MediaSrc: "/tee.jpg", IsAvailable: true, CreatedAt: now, UpdatedAt: now}
	_, err := bunDB.NewInsert().Model(p).Exec(context.Background())
	require.NoError(t, err)

	vcfg := config.VerificationConfig{CodeTTL: 10 * time.Minute, ResendCooldown: time.Minute}
	codes := verification.NewService(&verificationdb.DB{Bun: bunDB}, nil, nil, vcfg, log)
	quoter := cart.NewService(&catalogdb.DB{Bun: bunDB}, cart.Pricing{ShippingFee: 5, FreeShippingThreshold: 100})
	feed := sse.NewOrderFeed()
	svc := order.NewService(&orderdb.DB{Bun: bunDB}, quoter, codes, payment.Disabled{}, &kafka.NoopPublisher{Logger: log}, feed, log)

	qr := receipt.NewQRGenerator("qr-secret")
	pdf := receipt.NewPDFGenerator(config.ReceiptConfig{FontPath: "/nonexistent/font.ttf", StoreName: "Storefront"})
	h := order_api.NewHandler(svc, feed, qr, pdf, log)

	issuer := auth.NewIssuer("jwt-secret", time.Hour)
	token, _, err := issuer.IssueTeamToken()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(auth.Optional(&auth.HMACVerifier{Issuer: issuer}, log))
	h.RegisterPublicRoutes(r)
	r.Group(func(tr chi.Router) {
		tr.Use(auth.RequireTeam)
		h.RegisterTeamRoutes(tr)
	})

	return &testEnv{router: r, bun: bunDB, qr: qr, feed: feed, token: token, product: p}
}

func (e *testEnv) issueCode(t *testing.T, code string) {
	now := time.Now()
	_, err := e.bun.NewInsert().Model(&models.VerificationCode{Phone: phone, Code: code, ExpiresAt: now.Add(time.Minute), CreatedAt: now}).Exec(context.Background())
	require.NoError(t, err)
}

func (e *testEnv) do(method, path, body string, team bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if team {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) checkout(t *testing.T, quantity int) *models.Order {
	e.issueCode(t, "123456")
	body := fmt.Sprintf(`{"customerName":"Ana","customerPhone":"(555) 010-2030","customerAddress":"12 Main","verificationCode":"123456","items":[{"productId":%d,"quantity":%d}]}`, e.product.ID, quantity)
	rec := e.do(http.MethodPost, "/api/checkout", body, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Order
}

func TestCheckoutAndHistory(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 2)
	assert.Equal(t, 45.0, o.TotalAmount)
	assert.Equal(t, models.StatusPending, o.Status)

	// the code was consumed by the first checkout
	body := fmt.Sprintf(`{"customerName":"Ana","customerPhone":"%s","customerAddress":"12 Main","verificationCode":"123456","items":[{"productId":%d,"quantity":1}]}`, phone, e.product.ID)
	rec := e.do(http.MethodPost, "/api/checkout", body, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CODE")

	rec = e.do(http.MethodGet, "/api/orders?phone="+phone, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, o.OrderNumber, orders[0].OrderNumber)

	rec = e.do(http.MethodGet, "/api/orders", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_PHONE")

	rec = e.do(http.MethodGet, "/api/orders?limit=500&phone="+phone, "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_LIMIT")
}

func TestCheckoutRequiresCardSetup(t *testing.T) {
	e := setup(t)
	e.issueCode(t, "123456")

	body := fmt.Sprintf(`{"customerName":"Ana","customerPhone":"%s","customerAddress":"12 Main","verificationCode":"123456","paymentMethod":"card","items":[{"productId":%d,"quantity":1}]}`, phone, e.product.ID)
	rec := e.do(http.MethodPost, "/api/checkout", body, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CARD_UNAVAILABLE")
}

func TestTeamListing(t *testing.T) {
	e := setup(t)
	e.checkout(t, 1)

	rec := e.do(http.MethodGet, "/api/orders?status=pending&search=ana", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	rec = e.do(http.MethodGet, "/api/orders?status=shipped", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATUS")
}

func TestTeamRoutesRequireToken(t *testing.T) {
	e := setup(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/orders/1/confirm"},
		{http.MethodPut, "/api/orders/1/status"},
		{http.MethodDelete, "/api/orders/1"},
		{http.MethodGet, "/api/orders/1/receipt"},
		{http.MethodGet, "/api/orders/stream"},
	} {
		rec := e.do(tc.method, tc.path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestConfirmThenCancelIsRejected(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)
	path := fmt.Sprintf("/api/orders/%d", o.ID)

	rec := e.do(http.MethodPut, path+"/confirm", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.True(t, confirmed.IsConfirmedByTeam)
	assert.Equal(t, models.StatusPreparing, confirmed.Status)

	rec = e.do(http.MethodPost, path+"/cancel", `{"phone":"`+phone+`"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORDER_CONFIRMED")
}

func TestCustomerCancel(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)
	path := fmt.Sprintf("/api/orders/%d/cancel", o.ID)

	rec := e.do(http.MethodPost, path, `{"phone":"5559999999"}`, false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPost, path, `{"phone":"`+phone+`"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Order cancelled successfully")

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCancelWithPut(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)

	rec := e.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", o.ID), `{"phone":"`+phone+`"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Order cancelled successfully")
}

func TestGetOrderByQueryID(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)

	rec := e.do(http.MethodGet, fmt.Sprintf("/api/orders?id=%d", o.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	rec = e.do(http.MethodGet, "/api/orders?id=999", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORDER_NOT_FOUND")

	rec = e.do(http.MethodGet, "/api/orders?id=x", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ID")
}

func TestStatusUpdateAndDelete(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)
	path := fmt.Sprintf("/api/orders/%d", o.ID)

	rec := e.do(http.MethodPut, path+"/status", `{"status":"completed"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPut, path+"/status", `{"status":"lost"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPut, path, `{"customerAddress":"9 Elm"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "9 Elm")

	rec = e.do(http.MethodDelete, path, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order deleted successfully")

	rec = e.do(http.MethodGet, path, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORDER_NOT_FOUND")
}

func TestInvalidID(t *testing.T) {
	e := setup(t)

	rec := e.do(http.MethodGet, "/api/orders/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ID")
}

func TestQRCodeAndScan(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)

	rec := e.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/qr", o.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	payload, err := e.qr.Payload(o)
	require.NoError(t, err)
	rec = e.do(http.MethodPost, "/api/orders/scan", `{"payload":"`+payload+`"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), o.OrderNumber)

	rec = e.do(http.MethodPost, "/api/orders/scan", `{"payload":"forged.payload"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_QR")
}

func TestReceiptWithoutFont(t *testing.T) {
	e := setup(t)
	o := e.checkout(t, 1)

	rec := e.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/receipt", o.ID), "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "RECEIPT_UNAVAILABLE")
}

func TestStreamDeliversOrderEvents(t *testing.T) {
	e := setup(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/orders/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) string {
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", want)
				if strings.Contains(line, want) {
					return line
				}
			case <-timeout:
				t.Fatalf("no %q on the stream", want)
			}
		}
	}

	waitFor("event: connected")
	require.Eventually(t, func() bool { return e.feed.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	o := e.checkout(t, 1)
	waitFor("event: " + models.EventOrderCreated)
	assert.Contains(t, waitFor("data: "), o.OrderNumber)
}
