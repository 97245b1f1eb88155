package payment

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrCardUnavailable = utils.BadRequest("CARD_UNAVAILABLE", "Card payments are not enabled")
	ErrStripe          = utils.NewAppError(http.StatusBadGateway, "PAYMENT_FAILED", "Payment provider rejected the request")
)

// Intent is what checkout hands back to the browser to finish a card payment.
type Intent struct {
	ID           string
	ClientSecret string
}

type StripeGateway struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

// NewStripeGateway uses the live Stripe API unless backends is set.
func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{
		client:   client.New(cfg.SecretKey, backends),
		currency: strings.ToLower(cfg.Currency),
		log:      log,
	}
}

// CreateIntent opens a PaymentIntent for the order total.
func (g *StripeGateway) CreateIntent(ctx context.Context, o *models.Order) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toCents(o.TotalAmount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + o.OrderNumber),
	}
	params.Context = ctx
	params.AddMetadata("order_number", o.OrderNumber)
	params.AddMetadata("customer_phone", o.CustomerPhone)

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("PAYMENT", fmt.Sprintf("Failed to create payment intent for %s: %v", o.OrderNumber, err))
		return nil, fmt.Errorf("%w: %v", ErrStripe, err)
	}
	g.log.Info("PAYMENT", fmt.Sprintf("Payment intent %s created for %s", pi.ID, o.OrderNumber))
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CancelIntent abandons an intent whose order was cancelled or never stored.
func (g *StripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := g.client.PaymentIntents.Cancel(id, params); err != nil {
		g.log.Error("PAYMENT", fmt.Sprintf("Failed to cancel payment intent %s: %v", id, err))
		return fmt.Errorf("cancel payment intent %s: %w", id, err)
	}
	g.log.Info("PAYMENT", fmt.Sprintf("Payment intent %s cancelled", id))
	return nil
}

// Disabled is used when no Stripe key is configured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, *models.Order) (*Intent, error) {
	return nil, ErrCardUnavailable
}

func (Disabled) CancelIntent(context.Context, string) error { return nil }

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
