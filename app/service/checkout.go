package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/factory"
	"github.com/vibast-solutions/ms-go-checkout/app/mapper"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

type stripeAPI interface {
	CreateCheckoutSession(ctx context.Context, params *provider.CheckoutSessionParams) (*provider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string, expand ...string) (*provider.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params *provider.PaymentIntentParams) (*provider.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string, expand ...string) (*provider.PaymentIntent, error)
	GetPrice(ctx context.Context, id string) (*provider.Price, error)
	GetCustomer(ctx context.Context, id string) (*provider.Customer, error)
	CreateCustomer(ctx context.Context, params *provider.CustomerParams) (*provider.Customer, error)
	UpdateCustomer(ctx context.Context, id string, params *provider.CustomerParams) error
	FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error)
	CreateInvoiceItem(ctx context.Context, customerID, priceID string, quantity int64) error
	CreateInvoice(ctx context.Context, customerID string) (*provider.Invoice, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*provider.WebhookEvent, error)
}

type notificationDispatcher interface {
	DispatchConversion(ctx context.Context, event *entity.ConversionEvent)
	DispatchOrder(ctx context.Context, order *entity.Order)
}

type ipnVerifier interface {
	VerifyNotification(ctx context.Context, payload []byte) error
}

type Settings struct {
	CancelURL       string
	CheckoutFeeRate float64
	UpsellFeeRate   float64
	CreateInvoices  bool
	DedupeCustomers bool
}

// CheckoutService orchestrates checkout creation, one-click upsells,
// webhook reconciliation, and legacy notification intake. It holds no
// state beyond its read-only collaborators, so concurrent requests
// never contend.
type CheckoutService struct {
	stripe     stripeAPI
	dispatcher notificationDispatcher
	paypal     ipnVerifier
	redirects  *RedirectTable
	settings   Settings
	logger     logrus.FieldLogger
}

func NewCheckoutService(
	stripe stripeAPI,
	dispatcher notificationDispatcher,
	paypal ipnVerifier,
	redirects *RedirectTable,
	settings Settings,
) *CheckoutService {
	return &CheckoutService{
		stripe:     stripe,
		dispatcher: dispatcher,
		paypal:     paypal,
		redirects:  redirects,
		settings:   settings,
		logger:     factory.NewModuleLogger("checkout-service"),
	}
}

// CreateCheckoutSession creates the provider-hosted checkout and
// announces it downstream. The announcements are best-effort; only the
// provider call can fail the request.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req *types.CreateCheckoutSessionRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.PriceID) == "" {
		return "", fmt.Errorf("%w: price_id is required", ErrValidation)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	successURL := WithSessionPlaceholder(s.redirects.Resolve(req.PriceID))
	session, err := s.stripe.CreateCheckoutSession(ctx, &provider.CheckoutSessionParams{
		PriceID:       req.PriceID,
		Quantity:      quantity,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    successURL,
		CancelURL:     s.settings.CancelURL,
		Metadata:      req.UTM().Metadata(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	now := time.Now().UTC()
	s.dispatcher.DispatchConversion(ctx, mapper.InitiateCheckoutEvent(session, req.SourceURL, req.ClientIP, req.UserAgent, now))
	s.dispatcher.DispatchOrder(ctx, mapper.PendingOrderFromSession(session, now))

	return session.URL, nil
}
