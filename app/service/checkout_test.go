package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

type fakeStripe struct {
	createSessionFn       func(ctx context.Context, params *provider.CheckoutSessionParams) (*provider.CheckoutSession, error)
	getSessionFn          func(ctx context.Context, id string, expand ...string) (*provider.CheckoutSession, error)
	createIntentFn        func(ctx context.Context, params *provider.PaymentIntentParams) (*provider.PaymentIntent, error)
	getIntentFn           func(ctx context.Context, id string, expand ...string) (*provider.PaymentIntent, error)
	getPriceFn            func(ctx context.Context, id string) (*provider.Price, error)
	getCustomerFn         func(ctx context.Context, id string) (*provider.Customer, error)
	createCustomerFn      func(ctx context.Context, params *provider.CustomerParams) (*provider.Customer, error)
	updateCustomerFn      func(ctx context.Context, id string, params *provider.CustomerParams) error
	findCustomerByEmailFn func(ctx context.Context, email string) (*provider.Customer, error)
	createInvoiceItemFn   func(ctx context.Context, customerID, priceID string, quantity int64) error
	createInvoiceFn       func(ctx context.Context, customerID string) (*provider.Invoice, error)
	verifyWebhookFn       func(payload []byte, signatureHeader string) (*provider.WebhookEvent, error)

	calls []string
}

func (f *fakeStripe) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeStripe) CreateCheckoutSession(ctx context.Context, params *provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
	f.record("CreateCheckoutSession")
	return f.createSessionFn(ctx, params)
}

func (f *fakeStripe) GetCheckoutSession(ctx context.Context, id string, expand ...string) (*provider.CheckoutSession, error) {
	f.record("GetCheckoutSession")
	return f.getSessionFn(ctx, id, expand...)
}

func (f *fakeStripe) CreatePaymentIntent(ctx context.Context, params *provider.PaymentIntentParams) (*provider.PaymentIntent, error) {
	f.record("CreatePaymentIntent")
	return f.createIntentFn(ctx, params)
}

func (f *fakeStripe) GetPaymentIntent(ctx context.Context, id string, expand ...string) (*provider.PaymentIntent, error) {
	f.record("GetPaymentIntent")
	return f.getIntentFn(ctx, id, expand...)
}

func (f *fakeStripe) GetPrice(ctx context.Context, id string) (*provider.Price, error) {
	f.record("GetPrice")
	return f.getPriceFn(ctx, id)
}

func (f *fakeStripe) GetCustomer(ctx context.Context, id string) (*provider.Customer, error) {
	f.record("GetCustomer")
	return f.getCustomerFn(ctx, id)
}

func (f *fakeStripe) CreateCustomer(ctx context.Context, params *provider.CustomerParams) (*provider.Customer, error) {
	f.record("CreateCustomer")
	return f.createCustomerFn(ctx, params)
}

func (f *fakeStripe) UpdateCustomer(ctx context.Context, id string, params *provider.CustomerParams) error {
	f.record("UpdateCustomer")
	return f.updateCustomerFn(ctx, id, params)
}

func (f *fakeStripe) FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	f.record("FindCustomerByEmail")
	return f.findCustomerByEmailFn(ctx, email)
}

func (f *fakeStripe) CreateInvoiceItem(ctx context.Context, customerID, priceID string, quantity int64) error {
	f.record("CreateInvoiceItem")
	return f.createInvoiceItemFn(ctx, customerID, priceID, quantity)
}

func (f *fakeStripe) CreateInvoice(ctx context.Context, customerID string) (*provider.Invoice, error) {
	f.record("CreateInvoice")
	return f.createInvoiceFn(ctx, customerID)
}

func (f *fakeStripe) VerifyWebhook(payload []byte, signatureHeader string) (*provider.WebhookEvent, error) {
	f.record("VerifyWebhook")
	return f.verifyWebhookFn(payload, signatureHeader)
}

type fakeDispatcher struct {
	events []*entity.ConversionEvent
	orders []*entity.Order
}

func (f *fakeDispatcher) DispatchConversion(_ context.Context, event *entity.ConversionEvent) {
	f.events = append(f.events, event)
}

func (f *fakeDispatcher) DispatchOrder(_ context.Context, order *entity.Order) {
	f.orders = append(f.orders, order)
}

type fakeIPNVerifier struct {
	verifyFn func(ctx context.Context, payload []byte) error
	calls    int
}

func (f *fakeIPNVerifier) VerifyNotification(ctx context.Context, payload []byte) error {
	f.calls++
	if f.verifyFn != nil {
		return f.verifyFn(ctx, payload)
	}
	return nil
}

func newTestService(stripe *fakeStripe, dispatcher *fakeDispatcher, paypal *fakeIPNVerifier, settings Settings) *CheckoutService {
	redirects := NewRedirectTable([]RedirectRule{
		{PriceIDs: []string{"price_down1"}, URL: "https://site.example/down1"},
	}, "https://site.example/default")
	return NewCheckoutService(stripe, dispatcher, paypal, redirects, settings)
}

func TestRedirectTableResolve(t *testing.T) {
	table := NewRedirectTable([]RedirectRule{
		{PriceIDs: []string{"price_a", "price_b"}, URL: "https://site.example/special"},
	}, "https://site.example/default")

	if got := table.Resolve("price_a"); got != "https://site.example/special" {
		t.Fatalf("unexpected destination: %s", got)
	}
	if got := table.Resolve(" price_b "); got != "https://site.example/special" {
		t.Fatalf("expected trimmed lookup, got %s", got)
	}
	if got := table.Resolve("price_unknown"); got != "https://site.example/default" {
		t.Fatalf("expected fallback, got %s", got)
	}
}

func TestWithSessionPlaceholder(t *testing.T) {
	if got := WithSessionPlaceholder("https://site.example/ok"); got != "https://site.example/ok?sid={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected url: %s", got)
	}
	if got := WithSessionPlaceholder("https://site.example/ok?x=1"); got != "https://site.example/ok?x=1&sid={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotParams *provider.CheckoutSessionParams
	stripe := &fakeStripe{
		createSessionFn: func(_ context.Context, params *provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
			gotParams = params
			return &provider.CheckoutSession{
				ID:          "cs_1",
				URL:         "https://checkout.example/c/cs_1",
				Currency:    "usd",
				AmountTotal: 1990,
			}, nil
		},
	}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(stripe, dispatcher, &fakeIPNVerifier{}, Settings{CancelURL: "https://site.example/err"})

	checkoutURL, err := svc.CreateCheckoutSession(context.Background(), &types.CreateCheckoutSessionRequest{
		PriceID:     "price_down1",
		Quantity:    1,
		UTMSource:   "facebook",
		UTMCampaign: "spring",
		ClientIP:    "203.0.113.9",
		UserAgent:   "Mozilla/5.0",
		SourceURL:   "https://site.example/vsl",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if checkoutURL != "https://checkout.example/c/cs_1" {
		t.Fatalf("unexpected checkout url: %s", checkoutURL)
	}

	if gotParams.SuccessURL != "https://site.example/down1?sid={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url: %s", gotParams.SuccessURL)
	}
	if gotParams.CancelURL != "https://site.example/err" {
		t.Fatalf("unexpected cancel url: %s", gotParams.CancelURL)
	}
	if len(gotParams.Metadata) != 5 {
		t.Fatalf("expected all five utm keys in metadata, got %v", gotParams.Metadata)
	}
	if gotParams.Metadata["utm_source"] != "facebook" || gotParams.Metadata["utm_medium"] != "" {
		t.Fatalf("unexpected metadata: %v", gotParams.Metadata)
	}

	if len(dispatcher.events) != 1 || dispatcher.events[0].EventName != entity.EventInitiateCheckout {
		t.Fatalf("expected one initiate checkout event, got %+v", dispatcher.events)
	}
	if dispatcher.events[0].UserData.ClientIPAddress != "203.0.113.9" {
		t.Fatalf("unexpected event identity: %+v", dispatcher.events[0].UserData)
	}
	if len(dispatcher.orders) != 1 || dispatcher.orders[0].Status != entity.OrderStatusWaitingPayment {
		t.Fatalf("expected one pending order, got %+v", dispatcher.orders)
	}
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	stripe := &fakeStripe{}
	svc := newTestService(stripe, &fakeDispatcher{}, &fakeIPNVerifier{}, Settings{})

	_, err := svc.CreateCheckoutSession(context.Background(), &types.CreateCheckoutSessionRequest{PriceID: "  "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(stripe.calls) != 0 {
		t.Fatalf("expected no provider calls, got %v", stripe.calls)
	}
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	stripe := &fakeStripe{
		createSessionFn: func(context.Context, *provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
			return nil, errors.New("stripe down")
		},
	}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(stripe, dispatcher, &fakeIPNVerifier{}, Settings{})

	_, err := svc.CreateCheckoutSession(context.Background(), &types.CreateCheckoutSessionRequest{PriceID: "price_down1"})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(dispatcher.events) != 0 || len(dispatcher.orders) != 0 {
		t.Fatal("expected no notifications for failed session creation")
	}
}

func TestUpsellIdempotencyKey(t *testing.T) {
	key := UpsellIdempotencyKey("cs_1", "price_up", 2)
	if key != "upsell:cs_1:price_up:2" {
		t.Fatalf("unexpected key: %s", key)
	}
	if UpsellIdempotencyKey("cs_1", "price_up", 2) != key {
		t.Fatal("expected identical inputs to yield identical keys")
	}
	if UpsellIdempotencyKey("cs_1", "price_up", 3) == key {
		t.Fatal("expected different quantity to yield a different key")
	}
}

func TestCreateUpsellIntent(t *testing.T) {
	var gotParams *provider.PaymentIntentParams
	stripe := &fakeStripe{
		getSessionFn: func(_ context.Context, id string, _ ...string) (*provider.CheckoutSession, error) {
			return &provider.CheckoutSession{
				ID:            id,
				Customer:      json.RawMessage(`"cus_1"`),
				PaymentIntent: json.RawMessage(`{"id":"pi_parent","payment_method":"pm_1"}`),
				Metadata:      map[string]string{"utm_source": "facebook"},
			}, nil
		},
		getPriceFn: func(_ context.Context, id string) (*provider.Price, error) {
			return &provider.Price{ID: id, UnitAmount: 990, Currency: "usd"}, nil
		},
		createIntentFn: func(_ context.Context, params *provider.PaymentIntentParams) (*provider.PaymentIntent, error) {
			gotParams = params
			return &provider.PaymentIntent{ID: "pi_upsell", ClientSecret: "pi_upsell_secret"}, nil
		},
	}
	svc := newTestService(stripe, &fakeDispatcher{}, &fakeIPNVerifier{}, Settings{})

	intent, err := svc.CreateUpsellIntent(context.Background(), &types.CreateUpsellIntentRequest{
		SessionID: "cs_1",
		PriceID:   "price_up",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent.ClientSecret != "pi_upsell_secret" || intent.IntentID != "pi_upsell" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	if gotParams.AmountCents != 1980 {
		t.Fatalf("unexpected amount: %d", gotParams.AmountCents)
	}
	if gotParams.CustomerID != "cus_1" || gotParams.PaymentMethodID != "pm_1" {
		t.Fatalf("unexpected intent target: %+v", gotParams)
	}
	if gotParams.IdempotencyKey != "upsell:cs_1:price_up:2" {
		t.Fatalf("unexpected idempotency key: %s", gotParams.IdempotencyKey)
	}
	if gotParams.Metadata["upsell"] != "true" || gotParams.Metadata["parent_session"] != "cs_1" {
		t.Fatalf("unexpected metadata: %v", gotParams.Metadata)
	}
	if gotParams.Metadata["price_id"] != "price_up" || gotParams.Metadata["quantity"] != "2" {
		t.Fatalf("unexpected metadata: %v", gotParams.Metadata)
	}
	if gotParams.Metadata["utm_source"] != "facebook" {
		t.Fatalf("expected parent session metadata carried over: %v", gotParams.Metadata)
	}
}

func TestCreateUpsellIntentValidation(t *testing.T) {
	stripe := &fakeStripe{}
	svc := newTestService(stripe, &fakeDispatcher{}, &fakeIPNVerifier{}, Settings{})

	_, err := svc.CreateUpsellIntent(context.Background(), &types.CreateUpsellIntentRequest{PriceID: "price_up"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(stripe.calls) != 0 {
		t.Fatalf("expected no provider calls, got %v", stripe.calls)
	}
}

func TestCreateUpsellIntentWithoutCustomer(t *testing.T) {
	stripe := &fakeStripe{
		getSessionFn: func(_ context.Context, id string, _ ...string) (*provider.CheckoutSession, error) {
			return &provider.CheckoutSession{ID: id}, nil
		},
	}
	svc := newTestService(stripe, &fakeDispatcher{}, &fakeIPNVerifier{}, Settings{})

	_, err := svc.CreateUpsellIntent(context.Background(), &types.CreateUpsellIntentRequest{
		SessionID: "cs_1",
		PriceID:   "price_up",
		Quantity:  1,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCreateUpsellIntentWithoutPaymentMethod(t *testing.T) {
	stripe := &fakeStripe{
		getSessionFn: func(_ context.Context, id string, _ ...string) (*provider.CheckoutSession, error) {
			return &provider.CheckoutSession{
				ID:       id,
				Customer: json.RawMessage(`{"id":"cus_1"}`),
			}, nil
		},
	}
	svc := newTestService(stripe, &fakeDispatcher{}, &fakeIPNVerifier{}, Settings{})

	_, err := svc.CreateUpsellIntent(context.Background(), &types.CreateUpsellIntentRequest{
		SessionID: "cs_1",
		PriceID:   "price_up",
		Quantity:  1,
	})
	if !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}
	for _, call := range stripe.calls {
		if call == "CreatePaymentIntent" {
			t.Fatal("expected no intent creation without a payment method")
		}
	}
}
