package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

type UpsellIntent struct {
	ClientSecret string
	IntentID     string
}

// CreateUpsellIntent charges an additional item against the payment
// method saved on a previous checkout session, without new checkout UI.
func (s *CheckoutService) CreateUpsellIntent(ctx context.Context, req *types.CreateUpsellIntentRequest) (*UpsellIntent, error) {
	if req == nil || strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.PriceID) == "" {
		return nil, fmt.Errorf("%w: sid and price_id are required", ErrValidation)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	session, err := s.stripe.GetCheckoutSession(ctx, req.SessionID, "payment_intent.payment_method", "customer")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	customerID := session.CustomerID()
	if customerID == "" {
		return nil, fmt.Errorf("%w: session has no customer attached", ErrInvalidState)
	}

	paymentMethodID, err := s.resolvePaymentMethod(ctx, session, customerID)
	if err != nil {
		return nil, err
	}
	if paymentMethodID == "" {
		return nil, ErrNoPaymentMethod
	}

	price, err := s.stripe.GetPrice(ctx, req.PriceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	metadata := make(map[string]string, len(session.Metadata)+4)
	for k, v := range session.Metadata {
		metadata[k] = v
	}
	metadata["upsell"] = "true"
	metadata["parent_session"] = req.SessionID
	metadata["price_id"] = req.PriceID
	metadata["quantity"] = strconv.FormatInt(quantity, 10)

	intent, err := s.stripe.CreatePaymentIntent(ctx, &provider.PaymentIntentParams{
		AmountCents:     price.UnitAmount * quantity,
		Currency:        price.Currency,
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		Metadata:        metadata,
		IdempotencyKey:  UpsellIdempotencyKey(req.SessionID, req.PriceID, quantity),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return &UpsellIntent{ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

// UpsellIdempotencyKey is a deterministic fingerprint of the charge
// attempt: retried identical requests collapse into one charge on the
// provider side.
func UpsellIdempotencyKey(sessionID, priceID string, quantity int64) string {
	return fmt.Sprintf("upsell:%s:%s:%d", sessionID, priceID, quantity)
}

// resolvePaymentMethod prefers the payment method attached to the
// session's own intent, then the customer's stored default. An empty
// result means the caller must fall back to a full checkout.
func (s *CheckoutService) resolvePaymentMethod(ctx context.Context, session *provider.CheckoutSession, customerID string) (string, error) {
	if intent := session.ExpandedPaymentIntent(); intent != nil {
		if id := intent.PaymentMethodID(); id != "" {
			return id, nil
		}
	}

	if customer := session.ExpandedCustomer(); customer != nil {
		if id := customer.DefaultPaymentMethodID(); id != "" {
			return id, nil
		}
		return "", nil
	}

	customer, err := s.stripe.GetCustomer(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return customer.DefaultPaymentMethodID(), nil
}
