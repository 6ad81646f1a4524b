package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-checkout/app/mapper"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

// HandleNotification processes a raw legacy notification body: verify
// the echo handshake, announce the purchase downstream, and pre-register
// the payer as a provider customer for later correlation.
func (s *CheckoutService) HandleNotification(ctx context.Context, payload []byte) error {
	if err := s.paypal.VerifyNotification(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	notification, err := types.ParsePayPalNotification(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	s.dispatcher.DispatchConversion(ctx, mapper.PurchaseEventFromNotification(notification, now))
	s.dispatcher.DispatchOrder(ctx, mapper.PendingOrderFromNotification(notification, now))

	if err := s.registerPayerCustomer(ctx, notification); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return nil
}

func (s *CheckoutService) registerPayerCustomer(ctx context.Context, notification *types.PayPalNotification) error {
	if s.settings.DedupeCustomers && notification.PayerEmail != "" {
		existing, err := s.stripe.FindCustomerByEmail(ctx, notification.PayerEmail)
		if err != nil {
			s.logger.WithError(err).Warn("Customer lookup failed, creating a new record")
		} else if existing != nil {
			return nil
		}
	}

	metadata := notification.UTM.Metadata()
	metadata["origin"] = "paypal"

	_, err := s.stripe.CreateCustomer(ctx, &provider.CustomerParams{
		Email:    notification.PayerEmail,
		Metadata: metadata,
	})
	return err
}
