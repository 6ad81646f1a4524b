package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/mapper"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
)

// HandleWebhook authenticates and reconciles a provider event. Once the
// signature checks out the provider always gets an acknowledgment:
// downstream failures are logged, never returned, so the provider does
// not redeliver an event we already decided how to interpret.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.stripe.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		s.handleSessionCompleted(ctx, event)
	case "payment_intent.succeeded":
		s.handleIntentSucceeded(ctx, event)
	}

	return nil
}

func (s *CheckoutService) handleSessionCompleted(ctx context.Context, event *provider.WebhookEvent) {
	log := s.logger.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	objectID := eventObjectID(event)
	if objectID == "" {
		log.Warn("Webhook event carries no object id")
		return
	}

	session, err := s.stripe.GetCheckoutSession(ctx, objectID, "line_items")
	if err != nil {
		log.WithError(err).Error("Failed to refetch completed session")
		return
	}

	if customerID := session.CustomerID(); customerID != "" {
		params := &provider.CustomerParams{Metadata: session.Metadata}
		if session.CustomerDetails != nil {
			params.Name = session.CustomerDetails.Name
			params.Phone = session.CustomerDetails.Phone
		}
		if err := s.stripe.UpdateCustomer(ctx, customerID, params); err != nil {
			log.WithError(err).Warn("Failed to update customer with attribution")
		}
	}

	now := time.Now().UTC()
	s.dispatcher.DispatchConversion(ctx, mapper.PurchaseEventFromSession(session, now))

	if s.settings.CreateInvoices {
		s.createSessionInvoice(ctx, session)
	}

	s.dispatcher.DispatchOrder(ctx, mapper.PaidOrderFromSession(session, s.settings.CheckoutFeeRate, now))
}

func (s *CheckoutService) handleIntentSucceeded(ctx context.Context, event *provider.WebhookEvent) {
	log := s.logger.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	objectID := eventObjectID(event)
	if objectID == "" {
		log.Warn("Webhook event carries no object id")
		return
	}

	intent, err := s.stripe.GetPaymentIntent(ctx, objectID, "latest_charge")
	if err != nil {
		log.WithError(err).Error("Failed to refetch succeeded intent")
		return
	}

	// Checkout-flow intents surface through the session-completed
	// branch; only upsell intents terminate here.
	if intent.Metadata["upsell"] != "true" {
		log.Debug("Intent is not an upsell charge, acknowledging without action")
		return
	}

	contact := s.resolveIntentContact(ctx, intent)
	now := time.Now().UTC()

	s.dispatcher.DispatchConversion(ctx, mapper.PurchaseEventFromIntent(intent, contact.Email, now))

	if s.settings.CreateInvoices {
		s.createIntentInvoice(ctx, intent)
	}

	customer := entity.OrderCustomer{
		Name:  contact.Name,
		Email: contact.Email,
		Phone: mapper.OptionalString(contact.Phone),
	}
	s.dispatcher.DispatchOrder(ctx, mapper.PaidOrderFromIntent(intent, customer, s.settings.UpsellFeeRate, now))
}

type contactDetails struct {
	Email string
	Name  string
	Phone string
}

func (c contactDetails) complete() bool {
	return c.Email != "" && c.Name != "" && c.Phone != ""
}

func (c *contactDetails) fill(email, name, phone string) {
	if c.Email == "" {
		c.Email = email
	}
	if c.Name == "" {
		c.Name = name
	}
	if c.Phone == "" {
		c.Phone = phone
	}
}

// resolveIntentContact cascades through the intent's charge billing
// details, its latest charge, and finally the customer record, stopping
// as soon as email, name, and phone are all known.
func (s *CheckoutService) resolveIntentContact(ctx context.Context, intent *provider.PaymentIntent) contactDetails {
	var contact contactDetails

	lookups := []func() (string, string, string){
		func() (string, string, string) {
			if intent.Charges == nil || len(intent.Charges.Data) == 0 {
				return "", "", ""
			}
			return billingDetailsFields(intent.Charges.Data[0].BillingDetails)
		},
		func() (string, string, string) {
			charge := intent.ExpandedLatestCharge()
			if charge == nil {
				return "", "", ""
			}
			return billingDetailsFields(charge.BillingDetails)
		},
		func() (string, string, string) {
			customerID := intent.CustomerID()
			if customerID == "" {
				return "", "", ""
			}
			customer, err := s.stripe.GetCustomer(ctx, customerID)
			if err != nil {
				s.logger.WithError(err).Warn("Failed to fetch customer for contact resolution")
				return "", "", ""
			}
			return customer.Email, customer.Name, customer.Phone
		},
	}

	for _, lookup := range lookups {
		if contact.complete() {
			break
		}
		contact.fill(lookup())
	}

	return contact
}

func billingDetailsFields(details *provider.BillingDetails) (string, string, string) {
	if details == nil {
		return "", "", ""
	}
	return details.Email, details.Name, details.Phone
}

func (s *CheckoutService) createSessionInvoice(ctx context.Context, session *provider.CheckoutSession) {
	customerID := session.CustomerID()
	if customerID == "" || session.LineItems == nil {
		return
	}
	for _, item := range session.LineItems.Data {
		if item.Price == nil || item.Price.ID == "" {
			continue
		}
		if err := s.stripe.CreateInvoiceItem(ctx, customerID, item.Price.ID, item.Quantity); err != nil {
			s.logger.WithError(err).Warn("Failed to create invoice item")
			return
		}
	}
	if _, err := s.stripe.CreateInvoice(ctx, customerID); err != nil {
		s.logger.WithError(err).Warn("Failed to create invoice")
	}
}

func (s *CheckoutService) createIntentInvoice(ctx context.Context, intent *provider.PaymentIntent) {
	customerID := intent.CustomerID()
	priceID := intent.Metadata["price_id"]
	if customerID == "" || priceID == "" {
		return
	}
	quantity := int64(1)
	if q, err := strconv.ParseInt(intent.Metadata["quantity"], 10, 64); err == nil && q > 0 {
		quantity = q
	}
	if err := s.stripe.CreateInvoiceItem(ctx, customerID, priceID, quantity); err != nil {
		s.logger.WithError(err).Warn("Failed to create invoice item")
		return
	}
	if _, err := s.stripe.CreateInvoice(ctx, customerID); err != nil {
		s.logger.WithError(err).Warn("Failed to create invoice")
	}
}

func eventObjectID(event *provider.WebhookEvent) string {
	var object struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(event.Data.Object, &object) != nil {
		return ""
	}
	return object.ID
}
