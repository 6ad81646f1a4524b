package mapper

import (
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

// Timestamp layout expected by the order-tracking API.
const timestampLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ComputeCommission splits a paid total into gateway fee and net using
// the branch's configured rate. net + fee always equals the total.
func ComputeCommission(totalCents int64, feeRate float64, currency string) entity.Commission {
	total := float64(totalCents)
	fee := total * feeRate
	return entity.Commission{
		TotalPriceInCents:     total,
		GatewayFeeInCents:     fee,
		UserCommissionInCents: total - fee,
		Currency:              strings.ToUpper(currency),
	}
}

// PendingCommission is the pre-payment placeholder: no fee has been
// charged yet.
func PendingCommission(totalCents int64, currency string) entity.Commission {
	return entity.Commission{
		TotalPriceInCents: float64(totalCents),
		Currency:          strings.ToUpper(currency),
	}
}

// PendingOrderFromSession builds the waiting_payment order announced
// right after checkout-session creation. Customer details may still be
// incomplete at this point.
func PendingOrderFromSession(session *provider.CheckoutSession, createdAt time.Time) *entity.Order {
	return &entity.Order{
		OrderID:            session.ID,
		Platform:           entity.PlatformStripe,
		PaymentMethod:      entity.PaymentMethodCreditCard,
		Status:             entity.OrderStatusWaitingPayment,
		CreatedAt:          formatTime(createdAt),
		Customer:           customerFromSession(session),
		Products:           productsFromSession(session),
		TrackingParameters: entity.UTMFromMetadata(session.Metadata),
		Commission:         PendingCommission(session.AmountTotal, session.Currency),
	}
}

// PaidOrderFromSession builds the paid order for a completed checkout
// session, keeping the session's own creation time as createdAt.
func PaidOrderFromSession(session *provider.CheckoutSession, feeRate float64, approvedAt time.Time) *entity.Order {
	createdAt := approvedAt
	if session.Created > 0 {
		createdAt = time.Unix(session.Created, 0)
	}
	approved := formatTime(approvedAt)

	return &entity.Order{
		OrderID:            session.ID,
		Platform:           entity.PlatformStripe,
		PaymentMethod:      entity.PaymentMethodCreditCard,
		Status:             entity.OrderStatusPaid,
		CreatedAt:          formatTime(createdAt),
		ApprovedDate:       &approved,
		Customer:           customerFromSession(session),
		Products:           productsFromSession(session),
		TrackingParameters: entity.UTMFromMetadata(session.Metadata),
		Commission:         ComputeCommission(session.AmountTotal, feeRate, session.Currency),
	}
}

// PaidOrderFromIntent builds the paid order for a succeeded one-click
// upsell intent. The single product is reconstructed from the intent's
// upsell metadata since no line items exist on an intent.
func PaidOrderFromIntent(intent *provider.PaymentIntent, customer entity.OrderCustomer, feeRate float64, approvedAt time.Time) *entity.Order {
	createdAt := approvedAt
	if intent.Created > 0 {
		createdAt = time.Unix(intent.Created, 0)
	}
	approved := formatTime(approvedAt)

	priceID := intent.Metadata["price_id"]
	name := priceID
	if name == "" {
		name = "Upsell"
	}
	quantity := int64(1)
	if q, err := strconv.ParseInt(intent.Metadata["quantity"], 10, 64); err == nil && q > 0 {
		quantity = q
	}

	return &entity.Order{
		OrderID:       intent.ID,
		Platform:      entity.PlatformStripe,
		PaymentMethod: entity.PaymentMethodCreditCard,
		Status:        entity.OrderStatusPaid,
		CreatedAt:     formatTime(createdAt),
		ApprovedDate:  &approved,
		Customer:      customer,
		Products: []entity.OrderProduct{{
			ID:           priceID,
			Name:         name,
			PlanID:       priceID,
			PlanName:     "Upsell",
			Quantity:     quantity,
			PriceInCents: intent.Amount,
		}},
		TrackingParameters: entity.UTMFromMetadata(intent.Metadata),
		Commission:         ComputeCommission(intent.Amount, feeRate, intent.Currency),
	}
}

// PendingOrderFromNotification builds the waiting_payment order for a
// verified legacy notification.
func PendingOrderFromNotification(notification *types.PayPalNotification, createdAt time.Time) *entity.Order {
	totalCents := int64(notification.GrossAmount * 100)

	return &entity.Order{
		OrderID:       notification.TransactionID,
		Platform:      entity.PlatformPayPal,
		PaymentMethod: entity.PaymentMethodPayPal,
		Status:        entity.OrderStatusWaitingPayment,
		CreatedAt:     formatTime(createdAt),
		Customer: entity.OrderCustomer{
			Email: notification.PayerEmail,
		},
		Products: []entity.OrderProduct{{
			ID:           notification.ItemNumber,
			Name:         notification.ItemName,
			PlanID:       notification.ItemNumber,
			Quantity:     notification.Quantity,
			PriceInCents: totalCents,
		}},
		TrackingParameters: notification.UTM,
		Commission:         PendingCommission(totalCents, notification.Currency),
	}
}

func customerFromSession(session *provider.CheckoutSession) entity.OrderCustomer {
	details := session.CustomerDetails
	if details == nil {
		return entity.OrderCustomer{}
	}
	return entity.OrderCustomer{
		Name:  details.Name,
		Email: details.Email,
		Phone: OptionalString(details.Phone),
	}
}

func productsFromSession(session *provider.CheckoutSession) []entity.OrderProduct {
	if session.LineItems == nil {
		return []entity.OrderProduct{}
	}
	products := make([]entity.OrderProduct, 0, len(session.LineItems.Data))
	for _, item := range session.LineItems.Data {
		priceID := ""
		planName := ""
		if item.Price != nil {
			priceID = item.Price.ID
			planName = item.Price.Nickname
		}
		name := item.Description
		if name == "" {
			name = priceID
		}
		products = append(products, entity.OrderProduct{
			ID:           priceID,
			Name:         name,
			PlanID:       priceID,
			PlanName:     planName,
			Quantity:     item.Quantity,
			PriceInCents: item.AmountSubtotal,
		})
	}
	return products
}

func OptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
