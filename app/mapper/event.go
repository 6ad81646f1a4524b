package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

// HashEmail one-way hashes an email for conversion event identity.
// Purchase events must never carry the plaintext address.
func HashEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// InitiateCheckoutEvent announces a freshly created checkout session.
// Identity is the requester's raw IP and user agent; the session id
// doubles as the dedup id.
func InitiateCheckoutEvent(session *provider.CheckoutSession, sourceURL, clientIP, userAgent string, at time.Time) *entity.ConversionEvent {
	return &entity.ConversionEvent{
		EventName:      entity.EventInitiateCheckout,
		EventTime:      at.Unix(),
		EventID:        session.ID,
		ActionSource:   entity.ActionSourceWebsite,
		EventSourceURL: sourceURL,
		UserData: entity.UserData{
			ClientIPAddress: clientIP,
			ClientUserAgent: userAgent,
		},
		CustomData: entity.CustomData{
			Currency:    session.Currency,
			Value:       float64(session.AmountTotal) / 100.0,
			ContentIDs:  contentIDsFromSession(session),
			ContentType: entity.ContentTypeProduct,
		},
	}
}

func PurchaseEventFromSession(session *provider.CheckoutSession, at time.Time) *entity.ConversionEvent {
	email := ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	return &entity.ConversionEvent{
		EventName:      entity.EventPurchase,
		EventTime:      at.Unix(),
		EventID:        session.ID,
		ActionSource:   entity.ActionSourceWebsite,
		EventSourceURL: session.URL,
		UserData: entity.UserData{
			Email: HashEmail(email),
		},
		CustomData: entity.CustomData{
			Currency:    session.Currency,
			Value:       float64(session.AmountTotal) / 100.0,
			ContentIDs:  contentIDsFromSession(session),
			ContentType: entity.ContentTypeProduct,
		},
	}
}

func PurchaseEventFromIntent(intent *provider.PaymentIntent, email string, at time.Time) *entity.ConversionEvent {
	contentIDs := []string{}
	if priceID := intent.Metadata["price_id"]; priceID != "" {
		contentIDs = append(contentIDs, priceID)
	}

	return &entity.ConversionEvent{
		EventName:    entity.EventPurchase,
		EventTime:    at.Unix(),
		EventID:      intent.ID,
		ActionSource: entity.ActionSourceWebsite,
		UserData: entity.UserData{
			Email: HashEmail(email),
		},
		CustomData: entity.CustomData{
			Currency:    intent.Currency,
			Value:       float64(intent.Amount) / 100.0,
			ContentIDs:  contentIDs,
			ContentType: entity.ContentTypeProduct,
		},
	}
}

func PurchaseEventFromNotification(notification *types.PayPalNotification, at time.Time) *entity.ConversionEvent {
	return &entity.ConversionEvent{
		EventName:      entity.EventPurchase,
		EventTime:      at.Unix(),
		EventID:        notification.TransactionID,
		ActionSource:   entity.ActionSourceWebsite,
		EventSourceURL: notification.ReturnURL,
		UserData: entity.UserData{
			Email: HashEmail(notification.PayerEmail),
		},
		CustomData: entity.CustomData{
			Currency:    notification.Currency,
			Value:       notification.GrossAmount,
			ContentIDs:  []string{notification.ItemNumber},
			ContentType: entity.ContentTypeProduct,
		},
	}
}

func contentIDsFromSession(session *provider.CheckoutSession) []string {
	if session.LineItems == nil {
		return []string{}
	}
	ids := make([]string, 0, len(session.LineItems.Data))
	for _, item := range session.LineItems.Data {
		if item.Price != nil && item.Price.ID != "" {
			ids = append(ids, item.Price.ID)
		}
	}
	return ids
}
