package provider

import (
	"encoding/json"
	"strings"
)

// WebhookEvent is the provider event envelope. Data.Object stays raw so
// each handler can decode only the fields it needs.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Created         int64             `json:"created"`
	Currency        string            `json:"currency"`
	AmountTotal     int64             `json:"amount_total"`
	Customer        json.RawMessage   `json:"customer"`
	CustomerDetails *CustomerDetails  `json:"customer_details"`
	PaymentIntent   json.RawMessage   `json:"payment_intent"`
	Metadata        map[string]string `json:"metadata"`
	LineItems       *LineItemList     `json:"line_items"`
}

// CustomerID returns the customer reference whether or not the field
// was expanded into a full object.
func (s *CheckoutSession) CustomerID() string {
	return stringID(s.Customer)
}

func (s *CheckoutSession) ExpandedCustomer() *Customer {
	return decodeExpanded[Customer](s.Customer)
}

func (s *CheckoutSession) ExpandedPaymentIntent() *PaymentIntent {
	return decodeExpanded[PaymentIntent](s.PaymentIntent)
}

type CustomerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type LineItemList struct {
	Data []LineItem `json:"data"`
}

type LineItem struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	Price          *Price `json:"price"`
}

type Price struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

type PaymentIntent struct {
	ID            string            `json:"id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Created       int64             `json:"created"`
	ClientSecret  string            `json:"client_secret"`
	Customer      json.RawMessage   `json:"customer"`
	PaymentMethod json.RawMessage   `json:"payment_method"`
	LatestCharge  json.RawMessage   `json:"latest_charge"`
	Charges       *ChargeList       `json:"charges"`
	Metadata      map[string]string `json:"metadata"`
}

func (i *PaymentIntent) CustomerID() string {
	return stringID(i.Customer)
}

func (i *PaymentIntent) PaymentMethodID() string {
	return stringID(i.PaymentMethod)
}

func (i *PaymentIntent) ExpandedLatestCharge() *Charge {
	return decodeExpanded[Charge](i.LatestCharge)
}

type ChargeList struct {
	Data []Charge `json:"data"`
}

type Charge struct {
	ID             string          `json:"id"`
	BillingDetails *BillingDetails `json:"billing_details"`
}

type BillingDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Customer struct {
	ID              string            `json:"id"`
	Email           string            `json:"email"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Metadata        map[string]string `json:"metadata"`
	InvoiceSettings *InvoiceSettings  `json:"invoice_settings"`
}

func (c *Customer) DefaultPaymentMethodID() string {
	if c == nil || c.InvoiceSettings == nil {
		return ""
	}
	return stringID(c.InvoiceSettings.DefaultPaymentMethod)
}

type InvoiceSettings struct {
	DefaultPaymentMethod json.RawMessage `json:"default_payment_method"`
}

type Invoice struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// stringID extracts a resource reference from a field that the API may
// return either as a bare id string or as an expanded object.
func stringID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	var obj struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return strings.TrimSpace(obj.ID)
	}
	return ""
}

func decodeExpanded[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var item T
	if json.Unmarshal(raw, &item) != nil {
		return nil
	}
	return &item
}
