package types

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-checkout/app/entity"
)

// PayPalNotification is the parsed form of a raw IPN body. UTM fields
// arrive as custom_utm_* form fields and default to empty strings.
type PayPalNotification struct {
	TransactionID string
	PayerEmail    string
	ItemNumber    string
	ItemName      string
	Quantity      int64
	GrossAmount   float64
	Currency      string
	ReturnURL     string
	UTM           entity.UTMParameters
}

func ParsePayPalNotification(raw []byte) (*PayPalNotification, error) {
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}

	quantity := int64(1)
	if q, err := strconv.ParseInt(strings.TrimSpace(form.Get("quantity")), 10, 64); err == nil && q > 0 {
		quantity = q
	}
	gross, _ := strconv.ParseFloat(strings.TrimSpace(form.Get("mc_gross")), 64)

	return &PayPalNotification{
		TransactionID: form.Get("txn_id"),
		PayerEmail:    strings.TrimSpace(form.Get("payer_email")),
		ItemNumber:    form.Get("item_number"),
		ItemName:      form.Get("item_name"),
		Quantity:      quantity,
		GrossAmount:   gross,
		Currency:      form.Get("mc_currency"),
		ReturnURL:     form.Get("return_url"),
		UTM: entity.UTMParameters{
			Source:   form.Get("custom_utm_source"),
			Medium:   form.Get("custom_utm_medium"),
			Campaign: form.Get("custom_utm_campaign"),
			Term:     form.Get("custom_utm_term"),
			Content:  form.Get("custom_utm_content"),
		},
	}, nil
}
