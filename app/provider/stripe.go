package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSignature = errors.New("invalid stripe signature")

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	APIBaseURL                string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

// StripeClient talks to the Stripe REST API directly with form-encoded
// requests; no SDK involved.
type StripeClient struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.SignatureToleranceSeconds <= 0 {
		cfg.SignatureToleranceSeconds = 300
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.stripe.com"
	}

	return &StripeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type CheckoutSessionParams struct {
	PriceID       string
	Quantity      int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	values := url.Values{}
	values.Set("payment_method_types[0]", "card")
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", strconv.FormatInt(quantity, 10))
	values.Set("mode", "payment")
	values.Set("customer_creation", "always")
	values.Set("phone_number_collection[enabled]", "true")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if email := strings.TrimSpace(params.CustomerEmail); email != "" {
		values.Set("customer_email", email)
	}
	for k, v := range params.Metadata {
		values.Set("metadata["+k+"]", v)
		values.Set("payment_intent_data[metadata]["+k+"]", v)
	}
	values.Set("payment_intent_data[setup_future_usage]", "off_session")
	values.Add("expand[]", "line_items")

	body, err := c.postForm(ctx, "/v1/checkout/sessions", values, "")
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *StripeClient) GetCheckoutSession(ctx context.Context, id string, expand ...string) (*CheckoutSession, error) {
	body, err := c.get(ctx, "/v1/checkout/sessions/"+url.PathEscape(id), expandQuery(expand))
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type PaymentIntentParams struct {
	AmountCents     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Metadata        map[string]string

	// IdempotencyKey collapses duplicate identical charge attempts on
	// the provider side.
	IdempotencyKey string
}

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, params *PaymentIntentParams) (*PaymentIntent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(params.AmountCents, 10))
	values.Set("currency", strings.ToLower(params.Currency))
	values.Set("customer", params.CustomerID)
	values.Set("payment_method", params.PaymentMethodID)
	values.Set("confirmation_method", "automatic")
	for k, v := range params.Metadata {
		values.Set("metadata["+k+"]", v)
	}

	body, err := c.postForm(ctx, "/v1/payment_intents", values, params.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) GetPaymentIntent(ctx context.Context, id string, expand ...string) (*PaymentIntent, error) {
	body, err := c.get(ctx, "/v1/payment_intents/"+url.PathEscape(id), expandQuery(expand))
	if err != nil {
		return nil, err
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) GetPrice(ctx context.Context, id string) (*Price, error) {
	body, err := c.get(ctx, "/v1/prices/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var price Price
	if err := json.Unmarshal(body, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

func (c *StripeClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	body, err := c.get(ctx, "/v1/customers/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

type CustomerParams struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

func (c *StripeClient) CreateCustomer(ctx context.Context, params *CustomerParams) (*Customer, error) {
	body, err := c.postForm(ctx, "/v1/customers", customerValues(params), "")
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *StripeClient) UpdateCustomer(ctx context.Context, id string, params *CustomerParams) error {
	_, err := c.postForm(ctx, "/v1/customers/"+url.PathEscape(id), customerValues(params), "")
	return err
}

func (c *StripeClient) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	body, err := c.get(ctx, "/v1/customers", query)
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []*Customer `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return list.Data[0], nil
}

func (c *StripeClient) CreateInvoiceItem(ctx context.Context, customerID, priceID string, quantity int64) error {
	if quantity <= 0 {
		quantity = 1
	}
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("price", priceID)
	values.Set("quantity", strconv.FormatInt(quantity, 10))

	_, err := c.postForm(ctx, "/v1/invoiceitems", values, "")
	return err
}

func (c *StripeClient) CreateInvoice(ctx context.Context, customerID string) (*Invoice, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("auto_advance", "false")

	body, err := c.postForm(ctx, "/v1/invoices", values, "")
	if err != nil {
		return nil, err
	}

	var invoice Invoice
	if err := json.Unmarshal(body, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// VerifyWebhook authenticates the raw payload against the webhook
// secret before any of its JSON is interpreted.
func (c *StripeClient) VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if strings.TrimSpace(c.cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}
	if !verifyStripeSignature(payload, signatureHeader, c.cfg.WebhookSecret, c.cfg.SignatureToleranceSeconds) {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *StripeClient) postForm(ctx context.Context, path string, values url.Values, idempotencyKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return c.do(req, path)
}

func (c *StripeClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	return c.do(req, path)
}

func (c *StripeClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

func expandQuery(expand []string) url.Values {
	if len(expand) == 0 {
		return nil
	}
	query := url.Values{}
	for _, field := range expand {
		query.Add("expand[]", field)
	}
	return query
}

func customerValues(params *CustomerParams) url.Values {
	values := url.Values{}
	if email := strings.TrimSpace(params.Email); email != "" {
		values.Set("email", email)
	}
	if name := strings.TrimSpace(params.Name); name != "" {
		values.Set("name", name)
	}
	if phone := strings.TrimSpace(params.Phone); phone != "" {
		values.Set("phone", phone)
	}
	for k, v := range params.Metadata {
		values.Set("metadata["+k+"]", v)
	}
	return values
}

func verifyStripeSignature(payload []byte, signatureHeader string, webhookSecret string, toleranceSeconds int64) bool {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" || strings.TrimSpace(webhookSecret) == "" {
		return false
	}

	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimSpace(strings.TrimPrefix(part, "t="))
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimSpace(strings.TrimPrefix(part, "v1=")))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now().Unix()
	if now-tsUnix > toleranceSeconds || tsUnix-now > toleranceSeconds {
		return false
	}

	signedPayload := []byte(ts + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write(signedPayload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}
