package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-checkout/app/entity"
)

type CreateCheckoutSessionRequest struct {
	PriceID       string `json:"price_id"`
	Quantity      int64  `json:"quantity"`
	CustomerEmail string `json:"customer_email"`
	UTMSource     string `json:"utm_source"`
	UTMMedium     string `json:"utm_medium"`
	UTMCampaign   string `json:"utm_campaign"`
	UTMTerm       string `json:"utm_term"`
	UTMContent    string `json:"utm_content"`

	// Filled from the inbound request, not the JSON body.
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
	SourceURL string `json:"-"`
}

func NewCreateCheckoutSessionRequestFromContext(ctx echo.Context) (*CreateCheckoutSessionRequest, error) {
	var body CreateCheckoutSessionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.PriceID = strings.TrimSpace(body.PriceID)
	body.CustomerEmail = strings.TrimSpace(body.CustomerEmail)
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	request := ctx.Request()
	body.ClientIP = ctx.RealIP()
	body.UserAgent = request.UserAgent()
	body.SourceURL = ctx.Scheme() + "://" + request.Host + request.RequestURI

	return &body, nil
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	if strings.TrimSpace(r.PriceID) == "" {
		return errors.New("price_id is required")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	return nil
}

func (r *CreateCheckoutSessionRequest) UTM() entity.UTMParameters {
	return entity.UTMParameters{
		Source:   r.UTMSource,
		Medium:   r.UTMMedium,
		Campaign: r.UTMCampaign,
		Term:     r.UTMTerm,
		Content:  r.UTMContent,
	}
}

type CreateUpsellIntentRequest struct {
	SessionID string `json:"sid"`
	PriceID   string `json:"price_id"`
	Quantity  int64  `json:"quantity"`
}

func NewCreateUpsellIntentRequestFromContext(ctx echo.Context) (*CreateUpsellIntentRequest, error) {
	var body CreateUpsellIntentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.SessionID = strings.TrimSpace(body.SessionID)
	body.PriceID = strings.TrimSpace(body.PriceID)
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	return &body, nil
}

func (r *CreateUpsellIntentRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return errors.New("sid is required")
	}
	if strings.TrimSpace(r.PriceID) == "" {
		return errors.New("price_id is required")
	}
	if r.Quantity <= 0 {
		return errors.New("quantity must be > 0")
	}
	return nil
}
