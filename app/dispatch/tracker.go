package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vibast-solutions/ms-go-checkout/app/entity"
)

type OrderTrackingConfig struct {
	APIURL      string
	APIKey      string
	HTTPTimeout time.Duration
}

// OrderTrackingClient posts canonical orders to the order-tracking
// aggregator, authenticated with an x-api-token header.
type OrderTrackingClient struct {
	cfg    OrderTrackingConfig
	client *http.Client
}

func NewOrderTrackingClient(cfg OrderTrackingConfig) *OrderTrackingClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OrderTrackingClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *OrderTrackingClient) SendOrder(ctx context.Context, order *entity.Order) error {
	if strings.TrimSpace(c.cfg.APIURL) == "" {
		return errors.New("order tracking api url is not configured")
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-token", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post order")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("order tracking api rejected order: status=%d body=%s", resp.StatusCode, string(body))
	}

	return nil
}
