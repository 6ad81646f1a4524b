package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vibast-solutions/ms-go-checkout/app/entity"
)

type ConversionsConfig struct {
	PixelID     string
	AccessToken string
	APIBaseURL  string
	HTTPTimeout time.Duration
}

// ConversionsClient posts server-side events to the conversions API
// using the batched {"data":[...]} envelope.
type ConversionsClient struct {
	cfg    ConversionsConfig
	client *http.Client
}

func NewConversionsClient(cfg ConversionsConfig) *ConversionsClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://graph.facebook.com/v14.0"
	}

	return &ConversionsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type eventEnvelope struct {
	Data []*entity.ConversionEvent `json:"data"`
}

func (c *ConversionsClient) SendEvent(ctx context.Context, event *entity.ConversionEvent) error {
	if strings.TrimSpace(c.cfg.PixelID) == "" {
		return errors.New("conversions pixel id is not configured")
	}

	payload, err := json.Marshal(eventEnvelope{Data: []*entity.ConversionEvent{event}})
	if err != nil {
		return errors.Wrap(err, "marshal conversion event")
	}

	endpoint := c.cfg.APIBaseURL + "/" + url.PathEscape(c.cfg.PixelID) + "/events?access_token=" + url.QueryEscape(c.cfg.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post conversion event")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("conversions api rejected event: status=%d body=%s", resp.StatusCode, string(body))
	}

	return nil
}
