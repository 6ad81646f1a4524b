package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotVerified = errors.New("paypal notification not verified")

type PayPalConfig struct {
	VerifyURL   string
	HTTPTimeout time.Duration
}

// PayPalVerifier implements the IPN handshake: the raw notification
// body is echoed back to the origin, which must answer exactly
// "VERIFIED". This is the only authenticity check for that channel.
type PayPalVerifier struct {
	cfg    PayPalConfig
	client *http.Client
}

func NewPayPalVerifier(cfg PayPalConfig) *PayPalVerifier {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.VerifyURL = strings.TrimSpace(cfg.VerifyURL)
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = "https://ipnpb.paypal.com/cgi-bin/webscr"
	}

	return &PayPalVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (v *PayPalVerifier) VerifyNotification(ctx context.Context, payload []byte) error {
	body := append([]byte("cmd=_notify-validate&"), payload...)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// The origin's reply must be the exact string, nothing more.
	if string(answer) != "VERIFIED" {
		return ErrNotVerified
	}

	return nil
}
