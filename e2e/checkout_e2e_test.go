//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const defaultCheckoutHTTPBase = "http://localhost:48080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestCheckoutE2E(t *testing.T) {
	httpBase := os.Getenv("CHECKOUT_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultCheckoutHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("service not ready: %v", err)
	}
	client := newHTTPClient(httpBase)

	t.Run("health", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/health", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d body=%s", resp.StatusCode, string(body))
		}

		var health struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &health); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if health.Status != "up" {
			t.Fatalf("unexpected health status: %s", health.Status)
		}
	})

	t.Run("ping", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/ping", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("create checkout session requires price", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/create-checkout-session", map[string]any{
			"quantity": 1,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	})

	t.Run("upsell intent requires session", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/upsell/intent", map[string]any{
			"price_id": "price_up",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	})

	t.Run("webhook rejects unsigned payload", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/webhook", map[string]any{
			"id":   "evt_fake",
			"type": "checkout.session.completed",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}
	})
}
