package service

import "strings"

// sessionPlaceholder is substituted by the provider with the real
// session id when redirecting back after checkout.
const sessionPlaceholder = "sid={CHECKOUT_SESSION_ID}"

type RedirectRule struct {
	PriceIDs []string
	URL      string
}

// RedirectTable resolves the post-checkout success destination for a
// price reference, falling back to a default URL for unknown prices.
type RedirectTable struct {
	destinations map[string]string
	fallback     string
}

func NewRedirectTable(rules []RedirectRule, fallback string) *RedirectTable {
	destinations := make(map[string]string)
	for _, rule := range rules {
		for _, priceID := range rule.PriceIDs {
			if trimmed := strings.TrimSpace(priceID); trimmed != "" {
				destinations[trimmed] = rule.URL
			}
		}
	}
	return &RedirectTable{destinations: destinations, fallback: fallback}
}

func (t *RedirectTable) Resolve(priceID string) string {
	if destination, ok := t.destinations[strings.TrimSpace(priceID)]; ok {
		return destination
	}
	return t.fallback
}

// WithSessionPlaceholder appends the session-id placeholder so the
// destination page can recover the transaction after redirect.
func WithSessionPlaceholder(rawURL string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + sessionPlaceholder
}
