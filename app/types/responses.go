package types

type HealthResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Pong bool `json:"pong"`
}

type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type UpsellIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
