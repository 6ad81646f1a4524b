package entity

const (
	EventInitiateCheckout = "InitiateCheckout"
	EventPurchase         = "Purchase"
)

const (
	ActionSourceWebsite = "website"
	ContentTypeProduct  = "product"
)

// ConversionEvent is a single server-side event for the conversions API.
// Purchase events carry only the hashed email in UserData; the raw
// IP/user-agent pair is reserved for InitiateCheckout.
type ConversionEvent struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	ActionSource   string     `json:"action_source"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
}

type UserData struct {
	Email           string `json:"em,omitempty"`
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
}

type CustomData struct {
	Currency    string   `json:"currency"`
	Value       float64  `json:"value"`
	ContentIDs  []string `json:"content_ids"`
	ContentType string   `json:"content_type"`
}
