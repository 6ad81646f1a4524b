package entity

const (
	OrderStatusWaitingPayment = "waiting_payment"
	OrderStatusPaid           = "paid"
)

const (
	PlatformStripe = "Stripe"
	PlatformPayPal = "PayPal"
)

const (
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodPayPal     = "paypal"
)

// Order is the canonical order payload sent to the order-tracking API.
// Field names follow the tracking API's wire format. Orders are built
// per notification and never stored; the provider transaction id is the
// correlation key between the waiting_payment and paid variants.
type Order struct {
	OrderID            string         `json:"orderId"`
	Platform           string         `json:"platform"`
	PaymentMethod      string         `json:"paymentMethod"`
	Status             string         `json:"status"`
	CreatedAt          string         `json:"createdAt"`
	ApprovedDate       *string        `json:"approvedDate"`
	RefundedAt         *string        `json:"refundedAt"`
	Customer           OrderCustomer  `json:"customer"`
	Products           []OrderProduct `json:"products"`
	TrackingParameters UTMParameters  `json:"trackingParameters"`
	Commission         Commission     `json:"commission"`
}

type OrderCustomer struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Document *string `json:"document"`
}

type OrderProduct struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlanID       string `json:"planId"`
	PlanName     string `json:"planName"`
	Quantity     int64  `json:"quantity"`
	PriceInCents int64  `json:"priceInCents"`
}

type Commission struct {
	TotalPriceInCents     float64 `json:"totalPriceInCents"`
	GatewayFeeInCents     float64 `json:"gatewayFeeInCents"`
	UserCommissionInCents float64 `json:"userCommissionInCents"`
	Currency              string  `json:"currency"`
}
