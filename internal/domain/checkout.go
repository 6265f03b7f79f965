package domain

// Product is a purchasable token bundle.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Tokens       int    `json:"tokens"`
	PriceCents   int    `json:"price_cents"`
	PriceDisplay string `json:"price_display"`
}

// CheckoutSession is a processor-hosted payment flow instance.
type CheckoutSession struct {
	CheckoutID  string `json:"checkout_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentState enumerates checkout outcomes reported by the backend.
type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
	PaymentExpired   PaymentState = "expired"
)

// PaymentStatus is a point-in-time read of a checkout session outcome.
type PaymentStatus struct {
	Status        PaymentState `json:"status"`
	TokensGranted int          `json:"tokens_granted"`
	TokenStatus   *TokenStatus `json:"token_status,omitempty"`
}

// Completed reports whether the payment has been settled and tokens granted.
func (p PaymentStatus) Completed() bool {
	return p.Status == PaymentCompleted
}
