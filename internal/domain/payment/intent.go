package payment

import "context"

// IntentRequest is what the storefront asks the processor for.
type IntentRequest struct {
	// Amount in minor units.
	Amount   int64
	Currency Currency
	// AutomaticPaymentMethods lets the processor negotiate payment methods.
	AutomaticPaymentMethods bool
	// IdempotencyKey is forwarded when the caller supplied one; never generated.
	IdempotencyKey string
}

// Intent is the processor's answer to an IntentRequest.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     Currency
}

// Processor creates payment intents on a hosted payment processor.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}
