package payment

import (
	"github.com/google/uuid"
)

// Gateway abstracts how a credit-pack purchase gets paid. The bundled
// implementation is manual confirmation; an automated provider slots in
// behind the same interface.
type Gateway interface {
	// Process initiates payment for a pending purchase.
	Process(req *PurchaseRequest) (*ProcessResult, error)

	// Name returns the gateway provider name
	Name() string
}

// PurchaseRequest carries what the gateway needs about the order.
type PurchaseRequest struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     uuid.UUID `json:"user_id"`
	PackID     string    `json:"pack_id"`
	Credits    int       `json:"credits"`
	PriceTHB   int       `json:"price_thb"`
}

// ProcessResult contains the result of payment processing
type ProcessResult struct {
	Success      bool   `json:"success"`
	PaymentLink  string `json:"payment_link,omitempty"` // For automated gateways
	Message      string `json:"message"`
	Instructions string `json:"instructions,omitempty"`
}
