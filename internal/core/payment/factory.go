package payment

import (
	"log"

	"github.com/mojisejr/oeng-api/internal/shared/config"
)

// NewGateway creates a payment gateway based on configuration
func NewGateway(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentMode {
	case "manual":
		log.Println("💳 Using Manual Payment Gateway")
		return NewManualGateway(), nil

	default:
		log.Printf("⚠️  Unknown payment mode '%s', defaulting to manual", cfg.PaymentMode)
		return NewManualGateway(), nil
	}
}
