package payment

import (
	"fmt"
	"log"
)

// ManualGateway records the order and waits for an explicit confirm call.
// This mirrors the product's current state: the automated processor is not
// wired yet, so purchases complete through the confirm endpoint.
type ManualGateway struct{}

// NewManualGateway creates a new manual payment gateway
func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

// Process acknowledges the order; no money moves here.
func (g *ManualGateway) Process(req *PurchaseRequest) (*ProcessResult, error) {
	log.Printf("💳 Manual payment pending: purchase %s (%s, %d credits)", req.PurchaseID, req.PackID, req.Credits)

	return &ProcessResult{
		Success: true,
		Message: "Purchase created. Credits are granted once payment is confirmed.",
		Instructions: fmt.Sprintf("Transfer %d THB and confirm purchase %s to receive %d credits.",
			req.PriceTHB, req.PurchaseID, req.Credits),
	}, nil
}

func (g *ManualGateway) Name() string {
	return "manual"
}
