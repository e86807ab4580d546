package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/core/payment"
	"github.com/mojisejr/oeng-api/internal/metrics"
	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/shared/response"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// Purchase business outcomes surfaced to handlers.
var (
	ErrPackNotFound     = errors.New("credit pack not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrPurchaseClosed   = errors.New("purchase already completed or cancelled")
)

// Pack is a fixed credit bundle.
type Pack struct {
	ID       string `json:"id"`
	Credits  int    `json:"credits"`
	PriceTHB int    `json:"price_thb"`
}

// Packs on offer. Fixed in code today; a pricing table can replace this.
var packs = []Pack{
	{ID: "starter", Credits: 10, PriceTHB: 59},
	{ID: "plus", Credits: 50, PriceTHB: 249},
	{ID: "pro", Credits: 100, PriceTHB: 449},
}

// PurchaseOutcome is returned when a purchase is created.
type PurchaseOutcome struct {
	Purchase     *models.Purchase `json:"purchase"`
	Message      string           `json:"message"`
	Instructions string           `json:"instructions,omitempty"`
	PaymentLink  string           `json:"payment_link,omitempty"`
}

// PurchaseService sells credit packs through the payment gateway.
type PurchaseService struct {
	db           *gorm.DB
	purchaseRepo repositories.PurchaseRepo
	ledgerRepo   repositories.LedgerRepo
	gateway      payment.Gateway
	metrics      *metrics.LedgerMetrics
}

// NewPurchaseService creates a new purchase service. metrics may be nil (tests).
func NewPurchaseService(db *gorm.DB, purchaseRepo repositories.PurchaseRepo, ledgerRepo repositories.LedgerRepo, gateway payment.Gateway, m *metrics.LedgerMetrics) *PurchaseService {
	return &PurchaseService{
		db:           db,
		purchaseRepo: purchaseRepo,
		ledgerRepo:   ledgerRepo,
		gateway:      gateway,
		metrics:      m,
	}
}

// Packs lists the available credit bundles.
func (s *PurchaseService) Packs() []Pack {
	return packs
}

// Create opens a pending purchase and hands it to the gateway. No credits
// move until the purchase is confirmed.
func (s *PurchaseService) Create(ctx context.Context, userID, packID string) (*PurchaseOutcome, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var pack *Pack
	for i := range packs {
		if packs[i].ID == packID {
			pack = &packs[i]
			break
		}
	}
	if pack == nil {
		return nil, ErrPackNotFound
	}

	purchase := &models.Purchase{
		UserID:   uid,
		PackID:   pack.ID,
		Credits:  pack.Credits,
		PriceTHB: pack.PriceTHB,
		Status:   models.PurchaseStatusPending,
		Gateway:  s.gateway.Name(),
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	result, err := s.gateway.Process(&payment.PurchaseRequest{
		PurchaseID: purchase.ID,
		UserID:     uid,
		PackID:     pack.ID,
		Credits:    pack.Credits,
		PriceTHB:   pack.PriceTHB,
	})
	if err != nil {
		return nil, fmt.Errorf("payment gateway failed: %w", err)
	}

	return &PurchaseOutcome{
		Purchase:     purchase,
		Message:      result.Message,
		Instructions: result.Instructions,
		PaymentLink:  result.PaymentLink,
	}, nil
}

// Confirm completes a pending purchase and grants its credits through the
// ledger with type "purchase". The pending -> completed flip and the grant
// commit in one transaction: a failed grant rolls the purchase back to
// pending so the confirm can be retried, and the guarded flip means a
// purchase credits the account at most once.
func (s *PurchaseService) Confirm(ctx context.Context, userID, purchaseID string) (*CreditResult, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if purchase.UserID.String() != userID {
		return nil, ErrNotOwner
	}

	pid := purchase.ID
	var entry *models.CreditTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completed, err := s.purchaseRepo.CompleteInTx(tx, purchaseID)
		if err != nil {
			return err
		}
		if !completed {
			return ErrPurchaseClosed
		}
		e, err := s.ledgerRepo.AddInTx(tx, purchase.UserID, purchase.Credits,
			models.TxTypePurchase, fmt.Sprintf("Credit pack %s", purchase.PackID), &pid)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPurchaseClosed):
			return nil, ErrPurchaseClosed
		case errors.Is(err, repositories.ErrUserNotFound):
			return failResult(response.CodeUserNotFound, "user not found"), nil
		default:
			utils.LogError("Purchase credit grant failed", err, map[string]interface{}{
				"purchase_id": purchaseID,
				"user_id":     userID,
			})
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.AddTotal.WithLabelValues(models.TxTypePurchase).Inc()
		s.metrics.CreditsGranted.WithLabelValues(models.TxTypePurchase).Add(float64(purchase.Credits))
	}

	return &CreditResult{
		Success:       true,
		NewBalance:    entry.BalanceAfter,
		TransactionID: entry.ID.String(),
	}, nil
}
