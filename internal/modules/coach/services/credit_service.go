package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mojisejr/oeng-api/internal/metrics"
	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/shared/response"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// CreditResult is the outcome of a ledger operation. Business failures
// (insufficient credits, missing user) come back as a failed result with a
// code, never as an error.
type CreditResult struct {
	Success       bool   `json:"success"`
	NewBalance    int    `json:"new_balance"`
	TransactionID string `json:"transaction_id,omitempty"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
}

// CreditService owns every balance mutation in the system.
type CreditService struct {
	ledgerRepo repositories.LedgerRepo
	metrics    *metrics.LedgerMetrics
}

// NewCreditService creates a new credit service. metrics may be nil (tests).
func NewCreditService(ledgerRepo repositories.LedgerRepo, m *metrics.LedgerMetrics) *CreditService {
	return &CreditService{
		ledgerRepo: ledgerRepo,
		metrics:    m,
	}
}

// Deduct spends credits atomically. Fails with INSUFFICIENT_CREDITS and no
// observable mutation when the balance is short.
func (s *CreditService) Deduct(ctx context.Context, userID string, amount int, description string, relatedID *uuid.UUID) *CreditResult {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return failResult(response.CodeInvalidInput, "invalid user id")
	}
	if amount <= 0 {
		return failResult(response.CodeInvalidInput, "amount must be greater than 0")
	}

	entry, err := s.ledgerRepo.Deduct(ctx, uid, amount, description, relatedID)
	if err != nil {
		s.countDeduct(resultLabel(err))
		return s.mapLedgerError(err, userID, "deduct")
	}

	s.countDeduct("ok")
	if s.metrics != nil {
		s.metrics.CreditsSpent.Add(float64(amount))
	}

	return &CreditResult{
		Success:       true,
		NewBalance:    entry.BalanceAfter,
		TransactionID: entry.ID.String(),
	}
}

// Add grants credits atomically with one ledger entry of the given type.
func (s *CreditService) Add(ctx context.Context, userID string, amount int, txType, description string, relatedID *uuid.UUID) *CreditResult {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return failResult(response.CodeInvalidInput, "invalid user id")
	}
	if amount <= 0 {
		return failResult(response.CodeInvalidInput, "amount must be greater than 0")
	}
	switch txType {
	case models.TxTypeAdd, models.TxTypePurchase, models.TxTypeRefund, models.TxTypeBonus:
	default:
		return failResult(response.CodeInvalidInput, fmt.Sprintf("invalid transaction type %q", txType))
	}

	entry, err := s.ledgerRepo.Add(ctx, uid, amount, txType, description, relatedID)
	if err != nil {
		return s.mapLedgerError(err, userID, "add")
	}

	if s.metrics != nil {
		s.metrics.AddTotal.WithLabelValues(txType).Inc()
		s.metrics.CreditsGranted.WithLabelValues(txType).Add(float64(amount))
	}

	return &CreditResult{
		Success:       true,
		NewBalance:    entry.BalanceAfter,
		TransactionID: entry.ID.String(),
	}
}

// GrantFreeCredits seeds the welcome bonus at registration. Not idempotent:
// the registration path is the only caller and it only runs in the
// freshly-created branch.
func (s *CreditService) GrantFreeCredits(ctx context.Context, userID string, amount int) *CreditResult {
	return s.Add(ctx, userID, amount, models.TxTypeBonus, "Welcome bonus", nil)
}

// GetBalance reads the live balance; a missing user reads as zero.
func (s *CreditService) GetBalance(ctx context.Context, userID string) (int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id: %w", err)
	}
	return s.ledgerRepo.GetBalance(ctx, uid)
}

// History lists a user's ledger entries, newest first.
func (s *CreditService) History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	return s.ledgerRepo.History(ctx, uid, limit)
}

func (s *CreditService) mapLedgerError(err error, userID, op string) *CreditResult {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return failResult(response.CodeUserNotFound, "user not found")
	case errors.Is(err, repositories.ErrInsufficientCredits):
		return failResult(response.CodeInsufficientCredits, "insufficient credits")
	default:
		utils.LogError("Ledger operation failed", err, map[string]interface{}{
			"user_id": userID,
			"op":      op,
		})
		return failResult(response.CodeDatabaseError, "credit operation failed")
	}
}

func (s *CreditService) countDeduct(result string) {
	if s.metrics != nil {
		s.metrics.DeductTotal.WithLabelValues(result).Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, repositories.ErrInsufficientCredits):
		return "insufficient"
	default:
		return "error"
	}
}

func failResult(code, message string) *CreditResult {
	return &CreditResult{Success: false, Code: code, Message: message}
}
