package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
)

// Business outcomes of a ledger mutation. Callers map these to result
// codes; anything else is a database failure.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// LedgerRepo mutates a user's balance and appends the matching ledger
// entry inside one database transaction. The balance update is a
// conditional UPDATE guarded on the current balance, so a concurrent
// deduction either waits on the row lock and re-evaluates the guard or
// fails cleanly; no interleaving can observe a partial write or drive the
// balance negative.
type LedgerRepo interface {
	Deduct(ctx context.Context, userID uuid.UUID, amount int, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error)
	// DeductInTx runs the deduction inside a caller-owned transaction so
	// further writes (marking a sentence analyzed) commit atomically with it.
	DeductInTx(tx *gorm.DB, userID uuid.UUID, amount int, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error)
	Add(ctx context.Context, userID uuid.UUID, amount int, txType, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error)
	// AddInTx runs the grant inside a caller-owned transaction so further
	// writes (completing a purchase) commit atomically with it.
	AddInTx(tx *gorm.DB, userID uuid.UUID, amount int, txType, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepo creates a new ledger repository
func NewLedgerRepo(db *gorm.DB) LedgerRepo {
	return &ledgerRepo{db: db}
}

// Deduct atomically spends credits and appends one usage entry.
func (r *ledgerRepo) Deduct(ctx context.Context, userID uuid.UUID, amount int, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error) {
	var entry *models.CreditTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := r.DeductInTx(tx, userID, amount, description, relatedID)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ledgerRepo) DeductInTx(tx *gorm.DB, userID uuid.UUID, amount int, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error) {
	now := time.Now()
	res := tx.Model(&models.User{}).
		Where("id = ? AND credit_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"credit_balance":     gorm.Expr("credit_balance - ?", amount),
			"total_credits_used": gorm.Expr("total_credits_used + ?", amount),
			"last_credit_used":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Guard failed: distinguish a missing user from a short balance.
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientCredits
	}

	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		UserID:       userID,
		Type:         models.TxTypeUsage,
		Amount:       -amount,
		BalanceAfter: user.CreditBalance,
		Description:  description,
		RelatedID:    relatedID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Add atomically grants credits and appends one entry of the given type.
func (r *ledgerRepo) Add(ctx context.Context, userID uuid.UUID, amount int, txType, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error) {
	var entry *models.CreditTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := r.AddInTx(tx, userID, amount, txType, description, relatedID)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddInTx grants credits and appends one entry of the given type. A
// purchase also bumps the informational total_credits_purchased counter.
func (r *ledgerRepo) AddInTx(tx *gorm.DB, userID uuid.UUID, amount int, txType, description string, relatedID *uuid.UUID) (*models.CreditTransaction, error) {
	updates := map[string]interface{}{
		"credit_balance": gorm.Expr("credit_balance + ?", amount),
	}
	if txType == models.TxTypePurchase {
		updates["total_credits_purchased"] = gorm.Expr("total_credits_purchased + ?", amount)
	}

	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}

	entry := &models.CreditTransaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: user.CreditBalance,
		Description:  description,
		RelatedID:    relatedID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance reads the live balance. A missing user reads as zero: the
// account simply has not been provisioned yet.
func (r *ledgerRepo) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.CreditBalance, nil
}

// History retrieves a user's ledger entries, newest first.
func (r *ledgerRepo) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
