package repositories

import (
	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
)

// PurchaseRepo interface defines credit-pack order operations
type PurchaseRepo interface {
	Create(purchase *models.Purchase) error
	GetByID(id string) (*models.Purchase, error)
	GetByUserID(userID string, limit int) ([]models.Purchase, error)
	// CompleteInTx flips pending -> completed inside a caller-owned
	// transaction, so the credit grant commits atomically with it. Returns
	// false when the purchase was already completed or cancelled, so
	// credits are granted at most once.
	CompleteInTx(tx *gorm.DB, id string) (bool, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

// NewPurchaseRepo creates a new purchase repository
func NewPurchaseRepo(db *gorm.DB) PurchaseRepo {
	return &purchaseRepo{db: db}
}

// Create inserts a new purchase
func (r *purchaseRepo) Create(purchase *models.Purchase) error {
	return r.db.Create(purchase).Error
}

// GetByID retrieves a purchase by ID
func (r *purchaseRepo) GetByID(id string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.Where("id = ?", id).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetByUserID retrieves purchases for a specific user
func (r *purchaseRepo) GetByUserID(userID string, limit int) ([]models.Purchase, error) {
	var purchases []models.Purchase
	query := r.db.Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepo) CompleteInTx(tx *gorm.DB, id string) (bool, error) {
	res := tx.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, models.PurchaseStatusPending).
		Update("status", models.PurchaseStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
