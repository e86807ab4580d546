package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
)

// SentenceRepo interface defines sentence operations
type SentenceRepo interface {
	Create(sentence *models.Sentence) error
	GetByID(id string) (*models.Sentence, error)
	GetByUserID(userID string, limit int) ([]models.Sentence, error)
	Delete(id string) error
	// MarkAnalyzedInTx flips pending -> analyzed inside a caller-owned
	// transaction. RowsAffected is zero when the sentence was already
	// analyzed by a concurrent request.
	MarkAnalyzedInTx(tx *gorm.DB, id string, analysis []byte, creditsUsed int) (bool, error)
}

type sentenceRepo struct {
	db *gorm.DB
}

// NewSentenceRepo creates a new sentence repository
func NewSentenceRepo(db *gorm.DB) SentenceRepo {
	return &sentenceRepo{db: db}
}

// Create inserts a new sentence
func (r *sentenceRepo) Create(sentence *models.Sentence) error {
	return r.db.Create(sentence).Error
}

// GetByID retrieves a sentence by ID
func (r *sentenceRepo) GetByID(id string) (*models.Sentence, error) {
	var sentence models.Sentence
	err := r.db.Where("id = ?", id).First(&sentence).Error
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

// GetByUserID retrieves sentences for a specific user, newest first
func (r *sentenceRepo) GetByUserID(userID string, limit int) ([]models.Sentence, error) {
	var sentences []models.Sentence
	query := r.db.Where("user_id = ?", userID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&sentences).Error
	if err != nil {
		return nil, err
	}
	return sentences, nil
}

// Delete removes a sentence
func (r *sentenceRepo) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Sentence{}).Error
}

func (r *sentenceRepo) MarkAnalyzedInTx(tx *gorm.DB, id string, analysis []byte, creditsUsed int) (bool, error) {
	res := tx.Model(&models.Sentence{}).
		Where("id = ? AND status = ?", id, models.SentenceStatusPending).
		Updates(map[string]interface{}{
			"status":       models.SentenceStatusAnalyzed,
			"analysis":     analysis,
			"credits_used": creditsUsed,
			"analyzed_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
