package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sentence statuses. A sentence moves pending -> analyzed exactly once,
// gated by a successful credit deduction.
const (
	SentenceStatusPending  = "pending"
	SentenceStatusAnalyzed = "analyzed"
)

// Sentence is one submission from a learner.
type Sentence struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_sentences_user" json:"user_id"`
	Text            string         `gorm:"type:varchar(500);not null" json:"text"`
	UserTranslation string         `gorm:"type:varchar(1000)" json:"user_translation,omitempty"`
	Context         string         `gorm:"type:varchar(1000)" json:"context,omitempty"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreditsUsed     int            `gorm:"not null;default:0" json:"credits_used"`
	Analysis        datatypes.JSON `gorm:"type:jsonb" json:"analysis,omitempty"`
	AnalyzedAt      *time.Time     `json:"analyzed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationship
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (Sentence) TableName() string {
	return "sentences"
}

// BeforeCreate sets UUID before creating
func (s *Sentence) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
