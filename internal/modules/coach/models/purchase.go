package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase statuses.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusCancelled = "cancelled"
)

// Purchase is one credit-pack order. Credits are granted through the
// ledger only when the purchase is confirmed, and a purchase is confirmed
// at most once.
type Purchase struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_purchases_user" json:"user_id"`
	PackID    string    `gorm:"type:varchar(50);not null" json:"pack_id"`
	Credits   int       `gorm:"not null" json:"credits"`
	PriceTHB  int       `gorm:"not null" json:"price_thb"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Gateway   string    `gorm:"type:varchar(20);not null" json:"gateway"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationship
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (Purchase) TableName() string {
	return "purchases"
}

// BeforeCreate sets UUID before creating
func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
