package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an app account. The balance fields are mutated only through
// ledger operations; credit_balance never goes below zero.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Name  string    `gorm:"type:text" json:"name"`

	// Authentication
	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Credit state. The counters are informational and monotonically
	// non-decreasing; the ledger is the source of truth.
	CreditBalance         int        `gorm:"not null;default:0" json:"credit_balance"`
	TotalCreditsUsed      int        `gorm:"not null;default:0" json:"total_credits_used"`
	TotalCreditsPurchased int        `gorm:"not null;default:0" json:"total_credits_purchased"`
	LastCreditUsed        *time.Time `json:"last_credit_used,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets UUID before creating
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
