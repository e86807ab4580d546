package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger entry types. "usage" is written by Deduct; the rest by Add.
const (
	TxTypeUsage    = "usage"
	TxTypeAdd      = "add"
	TxTypePurchase = "purchase"
	TxTypeRefund   = "refund"
	TxTypeBonus    = "bonus"
)

// CreditTransaction is one append-only ledger entry. Amount is a signed
// delta (negative for usage), so summing a user's entries in created_at
// order reproduces the live balance. Entries are never mutated or deleted.
type CreditTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_credit_tx_user" json:"user_id"`
	Type         string     `gorm:"type:varchar(20);not null" json:"type"`
	Amount       int        `gorm:"not null" json:"amount"`
	BalanceAfter int        `gorm:"not null" json:"balance_after"`
	Description  string     `gorm:"type:text" json:"description"`
	RelatedID    *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Relationship
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// BeforeCreate sets UUID before creating
func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
