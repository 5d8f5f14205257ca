package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's funds. Balance is withdrawable; Pending is escrowed
// sale proceeds held until the buyer confirms receipt. Both are only ever
// mutated with relative SQL updates and never go below zero.
type Wallet struct {
	UserID    string          `gorm:"column:user_id;primaryKey;size:128"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Pending   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}
