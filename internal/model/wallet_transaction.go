package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSale       TransactionType = "SALE"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// WalletTransaction is an append-only audit log entry. Amount is always
// signed: credits positive, debits negative. Type is descriptive metadata and
// never changes the sign interpretation.
type WalletTransaction struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	UserID      string          `gorm:"column:user_id;size:128;index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Type        TransactionType `gorm:"size:16;not null"`
	Description string          `gorm:"size:255"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
