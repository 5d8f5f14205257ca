package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

// Offer is a negotiated price proposal for a product. SenderID is whoever
// created it: the buyer for a regular offer, the seller for a counter-offer.
type Offer struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	ProductID uint64          `gorm:"column:product_id;index;not null"`
	BuyerID   string          `gorm:"column:buyer_id;size:128;index;not null"`
	SenderID  string          `gorm:"column:sender_id;size:128;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    OfferStatus     `gorm:"size:16;not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (Offer) TableName() string {
	return "offers"
}
