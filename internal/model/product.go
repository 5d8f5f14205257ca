package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "AVAILABLE"
	ProductStatusSold      ProductStatus = "SOLD"
)

type Product struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	SellerID    string          `gorm:"column:seller_id;size:128;index;not null"`
	Title       string          `gorm:"size:120;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:1"`
	Status      ProductStatus   `gorm:"size:16;not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
