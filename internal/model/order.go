package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Order records one purchase. Monetary columns and the shipping address are
// snapshots taken at payment confirmation; later product or address edits do
// not alter them. ExternalPaymentRef holds the gateway session id for CARD
// payments and is unique, which is what makes webhook redelivery idempotent.
type Order struct {
	ID                 uint64          `gorm:"primaryKey;autoIncrement"`
	ProductID          uint64          `gorm:"column:product_id;index;not null"`
	BuyerID            string          `gorm:"column:buyer_id;size:128;index;not null"`
	SellerID           string          `gorm:"column:seller_id;size:128;index;not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PlatformFee        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellerEarnings     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingCost       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingName       string          `gorm:"column:shipping_name;size:120"`
	ShippingLine1      string          `gorm:"column:shipping_line1;size:255"`
	ShippingCity       string          `gorm:"column:shipping_city;size:120"`
	ShippingPostalCode string          `gorm:"column:shipping_postal_code;size:32"`
	ShippingCountry    string          `gorm:"column:shipping_country;size:64"`
	ShippingProvider   string          `gorm:"column:shipping_provider;size:64"`
	PaymentMethod      PaymentMethod   `gorm:"column:payment_method;size:16;not null"`
	ExternalPaymentRef *string         `gorm:"column:external_payment_ref;size:128;uniqueIndex"`
	Status             OrderStatus     `gorm:"size:16;not null"`
	ShippedAt          *time.Time      `gorm:"column:shipped_at"`
	DeliveredAt        *time.Time      `gorm:"column:delivered_at"`
	CompletedAt        *time.Time      `gorm:"column:completed_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
