package model

import "time"

type Address struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"column:user_id;size:128;index;not null"`
	Name       string    `gorm:"size:120;not null"`
	Line1      string    `gorm:"size:255;not null"`
	City       string    `gorm:"size:120;not null"`
	PostalCode string    `gorm:"column:postal_code;size:32;not null"`
	Country    string    `gorm:"size:64;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Address) TableName() string {
	return "addresses"
}
