package repository

import (
	"context"

	"github.com/aokimura/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type AddressRepository interface {
	Create(ctx context.Context, a *model.Address) error
	FindByID(ctx context.Context, id uint64) (*model.Address, error)
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)
	WithTx(tx *gorm.DB) AddressRepository
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) WithTx(tx *gorm.DB) AddressRepository {
	return &addressRepository{db: tx}
}

func (r *addressRepository) Create(ctx context.Context, a *model.Address) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *addressRepository) FindByID(ctx context.Context, id uint64) (*model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
