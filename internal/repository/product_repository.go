package repository

import (
	"context"

	"github.com/aokimura/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, limit int) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error)
	DecrementStock(ctx context.Context, id uint64) (int64, error)
	WithTx(tx *gorm.DB) ProductRepository
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []model.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error) {
	var list []model.Product
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// DecrementStock takes one unit off an available product and flips it to SOLD
// when the last unit goes. The guard in the WHERE clause makes this a
// compare-and-set: two buyers racing for the last unit both issue it, but the
// database lets only one row-update through, and the loser sees zero rows
// affected.
func (r *productRepository) DecrementStock(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock > 0 AND status = ?", id, model.ProductStatusAvailable).
		Updates(map[string]interface{}{
			"stock":  gorm.Expr("stock - 1"),
			"status": gorm.Expr("CASE WHEN stock - 1 <= 0 THEN ? ELSE status END", model.ProductStatusSold),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
