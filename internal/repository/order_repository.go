package repository

import (
	"context"
	"time"

	"github.com/aokimura/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*model.Order, error)
	Transition(ctx context.Context, id uint64, from []model.OrderStatus, to model.OrderStatus) (int64, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error)
	WithTx(tx *gorm.DB) OrderRepository
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByPaymentRef(ctx context.Context, ref string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).
		Where("external_payment_ref = ?", ref).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Transition advances an order's status, guarded by its current status so
// every transition is forward-only and race-safe. Zero rows affected means
// the order was not in any of the from states.
func (r *orderRepository) Transition(ctx context.Context, id uint64, from []model.OrderStatus, to model.OrderStatus) (int64, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	switch to {
	case model.OrderStatusShipped:
		updates["shipped_at"] = now
	case model.OrderStatusDelivered:
		updates["delivered_at"] = now
	case model.OrderStatusCompleted:
		updates["completed_at"] = now
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
