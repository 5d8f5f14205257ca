package repository

import (
	"context"

	"github.com/aokimura/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	FindByID(ctx context.Context, id uint64) (*model.Offer, error)
	ListByProduct(ctx context.Context, productID uint64) ([]model.Offer, error)
	UpdateStatusIfPending(ctx context.Context, id uint64, to model.OfferStatus) (int64, error)
	LatestAccepted(ctx context.Context, productID uint64, buyerID string) (*model.Offer, error)
	WithTx(tx *gorm.DB) OfferRepository
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) WithTx(tx *gorm.DB) OfferRepository {
	return &offerRepository{db: tx}
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *offerRepository) FindByID(ctx context.Context, id uint64) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) ListByProduct(ctx context.Context, productID uint64) ([]model.Offer, error) {
	var list []model.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatusIfPending moves an offer out of PENDING. Offers are terminal
// once accepted or rejected, so the status guard doubles as the
// double-decision check: a second accept (or a reject after accept) affects
// zero rows.
func (r *offerRepository) UpdateStatusIfPending(ctx context.Context, id uint64, to model.OfferStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, model.OfferStatusPending).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// LatestAccepted returns the newest ACCEPTED offer for a (product, buyer)
// pair. The id tiebreak keeps the result deterministic when two rows share a
// timestamp.
func (r *offerRepository) LatestAccepted(ctx context.Context, productID uint64, buyerID string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ? AND status = ?", productID, buyerID, model.OfferStatusAccepted).
		Order("created_at DESC, id DESC").
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
