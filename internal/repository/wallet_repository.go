package repository

import (
	"context"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository mutates wallets with relative updates only. Credits upsert
// so a wallet is created lazily on first credit; guarded decrements report
// RowsAffected so callers can tell "not enough funds" from success without a
// read-then-write race.
type WalletRepository interface {
	Get(ctx context.Context, userID string) (*model.Wallet, error)
	CreditPending(ctx context.Context, userID string, amount decimal.Decimal) error
	DebitBalance(ctx context.Context, userID string, amount decimal.Decimal) (int64, error)
	Release(ctx context.Context, userID string, amount decimal.Decimal) (int64, error)
	AppendTransaction(ctx context.Context, t *model.WalletTransaction) error
	ListTransactions(ctx context.Context, userID string) ([]model.WalletTransaction, error)
	WithTx(tx *gorm.DB) WalletRepository
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	return &walletRepository{db: tx}
}

func (r *walletRepository) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	var w model.Wallet
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&w, &model.Wallet{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *walletRepository) CreditPending(ctx context.Context, userID string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"pending": gorm.Expr("pending + ?", amount)}),
	}).Create(&model.Wallet{UserID: userID, Pending: amount, Balance: decimal.Zero}).Error
}

func (r *walletRepository) DebitBalance(ctx context.Context, userID string, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Release moves escrowed funds into the withdrawable balance in one
// statement, guarded so pending can never go negative.
func (r *walletRepository) Release(ctx context.Context, userID string, amount decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("user_id = ? AND pending >= ?", userID, amount).
		Updates(map[string]interface{}{
			"pending": gorm.Expr("pending - ?", amount),
			"balance": gorm.Expr("balance + ?", amount),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *walletRepository) AppendTransaction(ctx context.Context, t *model.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID string) ([]model.WalletTransaction, error) {
	var list []model.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
