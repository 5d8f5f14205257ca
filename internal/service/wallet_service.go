package service

import (
	"context"
	"fmt"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletService interface {
	Get(ctx context.Context, userID string) (*model.Wallet, []model.WalletTransaction, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error)
}

type walletService struct {
	db         *gorm.DB
	walletRepo repository.WalletRepository
}

func NewWalletService(db *gorm.DB, walletRepo repository.WalletRepository) WalletService {
	return &walletService{db: db, walletRepo: walletRepo}
}

// Get returns the wallet (created lazily on first read) and its statement,
// newest entry first.
func (s *walletService) Get(ctx context.Context, userID string) (*model.Wallet, []model.WalletTransaction, error) {
	w, err := s.walletRepo.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.walletRepo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return w, txs, nil
}

// Withdraw moves available funds out to the user's bank. Pending funds are
// untouchable here; only the released balance can leave.
func (s *walletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	err := repository.WithTransaction(s.db, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)
		rows, err := wallets.DebitBalance(ctx, userID, amount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientFunds
		}
		return wallets.AppendTransaction(ctx, &model.WalletTransaction{
			UserID:      userID,
			Amount:      amount.Neg(),
			Type:        model.TransactionTypeWithdrawal,
			Description: "Withdrawal to bank account",
		})
	})
	if err != nil {
		return nil, err
	}
	return s.walletRepo.Get(ctx, userID)
}
