package service

import (
	"context"
	"testing"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletGetCreatesLazily(t *testing.T) {
	env := newTestEnv(t)
	w, txs, err := env.walletSvc.Get(context.Background(), "new-user")
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.Pending.IsZero())
	assert.Empty(t, txs)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		env := newTestEnv(t)
		env.fundWallet(t, "seller-1", "150")

		w, err := env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "100"))
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(dec(t, "50")), "balance=%s", w.Balance)

		txs := env.transactions(t, "seller-1")
		require.Len(t, txs, 1)
		assert.Equal(t, model.TransactionTypeWithdrawal, txs[0].Type)
		// Debits are stored signed, type is just a label.
		assert.True(t, txs[0].Amount.Equal(dec(t, "-100")), "amount=%s", txs[0].Amount)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		env := newTestEnv(t)
		env.fundWallet(t, "seller-1", "99.99")

		_, err := env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "100"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		w := env.wallet(t, "seller-1")
		assert.True(t, w.Balance.Equal(dec(t, "99.99")))
		assert.Empty(t, env.transactions(t, "seller-1"))
	})

	t.Run("pending funds are not withdrawable", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.wallets.CreditPending(ctx, "seller-1", dec(t, "100")))

		_, err := env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "100"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		env := newTestEnv(t)
		env.fundWallet(t, "seller-1", "100")
		_, err := env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "0"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "-5"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing wallet behaves as empty", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.walletSvc.Withdraw(ctx, "ghost", dec(t, "1"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestWalletStatementOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.fundWallet(t, "seller-1", "300")

	_, err := env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "100"))
	require.NoError(t, err)
	_, err = env.walletSvc.Withdraw(ctx, "seller-1", dec(t, "50"))
	require.NoError(t, err)

	_, txs, err := env.walletSvc.Get(ctx, "seller-1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// Newest first.
	assert.True(t, txs[0].Amount.Equal(dec(t, "-50")))
	assert.True(t, txs[1].Amount.Equal(dec(t, "-100")))
}
