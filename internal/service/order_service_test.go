package service

import (
	"context"
	"sync"
	"testing"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 100 + (100*0.05 + 0.70) + 6.99
const homeDeliveryTotal = "112.69"

func TestPayWithWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("exact balance succeeds and drains the wallet", func(t *testing.T) {
		env := newTestEnv(t)
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "buyer-1")
		env.fundWallet(t, "buyer-1", homeDeliveryTotal)

		order, err := env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-1", addr.ID, "Home Delivery")
		require.NoError(t, err)

		assert.Equal(t, model.OrderStatusPaid, order.Status)
		assert.Equal(t, model.PaymentMethodWallet, order.PaymentMethod)
		assert.Nil(t, order.ExternalPaymentRef)
		assert.True(t, order.TotalAmount.Equal(dec(t, homeDeliveryTotal)), "total=%s", order.TotalAmount)
		assert.True(t, order.SellerEarnings.Equal(dec(t, "100")), "earnings=%s", order.SellerEarnings)
		assert.Equal(t, addr.Line1, order.ShippingLine1)

		buyer := env.wallet(t, "buyer-1")
		assert.True(t, buyer.Balance.IsZero(), "balance=%s", buyer.Balance)

		seller := env.wallet(t, "seller-1")
		assert.True(t, seller.Pending.Equal(dec(t, "100")), "pending=%s", seller.Pending)
		assert.True(t, seller.Balance.IsZero())

		fresh, err := env.products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, fresh.Stock)
		assert.Equal(t, model.ProductStatusSold, fresh.Status)

		buyerTxs := env.transactions(t, "buyer-1")
		require.Len(t, buyerTxs, 1)
		assert.Equal(t, model.TransactionTypeSale, buyerTxs[0].Type)
		assert.True(t, buyerTxs[0].Amount.Equal(dec(t, "-112.69")), "amount=%s", buyerTxs[0].Amount)

		sellerTxs := env.transactions(t, "seller-1")
		require.Len(t, sellerTxs, 1)
		assert.True(t, sellerTxs[0].Amount.Equal(dec(t, "100")))
	})

	t.Run("one cent short fails and leaves everything untouched", func(t *testing.T) {
		env := newTestEnv(t)
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "buyer-1")
		env.fundWallet(t, "buyer-1", "112.68")

		_, err := env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-1", addr.ID, "Home Delivery")
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		// Fresh reads across all entities: nothing may have moved.
		buyer := env.wallet(t, "buyer-1")
		assert.True(t, buyer.Balance.Equal(dec(t, "112.68")), "balance=%s", buyer.Balance)
		seller := env.wallet(t, "seller-1")
		assert.True(t, seller.Pending.IsZero())
		fresh, err := env.products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.Stock)
		assert.Equal(t, model.ProductStatusAvailable, fresh.Status)
		assert.EqualValues(t, 0, env.orderCount(t))
		assert.Empty(t, env.transactions(t, "buyer-1"))
	})

	t.Run("self purchase", func(t *testing.T) {
		env := newTestEnv(t)
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "seller-1")
		env.fundWallet(t, "seller-1", "500")

		_, err := env.orderSvc.PayWithWallet(ctx, product.ID, "seller-1", addr.ID, "Home Delivery")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("someone else's address is invisible", func(t *testing.T) {
		env := newTestEnv(t)
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "buyer-2")
		env.fundWallet(t, "buyer-1", "500")

		_, err := env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-1", addr.ID, "Home Delivery")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("accepted offer sets the charged amount", func(t *testing.T) {
		env := newTestEnv(t)
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "buyer-1")
		env.fundWallet(t, "buyer-1", "500")

		offer, err := env.offerSvc.Create(ctx, product.ID, "buyer-1", "", dec(t, "90"))
		require.NoError(t, err)
		_, err = env.offerSvc.Accept(ctx, offer.ID, "seller-1")
		require.NoError(t, err)

		order, err := env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-1", addr.ID, "Mondial Relay")
		require.NoError(t, err)
		// 90 + (90*0.05 + 0.70) + 3.99
		assert.True(t, order.TotalAmount.Equal(dec(t, "99.19")), "total=%s", order.TotalAmount)
		assert.True(t, order.SellerEarnings.Equal(dec(t, "90")))
	})
}

func TestPayWithWallet_ConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "seller-1", "100", 1)
	addrA := env.seedAddress(t, "buyer-a")
	addrB := env.seedAddress(t, "buyer-b")
	env.fundWallet(t, "buyer-a", "500")
	env.fundWallet(t, "buyer-b", "500")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-a", addrA.ID, "Home Delivery")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-b", addrB.ID, "Home Delivery")
	}()
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrInvalidState)
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one buyer wins the last unit")
	assert.Equal(t, 1, lost)

	assert.EqualValues(t, 1, env.orderCount(t))
	fresh, err := env.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Stock)
	assert.Equal(t, model.ProductStatusSold, fresh.Status)

	seller := env.wallet(t, "seller-1")
	assert.True(t, seller.Pending.Equal(dec(t, "100")), "seller credited exactly once, pending=%s", seller.Pending)

	// The loser's wallet must be fully refunded by the rollback.
	total := dec(t, "1000").Sub(env.wallet(t, "buyer-a").Balance).Sub(env.wallet(t, "buyer-b").Balance)
	assert.True(t, total.Equal(dec(t, homeDeliveryTotal)), "only one debit stuck, combined=%s", total)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	pay := func(t *testing.T, env *testEnv) *model.Order {
		product := env.seedProduct(t, "seller-1", "100", 1)
		addr := env.seedAddress(t, "buyer-1")
		env.fundWallet(t, "buyer-1", "500")
		order, err := env.orderSvc.PayWithWallet(ctx, product.ID, "buyer-1", addr.ID, "Home Delivery")
		require.NoError(t, err)
		return order
	}

	t.Run("seller ships, buyer completes, funds release", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)

		shipped, err := env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "SHIPPED")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusShipped, shipped.Status)
		assert.NotNil(t, shipped.ShippedAt)

		before := env.wallet(t, "seller-1")
		require.True(t, before.Pending.Equal(dec(t, "100")))
		require.True(t, before.Balance.IsZero())

		done, err := env.orderSvc.UpdateStatus(ctx, order.ID, "buyer-1", "COMPLETED")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCompleted, done.Status)
		assert.NotNil(t, done.CompletedAt)

		after := env.wallet(t, "seller-1")
		assert.True(t, after.Pending.IsZero(), "pending=%s", after.Pending)
		assert.True(t, after.Balance.Equal(dec(t, "100")), "balance=%s", after.Balance)

		var deposit model.WalletTransaction
		require.NoError(t, env.db.
			Where("user_id = ? AND type = ?", "seller-1", model.TransactionTypeDeposit).
			First(&deposit).Error)
		assert.True(t, deposit.Amount.Equal(dec(t, "100")))
	})

	t.Run("seller may mark delivered straight from paid", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		delivered, err := env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "DELIVERED")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusDelivered, delivered.Status)
	})

	t.Run("non-seller cannot ship", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		_, err := env.orderSvc.UpdateStatus(ctx, order.ID, "buyer-1", "SHIPPED")
		assert.ErrorIs(t, err, ErrForbidden)

		fresh, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, fresh.Status)
	})

	t.Run("non-buyer cannot complete", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		_, err := env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "SHIPPED")
		require.NoError(t, err)

		_, err = env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "COMPLETED")
		assert.ErrorIs(t, err, ErrForbidden)

		seller := env.wallet(t, "seller-1")
		assert.True(t, seller.Pending.Equal(dec(t, "100")), "escrow untouched")
		assert.True(t, seller.Balance.IsZero())
	})

	t.Run("cannot complete an unshipped order", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		_, err := env.orderSvc.UpdateStatus(ctx, order.ID, "buyer-1", "COMPLETED")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("complete is terminal", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		_, err := env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "SHIPPED")
		require.NoError(t, err)
		_, err = env.orderSvc.UpdateStatus(ctx, order.ID, "buyer-1", "COMPLETED")
		require.NoError(t, err)

		_, err = env.orderSvc.UpdateStatus(ctx, order.ID, "buyer-1", "COMPLETED")
		assert.ErrorIs(t, err, ErrInvalidState)

		// A replayed completion must not double-release.
		seller := env.wallet(t, "seller-1")
		assert.True(t, seller.Balance.Equal(dec(t, "100")), "balance=%s", seller.Balance)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := newTestEnv(t)
		order := pay(t, env)
		_, err := env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "REFUNDED")
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = env.orderSvc.UpdateStatus(ctx, order.ID, "seller-1", "PAID")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCheckoutSessionMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "seller-1", "100", 1)
	addr := env.seedAddress(t, "buyer-1")

	session, err := env.orderSvc.Checkout(ctx, product.ID, "buyer-1", addr.ID, "Home Delivery")
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)
	assert.NotEmpty(t, session.ID)

	md := env.gateway.last.Metadata
	assert.Equal(t, "buyer-1", md["buyerId"])
	assert.Equal(t, "seller-1", md["sellerId"])
	assert.Equal(t, "Home Delivery", md["shippingProvider"])

	total, err := decimal.NewFromString(md["totalAmount"])
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, homeDeliveryTotal)), "total=%s", total)

	var minor int64
	for _, li := range env.gateway.last.LineItems {
		minor += li.AmountMinor * li.Quantity
	}
	assert.EqualValues(t, 11269, minor, "line items add up to the total in cents")
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "seller-1", "100", 1)

	q, err := env.orderSvc.Preview(ctx, product.ID, "buyer-1", "Home Delivery")
	require.NoError(t, err)
	assert.True(t, q.ProtectionFee.Equal(dec(t, "5.70")))
	assert.True(t, q.ShippingCost.Equal(dec(t, "6.99")))
	assert.True(t, q.Total.Equal(dec(t, homeDeliveryTotal)))
}
