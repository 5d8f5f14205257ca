package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/payment"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// stubGateway records the last session it was asked to create.
type stubGateway struct {
	sessions atomic.Int64
	last     payment.CheckoutParams
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	n := g.sessions.Add(1)
	g.last = p
	return &payment.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", n),
		URL: fmt.Sprintf("https://gateway.test/pay/cs_test_%d", n),
	}, nil
}

type testEnv struct {
	db        *gorm.DB
	products  repository.ProductRepository
	offers    repository.OfferRepository
	orders    repository.OrderRepository
	wallets   repository.WalletRepository
	addresses repository.AddressRepository
	gateway   *stubGateway

	productSvc ProductService
	offerSvc   OfferService
	orderSvc   OrderService
	walletSvc  WalletService
	reconcile  ReconcileService
}

// newTestEnv spins up the full service stack on an in-memory SQLite database.
// The pool is capped at one connection so concurrent transactions serialize
// the way racing requests do against the real database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&model.Product{},
		&model.Offer{},
		&model.Order{},
		&model.Wallet{},
		&model.WalletTransaction{},
		&model.Address{},
		&model.Notification{},
	))

	env := &testEnv{
		db:        conn,
		products:  repository.NewProductRepository(conn),
		offers:    repository.NewOfferRepository(conn),
		orders:    repository.NewOrderRepository(conn),
		wallets:   repository.NewWalletRepository(conn),
		addresses: repository.NewAddressRepository(conn),
		gateway:   &stubGateway{},
	}
	notifSvc := NewNotificationService(repository.NewNotificationRepository(conn))
	env.productSvc = NewProductService(env.products)
	env.offerSvc = NewOfferService(env.offers, env.products, notifSvc)
	env.walletSvc = NewWalletService(conn, env.wallets)
	env.orderSvc = NewOrderService(conn, env.orders, env.products, env.wallets, env.addresses,
		env.offerSvc, env.gateway, notifSvc,
		"https://shop.test/success", "https://shop.test/cancel")
	env.reconcile = NewReconcileService(conn, env.orders, env.products, env.wallets, env.addresses, notifSvc)
	return env
}

func (e *testEnv) seedProduct(t *testing.T, sellerID, price string, stock int) *model.Product {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), sellerID, "Vintage camera", "well kept", dec(t, price), stock)
	require.NoError(t, err)
	return p
}

func (e *testEnv) seedAddress(t *testing.T, userID string) *model.Address {
	t.Helper()
	a := &model.Address{
		UserID:     userID,
		Name:       "Test User",
		Line1:      "1 Main Street",
		City:       "Lyon",
		PostalCode: "69001",
		Country:    "FR",
	}
	require.NoError(t, e.addresses.Create(context.Background(), a))
	return a
}

func (e *testEnv) fundWallet(t *testing.T, userID, balance string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Wallet{
		UserID:  userID,
		Balance: dec(t, balance),
		Pending: decimal.Zero,
	}).Error)
}

func (e *testEnv) wallet(t *testing.T, userID string) *model.Wallet {
	t.Helper()
	w, err := e.wallets.Get(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (e *testEnv) transactions(t *testing.T, userID string) []model.WalletTransaction {
	t.Helper()
	txs, err := e.wallets.ListTransactions(context.Background(), userID)
	require.NoError(t, err)
	return txs
}
