package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aokimura/marketplace-backend/internal/fee"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/payment"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"gorm.io/gorm"
)

// OrderService drives a purchase from payment to fund release. Orders move
// PAID → {SHIPPED, DELIVERED} → COMPLETED, forward only; completing is the
// buyer's confirmation and the only transition that touches the seller's
// wallet.
type OrderService interface {
	Preview(ctx context.Context, productID uint64, buyerID, provider string) (*fee.Breakdown, error)
	Checkout(ctx context.Context, productID uint64, buyerID string, addressID uint64, provider string) (*payment.CheckoutSession, error)
	PayWithWallet(ctx context.Context, productID uint64, buyerID string, addressID uint64, provider string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint64, actorID string, newStatus string) (*model.Order, error)
	Get(ctx context.Context, orderID uint64, actorID string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	walletRepo  repository.WalletRepository
	addressRepo repository.AddressRepository
	offers      OfferService
	gateway     payment.Gateway
	notify      NotificationService
	successURL  string
	cancelURL   string
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	walletRepo repository.WalletRepository,
	addressRepo repository.AddressRepository,
	offers OfferService,
	gateway payment.Gateway,
	notify NotificationService,
	successURL, cancelURL string,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		walletRepo:  walletRepo,
		addressRepo: addressRepo,
		offers:      offers,
		gateway:     gateway,
		notify:      notify,
		successURL:  successURL,
		cancelURL:   cancelURL,
	}
}

// newOrder builds the one Order shape both payment paths share, snapshotting
// the shipping address so later edits cannot rewrite history. Earnings are
// always total minus fee minus shipping.
func newOrder(product *model.Product, buyerID string, addr *model.Address, provider string, q fee.Breakdown, method model.PaymentMethod, paymentRef *string) *model.Order {
	o := &model.Order{
		ProductID:          product.ID,
		BuyerID:            buyerID,
		SellerID:           product.SellerID,
		TotalAmount:        q.Total,
		PlatformFee:        q.ProtectionFee,
		SellerEarnings:     q.Total.Sub(q.ProtectionFee).Sub(q.ShippingCost),
		ShippingCost:       q.ShippingCost,
		ShippingProvider:   provider,
		PaymentMethod:      method,
		ExternalPaymentRef: paymentRef,
		Status:             model.OrderStatusPaid,
	}
	if addr != nil {
		o.ShippingName = addr.Name
		o.ShippingLine1 = addr.Line1
		o.ShippingCity = addr.City
		o.ShippingPostalCode = addr.PostalCode
		o.ShippingCountry = addr.Country
	}
	return o
}

func (s *orderService) Preview(ctx context.Context, productID uint64, buyerID, provider string) (*fee.Breakdown, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	price, err := s.offers.EffectivePrice(ctx, product, buyerID)
	if err != nil {
		return nil, err
	}
	q := fee.Quote(price, provider)
	return &q, nil
}

// prepare runs the checks both purchase paths share and prices the order.
func (s *orderService) prepare(ctx context.Context, productID uint64, buyerID string, addressID uint64, provider string) (*model.Product, *model.Address, fee.Breakdown, error) {
	var q fee.Breakdown
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, q, ErrNotFound
		}
		return nil, nil, q, err
	}
	if product.Status == model.ProductStatusSold {
		return nil, nil, q, fmt.Errorf("%w: product already sold", ErrInvalidState)
	}
	if product.SellerID == buyerID {
		return nil, nil, q, fmt.Errorf("%w: cannot buy your own product", ErrInvalidState)
	}
	addr, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, q, ErrNotFound
		}
		return nil, nil, q, err
	}
	if addr.UserID != buyerID {
		return nil, nil, q, ErrNotFound
	}
	price, err := s.offers.EffectivePrice(ctx, product, buyerID)
	if err != nil {
		return nil, nil, q, err
	}
	return product, addr, fee.Quote(price, provider), nil
}

// Checkout opens a hosted gateway session. The metadata carries every amount
// the reconciliation side needs, because the confirmation event's echo of it
// is the only trustworthy record of what was charged.
func (s *orderService) Checkout(ctx context.Context, productID uint64, buyerID string, addressID uint64, provider string) (*payment.CheckoutSession, error) {
	product, addr, q, err := s.prepare(ctx, productID, buyerID, addressID, provider)
	if err != nil {
		return nil, err
	}
	params := payment.CheckoutParams{
		LineItems: []payment.LineItem{
			{Name: product.Title, AmountMinor: payment.MinorUnits(q.Price), Quantity: 1},
			{Name: "Buyer protection fee", AmountMinor: payment.MinorUnits(q.ProtectionFee), Quantity: 1},
			{Name: "Shipping (" + provider + ")", AmountMinor: payment.MinorUnits(q.ShippingCost), Quantity: 1},
		},
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata: map[string]string{
			"productId":        strconv.FormatUint(product.ID, 10),
			"buyerId":          buyerID,
			"sellerId":         product.SellerID,
			"addressId":        strconv.FormatUint(addr.ID, 10),
			"protectionFee":    q.ProtectionFee.String(),
			"shippingCost":     q.ShippingCost.String(),
			"totalAmount":      q.Total.String(),
			"shippingProvider": provider,
		},
	}
	return s.gateway.CreateCheckoutSession(ctx, params)
}

// PayWithWallet settles the purchase from the buyer's balance. Debit, stock
// decrement, order creation, escrow credit and both ledger entries commit
// together or not at all; a buyer short of funds or a lost stock race leaves
// every row untouched.
func (s *orderService) PayWithWallet(ctx context.Context, productID uint64, buyerID string, addressID uint64, provider string) (*model.Order, error) {
	product, addr, q, err := s.prepare(ctx, productID, buyerID, addressID, provider)
	if err != nil {
		return nil, err
	}
	order := newOrder(product, buyerID, addr, provider, q, model.PaymentMethodWallet, nil)

	err = repository.WithTransaction(s.db, func(tx *gorm.DB) error {
		wallets := s.walletRepo.WithTx(tx)
		rows, err := wallets.DebitBalance(ctx, buyerID, q.Total)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInsufficientFunds
		}
		rows, err = s.productRepo.WithTx(tx).DecrementStock(ctx, product.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: product no longer available", ErrInvalidState)
		}
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := wallets.AppendTransaction(ctx, &model.WalletTransaction{
			UserID:      buyerID,
			Amount:      q.Total.Neg(),
			Type:        model.TransactionTypeSale,
			Description: fmt.Sprintf("Payment for order #%d", order.ID),
		}); err != nil {
			return err
		}
		if err := wallets.CreditPending(ctx, product.SellerID, order.SellerEarnings); err != nil {
			return err
		}
		return wallets.AppendTransaction(ctx, &model.WalletTransaction{
			UserID:      product.SellerID,
			Amount:      order.SellerEarnings,
			Type:        model.TransactionTypeSale,
			Description: fmt.Sprintf("Sale proceeds (pending) for order #%d", order.ID),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, product.SellerID, "product_sold", "Your product sold",
		fmt.Sprintf("%q was paid for with wallet balance", product.Title), &product.ID, &order.ID, nil)
	s.notify.Notify(ctx, buyerID, "order_paid", "Payment confirmed",
		fmt.Sprintf("Your payment of %s for %q went through", q.Total.StringFixed(2), product.Title), &product.ID, &order.ID, nil)
	return order, nil
}

// UpdateStatus applies one state-machine transition. Shipping checkpoints
// belong to the seller; completion belongs to the buyer and releases the
// escrowed earnings, atomically with the status flip.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uint64, actorID string, newStatus string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch model.OrderStatus(newStatus) {
	case model.OrderStatusShipped:
		if actorID != order.SellerID {
			return nil, ErrForbidden
		}
		if err := s.transition(ctx, order.ID, []model.OrderStatus{model.OrderStatusPaid}, model.OrderStatusShipped); err != nil {
			return nil, err
		}
		s.notify.Notify(ctx, order.BuyerID, "order_shipped", "Order shipped",
			fmt.Sprintf("Order #%d is on its way", order.ID), &order.ProductID, &order.ID, nil)

	case model.OrderStatusDelivered:
		if actorID != order.SellerID {
			return nil, ErrForbidden
		}
		if err := s.transition(ctx, order.ID, []model.OrderStatus{model.OrderStatusPaid, model.OrderStatusShipped}, model.OrderStatusDelivered); err != nil {
			return nil, err
		}
		s.notify.Notify(ctx, order.BuyerID, "order_delivered", "Order delivered",
			fmt.Sprintf("Order #%d was marked delivered; confirm receipt to release the funds", order.ID), &order.ProductID, &order.ID, nil)

	case model.OrderStatusCompleted:
		if actorID != order.BuyerID {
			return nil, ErrForbidden
		}
		err := repository.WithTransaction(s.db, func(tx *gorm.DB) error {
			rows, err := s.orderRepo.WithTx(tx).Transition(ctx, order.ID,
				[]model.OrderStatus{model.OrderStatusShipped, model.OrderStatusDelivered}, model.OrderStatusCompleted)
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, order.Status)
			}
			wallets := s.walletRepo.WithTx(tx)
			rows, err = wallets.Release(ctx, order.SellerID, order.SellerEarnings)
			if err != nil {
				return err
			}
			if rows == 0 {
				return fmt.Errorf("release earnings for order #%d: pending balance short", order.ID)
			}
			return wallets.AppendTransaction(ctx, &model.WalletTransaction{
				UserID:      order.SellerID,
				Amount:      order.SellerEarnings,
				Type:        model.TransactionTypeDeposit,
				Description: fmt.Sprintf("Earnings released for order #%d", order.ID),
			})
		})
		if err != nil {
			return nil, err
		}
		s.notify.Notify(ctx, order.SellerID, "order_completed", "Funds released",
			fmt.Sprintf("The buyer confirmed order #%d; %s is now withdrawable", order.ID, order.SellerEarnings.StringFixed(2)),
			&order.ProductID, &order.ID, nil)

	case model.OrderStatusPaid:
		return nil, fmt.Errorf("%w: cannot move an order back to PAID", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderService) transition(ctx context.Context, orderID uint64, from []model.OrderStatus, to model.OrderStatus) error {
	rows, err := s.orderRepo.Transition(ctx, orderID, from, to)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: transition to %s not allowed", ErrInvalidState, to)
	}
	return nil
}

func (s *orderService) Get(ctx context.Context, orderID uint64, actorID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actorID != order.BuyerID && actorID != order.SellerID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID)
}

func (s *orderService) ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	return s.orderRepo.ListBySeller(ctx, sellerID)
}
