package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aokimura/marketplace-backend/internal/fee"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/payment"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileService turns gateway confirmation events into authoritative
// order and wallet state, exactly once per payment reference. Delivery is
// at-least-once, so everything here has to tolerate replays and concurrent
// duplicates.
type ReconcileService interface {
	HandleEvent(ctx context.Context, ev *payment.Event) error
}

type reconcileService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	walletRepo  repository.WalletRepository
	addressRepo repository.AddressRepository
	notify      NotificationService
}

func NewReconcileService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	walletRepo repository.WalletRepository,
	addressRepo repository.AddressRepository,
	notify NotificationService,
) ReconcileService {
	return &reconcileService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		walletRepo:  walletRepo,
		addressRepo: addressRepo,
		notify:      notify,
	}
}

// checkoutMetadata is the session metadata the gateway echoes back. The
// amounts are the ones quoted when the session was created; the current
// product price is irrelevant here, the buyer paid what the event says.
type checkoutMetadata struct {
	productID     uint64
	buyerID       string
	sellerID      string
	addressID     uint64
	protectionFee decimal.Decimal
	shippingCost  decimal.Decimal
	totalAmount   decimal.Decimal
	provider      string
}

func parseMetadata(m map[string]string) (*checkoutMetadata, error) {
	var (
		md  checkoutMetadata
		err error
	)
	if md.productID, err = strconv.ParseUint(m["productId"], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: bad productId", ErrInvalidInput)
	}
	if md.addressID, err = strconv.ParseUint(m["addressId"], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: bad addressId", ErrInvalidInput)
	}
	if md.buyerID = m["buyerId"]; md.buyerID == "" {
		return nil, fmt.Errorf("%w: missing buyerId", ErrInvalidInput)
	}
	if md.sellerID = m["sellerId"]; md.sellerID == "" {
		return nil, fmt.Errorf("%w: missing sellerId", ErrInvalidInput)
	}
	if md.protectionFee, err = decimal.NewFromString(m["protectionFee"]); err != nil {
		return nil, fmt.Errorf("%w: bad protectionFee", ErrInvalidInput)
	}
	if md.shippingCost, err = decimal.NewFromString(m["shippingCost"]); err != nil {
		return nil, fmt.Errorf("%w: bad shippingCost", ErrInvalidInput)
	}
	if md.totalAmount, err = decimal.NewFromString(m["totalAmount"]); err != nil {
		return nil, fmt.Errorf("%w: bad totalAmount", ErrInvalidInput)
	}
	md.provider = m["shippingProvider"]
	return &md, nil
}

// HandleEvent processes a confirmed payment. Unknown event types are
// acknowledged without side effects. For a completed checkout it creates the
// order, moves the stock, and escrows the seller's earnings in one
// transaction; the unique payment reference makes a replay (or a concurrent
// duplicate delivery) a no-op.
func (s *reconcileService) HandleEvent(ctx context.Context, ev *payment.Event) error {
	if ev.Type != payment.EventCheckoutCompleted {
		slog.Info("ignoring gateway event", "type", ev.Type, "event", ev.ID)
		return nil
	}
	if ev.Data.SessionID == "" {
		return fmt.Errorf("%w: event missing session id", ErrInvalidInput)
	}
	md, err := parseMetadata(ev.Data.Metadata)
	if err != nil {
		return err
	}

	q := fee.Breakdown{
		Price:         md.totalAmount.Sub(md.protectionFee).Sub(md.shippingCost),
		ProtectionFee: md.protectionFee,
		ShippingCost:  md.shippingCost,
		Total:         md.totalAmount,
	}

	ref := ev.Data.SessionID
	var order *model.Order
	err = repository.WithTransaction(s.db, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		if _, err := orders.FindByPaymentRef(ctx, ref); err == nil {
			slog.Info("payment already reconciled", "session", ref)
			order = nil
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		product, err := s.productRepo.WithTx(tx).FindByID(ctx, md.productID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", md.productID, err)
		}
		var addr *model.Address
		if a, err := s.addressRepo.WithTx(tx).FindByID(ctx, md.addressID); err == nil && a.UserID == md.buyerID {
			addr = a
		} else {
			// The payment already happened; a deleted address only costs
			// the snapshot, never the money.
			slog.Warn("shipping address unavailable at reconciliation", "address", md.addressID, "session", ref)
		}

		order = newOrder(product, md.buyerID, addr, md.provider, q, model.PaymentMethodCard, &ref)
		order.SellerID = md.sellerID
		if err := orders.Create(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race against a concurrent delivery of the same
				// event; the winner did the work.
				slog.Info("duplicate payment reference", "session", ref)
				order = nil
				return errAlreadyReconciled
			}
			return err
		}

		// Stock floors at zero here: the money moved, so running out of
		// stock is logged, not failed.
		rows, err := s.productRepo.WithTx(tx).DecrementStock(ctx, product.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			slog.Warn("reconciled payment for product with no stock", "product", product.ID, "session", ref)
		}

		wallets := s.walletRepo.WithTx(tx)
		if err := wallets.CreditPending(ctx, md.sellerID, order.SellerEarnings); err != nil {
			return err
		}
		return wallets.AppendTransaction(ctx, &model.WalletTransaction{
			UserID:      md.sellerID,
			Amount:      order.SellerEarnings,
			Type:        model.TransactionTypeSale,
			Description: fmt.Sprintf("Sale proceeds (pending) for order #%d", order.ID),
		})
	})
	if errors.Is(err, errAlreadyReconciled) {
		return nil
	}
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	s.notify.Notify(ctx, order.SellerID, "product_sold", "Your product sold",
		fmt.Sprintf("Order #%d was paid by card; ship it to get your earnings", order.ID), &order.ProductID, &order.ID, nil)
	s.notify.Notify(ctx, order.BuyerID, "order_paid", "Payment confirmed",
		fmt.Sprintf("Your card payment of %s was confirmed", order.TotalAmount.StringFixed(2)), &order.ProductID, &order.ID, nil)
	return nil
}

// errAlreadyReconciled aborts the transaction without surfacing an error to
// the gateway: the duplicate insert's rollback must undo this attempt's
// writes, but the webhook still gets a 200.
var errAlreadyReconciled = errors.New("payment already reconciled")
