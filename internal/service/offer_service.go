package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OfferService negotiates prices. The most recently accepted offer for a
// (product, buyer) pair supersedes the list price when that buyer checks out.
type OfferService interface {
	Create(ctx context.Context, productID uint64, actorID, buyerID string, amount decimal.Decimal) (*model.Offer, error)
	Accept(ctx context.Context, offerID uint64, actorID string) (*model.Offer, error)
	Reject(ctx context.Context, offerID uint64, actorID string) (*model.Offer, error)
	ListByProduct(ctx context.Context, productID uint64, actorID string) ([]model.Offer, error)
	EffectivePrice(ctx context.Context, product *model.Product, buyerID string) (decimal.Decimal, error)
}

type offerService struct {
	offerRepo   repository.OfferRepository
	productRepo repository.ProductRepository
	notify      NotificationService
}

func NewOfferService(offerRepo repository.OfferRepository, productRepo repository.ProductRepository, notify NotificationService) OfferService {
	return &offerService{offerRepo: offerRepo, productRepo: productRepo, notify: notify}
}

// Create opens a PENDING offer. A buyer offers on someone else's product; a
// seller counter-offers and must name the buyer the counter targets.
func (s *offerService) Create(ctx context.Context, productID uint64, actorID, buyerID string, amount decimal.Decimal) (*model.Offer, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if product.Status == model.ProductStatusSold {
		return nil, fmt.Errorf("%w: product already sold", ErrInvalidState)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidState)
	}
	if amount.GreaterThan(product.Price) {
		return nil, fmt.Errorf("%w: offer above list price", ErrInvalidState)
	}
	if actorID == product.SellerID {
		// Counter-offer: the seller addresses a specific buyer.
		if buyerID == "" || buyerID == actorID {
			return nil, fmt.Errorf("%w: counter-offer needs a buyer", ErrInvalidState)
		}
	} else {
		buyerID = actorID
	}

	o := &model.Offer{
		ProductID: productID,
		BuyerID:   buyerID,
		SenderID:  actorID,
		Amount:    amount,
		Status:    model.OfferStatusPending,
	}
	if err := s.offerRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	counterpart := product.SellerID
	if actorID == product.SellerID {
		counterpart = buyerID
	}
	s.notify.Notify(ctx, counterpart, "offer_received", "New offer",
		fmt.Sprintf("You received an offer of %s on %q", amount.StringFixed(2), product.Title),
		&product.ID, nil, &o.ID)
	return o, nil
}

// Accept marks an offer ACCEPTED. Only the counterparty may accept: the actor
// must be the product owner or the offer's buyer, and never the offer's own
// sender. Accepted and rejected offers are terminal, so a second decision
// fails instead of silently overwriting.
func (s *offerService) Accept(ctx context.Context, offerID uint64, actorID string) (*model.Offer, error) {
	o, product, err := s.load(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorID != product.SellerID && actorID != o.BuyerID {
		return nil, ErrForbidden
	}
	if actorID == o.SenderID {
		return nil, fmt.Errorf("%w: cannot accept your own offer", ErrForbidden)
	}
	return s.transition(ctx, o, model.OfferStatusAccepted)
}

// Reject marks an offer REJECTED.
func (s *offerService) Reject(ctx context.Context, offerID uint64, actorID string) (*model.Offer, error) {
	o, product, err := s.load(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actorID != product.SellerID && actorID != o.BuyerID {
		return nil, ErrForbidden
	}
	return s.transition(ctx, o, model.OfferStatusRejected)
}

func (s *offerService) load(ctx context.Context, offerID uint64) (*model.Offer, *model.Product, error) {
	o, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	product, err := s.productRepo.FindByID(ctx, o.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return o, product, nil
}

func (s *offerService) transition(ctx context.Context, o *model.Offer, to model.OfferStatus) (*model.Offer, error) {
	rows, err := s.offerRepo.UpdateStatusIfPending(ctx, o.ID, to)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: offer already %s", ErrInvalidState, o.Status)
	}
	o.Status = to
	s.notify.Notify(ctx, o.SenderID, "offer_"+string(to), "Offer "+string(to),
		fmt.Sprintf("Your offer of %s was %s", o.Amount.StringFixed(2), to),
		&o.ProductID, nil, &o.ID)
	return o, nil
}

func (s *offerService) ListByProduct(ctx context.Context, productID uint64, actorID string) ([]model.Offer, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	offers, err := s.offerRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if actorID == product.SellerID {
		return offers, nil
	}
	// Buyers only see the offers they are a party to.
	mine := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if o.BuyerID == actorID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

// EffectivePrice is the amount the buyer actually pays: the newest ACCEPTED
// offer for the pair, or the list price when none exists.
func (s *offerService) EffectivePrice(ctx context.Context, product *model.Product, buyerID string) (decimal.Decimal, error) {
	o, err := s.offerRepo.LatestAccepted(ctx, product.ID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return product.Price, nil
		}
		return decimal.Zero, err
	}
	return o.Amount, nil
}
