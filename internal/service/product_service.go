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

type ProductService interface {
	Create(ctx context.Context, sellerID, title, description string, price decimal.Decimal, stock int) (*model.Product, error)
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, limit int) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) Create(ctx context.Context, sellerID, title, description string, price decimal.Decimal, stock int) (*model.Product, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller is required", ErrInvalidInput)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if stock <= 0 {
		stock = 1
	}
	p := &model.Product{
		SellerID:    sellerID,
		Title:       title,
		Description: description,
		Price:       price,
		Stock:       stock,
		Status:      model.ProductStatusAvailable,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, limit int) ([]model.Product, error) {
	return s.productRepo.List(ctx, limit)
}

func (s *productService) ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error) {
	return s.productRepo.ListBySeller(ctx, sellerID)
}
