package service

import (
	"context"
	"fmt"

	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/repository"
)

type AddressService interface {
	Create(ctx context.Context, userID string, a *model.Address) (*model.Address, error)
	ListByUser(ctx context.Context, userID string) ([]model.Address, error)
}

type addressService struct {
	repo repository.AddressRepository
}

func NewAddressService(repo repository.AddressRepository) AddressService {
	return &addressService{repo: repo}
}

func (s *addressService) Create(ctx context.Context, userID string, a *model.Address) (*model.Address, error) {
	if a.Name == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return nil, fmt.Errorf("%w: all address fields are required", ErrInvalidInput)
	}
	a.ID = 0
	a.UserID = userID
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *addressService) ListByUser(ctx context.Context, userID string) ([]model.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}
