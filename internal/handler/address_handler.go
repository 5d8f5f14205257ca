package handler

import (
	"net/http"

	"github.com/aokimura/marketplace-backend/internal/middleware"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	svc service.AddressService
}

func NewAddressHandler(svc service.AddressService) *AddressHandler {
	return &AddressHandler{svc: svc}
}

type AddressResponse struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func toAddressResponse(a *model.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID,
		Name:       a.Name,
		Line1:      a.Line1,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (h *AddressHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var body struct {
		Name       string `json:"name"`
		Line1      string `json:"line1"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	a, err := h.svc.Create(c.Request().Context(), id.UserID, &model.Address{
		Name:       body.Name,
		Line1:      body.Line1,
		City:       body.City,
		PostalCode: body.PostalCode,
		Country:    body.Country,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toAddressResponse(a))
}

func (h *AddressHandler) ListMine(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	list, err := h.svc.ListByUser(c.Request().Context(), id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]AddressResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toAddressResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
