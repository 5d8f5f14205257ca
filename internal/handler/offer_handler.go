package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aokimura/marketplace-backend/internal/middleware"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OfferHandler struct {
	svc service.OfferService
}

func NewOfferHandler(svc service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

type OfferResponse struct {
	ID        uint64 `json:"id"`
	ProductID uint64 `json:"productId"`
	BuyerID   string `json:"buyerId"`
	SenderID  string `json:"senderId"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func toOfferResponse(o *model.Offer) OfferResponse {
	return OfferResponse{
		ID:        o.ID,
		ProductID: o.ProductID,
		BuyerID:   o.BuyerID,
		SenderID:  o.SenderID,
		Amount:    o.Amount.StringFixed(2),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *OfferHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var body struct {
		ProductID uint64 `json:"productId"`
		BuyerID   string `json:"buyerId"`
		Amount    string `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid amount"))
	}
	o, err := h.svc.Create(c.Request().Context(), body.ProductID, id.UserID, body.BuyerID, amount)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toOfferResponse(o))
}

func (h *OfferHandler) Accept(c echo.Context) error {
	return h.decide(c, h.svc.Accept)
}

func (h *OfferHandler) Reject(c echo.Context) error {
	return h.decide(c, h.svc.Reject)
}

func (h *OfferHandler) decide(c echo.Context, fn func(ctx context.Context, offerID uint64, actorID string) (*model.Offer, error)) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	offerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid offer id"))
	}
	o, err := fn(c.Request().Context(), offerID, id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOfferResponse(o))
}

func (h *OfferHandler) ListByProduct(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid product id"))
	}
	list, err := h.svc.ListByProduct(c.Request().Context(), productID, id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]OfferResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOfferResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
