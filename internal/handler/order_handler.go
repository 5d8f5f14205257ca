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
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type OrderResponse struct {
	ID               uint64  `json:"id"`
	ProductID        uint64  `json:"productId"`
	BuyerID          string  `json:"buyerId"`
	SellerID         string  `json:"sellerId"`
	TotalAmount      string  `json:"totalAmount"`
	PlatformFee      string  `json:"platformFee"`
	SellerEarnings   string  `json:"sellerEarnings"`
	ShippingCost     string  `json:"shippingCost"`
	ShippingProvider string  `json:"shippingProvider"`
	PaymentMethod    string  `json:"paymentMethod"`
	Status           string  `json:"status"`
	ShippedAt        *string `json:"shippedAt,omitempty"`
	DeliveredAt      *string `json:"deliveredAt,omitempty"`
	CompletedAt      *string `json:"completedAt,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	val := t.Format(time.RFC3339)
	return &val
}

func toOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		ProductID:        o.ProductID,
		BuyerID:          o.BuyerID,
		SellerID:         o.SellerID,
		TotalAmount:      o.TotalAmount.StringFixed(2),
		PlatformFee:      o.PlatformFee.StringFixed(2),
		SellerEarnings:   o.SellerEarnings.StringFixed(2),
		ShippingCost:     o.ShippingCost.StringFixed(2),
		ShippingProvider: o.ShippingProvider,
		PaymentMethod:    string(o.PaymentMethod),
		Status:           string(o.Status),
		ShippedAt:        formatTimePtr(o.ShippedAt),
		DeliveredAt:      formatTimePtr(o.DeliveredAt),
		CompletedAt:      formatTimePtr(o.CompletedAt),
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *OrderHandler) Preview(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid product id"))
	}
	q, err := h.svc.Preview(c.Request().Context(), productID, id.UserID, c.QueryParam("provider"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"price":         q.Price.StringFixed(2),
		"protectionFee": q.ProtectionFee.StringFixed(2),
		"shippingCost":  q.ShippingCost.StringFixed(2),
		"total":         q.Total.StringFixed(2),
	})
}

type checkoutRequest struct {
	AddressID        uint64 `json:"addressId"`
	ShippingProvider string `json:"shippingProvider"`
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid product id"))
	}
	var body checkoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	session, err := h.svc.Checkout(c.Request().Context(), productID, id.UserID, body.AddressID, body.ShippingProvider)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url":       session.URL,
		"sessionId": session.ID,
	})
}

func (h *OrderHandler) PayWithWallet(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid product id"))
	}
	var body checkoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	order, err := h.svc.PayWithWallet(c.Request().Context(), productID, id.UserID, body.AddressID, body.ShippingProvider)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid order id"))
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	order, err := h.svc.UpdateStatus(c.Request().Context(), orderID, id.UserID, body.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid order id"))
	}
	order, err := h.svc.Get(c.Request().Context(), orderID, id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	return h.list(c, h.svc.ListByBuyer)
}

func (h *OrderHandler) ListSales(c echo.Context) error {
	return h.list(c, h.svc.ListBySeller)
}

func (h *OrderHandler) list(c echo.Context, fn func(ctx context.Context, userID string) ([]model.Order, error)) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	list, err := fn(c.Request().Context(), id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
