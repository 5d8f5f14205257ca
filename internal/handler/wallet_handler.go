package handler

import (
	"net/http"
	"time"

	"github.com/aokimura/marketplace-backend/internal/middleware"
	"github.com/aokimura/marketplace-backend/internal/model"
	"github.com/aokimura/marketplace-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	svc service.WalletService
}

func NewWalletHandler(svc service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type WalletTransactionResponse struct {
	ID          uint64 `json:"id"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type WalletResponse struct {
	Balance      string                      `json:"balance"`
	Pending      string                      `json:"pending"`
	Transactions []WalletTransactionResponse `json:"transactions"`
}

func toWalletResponse(w *model.Wallet, txs []model.WalletTransaction) WalletResponse {
	resp := WalletResponse{
		Balance:      w.Balance.StringFixed(2),
		Pending:      w.Pending.StringFixed(2),
		Transactions: make([]WalletTransactionResponse, 0, len(txs)),
	}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, WalletTransactionResponse{
			ID:          t.ID,
			Amount:      t.Amount.StringFixed(2),
			Type:        string(t.Type),
			Description: t.Description,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func (h *WalletHandler) Get(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	w, txs, err := h.svc.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toWalletResponse(w, txs))
}

func (h *WalletHandler) Withdraw(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
	}
	var body struct {
		Amount string `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid request body"))
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid amount"))
	}
	w, err := h.svc.Withdraw(c.Request().Context(), id.UserID, amount)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"balance": w.Balance.StringFixed(2),
		"pending": w.Pending.StringFixed(2),
	})
}
