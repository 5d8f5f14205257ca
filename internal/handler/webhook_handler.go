package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aokimura/marketplace-backend/internal/payment"
	"github.com/aokimura/marketplace-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// WebhookHandler receives signed confirmation events from the payment
// gateway. It must see the raw request body: the signature covers the exact
// bytes on the wire, so this route stays outside anything that parses bodies.
type WebhookHandler struct {
	secret    []byte
	reconcile service.ReconcileService
}

func NewWebhookHandler(secret string, reconcile service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{secret: []byte(secret), reconcile: reconcile}
}

func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("gateway_error", "unreadable body"))
	}
	ev, err := payment.VerifyAndParse(h.secret, body, c.Request().Header.Get(payment.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("gateway_error", "signature verification failed"))
		}
		return c.JSON(http.StatusBadRequest, NewErrorResponse("gateway_error", "malformed event"))
	}
	if err := h.reconcile.HandleEvent(c.Request().Context(), ev); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("gateway_error", err.Error()))
		}
		// A 500 tells the gateway to redeliver; reconciliation is
		// idempotent, so the retry is safe.
		slog.Error("reconciliation failed", "event", ev.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "event processing failed"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
