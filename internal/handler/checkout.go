package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/auth"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
	"github.com/sakif/storefront/internal/service"
)

// CheckoutHandler serves sale recording and batch purchase. Auth required
// on both routes.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(checkout *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

type recordSaleRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type completePurchaseRequest struct {
	Items []repository.CheckoutItem `json:"items"`
}

type purchaseResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Receipt *model.Receipt `json:"receipt"`
}

// HandleRecordSale records a single-item sale.
//
// HTTP: POST /sales/recordSale {productId, quantity, price}
func (h *CheckoutHandler) HandleRecordSale(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	var req recordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	receipt, err := h.checkout.RecordSale(r.Context(), userID, req.ProductID, req.Quantity, req.Price)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, purchaseResponse{
		Success: true,
		Message: "Sale recorded successfully",
		Receipt: receipt,
	})
}

// HandleSalesHistory returns a page of the authenticated user's
// purchases, newest first.
//
// HTTP: GET /sales/history?page&limit
func (h *CheckoutHandler) HandleSalesHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	q := r.URL.Query()
	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), service.DefaultPageLimit)

	sales, err := h.checkout.SalesHistory(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

// HandleCompletePurchase applies a whole checkout batch atomically.
//
// HTTP: POST /sales/completepurchase {items: [{productId, quantity, price}]}
// A failed line (unknown product, insufficient stock) fails the whole
// batch; the error names the offending product.
func (h *CheckoutHandler) HandleCompletePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	var req completePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	receipt, err := h.checkout.CompletePurchase(r.Context(), userID, req.Items)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		Success: true,
		Message: "Purchase completed successfully.",
		Receipt: receipt,
	})
}
