package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/auth"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/service"
)

// CartHandler serves the cart mutation/read routes. Every route here runs
// behind auth.RequireAuth.
type CartHandler struct {
	cart   *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a CartHandler.
func NewCartHandler(cart *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	Cart []model.CartLine `json:"cart"`
}

// HandleAddToCart inserts or increments a cart line.
//
// HTTP: POST /sales/addtocart {productId, quantity}
// A missing quantity defaults to 1, matching the increment-by-one
// behavior the storefront client expects.
func (h *CartHandler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeCartRequest(w, r)
	if !ok {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.cart.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// HandleRemoveFromCart deletes a cart line; absent lines are fine.
//
// HTTP: POST /sales/removefromcart {productId}
func (h *CartHandler) HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeCartRequest(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(r.Context(), userID, req.ProductID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// HandleUpdateQuantity sets a line's quantity exactly; <= 0 removes it.
//
// HTTP: POST /sales/updateQuantity {productId, quantity}
func (h *CartHandler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeCartRequest(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.SetQuantity(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// HandleGetCart returns the authenticated user's cart.
//
// HTTP: POST /sales/getcart
func (h *CartHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	cart, err := h.cart.GetCart(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// decodeCartRequest extracts the authenticated user and the JSON body
// shared by the cart mutation routes. On failure it writes the error
// response and returns ok=false.
func (h *CartHandler) decodeCartRequest(w http.ResponseWriter, r *http.Request) (string, cartItemRequest, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return "", cartItemRequest{}, false
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid JSON body"))
		return "", cartItemRequest{}, false
	}

	return userID, req, true
}
