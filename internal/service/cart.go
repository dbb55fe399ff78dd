package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// CartService mutates a user's cart. Every operation runs behind the auth
// middleware; userID here is always a verified token subject.
//
// Stock is deliberately NOT checked when items enter the cart — a cart is
// a wishlist until checkout, which is where stock is validated and
// decremented.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewCartService creates a CartService.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		users:    users,
		logger:   logger,
	}
}

// AddItem inserts a cart line or increments an existing one by quantity.
// Returns the updated cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) ([]model.CartLine, error) {
	if productID == "" {
		return nil, apperror.ValidationFailed("productId", "product id is required")
	}
	if quantity < 1 {
		return nil, apperror.ValidationFailed("quantity", "quantity must be at least 1")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	// The product must exist; its stock level is irrelevant here.
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.carts.AddItem(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("service/cart: adding item: %w", err)
	}

	s.logger.Info("cart item added",
		slog.String("userID", userID),
		slog.String("productID", productID),
		slog.Int("quantity", quantity),
	)

	return s.carts.GetCart(ctx, userID)
}

// RemoveItem deletes the cart line for productID. Removing an absent line
// is an error-free no-op; the resulting cart is returned either way.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) ([]model.CartLine, error) {
	if productID == "" {
		return nil, apperror.ValidationFailed("productId", "product id is required")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("service/cart: removing item: %w", err)
	}

	s.logger.Info("cart item removed",
		slog.String("userID", userID),
		slog.String("productID", productID),
	)

	return s.carts.GetCart(ctx, userID)
}

// SetQuantity sets a line to an exact quantity. A quantity <= 0 removes
// the line — zero-quantity lines are never stored.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) ([]model.CartLine, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if productID == "" {
		return nil, apperror.ValidationFailed("productId", "product id is required")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.carts.SetQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("service/cart: setting quantity: %w", err)
	}

	return s.carts.GetCart(ctx, userID)
}

// GetCart returns the user's cart lines in insertion order.
func (s *CartService) GetCart(ctx context.Context, userID string) ([]model.CartLine, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.carts.GetCart(ctx, userID)
}

// requireUser rejects valid tokens for accounts that no longer exist.
func (s *CartService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("unknown user")
		}
		return fmt.Errorf("service/cart: fetching user %s: %w", userID, err)
	}
	return nil
}
