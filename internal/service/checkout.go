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

// CheckoutService converts cart line items into ledger entries.
//
// The atomicity contract lives in the CheckoutStore: a batch either fully
// applies (sales appended, stock decremented, counters bumped, cart lines
// cleared) or leaves no trace. This service owns the validation in front
// of it.
type CheckoutService struct {
	store  repository.CheckoutStore
	sales  repository.SaleRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(
	store repository.CheckoutStore,
	sales repository.SaleRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		store:  store,
		sales:  sales,
		users:  users,
		logger: logger,
	}
}

// CompletePurchase validates a checkout batch and applies it atomically.
// On success the receipt lists every created sale id.
func (s *CheckoutService) CompletePurchase(ctx context.Context, userID string, items []repository.CheckoutItem) (*model.Receipt, error) {
	if len(items) == 0 {
		return nil, apperror.ValidationFailed("items", "at least one item is required")
	}
	for i, item := range items {
		if item.ProductID == "" {
			return nil, apperror.ValidationFailed("items",
				fmt.Sprintf("item %d is missing a product id", i))
		}
		if item.Quantity < 1 {
			return nil, apperror.ValidationFailed("items",
				fmt.Sprintf("item %d has quantity %d, must be at least 1", i, item.Quantity))
		}
		if item.Price < 0 {
			return nil, apperror.ValidationFailed("items",
				fmt.Sprintf("item %d has a negative price", i))
		}
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	receipt, err := s.store.CompletePurchase(ctx, userID, items)
	if err != nil {
		// Not-found and insufficient-stock already carry which line
		// failed; log only unexpected failures.
		if !errors.Is(err, apperror.ErrNotFound) && !errors.Is(err, apperror.ErrInsufficientStock) {
			s.logger.Error("checkout failed",
				slog.String("userID", userID),
				slog.Int("items", len(items)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("purchase completed",
		slog.String("userID", userID),
		slog.String("checkoutID", receipt.CheckoutID),
		slog.Int("lines", len(receipt.SaleIDs)),
		slog.Float64("total", receipt.Total),
	)

	return receipt, nil
}

// RecordSale is the single-item checkout variant. Same transactional
// fetch-check-decrement-insert as a one-line batch.
func (s *CheckoutService) RecordSale(ctx context.Context, userID, productID string, quantity int, price float64) (*model.Receipt, error) {
	return s.CompletePurchase(ctx, userID, []repository.CheckoutItem{{
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	}})
}

// SalesHistory returns a page of the user's ledger entries, newest
// first. Entries survive product removal, so history can reference
// products no longer in the catalog.
func (s *CheckoutService) SalesHistory(ctx context.Context, userID string, page, limit int) ([]model.Sale, error) {
	page, limit = clampPaging(page, limit, DefaultPageLimit)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	sales, err := s.sales.ListSalesByUser(ctx, userID, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/checkout: listing sales for user %s: %w", userID, err)
	}
	return sales, nil
}

func (s *CheckoutService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("unknown user")
		}
		return fmt.Errorf("service/checkout: fetching user %s: %w", userID, err)
	}
	return nil
}
