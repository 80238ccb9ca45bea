package cart

import (
	"context"

	"mobimart-be/internal/logger"
	"mobimart-be/internal/product"
	"mobimart-be/internal/utils"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddItem(ctx context.Context, params AddItemParams) ([]*CartItem, error)
	GetCart(ctx context.Context) ([]*CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

// AddItem adds a product to the acting user's cart. Re-adding a product the
// cart already holds increments the existing line instead of creating a
// duplicate. Stock is not checked here; order creation enforces it.
func (s *service) AddItem(ctx context.Context, params AddItemParams) ([]*CartItem, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	// product must exist and 404s bubble up as-is
	if _, err := s.productRepo.GetByID(ctx, params.ProductID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItemByUserAndProduct(ctx, userID, params.ProductID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		_, err = s.repo.CreateItem(ctx, CreateItemParams{
			UserID:    userID,
			ProductID: params.ProductID,
			Quantity:  params.Quantity,
		})
	} else {
		_, err = s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+params.Quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.GetCartRows(ctx, userID)
}

// GetCart returns the cart with lines resolved to current product data.
func (s *service) GetCart(ctx context.Context) ([]*CartItem, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	return s.repo.GetCartRows(ctx, userID)
}

// UpdateItemQuantity overwrites a line's quantity. A quantity of zero or
// less removes the line, matching explicit removal.
func (s *service) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotAuthenticated
	}

	item, err := s.repo.GetItemByID(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}

	if quantity <= 0 {
		return s.repo.RemoveItem(ctx, userID, itemID)
	}

	_, err = s.repo.UpdateItemQuantity(ctx, item.ID, quantity)
	return err
}

// RemoveItem deletes a line; removing an absent line is a no-op.
func (s *service) RemoveItem(ctx context.Context, itemID string) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotAuthenticated
	}

	return s.repo.RemoveItem(ctx, userID, itemID)
}

func (s *service) Clear(ctx context.Context) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotAuthenticated
	}

	if err := s.repo.ClearCart(ctx, userID); err != nil {
		logger.FromCtx(ctx).Error("failed to clear cart",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
