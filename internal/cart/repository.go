package cart

import (
	"context"
	"database/sql"
	"errors"

	"mobimart-be/internal/logger"
	"mobimart-be/internal/product"

	"go.uber.org/zap"
)

type Repository interface {
	GetItemByUserAndProduct(ctx context.Context, userID, productID string) (*CartItem, error)
	GetItemByID(ctx context.Context, userID, itemID string) (*CartItem, error)
	CreateItem(ctx context.Context, params CreateItemParams) (*CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (*CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	ClearCart(ctx context.Context, userID string) error
	GetCartRows(ctx context.Context, userID string) ([]*CartItem, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetItemByUserAndProduct(
	ctx context.Context,
	userID, productID string,
) (*CartItem, error) {

	query := `
	SELECT id, user_id, product_id, quantity, created_at, updated_at
	FROM cart_items
	WHERE user_id = $1 AND product_id = $2
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) GetItemByID(
	ctx context.Context,
	userID, itemID string,
) (*CartItem, error) {

	query := `
	SELECT id, user_id, product_id, quantity, created_at, updated_at
	FROM cart_items
	WHERE id = $1 AND user_id = $2
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query, itemID, userID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) CreateItem(
	ctx context.Context,
	params CreateItemParams,
) (*CartItem, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateItem"),
		zap.String("user_id", params.UserID),
		zap.String("product_id", params.ProductID),
	)

	query := `
	INSERT INTO cart_items (user_id, product_id, quantity)
	VALUES ($1, $2, $3)
	RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query,
		params.UserID,
		params.ProductID,
		params.Quantity,
	).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, err
	}

	log.Info("cart item created", zap.String("cart_item_id", item.ID))

	return &item, nil
}

func (r *repository) UpdateItemQuantity(
	ctx context.Context,
	itemID string,
	quantity int,
) (*CartItem, error) {

	query := `
	UPDATE cart_items
	SET quantity = $1,
	    updated_at = NOW()
	WHERE id = $2
	RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	var item CartItem
	err := r.db.QueryRowContext(ctx, query, quantity, itemID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// RemoveItem deletes a cart line. Deleting an absent line is not an error;
// the shopper-facing flow treats it as already done.
func (r *repository) RemoveItem(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	return err
}

func (r *repository) ClearCart(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1
	`, userID)
	return err
}

// GetCartRows returns the user's cart lines joined to live product data.
func (r *repository) GetCartRows(ctx context.Context, userID string) ([]*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCartRows"),
		zap.String("user_id", userID),
	)

	query := `
	SELECT
		c.id,
		c.user_id,
		c.product_id,
		c.quantity,
		c.created_at,
		c.updated_at,

		p.id,
		p.name,
		p.slug,
		p.brand,
		p.category,
		p.image,
		p.price,
		p.stock
	FROM cart_items c
	JOIN products p ON c.product_id = p.id
	WHERE c.user_id = $1
	ORDER BY c.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*CartItem
	for rows.Next() {
		item := &CartItem{Product: &product.Product{}}
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,

			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Slug,
			&item.Product.Brand,
			&item.Product.Category,
			&item.Product.Image,
			&item.Product.Price,
			&item.Product.Stock,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	return items, nil
}
