package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mobimart-be/internal/logger"

	"go.uber.org/zap"
)

type ListParams struct {
	Category *string
	Brand    *string
	Featured *bool
	Search   *string
	Limit    *int32
	Page     *int32
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	id, name, slug, description, brand, category, image,
	price, stock, featured, created_at, updated_at
`

func scanProduct(row *sql.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.Category,
		&p.Image, &p.Price, &p.Stock, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]*Product, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListProducts"),
	)

	// ---------- pagination ----------
	finalLimit := int32(20)
	if params.Limit != nil && *params.Limit > 0 {
		finalLimit = *params.Limit
	}
	if finalLimit > 100 {
		finalLimit = 100
	}

	finalPage := int32(1)
	if params.Page != nil && *params.Page > 0 {
		finalPage = *params.Page
	}
	offset := (finalPage - 1) * finalLimit

	// ---------- where ----------
	where := []string{"1=1"}
	args := []any{}

	if params.Category != nil && *params.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *params.Category)
	}
	if params.Brand != nil && *params.Brand != "" {
		where = append(where, fmt.Sprintf("brand = $%d", len(args)+1))
		args = append(args, *params.Brand)
	}
	if params.Featured != nil {
		where = append(where, fmt.Sprintf("featured = $%d", len(args)+1))
		args = append(args, *params.Featured)
	}
	if params.Search != nil && *params.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR brand ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+*params.Search+"%")
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE `+whereClause, args...,
	).Scan(&total)
	if err != nil {
		log.Error("count query failed", zap.Error(err))
		return nil, 0, err
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)

	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]*Product, 0, finalLimit)
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.Category,
			&p.Image, &p.Price, &p.Stock, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, 0, err
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, 0, err
	}

	return products, total, nil
}
