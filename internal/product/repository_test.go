package product

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "slug", "description", "brand", "category", "image",
		"price", "stock", "featured", "created_at", "updated_at",
	})
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := productRows().AddRow(
			"prod-1", "Phone-X", "phone-x", "flagship", "Acme", "phones", "x.jpg",
			int64(12000000), 5, true, time.Now(), time.Now(),
		)

		mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
			WithArgs("prod-1").
			WillReturnRows(rows)

		p, err := repo.GetByID(ctx, "prod-1")
		assert.NoError(t, err)
		assert.Equal(t, "Phone-X", p.Name)
		assert.Equal(t, int64(12000000), p.Price)
		assert.Equal(t, 5, p.Stock)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
			WithArgs("missing").
			WillReturnRows(productRows())

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success with category filter", func(t *testing.T) {
		category := "phones"

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE 1=1 AND category = \$1`).
			WithArgs(category).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := productRows().AddRow(
			"prod-1", "Phone-X", "phone-x", "flagship", "Acme", "phones", "x.jpg",
			int64(12000000), 5, false, time.Now(), time.Now(),
		)
		mock.ExpectQuery(`SELECT .* FROM products WHERE 1=1 AND category = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(category, int32(20), int32(0)).
			WillReturnRows(rows)

		products, total, err := repo.List(ctx, ListParams{Category: &category})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, products, 1)
	})
}
