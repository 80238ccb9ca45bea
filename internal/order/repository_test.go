package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRepository(db), mock, func() { db.Close() }
}

func expectCartRead(mock sqlmock.Sqlmock, userID string, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT c.product_id, c.quantity, p.name, p.price
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
	`)).WithArgs(userID).WillReturnRows(rows)
}

func TestRepository_CreateOrderTx(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	now := time.Now()

	params := CreateOrderParams{
		UserID: userID,
		ShippingAddress: ShippingAddress{
			RecipientName: "Nguyen Van A",
			PhoneNumber:   "0900000000",
			HouseNumber:   "12",
			Street:        "Le Loi",
			Ward:          "Ben Nghe",
			District:      "1",
			City:          "Ho Chi Minh",
		},
		PaymentMethod: PaymentMethodCOD,
	}

	insertOrderRe := regexp.QuoteMeta("INSERT INTO orders (")
	insertItemRe := regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, quantity, price)")
	decrementRe := regexp.QuoteMeta(`
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`)
	clearCartRe := regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1")

	t.Run("Success", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		expectCartRead(mock, userID, sqlmock.NewRows(
			[]string{"product_id", "quantity", "name", "price"}).
			AddRow("prod-1", 2, "Phone-X", int64(12000000)).
			AddRow("prod-2", 1, "Phone-Y", int64(8000000)))

		mock.ExpectQuery(insertOrderRe).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("order-1", now, now))

		mock.ExpectQuery(insertItemRe).
			WithArgs("order-1", "prod-1", 2, int64(12000000)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("item-1"))
		mock.ExpectExec(decrementRe).
			WithArgs(2, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectQuery(insertItemRe).
			WithArgs("order-1", "prod-2", 1, int64(8000000)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("item-2"))
		mock.ExpectExec(decrementRe).
			WithArgs(1, "prod-2").
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(clearCartRe).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		order, err := repo.CreateOrderTx(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, "order-1", order.ID)
		assert.Equal(t, StatusPending, order.Status)
		assert.Equal(t, PaymentPending, order.PaymentStatus)
		assert.Equal(t, int64(32000000), order.TotalAmount)
		require.Len(t, order.Items, 2)
		assert.Equal(t, int64(12000000), order.Items[0].Price)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Empty cart rolls back", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		expectCartRead(mock, userID, sqlmock.NewRows(
			[]string{"product_id", "quantity", "name", "price"}))
		mock.ExpectRollback()

		_, err := repo.CreateOrderTx(ctx, params)

		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Insufficient stock rolls everything back", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		expectCartRead(mock, userID, sqlmock.NewRows(
			[]string{"product_id", "quantity", "name", "price"}).
			AddRow("prod-1", 99, "Phone-X", int64(12000000)))

		mock.ExpectQuery(insertOrderRe).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("order-1", now, now))
		mock.ExpectQuery(insertItemRe).
			WithArgs("order-1", "prod-1", 99, int64(12000000)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("item-1"))

		// conditional decrement touches no row: stock is short
		mock.ExpectExec(decrementRe).
			WithArgs(99, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CreateOrderTx(ctx, params)

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "prod-1", stockErr.ProductID)
		assert.Equal(t, "Phone-X", stockErr.ProductName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Serialization failure maps to conflict", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT c.product_id")).
			WithArgs(userID).
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()

		_, err := repo.CreateOrderTx(ctx, params)

		assert.ErrorIs(t, err, ErrTransactionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_CancelOrderTx(t *testing.T) {
	ctx := context.Background()

	lockRe := regexp.QuoteMeta("SELECT status FROM orders WHERE id = $1 FOR UPDATE")
	flipRe := regexp.QuoteMeta(`
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`)
	itemsRe := regexp.QuoteMeta("SELECT product_id, quantity FROM order_items WHERE order_id = $1")
	restoreRe := regexp.QuoteMeta(`
			UPDATE products
			SET stock = stock + $1, updated_at = NOW()
			WHERE id = $2
		`)

	t.Run("Success - restores stock for every line", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockRe).
			WithArgs("order-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
		mock.ExpectExec(flipRe).
			WithArgs(StatusCancelled, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(itemsRe).
			WithArgs("order-1").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
				AddRow("prod-1", 2).
				AddRow("prod-2", 1))
		mock.ExpectExec(restoreRe).
			WithArgs(2, "prod-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(restoreRe).
			WithArgs(1, "prod-2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CancelOrderTx(ctx, "order-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Order not found", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockRe).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		err := repo.CancelOrderTx(ctx, "ghost")

		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Shipped order cannot be cancelled", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockRe).
			WithArgs("order-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("shipped"))
		mock.ExpectRollback()

		err := repo.CancelOrderTx(ctx, "order-1")

		var tErr *InvalidStateTransitionError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, StatusShipped, tErr.From)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Already cancelled under the lock", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockRe).
			WithArgs("order-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
		mock.ExpectRollback()

		err := repo.CancelOrderTx(ctx, "order-1")

		var tErr *InvalidStateTransitionError
		assert.ErrorAs(t, err, &tErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func orderRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id",
		"recipient_name", "phone_number", "house_number",
		"street", "ward", "district", "city",
		"total_amount", "payment_method", "status", "payment_status",
		"created_at", "updated_at",
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	itemsRe := regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")

	t.Run("Success with live user and product", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{
			"id", "user_id",
			"recipient_name", "phone_number", "house_number",
			"street", "ward", "district", "city",
			"total_amount", "payment_method", "status", "payment_status",
			"created_at", "updated_at",
			"name", "email",
		}).AddRow(
			"order-1", "user-1",
			"Nguyen Van A", "0900000000", "12",
			"Le Loi", "Ben Nghe", "1", "Ho Chi Minh",
			int64(24000000), "cod", "pending", "pending",
			now, now,
			"Alice", "alice@example.com",
		)

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = o.user_id")).
			WithArgs("order-1").
			WillReturnRows(rows)
		mock.ExpectQuery(itemsRe).
			WithArgs(pq.Array([]string{"order-1"})).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "order_id", "product_id", "quantity", "price", "name", "image",
			}).AddRow("item-1", "order-1", "prod-1", 2, int64(12000000), "Phone-X", "phone-x.jpg"))

		order, err := repo.GetByID(ctx, "order-1")

		require.NoError(t, err)
		assert.Equal(t, "order-1", order.ID)
		assert.Equal(t, "Alice", order.User.Name)
		assert.False(t, order.User.Deleted)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Phone-X", order.Items[0].Product.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted user and product get placeholders", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{
			"id", "user_id",
			"recipient_name", "phone_number", "house_number",
			"street", "ward", "district", "city",
			"total_amount", "payment_method", "status", "payment_status",
			"created_at", "updated_at",
			"name", "email",
		}).AddRow(
			"order-1", "user-1",
			"Nguyen Van A", "0900000000", "12",
			"Le Loi", "Ben Nghe", "1", "Ho Chi Minh",
			int64(24000000), "cod", "delivered", "paid",
			now, now,
			nil, nil,
		)

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = o.user_id")).
			WithArgs("order-1").
			WillReturnRows(rows)
		mock.ExpectQuery(itemsRe).
			WithArgs(pq.Array([]string{"order-1"})).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "order_id", "product_id", "quantity", "price", "name", "image",
			}).AddRow("item-1", "order-1", "prod-1", 2, int64(12000000), nil, nil))

		order, err := repo.GetByID(ctx, "order-1")

		require.NoError(t, err)
		assert.True(t, order.User.Deleted)
		assert.Equal(t, "Deleted account", order.User.Name)
		require.Len(t, order.Items, 1)
		assert.True(t, order.Items[0].Product.Deleted)
		// frozen price survives the product's deletion
		assert.Equal(t, int64(12000000), order.Items[0].Product.Price)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error - Not found", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = o.user_id")).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(ctx, "ghost")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Status filter with pagination", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		status := StatusPending
		limit := int32(10)
		page := int32(1)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders o WHERE 1=1 AND o.status = $1")).
			WithArgs(status).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT(.+)FROM orders o WHERE 1=1 AND o.status = \\$1 ORDER BY o.created_at DESC LIMIT \\$2 OFFSET \\$3").
			WithArgs(status, limit, int32(0)).
			WillReturnRows(orderRow(now).AddRow(
				"order-1", "user-1",
				"Nguyen Van A", "0900000000", "12",
				"Le Loi", "Ben Nghe", "1", "Ho Chi Minh",
				int64(24000000), "cod", "pending", "pending",
				now, now,
			))

		mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
			WithArgs(pq.Array([]string{"order-1"})).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "order_id", "product_id", "quantity", "price", "name", "image",
			}))

		orders, total, err := repo.List(ctx, ListParams{
			Status: &status,
			Limit:  &limit,
			Page:   &page,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, StatusPending, orders[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Search matches recipient or phone", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		search := "0900"

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT COUNT(*) FROM orders o WHERE 1=1 AND (o.recipient_name ILIKE $1 OR o.phone_number ILIKE $1)")).
			WithArgs("%0900%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT(.+)FROM orders o WHERE 1=1").
			WithArgs("%0900%", int32(10), int32(0)).
			WillReturnRows(orderRow(now))

		orders, total, err := repo.List(ctx, ListParams{Search: &search})

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - both fields", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		status := StatusShipped
		pay := PaymentPaid

		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE orders SET updated_at = NOW(), status = $1, payment_status = $2 WHERE id = $3")).
			WithArgs(status, pay, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, "order-1", UpdateStatusParams{
			Status:        &status,
			PaymentStatus: &pay,
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - status only", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		status := StatusProcessing

		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE orders SET updated_at = NOW(), status = $1 WHERE id = $2")).
			WithArgs(status, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, "order-1", UpdateStatusParams{Status: &status})

		assert.NoError(t, err)
	})

	t.Run("Error - Not found", func(t *testing.T) {
		repo, mock, cleanup := newMockRepo(t)
		defer cleanup()

		status := StatusShipped

		mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET")).
			WithArgs(status, "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, "ghost", UpdateStatusParams{Status: &status})

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
