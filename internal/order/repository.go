package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mobimart-be/internal/logger"
	"mobimart-be/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrderTx converts the user's cart into an order as one atomic
	// unit: order insert, frozen item inserts, conditional stock
	// decrements, cart clear. Either everything commits or nothing does.
	CreateOrderTx(ctx context.Context, params CreateOrderParams) (*Order, error)

	// CancelOrderTx flips the order to cancelled and restores its reserved
	// stock, the exact inverse of creation's decrements.
	CancelOrderTx(ctx context.Context, orderID string) error

	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, params UpdateStatusParams) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// translateErr maps storage-level concurrency aborts to the retryable
// conflict error; everything else passes through unchanged.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrTransactionConflict
		}
	}
	return err
}

func (r *repository) CreateOrderTx(ctx context.Context, params CreateOrderParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("user_id", params.UserID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, translateErr(err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// 1. Read the cart with live product data
	rows, err := tx.QueryContext(ctx, `
		SELECT c.product_id, c.quantity, p.name, p.price
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
	`, params.UserID)
	if err != nil {
		log.Error("failed to read cart", zap.Error(err))
		return nil, translateErr(err)
	}

	type cartLine struct {
		productID   string
		quantity    int
		productName string
		price       int64
	}

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.productID, &l.quantity, &l.productName, &l.price); err != nil {
			rows.Close()
			return nil, translateErr(err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, translateErr(err)
	}
	rows.Close()

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. Total from prices captured in this same transaction
	var total int64
	for _, l := range lines {
		total += int64(l.quantity) * l.price
	}

	// 3. Insert the order
	order := &Order{
		UserID:          params.UserID,
		ShippingAddress: params.ShippingAddress,
		TotalAmount:     total,
		PaymentMethod:   params.PaymentMethod,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
	}

	addr := params.ShippingAddress
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, recipient_name, phone_number, house_number,
			street, ward, district, city,
			total_amount, payment_method, status, payment_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`,
		params.UserID,
		addr.RecipientName, addr.PhoneNumber, addr.HouseNumber,
		addr.Street, addr.Ward, addr.District, addr.City,
		total, params.PaymentMethod, order.Status, order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, translateErr(err)
	}

	// 4. Freeze line items and decrement stock
	for _, l := range lines {
		item := OrderItem{
			OrderID:   order.ID,
			ProductID: l.productID,
			Quantity:  l.quantity,
			Price:     l.price,
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, l.productID, l.quantity, l.price).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.String("product_id", l.productID),
				zap.Error(err),
			)
			return nil, translateErr(err)
		}

		// Conditional decrement: a concurrent order that got there first
		// makes this match zero rows, which aborts the whole transaction.
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`, l.quantity, l.productID)
		if err != nil {
			log.Error("failed to decrement stock",
				zap.String("product_id", l.productID),
				zap.Error(err),
			)
			return nil, translateErr(err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, translateErr(err)
		}
		if affected == 0 {
			log.Warn("insufficient stock, aborting order",
				zap.String("product_id", l.productID),
				zap.Int("quantity", l.quantity),
			)
			return nil, &InsufficientStockError{
				ProductID:   l.productID,
				ProductName: l.productName,
			}
		}

		order.Items = append(order.Items, item)
	}

	// 5. Clear the cart inside the same transaction
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, params.UserID); err != nil {
		log.Error("failed to clear cart", zap.Error(err))
		return nil, translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return nil, translateErr(err)
	}
	committed = true

	log.Info("order created",
		zap.String("order_id", order.ID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int("item_count", len(order.Items)),
	)

	return order, nil
}

func (r *repository) CancelOrderTx(ctx context.Context, orderID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CancelOrderTx"),
		zap.String("order_id", orderID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// Lock the order row so the status check and flip are one unit.
	var current OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE
	`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return translateErr(err)
	}

	if current != StatusPending && current != StatusProcessing {
		return &InvalidStateTransitionError{From: current, To: StatusCancelled}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, StatusCancelled, orderID); err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return translateErr(err)
	}

	// Restore stock, the inverse of creation's decrements. Products
	// deleted from the catalog since the order simply match no row.
	itemRows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return translateErr(err)
	}

	type restock struct {
		productID string
		quantity  int
	}
	var restocks []restock
	for itemRows.Next() {
		var rs restock
		if err := itemRows.Scan(&rs.productID, &rs.quantity); err != nil {
			itemRows.Close()
			return translateErr(err)
		}
		restocks = append(restocks, rs)
	}
	if err := itemRows.Err(); err != nil {
		itemRows.Close()
		return translateErr(err)
	}
	itemRows.Close()

	for _, rs := range restocks {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = NOW()
			WHERE id = $2
		`, rs.quantity, rs.productID); err != nil {
			log.Error("failed to restore stock",
				zap.String("product_id", rs.productID),
				zap.Error(err),
			)
			return translateErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit cancel transaction", zap.Error(err))
		return translateErr(err)
	}
	committed = true

	log.Info("order cancelled, stock restored",
		zap.Int("item_count", len(restocks)),
	)

	return nil
}

const orderColumns = `
	o.id, o.user_id,
	o.recipient_name, o.phone_number, o.house_number,
	o.street, o.ward, o.district, o.city,
	o.total_amount, o.payment_method, o.status, o.payment_status,
	o.created_at, o.updated_at
`

func scanOrder(scanner interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := scanner.Scan(
		&o.ID, &o.UserID,
		&o.ShippingAddress.RecipientName, &o.ShippingAddress.PhoneNumber,
		&o.ShippingAddress.HouseNumber, &o.ShippingAddress.Street,
		&o.ShippingAddress.Ward, &o.ShippingAddress.District,
		&o.ShippingAddress.City,
		&o.TotalAmount, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`,
			u.name, u.email
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, orderID)

	var o Order
	var userName, userEmail sql.NullString
	err := row.Scan(
		&o.ID, &o.UserID,
		&o.ShippingAddress.RecipientName, &o.ShippingAddress.PhoneNumber,
		&o.ShippingAddress.HouseNumber, &o.ShippingAddress.Street,
		&o.ShippingAddress.Ward, &o.ShippingAddress.District,
		&o.ShippingAddress.City,
		&o.TotalAmount, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.CreatedAt, &o.UpdatedAt,
		&userName, &userEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if userName.Valid {
		o.User = &OrderUser{ID: o.UserID, Name: userName.String, Email: userEmail.String}
	} else {
		// account deleted after the order; keep the order readable
		o.User = &OrderUser{ID: o.UserID, Name: "Deleted account", Deleted: true}
	}

	if err := r.loadItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}

	return &o, nil
}

// loadItems attaches frozen line items, resolving products where they
// still exist and synthesizing placeholders where they do not.
func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
			p.name, p.image
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		var pName, pImage sql.NullString
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.Price,
			&pName, &pImage,
		); err != nil {
			return err
		}

		if pName.Valid {
			item.Product = &product.Product{
				ID:    item.ProductID,
				Name:  pName.String,
				Image: pImage.String,
				Price: item.Price,
			}
		} else {
			item.Product = product.Placeholder(item.ProductID)
			item.Product.Price = item.Price
		}

		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	return rows.Err()
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]*Order, int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
	)

	// ---------- pagination ----------
	finalLimit := int32(10)
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

	// ---------- filtering ----------
	query := `WHERE 1=1`
	args := []any{}
	argIndex := 1

	if params.Status != nil && *params.Status != "" {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *params.Status)
		argIndex++
	}
	if params.DateFrom != nil {
		query += fmt.Sprintf(" AND o.created_at >= $%d", argIndex)
		args = append(args, *params.DateFrom)
		argIndex++
	}
	if params.DateTo != nil {
		query += fmt.Sprintf(" AND o.created_at <= $%d", argIndex)
		args = append(args, *params.DateTo)
		argIndex++
	}
	if params.Search != nil && *params.Search != "" {
		query += fmt.Sprintf(
			" AND (o.recipient_name ILIKE $%d OR o.phone_number ILIKE $%d)",
			argIndex, argIndex,
		)
		args = append(args, "%"+*params.Search+"%")
		argIndex++
	}

	// ---------- count ----------
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders o `+query, args...,
	).Scan(&total); err != nil {
		log.Error("count query failed", zap.Error(err))
		return nil, 0, err
	}

	// ---------- sorting (whitelisted) ----------
	orderBy := "o.created_at"
	switch params.SortBy {
	case "total_amount":
		orderBy = "o.total_amount"
	case "status":
		orderBy = "o.status"
	case "created_at", "":
		orderBy = "o.created_at"
	}

	dir := "DESC"
	if strings.EqualFold(params.SortDir, "asc") {
		dir = "ASC"
	}

	query += " ORDER BY " + orderBy + " " + dir
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders o `+query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	log.Info("orders listed",
		zap.Int("count", len(orders)),
		zap.Int64("total", total),
	)

	return orders, total, nil
}

// UpdateStatus is the administrative override: it writes the given status
// values regardless of the order's current state and never touches stock.
func (r *repository) UpdateStatus(ctx context.Context, orderID string, params UpdateStatusParams) error {
	set := []string{"updated_at = NOW()"}
	args := []any{}
	argIndex := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *params.Status)
		argIndex++
	}
	if params.PaymentStatus != nil {
		set = append(set, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, *params.PaymentStatus)
		argIndex++
	}

	args = append(args, orderID)
	query := fmt.Sprintf(
		"UPDATE orders SET %s WHERE id = $%d",
		strings.Join(set, ", "), argIndex,
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
