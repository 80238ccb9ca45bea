package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart is empty, cannot create order")
	ErrForbidden            = errors.New("not allowed to access this order")
	ErrUserNotAuthenticated = errors.New("user not authenticated")

	// ErrTransactionConflict signals a storage-level abort caused by a
	// concurrent transaction. Nothing was persisted; the whole operation
	// can safely be retried.
	ErrTransactionConflict = errors.New("transaction conflict, retry the operation")
)

// ValidationError reports malformed input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError names the product that blocked order creation so
// the UI can highlight it. No partial order exists when it is returned.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductName)
}

// InvalidStateTransitionError reports a forbidden status change along with
// the order's current status.
type InvalidStateTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
