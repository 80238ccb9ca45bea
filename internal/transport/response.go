package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"mobimart-be/internal/cart"
	"mobimart-be/internal/logger"
	"mobimart-be/internal/order"
	"mobimart-be/internal/product"
	"mobimart-be/internal/user"
	"mobimart-be/internal/utils"

	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and answered with a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr     *order.ValidationError
		stockErr *order.InsufficientStockError
		tErr     *order.InvalidStateTransitionError
	)

	switch {
	case errors.As(err, &vErr),
		errors.As(err, &tErr),
		errors.As(err, &stockErr),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, order.ErrUserNotAuthenticated),
		errors.Is(err, cart.ErrUserNotAuthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, err.Error(), nil)

	case errors.Is(err, order.ErrForbidden):
		writeJSON(w, http.StatusForbidden, err.Error(), nil)

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, product.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, err.Error(), nil)

	// retryable contention and duplicate registration both answer 409
	case errors.Is(err, order.ErrTransactionConflict),
		errors.Is(err, user.ErrEmailExists):
		writeJSON(w, http.StatusConflict, err.Error(), nil)

	default:
		logger.FromCtx(r.Context()).Error("unhandled error", zap.Error(err))
		msg := "internal server error"
		if utils.IsAdmin(r.Context()) {
			msg = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, msg, nil)
	}
}
