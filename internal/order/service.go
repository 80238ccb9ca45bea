package order

import (
	"context"
	"errors"
	"time"

	"mobimart-be/internal/event"
	"mobimart-be/internal/logger"
	"mobimart-be/internal/metrics"
	"mobimart-be/internal/utils"

	"go.uber.org/zap"
)

type CreateOrderInput struct {
	ShippingAddress ShippingAddress
	PaymentMethod   string
}

type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*Order, error)
	Cancel(ctx context.Context, orderID string) (*Order, error)
	GetDetail(ctx context.Context, orderID string) (*Order, error)
	ListMine(ctx context.Context) ([]*Order, error)
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, params UpdateStatusParams) (*Order, error)
}

type service struct {
	repo      Repository
	publisher event.Publisher
	metrics   *metrics.Metrics
}

func NewService(repo Repository, publisher event.Publisher, m *metrics.Metrics) Service {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &service{repo: repo, publisher: publisher, metrics: m}
}

func validateShippingAddress(addr ShippingAddress) error {
	fields := []struct {
		name  string
		value string
	}{
		{"recipient_name", addr.RecipientName},
		{"phone_number", addr.PhoneNumber},
		{"house_number", addr.HouseNumber},
		{"street", addr.Street},
		{"ward", addr.Ward},
		{"district", addr.District},
		{"city", addr.City},
	}

	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "required"}
		}
	}

	return nil
}

// Create converts the acting user's cart into an order. All persisted
// effects (order row, stock decrements, cart clear) happen in one storage
// transaction; any failure leaves everything untouched.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("user_id", userID),
	)

	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	method := PaymentMethod(input.PaymentMethod)
	if method == "" {
		method = PaymentMethodCOD
	}
	if !method.IsValid() {
		return nil, &ValidationError{Field: "payment_method", Reason: "unknown method"}
	}

	order, err := s.repo.CreateOrderTx(ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   method,
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) || errors.Is(err, ErrTransactionConflict) {
			if s.metrics != nil {
				s.metrics.StockConflicts.Inc()
			}
		}
		log.Warn("order creation failed", zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}

	s.publish(ctx, event.OrderEvent{
		EventType: event.TypeOrderCreated,
		OrderID:   order.ID,
		UserID:    userID,
		ToStatus:  order.Status.String(),
	})

	log.Info("order created",
		zap.String("order_id", order.ID),
		zap.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// Cancel flips an order to cancelled and restores its reserved stock.
// Only the owner or an administrator may cancel, and only while the order
// is pending or processing.
func (s *service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID && !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	if !CanTransitionTo(order.Status, StatusCancelled) {
		return nil, &InvalidStateTransitionError{From: order.Status, To: StatusCancelled}
	}

	// The repository re-checks the status under a row lock, so a
	// concurrent cancel or ship cannot slip between check and flip.
	if err := s.repo.CancelOrderTx(ctx, orderID); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelled.Inc()
	}

	s.publish(ctx, event.OrderEvent{
		EventType:  event.TypeOrderCancelled,
		OrderID:    orderID,
		UserID:     order.UserID,
		FromStatus: order.Status.String(),
		ToStatus:   StatusCancelled.String(),
	})

	return s.repo.GetByID(ctx, orderID)
}

// GetDetail returns one order; shoppers only see their own.
func (s *service) GetDetail(ctx context.Context, orderID string) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID && !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *service) ListMine(ctx context.Context) ([]*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}

	return s.repo.ListByUser(ctx, userID)
}

func (s *service) List(ctx context.Context, params ListParams) ([]*Order, int64, error) {
	if !utils.IsAdmin(ctx) {
		return nil, 0, ErrForbidden
	}

	if params.Status != nil && !params.Status.IsValid() {
		return nil, 0, &ValidationError{Field: "status", Reason: "unknown status"}
	}

	return s.repo.List(ctx, params)
}

// UpdateStatus is the administrative override. It accepts any valid
// status/paymentStatus pair regardless of current state and is
// deliberately decoupled from the stock-safe cancellation path.
func (s *service) UpdateStatus(ctx context.Context, orderID string, params UpdateStatusParams) (*Order, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", orderID),
	)

	if params.Status == nil && params.PaymentStatus == nil {
		return nil, &ValidationError{Field: "status", Reason: "nothing to update"}
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if params.PaymentStatus != nil && !params.PaymentStatus.IsValid() {
		return nil, &ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if params.Status != nil && *params.Status == StatusCancelled {
		// The override does not restore stock; the cancellation
		// transaction is the stock-safe path.
		log.Warn("administrative cancel without stock restoration",
			zap.String("previous_status", current.Status.String()),
		)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, params); err != nil {
		return nil, err
	}

	if params.Status != nil && *params.Status != current.Status {
		s.publish(ctx, event.OrderEvent{
			EventType:  event.TypeOrderStatusChanged,
			OrderID:    orderID,
			UserID:     current.UserID,
			FromStatus: current.Status.String(),
			ToStatus:   params.Status.String(),
		})
	}

	return s.repo.GetByID(ctx, orderID)
}

func (s *service) publish(ctx context.Context, evt event.OrderEvent) {
	evt.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("event_type", evt.EventType),
			zap.String("order_id", evt.OrderID),
			zap.Error(err),
		)
	}
}
