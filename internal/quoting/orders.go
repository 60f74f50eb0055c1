package quoting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

// transitions lists the statuses an order may move to from each status.
var transitions = map[store.OrderStatus][]store.OrderStatus{
	store.StatusProcessing: {store.StatusPrinting, store.StatusCancelled},
	store.StatusPrinting:   {store.StatusShipped, store.StatusCancelled},
	store.StatusShipped:    {store.StatusDelivered},
}

// CanTransition reports whether an order in status from may move to status to.
// Staying in the same status is allowed so the tracking code can be updated.
func CanTransition(from, to store.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus validates a status name.
func ParseOrderStatus(raw string) (store.OrderStatus, error) {
	status := store.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case store.StatusProcessing, store.StatusPrinting, store.StatusShipped, store.StatusDelivered, store.StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown order status %q", pricing.ErrInvalidInput, raw)
	}
}

// OrderRequest turns a quote into an order.
type OrderRequest struct {
	QuoteID         int64
	ShippingAddress string
}

// CreateOrder places an order for a single quote at the quoted price.
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (store.Order, error) {
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return store.Order{}, fmt.Errorf("%w: shipping_address is required", pricing.ErrInvalidInput)
	}

	q, err := s.store.GetQuote(ctx, req.QuoteID)
	if err != nil {
		return store.Order{}, err
	}

	order, err := s.store.CreateOrder(ctx, store.Order{
		Status:          store.StatusProcessing,
		ShippingAddress: address,
		CreatedAt:       s.now().UTC(),
		TotalPrice:      q.Price,
		Items:           []store.OrderItem{{QuoteID: q.ID, Status: store.StatusPending}},
	})
	if err != nil {
		return store.Order{}, fmt.Errorf("create order: %w", err)
	}

	ordersTransitioned.WithLabelValues(string(order.Status)).Inc()
	s.logger.Info("order created", "order_id", order.ID, "quote_id", q.ID, "total", order.TotalPrice)
	return order, nil
}

// GetOrder returns an order with its items.
func (s *Service) GetOrder(ctx context.Context, id int64) (store.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// UpdateOrderStatus moves an order, and all its items, to status. An empty tracking
// code keeps the current one.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status store.OrderStatus, trackingCode string) (store.Order, error) {
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return store.Order{}, err
	}
	if !CanTransition(current.Status, status) {
		return store.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	order, err := s.store.UpdateOrderStatus(ctx, id, current.Status, status, strings.TrimSpace(trackingCode))
	if errors.Is(err, store.ErrStatusChanged) {
		return store.Order{}, fmt.Errorf("%w: %s -> %s: %w", ErrInvalidTransition, current.Status, status, err)
	}
	if err != nil {
		return store.Order{}, err
	}

	if current.Status != status {
		ordersTransitioned.WithLabelValues(string(status)).Inc()
	}
	s.logger.Info("order status updated", "order_id", id, "from", current.Status, "to", status)
	return order, nil
}
