package tracking

import (
	"context"

	"github.com/google/uuid"

	"tableside/internal/logger"
	"tableside/internal/models"
)

// Store is the read-side persistence port.
type Store interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLogEntry, error)
	Ping(ctx context.Context) error
}

// Service provides read-only order tracking. It never writes status or
// timestamp fields; those belong to the lifecycle service.
type Service struct {
	store  Store
	logger *logger.Logger
}

// NewService creates a new tracking service
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// GetOrderStatus retrieves the current status of an order, including the
// "N of M items ready" aggregate and the cached timing metrics.
func (s *Service) GetOrderStatus(ctx context.Context, orderID uuid.UUID, requestID string) (*models.OrderTrackingResponse, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to query order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	response := &models.OrderTrackingResponse{
		OrderNumber:   order.DisplayNumber(),
		CurrentStatus: string(order.Status),
		Readiness:     order.Readiness(),
		Metrics:       order.Metrics,
		UpdatedAt:     order.UpdatedAt,
	}

	return response, nil
}

// GetOrderHistory retrieves the complete transition history of an order.
func (s *Service) GetOrderHistory(ctx context.Context, orderID uuid.UUID, requestID string) ([]models.StatusLogEntry, error) {
	history, err := s.store.StatusHistory(ctx, orderID)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to query order history", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	return history, nil
}

// HealthCheck checks the health of dependencies
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}

	return true
}
