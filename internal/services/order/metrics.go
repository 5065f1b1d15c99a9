package order

import (
	"time"

	"tableside/internal/models"
)

// DeriveMetrics computes the elapsed-time KPIs from an order's recorded
// transition timestamps. Pure function; each metric is the minute-floor
// difference between its two endpoints, or nil when either is missing.
//
// The result is cached on the order row when the order reaches delivered and
// cleared on cancellation; it is never recomputed lazily on read.
func DeriveMetrics(order *models.Order) models.TimingMetrics {
	createdAt := order.CreatedAt
	return models.TimingMetrics{
		ConfirmationTimeMinutes: minutesBetween(&createdAt, order.ConfirmedAt),
		PreparationTimeMinutes:  minutesBetween(order.ConfirmedAt, order.PreparingAt),
		DeliveryTimeMinutes:     minutesBetween(order.PreparingAt, order.DeliveredAt),
		TotalTimeMinutes:        minutesBetween(&createdAt, order.DeliveredAt),
	}
}

// minutesBetween returns floor(to-from) in minutes, or nil when either
// endpoint is missing.
func minutesBetween(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	minutes := int(to.Sub(*from) / time.Minute)
	return &minutes
}
