package orders

import (
	"github.com/gfmartins/deliveryflow/internal/domain"
)

// forward holds the single forward edge of the fulfillment pipeline.
var forward = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:          domain.OrderStatusAccepted,
	domain.OrderStatusAccepted:         domain.OrderStatusInPreparation,
	domain.OrderStatusInPreparation:    domain.OrderStatusReadyForDelivery,
	domain.OrderStatusReadyForDelivery: domain.OrderStatusOnTheWay,
	domain.OrderStatusOnTheWay:         domain.OrderStatusDelivered,
}

// Transitions decides which status changes an order accepts.
//
// Strict mode permits only the next step of the pipeline or cancellation of a
// non-terminal order, and locks terminal orders entirely. Lenient mode checks
// enum membership only, which allows staff to move an order backwards as a
// manual override.
type Transitions struct {
	Strict bool
}

func (t Transitions) Validate(from, to domain.OrderStatus) error {
	if !t.Strict {
		return nil
	}

	if from.Terminal() {
		return domain.Validationf("order is already %s and cannot change status", from)
	}
	if to == domain.OrderStatusCancelled {
		return nil
	}
	if forward[from] != to {
		return domain.Validationf("cannot move order from %s to %s", from, to)
	}
	return nil
}
