package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	OrderID      uuid.UUID   `json:"order_id"`
	ClientID     uuid.UUID   `json:"client_id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	TotalPrice   float64     `json:"total_price"`
	Status       OrderStatus `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID      uuid.UUID   `json:"order_id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	OldStatus    OrderStatus `json:"old_status"`
	NewStatus    OrderStatus `json:"new_status"`
	TotalPrice   float64     `json:"total_price"`
	Timestamp    time.Time   `json:"timestamp"`
}
