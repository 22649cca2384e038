package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusAccepted         OrderStatus = "accepted"
	OrderStatusInPreparation    OrderStatus = "in_preparation"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusOnTheWay         OrderStatus = "on_the_way"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// ParseOrderStatus normalizes case-insensitively and rejects values outside
// the fixed enum.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch status := OrderStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusInPreparation,
		OrderStatusReadyForDelivery, OrderStatusOnTheWay,
		OrderStatusDelivered, OrderStatusCancelled:
		return status, true
	}
	return "", false
}

// Terminal reports whether no further transition is expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
	PaymentCash PaymentMethod = "cash"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCard, PaymentPix, PaymentCash:
		return m, true
	}
	return "", false
}

type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
}

func (a Address) Complete() bool {
	return a.Street != "" && a.Number != "" && a.Neighborhood != ""
}

// OrderItem is a frozen line: name and unit price are denormalized from the
// catalog at order time, so later product edits or deletes never touch it.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Subtotal  float64   `json:"subtotal"`
}

type Order struct {
	ID            uuid.UUID     `json:"id"`
	ClientID      uuid.UUID     `json:"client_id"`
	RestaurantID  uuid.UUID     `json:"restaurant_id"`
	Items         []OrderItem   `json:"items"`
	TotalPrice    float64       `json:"total_price"`
	DeliveryFee   float64       `json:"delivery_fee"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Address       Address       `json:"delivery_address"`
	Status        OrderStatus   `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// RoundMoney rounds to 2 decimal places of currency. Prices are plain
// floating point, as in the upstream store.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
