// Package cart keeps the per-client shopping cart: a single-restaurant
// bag of product lines held in Redis between sessions. The cart is a
// draft, not a reservation; prices are copied in when a line is added and
// re-derived again at checkout, so a stale cart can never fix a price.
package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

// ErrRestaurantMismatch rejects an add that would mix restaurants inside
// one cart. The caller must clear the cart (or switch restaurants
// explicitly) before ordering elsewhere.
var ErrRestaurantMismatch = domain.Validationf("cart already holds items from another restaurant; clear it first")

type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

func (l Line) Subtotal() float64 {
	return domain.RoundMoney(l.UnitPrice * float64(l.Quantity))
}

type Cart struct {
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	Items          []Line    `json:"items"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// SetRestaurant pins the cart to a restaurant. Switching to a different
// restaurant discards the items; the two menus never coexist.
func (c *Cart) SetRestaurant(id uuid.UUID, name string) {
	if c.RestaurantID != id {
		c.Items = nil
	}
	c.RestaurantID = id
	c.RestaurantName = name
}

// AddItem applies a quantity delta for the product. An existing line is
// incremented, a positive delta on an unknown product opens a new line,
// and a line whose quantity drops to zero or below is pruned.
func (c *Cart) AddItem(line Line, delta int) error {
	for i := range c.Items {
		if c.Items[i].ProductID != line.ProductID {
			continue
		}
		c.Items[i].Quantity += delta
		c.Items[i].Name = line.Name
		c.Items[i].UnitPrice = line.UnitPrice
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return nil
	}
	if delta <= 0 {
		return domain.Validationf("product is not in the cart")
	}
	line.Quantity = delta
	c.Items = append(c.Items, line)
	return nil
}

// RemoveItem drops the whole line regardless of quantity. Removing a
// product that is not in the cart is a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Items {
		total += line.Subtotal()
	}
	return domain.RoundMoney(total)
}
