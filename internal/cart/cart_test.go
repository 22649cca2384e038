package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddItem(t *testing.T) {
	productID := uuid.New()

	t.Run("positive delta opens a line", func(t *testing.T) {
		c := &Cart{}
		require.NoError(t, c.AddItem(Line{ProductID: productID, Name: "burger", UnitPrice: 9.5}, 2))
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assert.Equal(t, 19.0, c.Total())
	})

	t.Run("existing line is incremented and repriced", func(t *testing.T) {
		c := &Cart{Items: []Line{{ProductID: productID, Name: "burger", UnitPrice: 9.5, Quantity: 1}}}
		require.NoError(t, c.AddItem(Line{ProductID: productID, Name: "burger", UnitPrice: 10.0}, 2))
		require.Len(t, c.Items, 1)
		assert.Equal(t, 3, c.Items[0].Quantity)
		assert.Equal(t, 10.0, c.Items[0].UnitPrice)
	})

	t.Run("line pruned when quantity reaches zero", func(t *testing.T) {
		c := &Cart{Items: []Line{{ProductID: productID, UnitPrice: 5, Quantity: 2}}}
		require.NoError(t, c.AddItem(Line{ProductID: productID, UnitPrice: 5}, -2))
		assert.True(t, c.Empty())
	})

	t.Run("negative delta on unknown product rejected", func(t *testing.T) {
		c := &Cart{}
		assert.Error(t, c.AddItem(Line{ProductID: productID}, -1))
		assert.True(t, c.Empty())
	})
}

func TestCart_SetRestaurant(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	c := &Cart{}
	c.SetRestaurant(first, "first")
	require.NoError(t, c.AddItem(Line{ProductID: uuid.New(), UnitPrice: 12}, 1))

	t.Run("same restaurant keeps items", func(t *testing.T) {
		c.SetRestaurant(first, "first")
		assert.Len(t, c.Items, 1)
	})

	t.Run("switching restaurant clears items", func(t *testing.T) {
		c.SetRestaurant(second, "second")
		assert.True(t, c.Empty())
		assert.Equal(t, second, c.RestaurantID)
	})
}

func TestCart_Total_Rounds(t *testing.T) {
	c := &Cart{Items: []Line{
		{ProductID: uuid.New(), UnitPrice: 0.1, Quantity: 3},
		{ProductID: uuid.New(), UnitPrice: 19.99, Quantity: 1},
	}}
	// 0.30 + 19.99, not the float residue
	assert.Equal(t, 20.29, c.Total())
}

func TestCart_RemoveItem(t *testing.T) {
	productID := uuid.New()
	c := &Cart{Items: []Line{
		{ProductID: productID, UnitPrice: 5, Quantity: 2},
		{ProductID: uuid.New(), UnitPrice: 3, Quantity: 1},
	}}

	c.RemoveItem(productID)
	assert.Len(t, c.Items, 1)

	// removing again is a no-op
	c.RemoveItem(productID)
	assert.Len(t, c.Items, 1)
}
