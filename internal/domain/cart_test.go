package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func stocked(id, producerID, price, stock int64) *Product {
	return &Product{
		ID:            id,
		ProducerID:    producerID,
		Name:          "Sourdough Loaf",
		Price:         price,
		StockQuantity: stock,
		Available:     true,
	}
}

func TestCart_AddMergesLines(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 10)

	require.NoError(t, c.Add(p, 2))
	require.NoError(t, c.Add(p, 3))

	require.Len(t, c.Lines, 1)
	require.Equal(t, int64(5), c.Lines[0].Quantity)
	require.Equal(t, int64(2500), c.Subtotal())
}

func TestCart_AddChecksCumulativeStock(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 5)

	require.NoError(t, c.Add(p, 3))
	require.ErrorIs(t, c.Add(p, 3), ErrOutOfStock)

	// The failed add must not touch the existing line.
	require.Equal(t, int64(3), c.Lines[0].Quantity)
}

func TestCart_AddMadeToOrderSkipsStock(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 0)
	p.MadeToOrder = true

	require.NoError(t, c.Add(p, 50))
	require.Equal(t, int64(50), c.Lines[0].Quantity)
}

func TestCart_AddRejectsUnavailable(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 5)
	p.Available = false

	require.ErrorIs(t, c.Add(p, 1), ErrProductUnavailable)
}

func TestCart_AddRejectsNonPositiveQuantity(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 5)

	require.ErrorIs(t, c.Add(p, 0), ErrInvalidQuantity)
	require.ErrorIs(t, c.Add(p, -2), ErrInvalidQuantity)
}

func TestCart_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 5)

	require.NoError(t, c.Add(p, 2))

	p.Price = 900
	require.Equal(t, int64(1000), c.Subtotal())
}

func TestCart_SetQuantityClampsToStock(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 4)

	require.NoError(t, c.Add(p, 2))
	c.SetQuantity(p, 10)

	require.Equal(t, int64(4), c.Lines[0].Quantity)
}

func TestCart_SetQuantityRemovesLineWhenSoldOut(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 5)

	require.NoError(t, c.Add(p, 2))

	p.StockQuantity = 0
	c.SetQuantity(p, 3)

	require.True(t, c.IsEmpty())
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 4)

	require.NoError(t, c.Add(p, 2))
	c.SetQuantity(p, 0)

	require.True(t, c.IsEmpty())
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	c := NewCart(1)
	p := stocked(10, 100, 500, 4)

	require.NoError(t, c.Add(p, 2))
	c.Remove(10)
	c.Remove(10)

	require.True(t, c.IsEmpty())
}

func TestCart_Total(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.Add(stocked(10, 100, 10000, 5), 2))

	require.Equal(t, int64(20000), c.Subtotal())
	require.Equal(t, int64(21500), c.Total(1500))
}

func TestCart_SingleProducer(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.Add(stocked(10, 100, 500, 5), 1))
	require.NoError(t, c.Add(stocked(11, 100, 300, 5), 1))

	producerID, err := c.SingleProducer()
	require.NoError(t, err)
	require.Equal(t, int64(100), producerID)
}

func TestCart_SingleProducerRejectsMixedCart(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.Add(stocked(10, 100, 500, 5), 1))
	require.NoError(t, c.Add(stocked(11, 200, 300, 5), 1))

	_, err := c.SingleProducer()
	require.ErrorIs(t, err, ErrMixedProducerCart)
}

func TestCart_SingleProducerRejectsEmptyCart(t *testing.T) {
	c := NewCart(1)

	_, err := c.SingleProducer()
	require.ErrorIs(t, err, ErrEmptyCart)
}
