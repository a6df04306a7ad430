package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProduct_HasStock(t *testing.T) {
	p := &Product{StockQuantity: 3}

	require.True(t, p.HasStock(3))
	require.False(t, p.HasStock(4))

	p.MadeToOrder = true
	require.True(t, p.HasStock(1000))
}

func TestValidateImages(t *testing.T) {
	require.NoError(t, ValidateImages(nil))

	require.NoError(t, ValidateImages([]ProductImage{
		{URL: "a", IsPrimary: true},
		{URL: "b"},
	}))

	// No primary among several.
	require.ErrorIs(t, ValidateImages([]ProductImage{{URL: "a"}, {URL: "b"}}), ErrInvalidImageSet)

	// Two primaries.
	require.ErrorIs(t, ValidateImages([]ProductImage{
		{URL: "a", IsPrimary: true},
		{URL: "b", IsPrimary: true},
	}), ErrInvalidImageSet)

	six := make([]ProductImage, 6)
	six[0].IsPrimary = true
	require.ErrorIs(t, ValidateImages(six), ErrInvalidImageSet)
}
