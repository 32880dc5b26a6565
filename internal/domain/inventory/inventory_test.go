package inventory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		stock, qty, want int
	}{
		{10, 3, 7},
		{10, 10, 0},
		{2, 5, 0},
		{0, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp(tt.stock, tt.qty), "stock=%d qty=%d", tt.stock, tt.qty)
	}
}

func TestNewProductRejectsNegativeStock(t *testing.T) {
	_, err := NewProduct("p1", "Yam", "f1", decimal.NewFromInt(3), -1)
	assert.ErrorIs(t, err, ErrNegativeStock)

	p, err := NewProduct("p1", "Yam", "f1", decimal.NewFromInt(3), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)
}

func TestStockReadErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&StockReadError{ProductID: "p1", Err: cause})
	assert.ErrorIs(t, err, ErrStockRead)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "p1")
}
