package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFloat(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{"simple decimal", 12.34, 1234},
		{"whole number", 100.00, 10000},
		{"zero", 0.0, 0},
		{"negative", -50.99, -5099},
		{"small amount", 0.01, 1},
		{"rounding", 57.145, 5715},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewINR(tt.amount)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, INR, m.Currency())
		})
	}

	t.Run("unknown currency falls back to INR", func(t *testing.T) {
		m := NewFromFloat(1, "???")
		assert.Equal(t, INR, m.Currency())
	})
}

func TestSum(t *testing.T) {
	a, b := 60.0, 45.5
	c := 0.1

	total := Sum(&a, nil, &b, &c, &c, &c)

	assert.Equal(t, int64(10580), total.Amount())
	assert.Equal(t, "105.80", total.String())
	assert.True(t, Sum().IsZero())
}

func TestAdd(t *testing.T) {
	a := NewINR(10)
	b := NewINR(2.5)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount())

	_, err = a.Add(New(100, "USD"))
	assert.Error(t, err)

	var nilMoney *Money
	got, err := nilMoney.Add(b)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "₹1,234.56", New(123456, INR).Display())
	assert.Equal(t, "₹0.00", (*Money)(nil).Display())
}

func TestPercentageOf(t *testing.T) {
	part := NewINR(25)
	total := NewINR(200)

	assert.True(t, decimal.NewFromFloat(12.5).Equal(part.PercentageOf(total)))
	assert.True(t, part.PercentageOf(Zero(INR)).IsZero())
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.True(t, m.IsZero())
	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.ToDecimal().IsZero())
}
