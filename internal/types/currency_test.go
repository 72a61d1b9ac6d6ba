package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountToCents(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{name: "whole dollars", amount: "12", currency: "usd", want: 1200},
		{name: "fractional cents round half up", amount: "0.015", currency: "usd", want: 2},
		{name: "rounds down below half", amount: "0.014", currency: "usd", want: 1},
		{name: "zero", amount: "0", currency: "usd", want: 0},
		{name: "zero decimal currency", amount: "1500", currency: "jpy", want: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountToCents(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetCurrencyPrecision(t *testing.T) {
	assert.Equal(t, int32(2), GetCurrencyPrecision("usd"))
	assert.Equal(t, int32(0), GetCurrencyPrecision("jpy"))

	// unknown currencies fall back to two decimal places
	assert.Equal(t, int32(2), GetCurrencyPrecision("xyz"))
}
