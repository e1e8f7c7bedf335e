package l10n

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		symbol string
		locale string
		want   string
	}{
		{"dollars", "1234.5", "USD", "", "en-US", "$1,234.50"},
		{"rounds", "0.125", "USD", "", "en-US", "$0.13"},
		{"negative", "-5", "USD", "", "en-US", "($5.00)"},
		{"yen has no decimals", "1234.4", "JPY", "", "en-US", "¥1,234"},
		{"symbol override", "10", "USD", "US$", "en-US", "US$10.00"},
		{"german grouping", "1234.5", "EUR", "", "de-DE", "€1.234,50"},
		{"bad locale falls back", "1", "GBP", "", "??", "£1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoneyFormat(decimal.RequireFromString(tt.amount), tt.code, tt.symbol, tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MoneyFormat(decimal.NewFromInt(1), "XXXX", "", "en-US")
	assert.Error(t, err)
}

func TestDefaultCountries(t *testing.T) {
	countries := DefaultCountries()
	require.NotEmpty(t, countries)
	assert.Equal(t, "US", countries[0].ISO2)
	assert.Len(t, countries[0].Areas, 51)
	for _, a := range countries[0].Areas {
		assert.Equal(t, "US", a.Country)
	}
}
