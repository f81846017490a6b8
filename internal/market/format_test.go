package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSDAmount(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{2.3e12, "$2.30T"},
		{1.5e9, "$1.50B"},
		{2.5e6, "$2.50M"},
		{999, "$999.00"},
		{1234567.89, "$1.23M"},
		{999999.99, "$999,999.99"},
		{1000, "$1,000.00"},
		{0, "$0.00"},
		{1e12, "$1.00T"},
		{1e9, "$1.00B"},
		{1e6, "$1.00M"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatUSDAmount(tc.value), "value %v", tc.value)
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "123.45", groupThousands("123.45"))
	assert.Equal(t, "1,234.50", groupThousands("1234.50"))
	assert.Equal(t, "1,234,567.89", groupThousands("1234567.89"))
	assert.Equal(t, "12,345", groupThousands("12345"))
}
