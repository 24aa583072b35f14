package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cratetrack/internal/domain"
)

func TestFitsQuantity(t *testing.T) {
	cases := map[string]bool{
		"12.5":         true,
		"0.01":         true,
		"1.500":        true,
		"99999999.99":  true,
		"0.001":        false,
		"12.345":       false,
		"100000000":    false,
		"-100000000.5": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.FitsQuantity(decimal.RequireFromString(in)), in)
	}
}
