package domain

import "github.com/shopspring/decimal"

// Quantidades são persistidas como NUMERIC(10,2).
const QuantityScale = 2

var maxQuantity = decimal.New(1, 8)

// FitsQuantity informa se d cabe na coluna sem arredondamento: no máximo duas casas e valor absoluto abaixo de 10^8.
func FitsQuantity(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale)) && d.Abs().LessThan(maxQuantity)
}
