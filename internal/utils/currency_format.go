package utils

import "github.com/shopspring/decimal"

// FormatAmount renders a money amount with the ledger's two fractional digits.
// Example: amount 12.5 returns "12.50"
// Example: amount 12 returns "12.00"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
