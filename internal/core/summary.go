package core

import "github.com/shopspring/decimal"

// CategoryTotal represents an amount aggregated by category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
