package models

import "github.com/shopspring/decimal"

// Prices are plain JSON numbers for the storefront, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
