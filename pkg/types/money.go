package types

import "github.com/shopspring/decimal"

// Prices travel as JSON numbers so clients can treat them as plain numerics.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
