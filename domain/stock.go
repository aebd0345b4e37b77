package domain

import "github.com/shopspring/decimal"

// Stock status annotations. Independent; a row may carry several.
const (
	StatusLowStock      = "LOW_STOCK"
	StatusExpired       = "EXPIRED"
	StatusInvalidExpiry = "INVALID_EXPIRY"
)

// StockEntry is one row of the stock report.
type StockEntry struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	SupplierName *string         `db:"supplier_name" json:"supplier_name,omitempty"`
	Expiry       *string         `db:"expiry" json:"expiry,omitempty"`
	Statuses     []string        `db:"-" json:"statuses,omitempty"`
}
