package domain

import "github.com/shopspring/decimal"

// Medicine is a stocked item. Quantity and price are never negative.
// Expiry is kept as the raw stored text so legacy rows with
// unparseable dates can still be listed and annotated.
type Medicine struct {
	ID         int64           `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	SupplierID *int64          `db:"supplier_id" json:"supplier_id,omitempty"`
	Expiry     *string         `db:"expiry" json:"expiry,omitempty"`
}
