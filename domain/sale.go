package domain

import "github.com/shopspring/decimal"

// Sale is an append-only record of a completed transaction.
type Sale struct {
	ID          int64           `db:"id" json:"id"`
	Reference   string          `db:"reference" json:"reference"`
	SaleDate    string          `db:"sale_date" json:"sale_date"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
}

// SaleItem snapshots the unit price at the time of sale. Historical
// items stay accurate when prices change or the medicine is deleted.
type SaleItem struct {
	ID         int64           `db:"id" json:"id"`
	SaleID     int64           `db:"sale_id" json:"sale_id"`
	MedicineID int64           `db:"medicine_id" json:"medicine_id"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
}
