package domain

// Prescription is an append-only clinical record owned by a customer.
// Its line items never affect stock.
type Prescription struct {
	ID         int64  `db:"id" json:"id"`
	CustomerID int64  `db:"customer_id" json:"customer_id"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

type PrescriptionItem struct {
	ID             int64 `db:"id" json:"id"`
	PrescriptionID int64 `db:"prescription_id" json:"prescription_id"`
	MedicineID     int64 `db:"medicine_id" json:"medicine_id"`
	Quantity       int64 `db:"quantity" json:"quantity"`
}
