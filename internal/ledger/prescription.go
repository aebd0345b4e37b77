package ledger

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmaledger/m/domain"
)

// PrescriptionLine is one requested prescription item.
type PrescriptionLine struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// PrescriptionRecord is the outcome of RecordPrescription.
type PrescriptionRecord struct {
	Customer     domain.Customer           `json:"customer"`
	Prescription domain.Prescription       `json:"prescription"`
	Items        []domain.PrescriptionItem `json:"items"`
	Warnings     []LineWarning             `json:"warnings,omitempty"`
}

// RecordPrescription creates a prescription for the customer matching
// (name, phone) exactly, creating the customer when no exact match
// exists. Customers with the same name but a different phone are never
// merged. Unknown medicines are skipped with a warning. A prescription
// is a clinical record, not a sale: it never touches stock.
func (l *Ledger) RecordPrescription(customerName, phone string, items []PrescriptionLine) (PrescriptionRecord, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return PrescriptionRecord{}, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.Beginx()
	if err != nil {
		return PrescriptionRecord{}, persistErr("begin prescription", err)
	}
	defer tx.Rollback()

	customer, err := getOrCreateCustomer(tx, customerName, phone)
	if err != nil {
		return PrescriptionRecord{}, err
	}

	createdAt := l.now().Format(time.RFC3339)
	res, err := tx.Exec(`INSERT INTO prescriptions (customer_id, created_at) VALUES (?, ?)`, customer.ID, createdAt)
	if err != nil {
		return PrescriptionRecord{}, persistErr("insert prescription", err)
	}
	prescriptionID, err := res.LastInsertId()
	if err != nil {
		return PrescriptionRecord{}, persistErr("prescription id", err)
	}

	record := PrescriptionRecord{
		Customer: customer,
		Prescription: domain.Prescription{
			ID:         prescriptionID,
			CustomerID: customer.ID,
			CreatedAt:  createdAt,
		},
		Items: []domain.PrescriptionItem{},
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			record.Warnings = append(record.Warnings, LineWarning{Name: item.Name, Reason: "invalid quantity"})
			continue
		}
		var medID int64
		err := tx.QueryRowx(`SELECT id FROM medicines WHERE name = ?`, item.Name).Scan(&medID)
		if errors.Is(err, sql.ErrNoRows) {
			record.Warnings = append(record.Warnings, LineWarning{Name: item.Name, Reason: "not found"})
			continue
		}
		if err != nil {
			return PrescriptionRecord{}, persistErr("lookup medicine", err)
		}
		itemRes, err := tx.Exec(`INSERT INTO prescription_items (prescription_id, medicine_id, quantity) VALUES (?, ?, ?)`,
			prescriptionID, medID, item.Quantity)
		if err != nil {
			return PrescriptionRecord{}, persistErr("insert prescription item", err)
		}
		itemID, err := itemRes.LastInsertId()
		if err != nil {
			return PrescriptionRecord{}, persistErr("prescription item id", err)
		}
		record.Items = append(record.Items, domain.PrescriptionItem{
			ID:             itemID,
			PrescriptionID: prescriptionID,
			MedicineID:     medID,
			Quantity:       item.Quantity,
		})
	}

	if err := tx.Commit(); err != nil {
		return PrescriptionRecord{}, persistErr("commit prescription", err)
	}

	l.log.Info("prescription recorded",
		zap.String("customer", customerName),
		zap.Int("items", len(record.Items)),
		zap.Int("skipped", len(record.Warnings)))
	return record, nil
}

func getOrCreateCustomer(tx *sqlx.Tx, name, phone string) (domain.Customer, error) {
	var customer domain.Customer
	var err error
	if phone == "" {
		err = tx.Get(&customer, `SELECT id, name, phone FROM customers WHERE name = ? AND phone IS NULL`, name)
	} else {
		err = tx.Get(&customer, `SELECT id, name, phone FROM customers WHERE name = ? AND phone = ?`, name, phone)
	}
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, persistErr("lookup customer", err)
	}

	res, err := tx.Exec(`INSERT INTO customers (name, phone) VALUES (?, ?)`, name, nullIfEmpty(phone))
	if err != nil {
		return domain.Customer{}, persistErr("insert customer", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Customer{}, persistErr("customer id", err)
	}
	return domain.Customer{ID: id, Name: name, Phone: nullIfEmpty(phone)}, nil
}
