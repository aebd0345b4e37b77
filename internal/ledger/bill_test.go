package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"pharmaledger/m/internal/ledger"
)

func TestGenerateBillFormula(t *testing.T) {
	// total = S + 0.05*S - (0.10*S if S >= 1000 else 0)
	cases := []struct {
		name     string
		price    string
		quantity int64
		subtotal string
		tax      string
		discount string
		total    string
	}{
		{"below discount threshold", "20", 10, "200", "10", "0", "210"},
		{"at discount threshold", "100", 10, "1000", "50", "100", "950"},
		{"above discount threshold", "300", 5, "1500", "75", "150", "1425"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			led, _ := newTestLedger(t)
			mustAdd(t, led, "Med", tc.price, 100)

			bill, err := led.GenerateBill([]ledger.BillLine{{Name: "Med", Quantity: tc.quantity}})
			if err != nil {
				t.Fatalf("GenerateBill: %v", err)
			}
			if !bill.Subtotal.Equal(dec(t, tc.subtotal)) {
				t.Errorf("subtotal = %s, want %s", bill.Subtotal, tc.subtotal)
			}
			if !bill.Tax.Equal(dec(t, tc.tax)) {
				t.Errorf("tax = %s, want %s", bill.Tax, tc.tax)
			}
			if !bill.Discount.Equal(dec(t, tc.discount)) {
				t.Errorf("discount = %s, want %s", bill.Discount, tc.discount)
			}
			if !bill.Total.Equal(dec(t, tc.total)) {
				t.Errorf("total = %s, want %s", bill.Total, tc.total)
			}
		})
	}
}

func TestGenerateBillPersistsSaleAndDecrementsStock(t *testing.T) {
	led, db := newTestLedger(t)
	mustAdd(t, led, "Paracetamol", "20", 50)

	bill, err := led.GenerateBill([]ledger.BillLine{{Name: "Paracetamol", Quantity: 10}})
	if err != nil {
		t.Fatalf("GenerateBill: %v", err)
	}
	if !bill.Total.Equal(dec(t, "210")) {
		t.Fatalf("total = %s, want 210", bill.Total)
	}
	if got := stockOf(t, db, "Paracetamol"); got != 40 {
		t.Fatalf("stock = %d, want 40", got)
	}
	if bill.SaleID == 0 || bill.Reference == "" {
		t.Fatalf("bill not persisted: %+v", bill)
	}

	var totalAmount decimal.Decimal
	if err := db.Get(&totalAmount, `SELECT total_amount FROM sales WHERE id = ?`, bill.SaleID); err != nil {
		t.Fatal(err)
	}
	if !totalAmount.Equal(dec(t, "210")) {
		t.Fatalf("persisted total_amount = %s, want 210", totalAmount)
	}

	var itemCount int
	if err := db.Get(&itemCount, `SELECT COUNT(*) FROM sale_items WHERE sale_id = ?`, bill.SaleID); err != nil {
		t.Fatal(err)
	}
	if itemCount != 1 {
		t.Fatalf("sale items = %d, want 1", itemCount)
	}
}

func TestGenerateBillSkipsUnresolvableLines(t *testing.T) {
	led, db := newTestLedger(t)
	mustAdd(t, led, "Paracetamol", "20", 50)
	mustAdd(t, led, "Ibuprofen", "15", 2)

	bill, err := led.GenerateBill([]ledger.BillLine{
		{Name: "Paracetamol", Quantity: 10}, // resolves
		{Name: "Ghost", Quantity: 1},        // unknown
		{Name: "Ibuprofen", Quantity: 5},    // exceeds stock
	})
	if err != nil {
		t.Fatalf("GenerateBill: %v", err)
	}

	if len(bill.Items) != 1 || bill.Items[0].Name != "Paracetamol" {
		t.Fatalf("items = %+v, want only Paracetamol", bill.Items)
	}
	if len(bill.Warnings) != 2 {
		t.Fatalf("warnings = %+v, want 2", bill.Warnings)
	}
	if !bill.Subtotal.Equal(dec(t, "200")) {
		t.Fatalf("subtotal = %s, want 200 (resolved subset only)", bill.Subtotal)
	}
	if got := stockOf(t, db, "Ibuprofen"); got != 2 {
		t.Fatalf("skipped line mutated stock: %d, want 2", got)
	}
	if got := stockOf(t, db, "Paracetamol"); got != 40 {
		t.Fatalf("resolved line stock = %d, want 40", got)
	}
}

func TestGenerateBillZeroSubtotalNotRecorded(t *testing.T) {
	led, db := newTestLedger(t)
	mustAdd(t, led, "Paracetamol", "20", 3)

	bill, err := led.GenerateBill([]ledger.BillLine{
		{Name: "Ghost", Quantity: 2},
		{Name: "Paracetamol", Quantity: 10}, // exceeds stock
	})
	if err != nil {
		t.Fatalf("GenerateBill: %v", err)
	}
	if !bill.Total.IsZero() {
		t.Fatalf("total = %s, want 0", bill.Total)
	}
	if bill.SaleID != 0 {
		t.Fatalf("degenerate bill recorded a sale: %d", bill.SaleID)
	}

	var saleCount int
	if err := db.Get(&saleCount, `SELECT COUNT(*) FROM sales`); err != nil {
		t.Fatal(err)
	}
	if saleCount != 0 {
		t.Fatalf("sales = %d, want 0", saleCount)
	}
	if got := stockOf(t, db, "Paracetamol"); got != 3 {
		t.Fatalf("stock mutated by degenerate bill: %d, want 3", got)
	}
}

func TestGenerateBillDuplicateLinesShareStock(t *testing.T) {
	led, db := newTestLedger(t)
	mustAdd(t, led, "Paracetamol", "20", 10)

	bill, err := led.GenerateBill([]ledger.BillLine{
		{Name: "Paracetamol", Quantity: 6},
		{Name: "Paracetamol", Quantity: 6}, // jointly exceeds stock
	})
	if err != nil {
		t.Fatalf("GenerateBill: %v", err)
	}
	if len(bill.Items) != 1 {
		t.Fatalf("items = %+v, want the first line only", bill.Items)
	}
	if len(bill.Warnings) != 1 || bill.Warnings[0].Reason != "insufficient stock" {
		t.Fatalf("warnings = %+v, want one insufficient stock warning", bill.Warnings)
	}
	if got := stockOf(t, db, "Paracetamol"); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
}

func TestGenerateBillSnapshotPriceSurvivesRepricing(t *testing.T) {
	led, db := newTestLedger(t)
	mustAdd(t, led, "Paracetamol", "20", 50)

	bill, err := led.GenerateBill([]ledger.BillLine{{Name: "Paracetamol", Quantity: 10}})
	if err != nil {
		t.Fatal(err)
	}

	// Reprice after the sale; the recorded item keeps the old price.
	mustAdd(t, led, "Paracetamol", "99", 0)

	var unitPrice decimal.Decimal
	if err := db.Get(&unitPrice, `SELECT unit_price FROM sale_items WHERE sale_id = ?`, bill.SaleID); err != nil {
		t.Fatal(err)
	}
	if !unitPrice.Equal(dec(t, "20")) {
		t.Fatalf("snapshot unit price = %s, want 20", unitPrice)
	}
}
