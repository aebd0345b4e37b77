package seed_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"pharmaledger/m/internal/database"
	"pharmaledger/m/internal/ledger"
	"pharmaledger/m/internal/migrations"
	"pharmaledger/m/internal/seed"
)

func TestLoadStock(t *testing.T) {
	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	led := ledger.New(db, zap.NewNop())

	csvPath := filepath.Join(t.TempDir(), "stock.csv")
	content := "name,price,quantity,supplier,expiry\n" +
		"Paracetamol,20,50,HealthCorp,2030-01-01\n" +
		"Aspirin,5,10,,\n" +
		"Broken,not-a-price,10,,\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	seed.LoadStock(led, csvPath, zap.NewNop())

	var medCount int
	if err := db.Get(&medCount, `SELECT COUNT(*) FROM medicines`); err != nil {
		t.Fatal(err)
	}
	if medCount != 2 {
		t.Fatalf("medicines = %d, want 2 (bad row skipped)", medCount)
	}

	var qty int64
	if err := db.Get(&qty, `SELECT quantity FROM medicines WHERE name = ?`, "Paracetamol"); err != nil {
		t.Fatal(err)
	}
	if qty != 50 {
		t.Fatalf("Paracetamol quantity = %d, want 50", qty)
	}

	// Supplier auto-created through the engine policy.
	var supCount int
	if err := db.Get(&supCount, `SELECT COUNT(*) FROM suppliers WHERE name = ?`, "HealthCorp"); err != nil {
		t.Fatal(err)
	}
	if supCount != 1 {
		t.Fatalf("suppliers = %d, want 1", supCount)
	}
}

func TestLoadStockMissingFileIsNonFatal(t *testing.T) {
	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	led := ledger.New(db, zap.NewNop())

	seed.LoadStock(led, filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())

	var medCount int
	if err := db.Get(&medCount, `SELECT COUNT(*) FROM medicines`); err != nil {
		t.Fatal(err)
	}
	if medCount != 0 {
		t.Fatalf("medicines = %d, want 0", medCount)
	}
}
