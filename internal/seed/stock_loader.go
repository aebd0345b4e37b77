package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmaledger/m/internal/ledger"
)

// LoadStock ingests a CSV of stock lines into the ledger. Expected
// columns: name, price, quantity, supplier, expiry (header skipped).
// Rows go through AddMedicine so seeding obeys the same invariants as
// a live restock; bad rows are logged and skipped.
func LoadStock(led *ledger.Ledger, csvPath string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	file, err := os.Open(csvPath)
	if err != nil {
		log.Warn("unable to open stock seed", zap.String("path", csvPath), zap.Error(err))
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Warn("unable to read stock seed header", zap.Error(err))
		return
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("unable to read stock seed row", zap.Error(err))
			continue
		}
		if len(record) < 3 {
			continue
		}

		name := record[0]
		price, err := decimal.NewFromString(record[1])
		if err != nil {
			log.Warn("invalid seed price", zap.String("medicine", name), zap.String("price", record[1]))
			continue
		}
		quantity, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			log.Warn("invalid seed quantity", zap.String("medicine", name), zap.String("quantity", record[2]))
			continue
		}

		params := ledger.AddMedicineParams{Name: name, Price: price, Quantity: quantity}
		if len(record) > 3 {
			params.SupplierName = record[3]
		}
		if len(record) > 4 {
			params.Expiry = record[4]
		}

		if _, err := led.AddMedicine(params); err != nil {
			log.Warn("unable to seed medicine", zap.String("medicine", name), zap.Error(err))
			continue
		}
		rows++
	}

	log.Info("seeded stock", zap.Int("rows", rows))
}
