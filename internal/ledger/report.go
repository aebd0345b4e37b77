package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmaledger/m/domain"
)

// StockReport lists every medicine with its supplier and status
// annotations. LOW_STOCK, EXPIRED, and INVALID_EXPIRY are independent
// and may co-occur on one row. Unparseable stored expiry dates are
// annotated rather than raised, so the report stays total over legacy
// data.
func (l *Ledger) StockReport() ([]domain.StockEntry, error) {
	entries := []domain.StockEntry{}
	err := l.db.Select(&entries,
		`SELECT m.id, m.name, m.price, m.quantity, m.expiry, s.name AS supplier_name
         FROM medicines m
         LEFT JOIN suppliers s ON m.supplier_id = s.id
         ORDER BY m.name`)
	if err != nil {
		return nil, persistErr("stock report", err)
	}

	today, _ := time.Parse(expiryLayout, l.now().Format(expiryLayout))
	for i := range entries {
		entries[i].Statuses = stockStatuses(entries[i], today)
	}
	return entries, nil
}

func stockStatuses(e domain.StockEntry, today time.Time) []string {
	var statuses []string
	if e.Expiry != nil && *e.Expiry != "" {
		d, err := time.Parse(expiryLayout, *e.Expiry)
		switch {
		case err != nil:
			statuses = append(statuses, domain.StatusInvalidExpiry)
		case d.Before(today):
			statuses = append(statuses, domain.StatusExpired)
		}
	}
	if e.Quantity < lowStockThreshold {
		statuses = append(statuses, domain.StatusLowStock)
	}
	return statuses
}

// TodaysSalesTotal sums total_amount over today's sales. It returns
// (0, 0) when no sale is dated today. The sum runs in Go with exact
// decimals; SQLite's SUM would coerce the TEXT amounts to floats.
func (l *Ledger) TodaysSalesTotal() (decimal.Decimal, int64, error) {
	var amounts []decimal.Decimal
	today := l.now().Format(expiryLayout)
	if err := l.db.Select(&amounts, `SELECT total_amount FROM sales WHERE sale_date = ?`, today); err != nil {
		return decimal.Zero, 0, persistErr("todays sales", err)
	}

	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	l.log.Debug("todays sales computed", zap.String("date", today), zap.Int("count", len(amounts)))
	return total, int64(len(amounts)), nil
}
