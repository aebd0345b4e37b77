package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmaledger/m/domain"
)

// Billing constants. Fixed rates, not user-configurable.
var (
	taxRate           = decimal.New(5, -2)  // 5%
	discountRate      = decimal.New(10, -2) // 10% when subtotal reaches the threshold
	discountThreshold = decimal.New(1000, 0)
)

// BillLine is one requested purchase, in caller order.
type BillLine struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// BillItem is a resolved bill line priced at the current unit price.
type BillItem struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Bill is the outcome of GenerateBill. SaleID is zero when nothing
// was resolvable and no sale was recorded.
type Bill struct {
	SaleID    int64           `json:"sale_id,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Items     []BillItem      `json:"items"`
	Warnings  []LineWarning   `json:"warnings,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// GenerateBill prices an ordered set of purchase lines and commits the
// satisfiable subset as one Sale.
//
// Lines naming unknown medicines, or asking for more than the stock
// can cover, are skipped with a per-line warning. When nothing
// resolves, the bill totals zero and no sale is recorded. Otherwise
// the stock decrements and the sale insert commit in a single
// transaction: either the whole resolved subset lands, or none of it.
func (l *Ledger) GenerateBill(lines []BillLine) (Bill, error) {
	bill := Bill{
		Items:    []BillItem{},
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	type resolvedLine struct {
		med domain.Medicine
		qty int64
	}
	var resolved []resolvedLine

	// Resolution pass. reserved tracks quantities already claimed by
	// earlier lines of this same bill, so duplicate names cannot
	// jointly exceed stock.
	reserved := map[int64]int64{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			bill.Warnings = append(bill.Warnings, LineWarning{Name: line.Name, Reason: "invalid quantity"})
			continue
		}
		med, err := l.medicineByName(line.Name)
		if errors.Is(err, ErrNotFound) {
			bill.Warnings = append(bill.Warnings, LineWarning{Name: line.Name, Reason: "not found"})
			continue
		}
		if err != nil {
			return bill, err
		}
		if med.Quantity-reserved[med.ID] < line.Quantity {
			bill.Warnings = append(bill.Warnings, LineWarning{Name: line.Name, Reason: "insufficient stock"})
			continue
		}
		reserved[med.ID] += line.Quantity
		resolved = append(resolved, resolvedLine{med: med, qty: line.Quantity})

		amount := med.Price.Mul(decimal.NewFromInt(line.Quantity))
		bill.Items = append(bill.Items, BillItem{
			Name:      med.Name,
			Quantity:  line.Quantity,
			UnitPrice: med.Price,
			Amount:    amount,
		})
		bill.Subtotal = bill.Subtotal.Add(amount)
	}

	// Degenerate bills are not persisted.
	if bill.Subtotal.IsZero() {
		return bill, nil
	}

	bill.Tax = bill.Subtotal.Mul(taxRate)
	if bill.Subtotal.GreaterThanOrEqual(discountThreshold) {
		bill.Discount = bill.Subtotal.Mul(discountRate)
	}
	bill.Total = bill.Subtotal.Add(bill.Tax).Sub(bill.Discount)

	tx, err := l.db.Beginx()
	if err != nil {
		return bill, persistErr("begin bill", err)
	}
	defer tx.Rollback()

	saleID, reference, err := l.insertSale(tx, bill.Total)
	if err != nil {
		return bill, err
	}
	for _, line := range resolved {
		newQty := line.med.Quantity - reserved[line.med.ID]
		if _, err := tx.Exec(`UPDATE medicines SET quantity = ? WHERE id = ?`, newQty, line.med.ID); err != nil {
			return bill, persistErr("update stock", err)
		}
		if _, err := tx.Exec(`INSERT INTO sale_items (sale_id, medicine_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
			saleID, line.med.ID, line.qty, line.med.Price); err != nil {
			return bill, persistErr("insert sale item", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return bill, persistErr("commit bill", err)
	}

	bill.SaleID = saleID
	bill.Reference = reference

	l.log.Info("bill recorded",
		zap.Int64("sale_id", saleID),
		zap.Int("lines", len(resolved)),
		zap.Int("skipped", len(bill.Warnings)),
		zap.String("total", bill.Total.String()))
	return bill, nil
}
