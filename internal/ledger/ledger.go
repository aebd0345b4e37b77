package ledger

import (
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmaledger/m/domain"
)

const (
	expiryLayout      = "2006-01-02"
	lowStockThreshold = 5
)

// Ledger owns all mutable pharmacy state: medicines, suppliers,
// customers, prescriptions, and sales. Presentation collaborators
// (HTTP handlers, seed loaders) reach the state only through its
// operations.
type Ledger struct {
	db  *sqlx.DB
	log *zap.Logger

	// mu serializes mutating operations so check-then-mutate
	// sequences are linearized and stock can never go negative.
	mu sync.Mutex

	autoCreateSuppliers bool
	now                 func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSupplierAutoCreate controls whether AddMedicine creates unknown
// suppliers on the fly. When disabled, a restock naming an unknown
// supplier fails with ErrSupplierNotFound.
func WithSupplierAutoCreate(enabled bool) Option {
	return func(l *Ledger) { l.autoCreateSuppliers = enabled }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New constructs a Ledger over an already-migrated database.
func New(db *sqlx.DB, log *zap.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Ledger{db: db, log: log, autoCreateSuppliers: true, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LineWarning reports a request line that was skipped rather than
// failing the whole operation.
type LineWarning struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Suppliers

// AddSupplier registers a supplier, updating the contact when the
// name is already registered.
func (l *Ledger) AddSupplier(name, contact string) (domain.Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Supplier{}, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var existing domain.Supplier
	err := l.db.Get(&existing, `SELECT id, name, contact FROM suppliers WHERE name = ?`, name)
	switch {
	case err == nil:
		if _, err := l.db.Exec(`UPDATE suppliers SET contact = ? WHERE id = ?`, contact, existing.ID); err != nil {
			return domain.Supplier{}, persistErr("update supplier", err)
		}
		existing.Contact = contact
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := l.db.Exec(`INSERT INTO suppliers (name, contact) VALUES (?, ?)`, name, contact)
		if err != nil {
			return domain.Supplier{}, persistErr("insert supplier", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return domain.Supplier{}, persistErr("supplier id", err)
		}
		return domain.Supplier{ID: id, Name: name, Contact: contact}, nil
	default:
		return domain.Supplier{}, persistErr("lookup supplier", err)
	}
}

// Suppliers lists registered suppliers ordered by name.
func (l *Ledger) Suppliers() ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	if err := l.db.Select(&suppliers, `SELECT id, name, contact FROM suppliers ORDER BY name`); err != nil {
		return nil, persistErr("list suppliers", err)
	}
	return suppliers, nil
}

// resolveSupplier returns the id for a supplier name, creating the
// supplier when the auto-create policy allows it. Callers hold mu.
func (l *Ledger) resolveSupplier(name string) (int64, error) {
	var id int64
	err := l.db.Get(&id, `SELECT id FROM suppliers WHERE name = ?`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, persistErr("lookup supplier", err)
	}
	if !l.autoCreateSuppliers {
		return 0, ErrSupplierNotFound
	}
	res, err := l.db.Exec(`INSERT INTO suppliers (name, contact) VALUES (?, '')`, name)
	if err != nil {
		return 0, persistErr("insert supplier", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, persistErr("supplier id", err)
	}
	l.log.Info("auto-created supplier", zap.String("supplier", name))
	return id, nil
}

// Stock management

// AddMedicineParams carries already-validated input for AddMedicine.
type AddMedicineParams struct {
	Name         string
	Price        decimal.Decimal
	Quantity     int64
	SupplierName string // optional
	Expiry       string // optional, YYYY-MM-DD
}

// AddMedicine inserts a medicine or restocks an existing one.
// Quantity is additive; price, supplier, and expiry take the new
// values. It returns the medicine's quantity after the restock.
func (l *Ledger) AddMedicine(p AddMedicineParams) (int64, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Quantity < 0 || p.Price.IsNegative() {
		return 0, ErrInvalidInput
	}
	if p.Expiry != "" {
		if _, err := time.Parse(expiryLayout, p.Expiry); err != nil {
			return 0, ErrInvalidInput
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var supplierID *int64
	if p.SupplierName != "" {
		id, err := l.resolveSupplier(p.SupplierName)
		if err != nil {
			return 0, err
		}
		supplierID = &id
	}

	tx, err := l.db.Beginx()
	if err != nil {
		return 0, persistErr("begin restock", err)
	}
	defer tx.Rollback()

	var (
		medID int64
		qty   int64
	)
	err = tx.QueryRowx(`SELECT id, quantity FROM medicines WHERE name = ?`, p.Name).Scan(&medID, &qty)
	switch {
	case err == nil:
		qty += p.Quantity
		if _, err := tx.Exec(`UPDATE medicines SET price = ?, quantity = ?, supplier_id = ?, expiry = ? WHERE id = ?`,
			p.Price, qty, supplierID, nullIfEmpty(p.Expiry), medID); err != nil {
			return 0, persistErr("update medicine", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		qty = p.Quantity
		if _, err := tx.Exec(`INSERT INTO medicines (name, price, quantity, supplier_id, expiry) VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Price, p.Quantity, supplierID, nullIfEmpty(p.Expiry)); err != nil {
			return 0, persistErr("insert medicine", err)
		}
	default:
		return 0, persistErr("lookup medicine", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, persistErr("commit restock", err)
	}
	l.log.Info("stock added", zap.String("medicine", p.Name), zap.Int64("quantity", qty))
	return qty, nil
}

// DeleteMedicine removes a medicine record. Historical sale items keep
// their snapshots, so no referential cleanup happens.
func (l *Ledger) DeleteMedicine(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.Exec(`DELETE FROM medicines WHERE name = ?`, name)
	if err != nil {
		return persistErr("delete medicine", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistErr("delete medicine", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchMedicines returns medicines whose name contains the query as a
// case-sensitive substring, ordered by name. SQLite's LIKE folds ASCII
// case, so the match uses instr instead.
func (l *Ledger) SearchMedicines(query string) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	err := l.db.Select(&medicines,
		`SELECT id, name, price, quantity, supplier_id, expiry FROM medicines WHERE instr(name, ?) > 0 ORDER BY name`, query)
	if err != nil {
		return nil, persistErr("search medicines", err)
	}
	return medicines, nil
}

// Selling

// SellMedicine sells quantity units of the named medicine at the
// price in effect right now, appending a one-line Sale. It returns the
// sale total. Stock is checked and decremented under the ledger lock:
// two concurrent sells can never jointly drive quantity negative.
func (l *Ledger) SellMedicine(name string, quantity int64) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	med, err := l.medicineByName(name)
	if err != nil {
		return decimal.Zero, err
	}
	if med.Quantity < quantity {
		return decimal.Zero, ErrInsufficientStock
	}
	if l.expired(med.Expiry) {
		return decimal.Zero, ErrExpired
	}

	total := med.Price.Mul(decimal.NewFromInt(quantity))

	tx, err := l.db.Beginx()
	if err != nil {
		return decimal.Zero, persistErr("begin sale", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE medicines SET quantity = ? WHERE id = ?`, med.Quantity-quantity, med.ID); err != nil {
		return decimal.Zero, persistErr("update stock", err)
	}
	saleID, _, err := l.insertSale(tx, total)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := tx.Exec(`INSERT INTO sale_items (sale_id, medicine_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
		saleID, med.ID, quantity, med.Price); err != nil {
		return decimal.Zero, persistErr("insert sale item", err)
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, persistErr("commit sale", err)
	}

	l.log.Info("medicine sold",
		zap.String("medicine", name),
		zap.Int64("quantity", quantity),
		zap.String("total", total.String()))
	return total, nil
}

// Internal helpers

func (l *Ledger) medicineByName(name string) (domain.Medicine, error) {
	var med domain.Medicine
	err := l.db.Get(&med, `SELECT id, name, price, quantity, supplier_id, expiry FROM medicines WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return med, ErrNotFound
	}
	if err != nil {
		return med, persistErr("lookup medicine", err)
	}
	return med, nil
}

// expired reports whether the stored expiry is a parseable date
// strictly before today. Unparseable values never block a sale; they
// surface as INVALID_EXPIRY in the stock report instead.
func (l *Ledger) expired(expiry *string) bool {
	if expiry == nil || *expiry == "" {
		return false
	}
	d, err := time.Parse(expiryLayout, *expiry)
	if err != nil {
		l.log.Warn("invalid expiry date stored", zap.String("expiry", *expiry))
		return false
	}
	today, _ := time.Parse(expiryLayout, l.now().Format(expiryLayout))
	return d.Before(today)
}

func (l *Ledger) insertSale(tx *sqlx.Tx, total decimal.Decimal) (int64, string, error) {
	reference := uuid.NewString()
	res, err := tx.Exec(`INSERT INTO sales (reference, sale_date, total_amount) VALUES (?, ?, ?)`,
		reference, l.now().Format(expiryLayout), total)
	if err != nil {
		return 0, "", persistErr("insert sale", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", persistErr("sale id", err)
	}
	return id, reference, nil
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
