package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmaledger/m/internal/ledger"
)

// Handler bundles dependencies for HTTP handlers. Handlers are thin:
// they decode validated input and invoke ledger operations.
type Handler struct {
	ledger *ledger.Ledger
	log    *zap.Logger
}

// New constructs a Handler.
func New(led *ledger.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: led, log: log}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", h.addSupplier)
		r.Get("/", h.listSuppliers)
	})

	r.Route("/medicines", func(r chi.Router) {
		r.Post("/", h.addMedicine)
		r.Delete("/{name}", h.deleteMedicine)
		r.Get("/search", h.searchMedicines)
	})

	r.Get("/stock", h.stockReport)

	r.Post("/sales", h.sellMedicine)
	r.Post("/bills", h.generateBill)
	r.Post("/prescriptions", h.recordPrescription)

	r.Get("/reports/sales/today", h.todaysSales)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Suppliers

type supplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

func (h *Handler) addSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	supplier, err := h.ledger.AddSupplier(req.Name, req.Contact)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, supplier)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.ledger.Suppliers()
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, suppliers)
}

// Stock

type addMedicineRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Expiry       string          `json:"expiry,omitempty"`
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req addMedicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	quantity, err := h.ledger.AddMedicine(ledger.AddMedicineParams{
		Name:         req.Name,
		Price:        req.Price,
		Quantity:     req.Quantity,
		SupplierName: req.SupplierName,
		Expiry:       req.Expiry,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"name": req.Name, "quantity": quantity})
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.ledger.DeleteMedicine(name); err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) searchMedicines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	medicines, err := h.ledger.SearchMedicines(query)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, medicines)
}

func (h *Handler) stockReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.StockReport()
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// Sales

type sellRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func (h *Handler) sellMedicine(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := h.ledger.SellMedicine(req.Name, req.Quantity)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"name":     req.Name,
		"quantity": req.Quantity,
		"total":    total,
	})
}

type billRequest struct {
	Items []ledger.BillLine `json:"items"`
}

func (h *Handler) generateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "at least one item is required")
		return
	}
	bill, err := h.ledger.GenerateBill(req.Items)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, bill)
}

// Prescriptions

type prescriptionRequest struct {
	CustomerName string                    `json:"customer_name"`
	Phone        string                    `json:"phone,omitempty"`
	Items        []ledger.PrescriptionLine `json:"items"`
}

func (h *Handler) recordPrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.ledger.RecordPrescription(req.CustomerName, req.Phone, req.Items)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

// Reports

func (h *Handler) todaysSales(w http.ResponseWriter, r *http.Request) {
	total, count, err := h.ledger.TodaysSalesTotal()
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"total": total, "count": count})
}

// Helpers

func (h *Handler) respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock), errors.Is(err, ledger.ErrExpired):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, ledger.ErrSupplierNotFound):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("ledger operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
