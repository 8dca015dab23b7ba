package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	KindGeneral ExpenseKind = iota
	KindFuel
	KindMaintenance
)

// Well-known category names offered by the UI. Category is free text, so
// anything outside this list simply resolves to the general variant.
var Categories = []string{"Fuel", "Toll", "Maintenance", "Food", "Other"}

type (
	// ExpenseKind tags the resolved variant of an expense. The persisted
	// form is always the flat ExpenseRecord; the kind is derived from the
	// category string, never stored.
	ExpenseKind int

	// ExpenseRecord is the flat persisted form of an expense.
	// LoadID 0 means the expense is not tied to any load. Version increments
	// on every save and orders ledger sync messages.
	ExpenseRecord struct {
		ID               int64     `json:"id"`
		LoadID           int64     `json:"load_id,omitempty"`
		Category         string    `json:"category"`
		Amount           Money     `json:"amount_cents"`
		Date             time.Time `json:"date"`
		Description      string    `json:"description,omitempty"`
		ReceiptImagePath string    `json:"receipt_image_path,omitempty"`
		Version          int64     `json:"version,omitempty"`
	}

	// Expense is the resolved read model: the record plus its variant tag.
	Expense struct {
		ExpenseRecord
		Kind ExpenseKind `json:"kind"`
	}
)

func (k ExpenseKind) String() string {
	switch k {
	case KindFuel:
		return "fuel"
	case KindMaintenance:
		return "maintenance"
	default:
		return "general"
	}
}

// MarshalJSON renders the kind as its string label.
func (k ExpenseKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// KindForCategory is the single category→variant mapping. Every read path
// (single fetch, bulk fetch, aggregation, export) must go through it; the
// mapping is total and unmatched categories fall back to KindGeneral.
func KindForCategory(category string) ExpenseKind {
	switch category {
	case "Fuel":
		return KindFuel
	case "Maintenance":
		return KindMaintenance
	default:
		return KindGeneral
	}
}

// Resolve expands a flat record into its typed variant. Pure: the record is
// copied, never mutated.
func Resolve(rec ExpenseRecord) Expense {
	return Expense{ExpenseRecord: rec, Kind: KindForCategory(rec.Category)}
}

// ResolveAll resolves a batch of records, preserving order.
func ResolveAll(recs []ExpenseRecord) []Expense {
	out := make([]Expense, len(recs))
	for i, rec := range recs {
		out[i] = Resolve(rec)
	}
	return out
}

// Summary is the human-readable one-line label for an expense.
func (e Expense) Summary() string {
	d := shortDate(e.Date)
	switch e.Kind {
	case KindFuel:
		return fmt.Sprintf("Fuel Purchase on %s", d)
	case KindMaintenance:
		return fmt.Sprintf("Maintenance on %s", d)
	default:
		return fmt.Sprintf("%s on %s", e.Category, d)
	}
}

func shortDate(t time.Time) string {
	return t.Format("1/2/2006")
}

func (r ExpenseRecord) Validate() error {
	if r.Amount.Cents <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: expense category is required", ErrValidation)
	}
	if r.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}
