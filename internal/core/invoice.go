package core

import "time"

// Invoice is the data assembled when an invoice document is generated for a
// load: the load, its expenses, and the profile used for the header. The
// rendering itself happens downstream; generating the data is what flips the
// load to Invoiced.
type Invoice struct {
	Load         Load        `json:"load"`
	Expenses     []Expense   `json:"expenses"`
	Profile      UserProfile `json:"profile"`
	ExpenseTotal Money       `json:"expense_total_cents"`
	IssuedAt     time.Time   `json:"issued_at"`
}

// BuildInvoice assembles the invoice read model. Pure; does not touch the
// load's status.
func BuildInvoice(load Load, expenses []Expense, profile UserProfile, issuedAt time.Time) Invoice {
	inv := Invoice{
		Load:     load,
		Expenses: expenses,
		Profile:  profile,
		IssuedAt: issuedAt,
	}
	for _, e := range expenses {
		inv.ExpenseTotal = inv.ExpenseTotal.Add(e.Amount)
	}
	return inv
}
