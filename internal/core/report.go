package core

import "time"

type (
	// LoadExpenseGroup is a derived grouping of expenses tied to one load.
	// Never persisted; rebuilt on every report run.
	LoadExpenseGroup struct {
		LoadNumber string    `json:"load_number"`
		Total      Money     `json:"total_cents"`
		Expenses   []Expense `json:"expenses"`
	}

	// CategoryTotal is the summed amount for one expense category within the
	// report period.
	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total_cents"`
	}

	// SettlementReport is the period summary consumed by the report screen
	// and the workbook writer.
	SettlementReport struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`

		TotalRevenue  Money `json:"total_revenue_cents"`
		TotalExpenses Money `json:"total_expenses_cents"`
		NetPay        Money `json:"net_pay_cents"`

		Loads      []Load             `json:"loads"`
		Groups     []LoadExpenseGroup `json:"groups"`
		Categories []CategoryTotal    `json:"categories"`
	}
)

// UnassignedLoadLabel names the expense group for expenses whose load is
// missing or absent.
const UnassignedLoadLabel = "Unassigned"

// BuildSettlementReport computes the settlement summary for the inclusive
// [start, end] range. Loads are filtered by delivery date regardless of
// status; expenses by expense date regardless of the owning load's state.
// Group order follows the first-encounter order of load keys in the filtered
// expense sequence and per-expense order inside a group is preserved, so the
// result is fully reproducible for identical inputs.
func BuildSettlementReport(loads []Load, expenses []Expense, start, end time.Time) SettlementReport {
	rep := SettlementReport{Start: dayOf(start), End: dayOf(end)}

	byID := make(map[int64]Load, len(loads))
	for _, l := range loads {
		byID[l.ID] = l
		if withinDays(l.DeliveryDate, start, end) {
			rep.Loads = append(rep.Loads, l)
			rep.TotalRevenue = rep.TotalRevenue.Add(l.FreightRate)
		}
	}

	var inPeriod []Expense
	for _, e := range expenses {
		if withinDays(e.Date, start, end) {
			inPeriod = append(inPeriod, e)
			rep.TotalExpenses = rep.TotalExpenses.Add(e.Amount)
		}
	}
	rep.NetPay = rep.TotalRevenue.Sub(rep.TotalExpenses)

	groupIdx := make(map[int64]int)
	for _, e := range inPeriod {
		i, ok := groupIdx[e.LoadID]
		if !ok {
			label := UnassignedLoadLabel
			if l, found := byID[e.LoadID]; found && e.LoadID != 0 {
				label = l.LoadNumber
			}
			i = len(rep.Groups)
			groupIdx[e.LoadID] = i
			rep.Groups = append(rep.Groups, LoadExpenseGroup{LoadNumber: label})
		}
		rep.Groups[i].Expenses = append(rep.Groups[i].Expenses, e)
		rep.Groups[i].Total = rep.Groups[i].Total.Add(e.Amount)
	}

	catIdx := make(map[string]int)
	for _, e := range inPeriod {
		i, ok := catIdx[e.Category]
		if !ok {
			i = len(rep.Categories)
			catIdx[e.Category] = i
			rep.Categories = append(rep.Categories, CategoryTotal{Category: e.Category})
		}
		rep.Categories[i].Total = rep.Categories[i].Total.Add(e.Amount)
	}

	return rep
}
