package core

import "time"

// KPISummary holds the dashboard figures for the calendar month containing
// "today": realized and potential revenue, total expenses, and net profit.
type KPISummary struct {
	ActualRevenue    Money `json:"actual_revenue_cents"`
	PotentialRevenue Money `json:"potential_revenue_cents"`
	TotalExpenses    Money `json:"total_expenses_cents"`
	NetProfit        Money `json:"net_profit_cents"`
}

// MonthBounds returns the first and last day of the calendar month
// containing t.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}

// ComputeKPIs aggregates the full load and expense sets into the monthly
// dashboard figures. Loads are scoped to the month by delivery date and
// cancelled loads (by flag or status) are excluded from revenue; expenses are
// scoped by expense date only and ignore the owning load's state.
func ComputeKPIs(loads []Load, expenses []Expense, today time.Time) KPISummary {
	start, end := MonthBounds(today)

	var sum KPISummary
	for _, l := range loads {
		if l.Cancelled || l.Status == StatusCancelled {
			continue
		}
		if !withinDays(l.DeliveryDate, start, end) {
			continue
		}
		switch l.Status {
		case StatusCompleted, StatusInvoiced:
			sum.ActualRevenue = sum.ActualRevenue.Add(l.FreightRate)
		case StatusPlanned, StatusInProgress:
			sum.PotentialRevenue = sum.PotentialRevenue.Add(l.FreightRate)
		}
	}

	for _, e := range expenses {
		if withinDays(e.Date, start, end) {
			sum.TotalExpenses = sum.TotalExpenses.Add(e.Amount)
		}
	}

	sum.NetProfit = sum.ActualRevenue.Sub(sum.TotalExpenses)
	return sum
}
