// Package xlsx renders a settlement report as an Excel workbook with three
// sheets: the load list, expenses grouped by load, and category totals.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"loadbook/internal/core"
)

const (
	sheetLoads      = "Loads"
	sheetExpenses   = "Expenses"
	sheetCategories = "Categories"
)

// BuildWorkbook renders the report. The caller owns the returned file and
// must Close it.
func BuildWorkbook(rep core.SettlementReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeLoads(f, rep); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeExpenses(f, rep); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeCategories(f, rep); err != nil {
		f.Close()
		return nil, err
	}

	// NewFile starts with Sheet1; drop it once the real sheets exist.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetLoads); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeLoads(f *excelize.File, rep core.SettlementReport) error {
	err := writeHeader(f, sheetLoads, []string{
		"Load Number", "Status", "Pickup Date", "Delivery Date", "Freight Rate"})
	if err != nil {
		return err
	}

	row := 2
	for _, l := range rep.Loads {
		f.SetCellValue(sheetLoads, fmt.Sprintf("A%d", row), l.LoadNumber)
		f.SetCellValue(sheetLoads, fmt.Sprintf("B%d", row), string(l.Status))
		f.SetCellValue(sheetLoads, fmt.Sprintf("C%d", row), l.PickupDate.Format("1/2/2006"))
		f.SetCellValue(sheetLoads, fmt.Sprintf("D%d", row), l.DeliveryDate.Format("1/2/2006"))
		f.SetCellValue(sheetLoads, fmt.Sprintf("E%d", row), l.FreightRate.Dollars())
		row++
	}

	row++
	f.SetCellValue(sheetLoads, fmt.Sprintf("A%d", row), "Total Revenue")
	f.SetCellValue(sheetLoads, fmt.Sprintf("E%d", row), rep.TotalRevenue.Dollars())
	row++
	f.SetCellValue(sheetLoads, fmt.Sprintf("A%d", row), "Total Expenses")
	f.SetCellValue(sheetLoads, fmt.Sprintf("E%d", row), rep.TotalExpenses.Dollars())
	row++
	f.SetCellValue(sheetLoads, fmt.Sprintf("A%d", row), "Net Pay")
	f.SetCellValue(sheetLoads, fmt.Sprintf("E%d", row), rep.NetPay.Dollars())
	return nil
}

func writeExpenses(f *excelize.File, rep core.SettlementReport) error {
	err := writeHeader(f, sheetExpenses, []string{
		"Load", "Date", "Summary", "Category", "Amount"})
	if err != nil {
		return err
	}

	row := 2
	for _, g := range rep.Groups {
		for _, e := range g.Expenses {
			f.SetCellValue(sheetExpenses, fmt.Sprintf("A%d", row), g.LoadNumber)
			f.SetCellValue(sheetExpenses, fmt.Sprintf("B%d", row), e.Date.Format("1/2/2006"))
			f.SetCellValue(sheetExpenses, fmt.Sprintf("C%d", row), e.Summary())
			f.SetCellValue(sheetExpenses, fmt.Sprintf("D%d", row), e.Category)
			f.SetCellValue(sheetExpenses, fmt.Sprintf("E%d", row), e.Amount.Dollars())
			row++
		}
		f.SetCellValue(sheetExpenses, fmt.Sprintf("A%d", row), g.LoadNumber+" total")
		f.SetCellValue(sheetExpenses, fmt.Sprintf("E%d", row), g.Total.Dollars())
		row++
	}
	return nil
}

func writeCategories(f *excelize.File, rep core.SettlementReport) error {
	err := writeHeader(f, sheetCategories, []string{"Category", "Total"})
	if err != nil {
		return err
	}

	row := 2
	for _, c := range rep.Categories {
		f.SetCellValue(sheetCategories, fmt.Sprintf("A%d", row), c.Category)
		f.SetCellValue(sheetCategories, fmt.Sprintf("B%d", row), c.Total.Dollars())
		row++
	}
	return nil
}
