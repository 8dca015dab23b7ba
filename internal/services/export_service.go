package services

import (
	"context"
	"errors"
	"fmt"

	"loadbook/internal/core"
)

// ExportService implements the JSON backup and restore path. Import saves
// every entity with a zero ID so SQLite assigns fresh keys, then rewrites the
// cross-references (load→company, expense→load) through old-to-new id maps.
type ExportService struct {
	loads     LoadStore
	expenses  ExpenseStore
	companies CompanyStore
	profile   ProfileStore
	purger    Purger
}

func NewExportService(loads LoadStore, expenses ExpenseStore, companies CompanyStore, profile ProfileStore, purger Purger) *ExportService {
	return &ExportService{
		loads:     loads,
		expenses:  expenses,
		companies: companies,
		profile:   profile,
		purger:    purger,
	}
}

// ImportResult reports how many entities an import created.
type ImportResult struct {
	Loads     int  `json:"loads"`
	Expenses  int  `json:"expenses"`
	Companies int  `json:"companies"`
	Profile   bool `json:"profile"`
}

// Export gathers the full database into a single document.
func (s *ExportService) Export(ctx context.Context) (core.ExportData, error) {
	var data core.ExportData

	loads, err := s.loads.GetLoads(ctx)
	if err != nil {
		return data, fmt.Errorf("export loads: %w", err)
	}
	data.Loads = loads

	expenses, err := s.expenses.GetExpensesForLoad(ctx, 0)
	if err != nil {
		return data, fmt.Errorf("export expenses: %w", err)
	}
	data.Expenses = expenses

	companies, err := s.companies.GetCompanies(ctx)
	if err != nil {
		return data, fmt.Errorf("export companies: %w", err)
	}
	data.Companies = companies

	profile, err := s.profile.GetUserProfile(ctx)
	switch {
	case err == nil:
		data.UserProfile = &profile
	case isNotFound(err):
		// No profile saved yet; the export simply omits it.
	default:
		return data, fmt.Errorf("export profile: %w", err)
	}

	return data, nil
}

// Import restores a backup document. With replace set, every existing row is
// purged first; otherwise the imported entities are appended alongside the
// current data. Either way imported rows get fresh ids.
func (s *ExportService) Import(ctx context.Context, data core.ExportData, replace bool) (ImportResult, error) {
	var res ImportResult

	if replace {
		if err := s.purger.Purge(ctx); err != nil {
			return res, fmt.Errorf("purge before import: %w", err)
		}
	}

	companyIDs := make(map[int64]int64, len(data.Companies))
	for _, c := range data.Companies {
		oldID := c.ID
		c.ID = 0
		if err := c.Validate(); err != nil {
			return res, fmt.Errorf("import company %q: %w", c.Name, err)
		}
		if err := s.companies.SaveCompany(ctx, &c); err != nil {
			return res, fmt.Errorf("import company %q: %w", c.Name, err)
		}
		companyIDs[oldID] = c.ID
		res.Companies++
	}

	loadIDs := make(map[int64]int64, len(data.Loads))
	for _, l := range data.Loads {
		oldID := l.ID
		l.ID = 0
		if newID, ok := companyIDs[l.ShipperID]; ok {
			l.ShipperID = newID
		}
		if newID, ok := companyIDs[l.ConsigneeID]; ok {
			l.ConsigneeID = newID
		}
		if err := l.Validate(); err != nil {
			return res, fmt.Errorf("import load %q: %w", l.LoadNumber, err)
		}
		if err := s.loads.SaveLoad(ctx, &l); err != nil {
			return res, fmt.Errorf("import load %q: %w", l.LoadNumber, err)
		}
		loadIDs[oldID] = l.ID
		res.Loads++
	}

	for _, e := range data.Expenses {
		e.ID = 0
		if newID, ok := loadIDs[e.LoadID]; ok {
			e.LoadID = newID
		}
		if err := e.Validate(); err != nil {
			return res, fmt.Errorf("import expense %q: %w", e.Category, err)
		}
		if err := s.expenses.SaveExpense(ctx, &e); err != nil {
			return res, fmt.Errorf("import expense %q: %w", e.Category, err)
		}
		res.Expenses++
	}

	if data.UserProfile != nil {
		p := *data.UserProfile
		if err := s.profile.SaveUserProfile(ctx, &p); err != nil {
			return res, fmt.Errorf("import profile: %w", err)
		}
		res.Profile = true
	}

	return res, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
