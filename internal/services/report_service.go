package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"loadbook/internal/core"
)

// ErrReportInProgress is returned when a settlement report is requested while
// a previous one is still being generated.
var ErrReportInProgress = errors.New("report generation already in progress")

// ReportService computes the dashboard KPIs and settlement reports. Loads and
// expenses are fetched concurrently; aggregation itself is pure and lives in
// core.
type ReportService struct {
	loads    LoadStore
	expenses ExpenseStore
	profile  ProfileStore
	now      func() time.Time

	generating atomic.Bool
}

func NewReportService(loads LoadStore, expenses ExpenseStore, profile ProfileStore) *ReportService {
	return &ReportService{
		loads:    loads,
		expenses: expenses,
		profile:  profile,
		now:      time.Now,
	}
}

func (s *ReportService) fetchAll(ctx context.Context) ([]core.Load, []core.Expense, error) {
	var (
		loads    []core.Load
		expenses []core.Expense
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loads, err = s.loads.GetLoads(ctx)
		return err
	})
	g.Go(func() error {
		recs, err := s.expenses.GetExpensesForLoad(ctx, 0)
		if err != nil {
			return err
		}
		expenses = core.ResolveAll(recs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("fetch report data: %w", err)
	}
	return loads, expenses, nil
}

// KPIs returns the dashboard figures for the calendar month containing today.
func (s *ReportService) KPIs(ctx context.Context) (core.KPISummary, error) {
	loads, expenses, err := s.fetchAll(ctx)
	if err != nil {
		return core.KPISummary{}, err
	}
	return core.ComputeKPIs(loads, expenses, s.now()), nil
}

// Settlement builds the settlement report for the inclusive [start, end]
// range. Only one report is generated at a time; concurrent requests get
// ErrReportInProgress instead of piling up full-table fetches.
func (s *ReportService) Settlement(ctx context.Context, start, end time.Time) (core.SettlementReport, error) {
	if end.Before(start) {
		return core.SettlementReport{}, fmt.Errorf("%w: report end date before start date", core.ErrValidation)
	}
	if !s.generating.CompareAndSwap(false, true) {
		return core.SettlementReport{}, ErrReportInProgress
	}
	defer s.generating.Store(false)

	loads, expenses, err := s.fetchAll(ctx)
	if err != nil {
		return core.SettlementReport{}, err
	}
	return core.BuildSettlementReport(loads, expenses, start, end), nil
}

// Invoice assembles the invoice read model for a load. The status flip to
// Invoiced is LoadService.Invoice; this only gathers the document data.
func (s *ReportService) Invoice(ctx context.Context, loadID int64) (core.Invoice, error) {
	load, err := s.loads.GetLoad(ctx, loadID)
	if err != nil {
		return core.Invoice{}, err
	}

	recs, err := s.expenses.GetExpensesForLoad(ctx, loadID)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("fetch invoice expenses: %w", err)
	}

	profile, err := s.profile.GetUserProfile(ctx)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Invoice{}, fmt.Errorf("fetch profile: %w", err)
	}

	return core.BuildInvoice(load, core.ResolveAll(recs), profile, s.now()), nil
}
