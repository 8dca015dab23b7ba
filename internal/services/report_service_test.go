package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadbook/internal/core"
)

func seedReportData(t *testing.T, store *fakeStore) {
	t.Helper()
	ctx := context.Background()

	loads := []core.Load{
		{LoadNumber: "L1", ShipperID: 1, Status: core.StatusCompleted,
			PickupDate:   time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
			DeliveryDate: time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC),
			FreightRate:  core.Money{Cents: 150000}},
		{LoadNumber: "L2", ShipperID: 1, Status: core.StatusInvoiced,
			PickupDate:   time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC),
			DeliveryDate: time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC),
			FreightRate:  core.Money{Cents: 100000}},
		{LoadNumber: "L3", ShipperID: 1, Status: core.StatusPlanned,
			PickupDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			DeliveryDate: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
			FreightRate:  core.Money{Cents: 90000}},
	}
	for i := range loads {
		require.NoError(t, store.SaveLoad(ctx, &loads[i]))
	}

	expenses := []core.ExpenseRecord{
		{LoadID: 1, Category: "Fuel", Amount: core.Money{Cents: 25000},
			Date: time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)},
		{LoadID: 1, Category: "Toll", Amount: core.Money{Cents: 2500},
			Date: time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)},
	}
	for i := range expenses {
		require.NoError(t, store.SaveExpense(ctx, &expenses[i]))
	}
}

func TestKPIs(t *testing.T) {
	store := newFakeStore()
	seedReportData(t, store)

	svc := NewReportService(store, store, store)
	svc.now = func() time.Time { return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC) }

	kpi, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(250000), kpi.ActualRevenue.Cents)
	assert.Equal(t, int64(0), kpi.PotentialRevenue.Cents, "September load is outside the month")
	assert.Equal(t, int64(27500), kpi.TotalExpenses.Cents)
	assert.Equal(t, int64(222500), kpi.NetProfit.Cents)
}

func TestSettlement(t *testing.T) {
	store := newFakeStore()
	seedReportData(t, store)
	svc := NewReportService(store, store, store)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	rep, err := svc.Settlement(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, int64(250000), rep.TotalRevenue.Cents)
	assert.Equal(t, int64(27500), rep.TotalExpenses.Cents)
	assert.Equal(t, int64(222500), rep.NetPay.Cents)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, "L1", rep.Groups[0].LoadNumber)
	require.Len(t, rep.Categories, 2)
	assert.Equal(t, "Fuel", rep.Categories[0].Category)
}

func TestSettlementRejectsInvertedRange(t *testing.T) {
	svc := NewReportService(newFakeStore(), newFakeStore(), newFakeStore())

	start := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Settlement(context.Background(), start, end)
	assert.ErrorIs(t, err, core.ErrValidation)
}

// slowStore blocks GetLoads until released, to hold the busy flag.
type slowStore struct {
	*fakeStore
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *slowStore) GetLoads(ctx context.Context) ([]core.Load, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.fakeStore.GetLoads(ctx)
}

func TestSettlementSingleFlight(t *testing.T) {
	slow := &slowStore{
		fakeStore: newFakeStore(),
		release:   make(chan struct{}),
		started:   make(chan struct{}),
	}
	svc := NewReportService(slow, slow.fakeStore, slow.fakeStore)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Settlement(context.Background(), start, end)
		errCh <- err
	}()

	<-slow.started
	_, err := svc.Settlement(context.Background(), start, end)
	assert.ErrorIs(t, err, ErrReportInProgress)

	close(slow.release)
	require.NoError(t, <-errCh)

	// The flag is released once the first run finishes.
	_, err = svc.Settlement(context.Background(), start, end)
	require.NoError(t, err)
}

func TestInvoiceAssembly(t *testing.T) {
	store := newFakeStore()
	seedReportData(t, store)
	require.NoError(t, store.SaveUserProfile(context.Background(),
		&core.UserProfile{UserName: "Jo Driver", CompanyName: "Jo Trucking LLC"}))

	svc := NewReportService(store, store, store)
	svc.now = func() time.Time { return time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC) }

	inv, err := svc.Invoice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "L1", inv.Load.LoadNumber)
	assert.Equal(t, "Jo Trucking LLC", inv.Profile.CompanyName)
	require.Len(t, inv.Expenses, 2)
	assert.Equal(t, int64(27500), inv.ExpenseTotal.Cents)

	_, err = svc.Invoice(context.Background(), 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoiceWithoutProfile(t *testing.T) {
	store := newFakeStore()
	seedReportData(t, store)
	svc := NewReportService(store, store, store)

	inv, err := svc.Invoice(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, inv.Profile.CompanyName)
}
