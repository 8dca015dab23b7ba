package services

import (
	"context"
	"errors"
	"sync"

	"loadbook/internal/amqp"
	"loadbook/internal/core"
)

// In-memory fakes for the store and publisher ports.

type fakeStore struct {
	mu       sync.Mutex
	loads    map[int64]core.Load
	expenses map[int64]core.ExpenseRecord
	company  map[int64]core.Company
	profile  *core.UserProfile

	nextLoadID    int64
	nextExpenseID int64
	nextCompanyID int64

	failWith error
	purged   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		loads:    map[int64]core.Load{},
		expenses: map[int64]core.ExpenseRecord{},
		company:  map[int64]core.Company{},
	}
}

func (f *fakeStore) GetLoads(context.Context) ([]core.Load, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]core.Load, 0, len(f.loads))
	for id := int64(1); id <= f.nextLoadID; id++ {
		if l, ok := f.loads[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLoad(_ context.Context, id int64) (core.Load, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loads[id]
	if !ok {
		return core.Load{}, core.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) SaveLoad(_ context.Context, l *core.Load) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if l.ID == 0 {
		f.nextLoadID++
		l.ID = f.nextLoadID
	}
	f.loads[l.ID] = *l
	return nil
}

func (f *fakeStore) DeleteLoad(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.loads[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.loads, id)
	return nil
}

func (f *fakeStore) GetExpensesForLoad(_ context.Context, loadID int64) ([]core.ExpenseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []core.ExpenseRecord
	for id := int64(1); id <= f.nextExpenseID; id++ {
		e, ok := f.expenses[id]
		if !ok {
			continue
		}
		if loadID == 0 || e.LoadID == loadID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetExpense(_ context.Context, id int64) (core.ExpenseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok {
		return core.ExpenseRecord{}, core.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) SaveExpense(_ context.Context, e *core.ExpenseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if e.ID == 0 {
		f.nextExpenseID++
		e.ID = f.nextExpenseID
		e.Version = 1
	} else {
		e.Version++
	}
	f.expenses[e.ID] = *e
	return nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeStore) GetCompanies(context.Context) ([]core.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Company
	for id := int64(1); id <= f.nextCompanyID; id++ {
		if c, ok := f.company[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCompany(_ context.Context, id int64) (core.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.company[id]
	if !ok {
		return core.Company{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) SaveCompany(_ context.Context, c *core.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		f.nextCompanyID++
		c.ID = f.nextCompanyID
	}
	f.company[c.ID] = *c
	return nil
}

func (f *fakeStore) DeleteCompany(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.company[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.company, id)
	return nil
}

func (f *fakeStore) GetUserProfile(context.Context) (core.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profile == nil {
		return core.UserProfile{}, core.ErrNotFound
	}
	return *f.profile, nil
}

func (f *fakeStore) SaveUserProfile(_ context.Context, p *core.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = core.ProfileID
	cp := *p
	f.profile = &cp
	return nil
}

func (f *fakeStore) Purge(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = map[int64]core.Load{}
	f.expenses = map[int64]core.ExpenseRecord{}
	f.company = map[int64]core.Company{}
	f.profile = nil
	f.purged = true
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	syncs      []amqp.ExpenseSyncMessage
	loadEvents []amqp.LoadEventMessage
	fail       bool
}

func (p *fakePublisher) PublishExpenseSync(_ context.Context, id, version int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.syncs = append(p.syncs, amqp.ExpenseSyncMessage{ID: id, Version: version})
	return nil
}

func (p *fakePublisher) PublishLoadEvent(_ context.Context, msg *amqp.LoadEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.loadEvents = append(p.loadEvents, *msg)
	return nil
}
