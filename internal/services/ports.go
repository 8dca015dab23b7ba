package services

import (
	"context"

	"loadbook/internal/amqp"
	"loadbook/internal/core"
)

// Store interfaces are defined here, on the consumer side, so tests can
// substitute fakes without a database. storage.SQLiteRepository satisfies
// all of them.
type (
	LoadStore interface {
		GetLoads(ctx context.Context) ([]core.Load, error)
		GetLoad(ctx context.Context, id int64) (core.Load, error)
		SaveLoad(ctx context.Context, l *core.Load) error
		DeleteLoad(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		GetExpensesForLoad(ctx context.Context, loadID int64) ([]core.ExpenseRecord, error)
		GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)
		SaveExpense(ctx context.Context, e *core.ExpenseRecord) error
		DeleteExpense(ctx context.Context, id int64) error
	}

	CompanyStore interface {
		GetCompanies(ctx context.Context) ([]core.Company, error)
		GetCompany(ctx context.Context, id int64) (core.Company, error)
		SaveCompany(ctx context.Context, c *core.Company) error
		DeleteCompany(ctx context.Context, id int64) error
	}

	ProfileStore interface {
		GetUserProfile(ctx context.Context) (core.UserProfile, error)
		SaveUserProfile(ctx context.Context, p *core.UserProfile) error
	}

	Purger interface {
		Purge(ctx context.Context) error
	}

	// EventPublisher pushes messages to the broker. Implementations must
	// tolerate a down broker; callers treat publish failures as non-fatal.
	EventPublisher interface {
		PublishExpenseSync(ctx context.Context, id, version int64) error
		PublishLoadEvent(ctx context.Context, msg *amqp.LoadEventMessage) error
	}
)
