package ledger

import (
	"context"

	"loadbook/internal/core"
)

// Appender mirrors resolved expenses into an off-site ledger. Implementations
// must be safe for concurrent use; the returned ref identifies the appended
// row for logging.
type Appender interface {
	Append(ctx context.Context, e core.Expense) (ref string, err error)
}
