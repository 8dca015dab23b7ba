package core

import (
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a lifecycle action does not apply to
// the load's current status.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)

// Terminal reports whether no further lifecycle actions apply.
func (s LoadStatus) Terminal() bool {
	return s == StatusCancelled
}

// Start moves a planned load into progress and stamps the actual pickup time.
func (l *Load) Start(now time.Time) error {
	if l.Status != StatusPlanned {
		return fmt.Errorf("cannot start load in status %q: %w", l.Status, ErrInvalidTransition)
	}
	l.Status = StatusInProgress
	l.ActualPickupTime = &now
	return nil
}

// Complete moves an in-progress load to completed and stamps the actual
// delivery time.
func (l *Load) Complete(now time.Time) error {
	if l.Status != StatusInProgress {
		return fmt.Errorf("cannot complete load in status %q: %w", l.Status, ErrInvalidTransition)
	}
	l.Status = StatusCompleted
	l.ActualDeliveryTime = &now
	return nil
}

// MarkInvoiced records that an invoice was generated for the load. Invoicing
// an already invoiced load is allowed (regenerated documents) and is a no-op
// on status. No timestamp side effect.
func (l *Load) MarkInvoiced() error {
	if l.Status != StatusCompleted && l.Status != StatusInvoiced {
		return fmt.Errorf("cannot invoice load in status %q: %w", l.Status, ErrInvalidTransition)
	}
	l.Status = StatusInvoiced
	return nil
}

// Cancel soft-cancels the load: status and flag are set, the record stays.
func (l *Load) Cancel() error {
	if l.Status.Terminal() {
		return fmt.Errorf("load is already cancelled: %w", ErrInvalidTransition)
	}
	l.Status = StatusCancelled
	l.Cancelled = true
	return nil
}

// ParseStatusOverride maps a manual status choice onto a canonical status.
// The menu historically offered "Active" as a synonym for In Progress; it is
// normalized here and never stored.
func ParseStatusOverride(s string) (LoadStatus, error) {
	switch s {
	case "Active", string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	case string(StatusInvoiced):
		return StatusInvoiced, nil
	case string(StatusCancelled):
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// OverrideStatus applies a manual status choice, bypassing the automatic
// timestamp side effects of Start/Complete.
func (l *Load) OverrideStatus(s LoadStatus) {
	l.Status = s
	if s == StatusCancelled {
		l.Cancelled = true
	}
}

// NextAction describes the primary lifecycle action available for a status.
type NextAction struct {
	Label          string `json:"label,omitempty"`
	Visible        bool   `json:"visible"`
	InvoiceVisible bool   `json:"invoice_visible"`
}

// NextActionFor is a pure function of the current status, mirroring the
// toolbar rules: Planned offers "Start Load", In Progress offers
// "Complete Load", Completed and Invoiced hide the action and expose the
// invoice action, anything else hides both.
func NextActionFor(s LoadStatus) NextAction {
	switch s {
	case StatusPlanned:
		return NextAction{Label: "Start Load", Visible: true}
	case StatusInProgress:
		return NextAction{Label: "Complete Load", Visible: true}
	case StatusCompleted, StatusInvoiced:
		return NextAction{InvoiceVisible: true}
	default:
		return NextAction{}
	}
}
