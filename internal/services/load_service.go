package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loadbook/internal/amqp"
	"loadbook/internal/core"
)

// WarnDeliveryAdjusted is returned from Save when the delivery date was
// auto-corrected to 24 hours after pickup.
const WarnDeliveryAdjusted = "delivery date was before pickup and has been adjusted to 24 hours after pickup"

// LoadService owns the load lifecycle. Every mutation persists through the
// store first; lifecycle events go to the broker afterwards and a publish
// failure never fails the request.
type LoadService struct {
	loads  LoadStore
	events EventPublisher
	now    func() time.Time
}

func NewLoadService(loads LoadStore, events EventPublisher) *LoadService {
	return &LoadService{
		loads:  loads,
		events: events,
		now:    time.Now,
	}
}

// List returns loads, optionally filtered by a case-insensitive load number
// search. Cancelled loads are hidden unless includeCancelled is set.
func (s *LoadService) List(ctx context.Context, query string, includeCancelled bool) ([]core.Load, error) {
	loads, err := s.loads.GetLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]core.Load, 0, len(loads))
	for _, l := range loads {
		if !includeCancelled && (l.Cancelled || l.Status == core.StatusCancelled) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(l.LoadNumber), query) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *LoadService) Get(ctx context.Context, id int64) (core.Load, error) {
	return s.loads.GetLoad(ctx, id)
}

// Save validates and persists a load. Returned warnings describe silent
// corrections (currently only the delivery date adjustment) and must be
// surfaced to the caller.
func (s *LoadService) Save(ctx context.Context, l *core.Load) ([]string, error) {
	if l.Status == "" {
		l.Status = core.StatusPlanned
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var warnings []string
	if l.NormalizeDates() {
		warnings = append(warnings, WarnDeliveryAdjusted)
	}

	if err := s.loads.SaveLoad(ctx, l); err != nil {
		return nil, fmt.Errorf("save load: %w", err)
	}
	return warnings, nil
}

// Start moves a planned load into progress.
func (s *LoadService) Start(ctx context.Context, id int64) (core.Load, error) {
	return s.transition(ctx, id, amqp.EventLoadStarted, func(l *core.Load) error {
		return l.Start(s.now())
	})
}

// Complete moves an in-progress load to completed.
func (s *LoadService) Complete(ctx context.Context, id int64) (core.Load, error) {
	return s.transition(ctx, id, amqp.EventLoadCompleted, func(l *core.Load) error {
		return l.Complete(s.now())
	})
}

// Invoice marks a completed load as invoiced. Re-invoicing is allowed.
func (s *LoadService) Invoice(ctx context.Context, id int64) (core.Load, error) {
	return s.transition(ctx, id, amqp.EventLoadInvoiced, func(l *core.Load) error {
		return l.MarkInvoiced()
	})
}

// Cancel soft-cancels a load. The record stays so history and reports keep
// working; it only disappears from the default list.
func (s *LoadService) Cancel(ctx context.Context, id int64) (core.Load, error) {
	return s.transition(ctx, id, amqp.EventLoadCancelled, func(l *core.Load) error {
		return l.Cancel()
	})
}

// OverrideStatus applies a manual status choice without the timestamp side
// effects of the lifecycle actions.
func (s *LoadService) OverrideStatus(ctx context.Context, id int64, status string) (core.Load, error) {
	parsed, err := core.ParseStatusOverride(status)
	if err != nil {
		return core.Load{}, err
	}

	l, err := s.loads.GetLoad(ctx, id)
	if err != nil {
		return core.Load{}, err
	}
	l.OverrideStatus(parsed)
	if err := s.loads.SaveLoad(ctx, &l); err != nil {
		return core.Load{}, fmt.Errorf("save load %d: %w", id, err)
	}
	return l, nil
}

func (s *LoadService) transition(ctx context.Context, id int64, event string, apply func(*core.Load) error) (core.Load, error) {
	l, err := s.loads.GetLoad(ctx, id)
	if err != nil {
		return core.Load{}, err
	}
	if err := apply(&l); err != nil {
		return core.Load{}, err
	}
	if err := s.loads.SaveLoad(ctx, &l); err != nil {
		return core.Load{}, fmt.Errorf("save load %d: %w", id, err)
	}

	s.publishEvent(ctx, l, event)
	return l, nil
}

func (s *LoadService) publishEvent(ctx context.Context, l core.Load, event string) {
	if s.events == nil {
		return
	}
	msg := amqp.NewLoadEventMessage(l.ID, l.LoadNumber, event, string(l.Status))
	if err := s.events.PublishLoadEvent(ctx, msg); err != nil {
		// The load is already persisted; the event stream is best effort.
		slog.WarnContext(ctx, "failed to publish load event",
			"load_id", l.ID, "event", event, "error", err)
	}
}
