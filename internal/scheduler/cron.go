// Package scheduler provides an in-process SchedulerProvider backed by a
// cron runner. Events live for the lifetime of the process; callers that
// need durable schedules persist the event ids on their own records and
// re-create events at startup.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"govhub/internal/domain"
)

// EventSink receives fired scheduler events.
type EventSink func(ctx context.Context, event *domain.SchedulerEvent)

// CronProvider implements domain.SchedulerProvider over robfig/cron.
type CronProvider struct {
	cron   *cron.Cron
	sink   EventSink
	logger *slog.Logger

	mu      sync.Mutex
	events  map[string]*domain.SchedulerEvent
	entries map[string]cron.EntryID
}

// NewCronProvider creates a provider that forwards fired events to sink.
// A nil sink only logs firings.
func NewCronProvider(sink EventSink, logger *slog.Logger) *CronProvider {
	return &CronProvider{
		cron:    cron.New(),
		sink:    sink,
		logger:  logger,
		events:  make(map[string]*domain.SchedulerEvent),
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins firing scheduled events.
func (p *CronProvider) Start() {
	p.cron.Start()
	p.logger.Info("scheduler started")
}

// Stop stops the cron runner.
func (p *CronProvider) Stop() {
	p.cron.Stop()
	p.logger.Info("scheduler stopped")
}

var _ domain.SchedulerProvider = (*CronProvider)(nil)

// CreateSchedulerEvent validates the schedule pattern, registers a cron
// entry, and returns the stored event.
func (p *CronProvider) CreateSchedulerEvent(ctx context.Context, eventType string, property interface{}, schedulePattern string) (*domain.SchedulerEvent, error) {
	if _, err := cron.ParseStandard(schedulePattern); err != nil {
		return nil, domain.ErrValidation("invalid cron expression %q: %v", schedulePattern, err)
	}
	raw, err := json.Marshal(property)
	if err != nil {
		return nil, domain.ErrInternalCause(err, "serialize scheduler event property: %v", err)
	}
	event := &domain.SchedulerEvent{
		ID:              uuid.NewString(),
		EventType:       eventType,
		Property:        raw,
		SchedulePattern: schedulePattern,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.register(event); err != nil {
		return nil, err
	}
	p.events[event.ID] = event
	return event, nil
}

// register adds a cron entry for the event. Callers hold p.mu.
func (p *CronProvider) register(event *domain.SchedulerEvent) error {
	id := event.ID
	entryID, err := p.cron.AddFunc(event.SchedulePattern, func() {
		p.fire(id)
	})
	if err != nil {
		return domain.ErrValidation("invalid cron expression %q: %v", event.SchedulePattern, err)
	}
	p.entries[event.ID] = entryID
	return nil
}

// fire delivers one event occurrence to the sink.
func (p *CronProvider) fire(id string) {
	p.mu.Lock()
	event, ok := p.events[id]
	p.mu.Unlock()
	if !ok {
		return
	}
	p.logger.Info("scheduler event fired", "event", id, "type", event.EventType)
	if p.sink != nil {
		p.sink(context.Background(), event)
	}
}

// Restore re-registers a persisted event under its original id. Used at
// startup to rebuild in-process schedules from stored bindings; restoring
// an id that is already registered is a no-op.
func (p *CronProvider) Restore(event *domain.SchedulerEvent) error {
	if _, err := cron.ParseStandard(event.SchedulePattern); err != nil {
		return domain.ErrValidation("invalid cron expression %q: %v", event.SchedulePattern, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[event.ID]; ok {
		return nil
	}
	cp := *event
	if err := p.register(&cp); err != nil {
		return err
	}
	p.events[cp.ID] = &cp
	return nil
}

// GetSchedulerEvent returns the event with the given id, or nil when no
// such event exists.
func (p *CronProvider) GetSchedulerEvent(ctx context.Context, id string) (*domain.SchedulerEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event, ok := p.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

// UpdateSchedulerEvent replaces an event in full, re-registering its cron
// entry.
func (p *CronProvider) UpdateSchedulerEvent(ctx context.Context, event *domain.SchedulerEvent) (*domain.SchedulerEvent, error) {
	if _, err := cron.ParseStandard(event.SchedulePattern); err != nil {
		return nil, domain.ErrValidation("invalid cron expression %q: %v", event.SchedulePattern, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[event.ID]; !ok {
		return nil, domain.ErrNotFound("scheduler event %s not found", event.ID)
	}
	if entryID, ok := p.entries[event.ID]; ok {
		p.cron.Remove(entryID)
		delete(p.entries, event.ID)
	}
	cp := *event
	if err := p.register(&cp); err != nil {
		return nil, err
	}
	p.events[event.ID] = &cp
	out := cp
	return &out, nil
}

// DeleteSchedulerEvent removes an event and its cron entry. Deleting an
// unknown id is an error so saga compensations can detect orphans.
func (p *CronProvider) DeleteSchedulerEvent(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[id]; !ok {
		return domain.ErrNotFound("scheduler event %s not found", id)
	}
	if entryID, ok := p.entries[id]; ok {
		p.cron.Remove(entryID)
		delete(p.entries, id)
	}
	delete(p.events, id)
	return nil
}
