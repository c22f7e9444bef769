package eventbus

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	apperrors "github.com/vaultpass/servicekit/errors"
	"github.com/vaultpass/servicekit/logger"
)

// Handler processes an event payload.
type Handler func(payload any)

// Config controls bus behavior.
type Config struct {
	// HistoryCapacity bounds the emission history ring. Oldest entries are
	// dropped past this capacity.
	HistoryCapacity int `yaml:"history_capacity" mapstructure:"history_capacity" validate:"omitempty,min=1"`
	// MaxListeners is the advisory per-event listener ceiling. Exceeding it
	// logs a warning but is never enforced.
	MaxListeners int `yaml:"max_listeners" mapstructure:"max_listeners" validate:"omitempty,min=1"`
}

// ApplyDefaults applies default values to bus configuration.
func (c *Config) ApplyDefaults() {
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = 100
	}
	if c.MaxListeners == 0 {
		c.MaxListeners = 100
	}
}

// HistoryEntry records one emission.
type HistoryEntry struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is a read-only snapshot of bus activity.
type Stats struct {
	TotalEmits     int64            `json:"total_emits"`
	EmitCounts     map[string]int64 `json:"emit_counts"`
	ListenerCounts map[string]int   `json:"listener_counts"`
	HistorySize    int              `json:"history_size"`
}

// subscription is one registered handler. The id makes unsubscribe closures
// precise even when the same handler is registered twice.
type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus is a synchronous publish/subscribe event bus with bounded history.
type Bus struct {
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]*subscription
	history   []HistoryEntry

	totalEmits int64
	emitCounts map[string]int64
}

// New creates a bus with the given configuration.
func New(cfg Config) *Bus {
	cfg.ApplyDefaults()
	return &Bus{
		cfg:        cfg,
		log:        logger.Get("eventbus"),
		listeners:  make(map[string][]*subscription),
		emitCounts: make(map[string]int64),
	}
}

// NewDefault creates a bus with default configuration.
func NewDefault() *Bus {
	return New(Config{})
}

// On subscribes handler to event. Returns an unsubscribe closure.
func (b *Bus) On(event string, handler Handler) (func(), error) {
	return b.subscribe(event, handler, false)
}

// Once subscribes handler to fire at most once. Returns an unsubscribe
// closure usable before the first emission.
func (b *Bus) Once(event string, handler Handler) (func(), error) {
	return b.subscribe(event, handler, true)
}

func (b *Bus) subscribe(event string, handler Handler, once bool) (func(), error) {
	if event == "" {
		return nil, apperrors.InvalidEvent("event name must not be empty")
	}
	if handler == nil {
		return nil, apperrors.InvalidEvent(fmt.Sprintf("handler for %q must not be nil", event))
	}

	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, once: once}
	b.listeners[event] = append(b.listeners[event], sub)
	count := len(b.listeners[event])
	b.mu.Unlock()

	if count > b.cfg.MaxListeners {
		b.log.Warn("Listener ceiling exceeded", logger.Fields(
			logger.FieldEvent, event,
			logger.FieldListeners, count,
			"ceiling", b.cfg.MaxListeners,
		))
	}

	id := sub.id
	return func() { b.removeByID(event, id) }, nil
}

// Off removes handler from both regular and once sets for event. It is
// idempotent and reports whether anything was removed.
func (b *Bus) Off(event string, handler Handler) (bool, error) {
	if event == "" {
		return false, apperrors.InvalidEvent("event name must not be empty")
	}
	if handler == nil {
		return false, apperrors.InvalidEvent(fmt.Sprintf("handler for %q must not be nil", event))
	}

	target := reflect.ValueOf(handler).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[event]
	kept := subs[:0]
	removed := false
	for _, sub := range subs {
		if reflect.ValueOf(sub.handler).Pointer() == target {
			removed = true
			continue
		}
		kept = append(kept, sub)
	}
	b.storeListeners(event, kept)
	return removed, nil
}

// Emit records the emission into history and invokes every current listener
// for event synchronously in subscription order. Once-listeners are captured
// and cleared before invocation, so a handler that re-subscribes during
// emission cannot fire twice for the same emit. A panic in one handler is
// logged and does not prevent the remaining handlers from running. Returns
// true iff at least one handler ran.
func (b *Bus) Emit(event string, payload any) (bool, error) {
	if event == "" {
		return false, apperrors.InvalidEvent("event name must not be empty")
	}

	b.mu.Lock()
	b.totalEmits++
	b.emitCounts[event]++
	b.history = append(b.history, HistoryEntry{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if len(b.history) > b.cfg.HistoryCapacity {
		b.history = b.history[len(b.history)-b.cfg.HistoryCapacity:]
	}

	subs := b.listeners[event]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)

	// Drop once-listeners before any handler runs.
	kept := subs[:0]
	for _, sub := range subs {
		if !sub.once {
			kept = append(kept, sub)
		}
	}
	b.storeListeners(event, kept)
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.invoke(event, sub.handler, payload)
	}
	return len(snapshot) > 0, nil
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(event string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.HandlerFailed(event, fmt.Errorf("panic: %v", r))
			b.log.Error("Event handler failed", logger.Fields(
				logger.FieldEvent, event,
				logger.FieldError, err.Error(),
			))
		}
	}()
	handler(payload)
}

// RemoveAllListeners clears the listeners of the given events, or every
// event's listeners when called with no arguments.
func (b *Bus) RemoveAllListeners(events ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(events) == 0 {
		b.listeners = make(map[string][]*subscription)
		return
	}
	for _, event := range events {
		delete(b.listeners, event)
	}
}

// ListenerCount returns the number of listeners (regular and once) for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

// GetStats returns a snapshot of bus activity.
func (b *Bus) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	emits := make(map[string]int64, len(b.emitCounts))
	for k, v := range b.emitCounts {
		emits[k] = v
	}
	counts := make(map[string]int, len(b.listeners))
	for k, v := range b.listeners {
		if len(v) > 0 {
			counts[k] = len(v)
		}
	}
	return Stats{
		TotalEmits:     b.totalEmits,
		EmitCounts:     emits,
		ListenerCounts: counts,
		HistorySize:    len(b.history),
	}
}

// GetHistory returns the most recent limit entries, oldest first. A limit of
// zero or less returns the full retained history.
func (b *Bus) GetHistory(limit int) []HistoryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.history
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

func (b *Bus) removeByID(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[event]
	kept := subs[:0]
	for _, sub := range subs {
		if sub.id != id {
			kept = append(kept, sub)
		}
	}
	b.storeListeners(event, kept)
}

func (b *Bus) storeListeners(event string, subs []*subscription) {
	if len(subs) == 0 {
		delete(b.listeners, event)
		return
	}
	b.listeners[event] = subs
}
