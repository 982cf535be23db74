// Package notify carries transient user-facing notifications from the core
// to whatever presentation layer is listening.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Notifier receives notifications. Implementations must be safe for
// concurrent use and must not block.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, message string)

func (f Func) Notify(kind Kind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string) {})

// Log writes notifications to the default slog logger.
type Log struct{}

func (Log) Notify(kind Kind, message string) {
	level := slog.LevelInfo
	switch kind {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "notification", "kind", kind, "message", message)
}

// Multi fans a notification out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(kind Kind, message string) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(kind, message)
			}
		}
	})
}

// OrDiscard returns n, or Discard when n is nil.
func OrDiscard(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}

type Event struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps the most recent notifications.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []Event
	now    func() time.Time
}

// NewRecorder keeps at most limit events; limit <= 0 means 50.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: message, At: r.now()})
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
