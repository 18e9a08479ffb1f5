package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/connexions/internal/domain/entities"
)

// Tracker is a mock ports.ActivityTracker that records every event.
type Tracker struct {
	mu     sync.Mutex
	Events []entities.Activity
}

// NewTracker creates a new mock Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track records an activity.
func (t *Tracker) Track(_ context.Context, a entities.Activity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events = append(t.Events, a)
}

// Titles returns the titles of the recorded events in order.
func (t *Tracker) Titles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	titles := make([]string, len(t.Events))
	for i, e := range t.Events {
		titles[i] = e.Title
	}
	return titles
}

// Reset drops all recorded events.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events = nil
}
