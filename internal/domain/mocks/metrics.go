package mocks

import (
	"sync"
	"time"
)

// Metrics is a mock ports.MetricsRecorder that counts observations.
type Metrics struct {
	mu         sync.Mutex
	Operations map[string]int
	Conflicts  int
	Merges     int
}

// NewMetrics creates a new mock Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Operations: make(map[string]int)}
}

// ObserveOperation counts op/outcome pairs, keyed "op:outcome".
func (m *Metrics) ObserveOperation(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations[op+":"+outcome]++
}

// ObserveRevisionConflict counts a conflict.
func (m *Metrics) ObserveRevisionConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Conflicts++
}

// ObserveMerge counts a merge.
func (m *Metrics) ObserveMerge(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Merges++
}

// Count returns the number of op/outcome observations.
func (m *Metrics) Count(op, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Operations[op+":"+outcome]
}
