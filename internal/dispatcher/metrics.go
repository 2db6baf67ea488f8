package dispatcher

import (
	"sync"
	"time"
)

// Metrics collects dispatch statistics in memory.
type Metrics struct {
	mu sync.RWMutex

	commands map[string]*CommandMetrics

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalDuration   time.Duration
}

// CommandMetrics holds metrics for a specific command.
type CommandMetrics struct {
	Name          string
	DispatchCount uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastStatus    string
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commands: make(map[string]*CommandMetrics),
	}
}

// Record records a dispatch result.
func (m *Metrics) Record(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += r.Duration
	if !r.OK() {
		m.totalErrors++
	}
	if r.Panicked {
		m.totalPanics++
	}

	cm := m.commands[r.Command]
	if cm == nil {
		cm = &CommandMetrics{Name: r.Command}
		m.commands[r.Command] = cm
	}
	cm.DispatchCount++
	cm.TotalDuration += r.Duration
	cm.LastStatus = r.Status()
	cm.LastDispatch = time.Now()
	if r.Duration > cm.MaxDuration {
		cm.MaxDuration = r.Duration
	}
	if !r.OK() {
		cm.ErrorCount++
	}
}

// CommandStats returns a copy of the metrics for one command, or nil.
func (m *Metrics) CommandStats(name string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commands[name]
	if cm == nil {
		return nil
	}
	c := *cm
	return &c
}

// MetricsSnapshot is a point-in-time summary.
type MetricsSnapshot struct {
	TotalDispatches uint64        `json:"total_dispatches"`
	TotalErrors     uint64        `json:"total_errors"`
	TotalPanics     uint64        `json:"total_panics"`
	AverageDuration time.Duration `json:"average_duration_ns"`
	CommandCount    int           `json:"command_count"`
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		CommandCount:    len(m.commands),
	}
	if m.totalDispatches > 0 {
		s.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return s
}

// AverageDuration returns the average duration for the command.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.DispatchCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.DispatchCount)
}
