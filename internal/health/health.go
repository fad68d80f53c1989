// Package health tracks the condition of the sender's moving parts so the
// control channel can report why frames are not reaching receivers.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("health")

// Status represents the health status of a component.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// Component names reported by the capture controller.
const (
	ComponentDevice = "device"
	ComponentSender = "sender"
)

// Check is the latest result for one component. Since is the time of the
// last status change; Failures counts consecutive non-healthy updates.
type Check struct {
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Since    time.Time `json:"since"`
	Failures int       `json:"failures,omitempty"`
}

// Monitor tracks health checks for multiple components.
type Monitor struct {
	mu     sync.RWMutex
	checks map[string]Check
	now    func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
		now:    time.Now,
	}
}

// Update records the status for a named component. Transitions are logged.
func (m *Monitor) Update(name string, status Status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, seen := m.checks[name]
	c := Check{Name: name, Status: status, Message: message, Since: prev.Since}
	if !seen || prev.Status != status {
		c.Since = m.now()
	}
	if status != Healthy {
		c.Failures = prev.Failures + 1
	}
	m.checks[name] = c

	if seen && prev.Status == status {
		return
	}
	if status == Healthy {
		if seen {
			log.Info("component recovered", "component", name)
		}
		return
	}
	log.Warn("component degraded", "component", name, "status", string(status), "message", message)
}

func (m *Monitor) Get(name string) (Check, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.checks[name]
	return c, ok
}

// Overall returns the worst status across all checks, Healthy when empty.
func (m *Monitor) Overall() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	worst := Healthy
	for _, c := range m.checks {
		if rank(c.Status) > rank(worst) {
			worst = c.Status
		}
	}
	return worst
}

// All returns a snapshot of every check ordered by name.
func (m *Monitor) All() []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Check, 0, len(m.checks))
	for _, c := range m.checks {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func rank(s Status) int {
	switch s {
	case Degraded:
		return 1
	case Unhealthy:
		return 2
	default:
		return 0
	}
}
