package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// DefaultCheckTimeout bounds a single checker run.
const DefaultCheckTimeout = 5 * time.Second

// Check represents a health check result.
type Check struct {
	Name        string                 `json:"name"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"-"`
	DurationMS  float64                `json:"duration_ms"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Checker is the interface that health checkers must implement.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheckerFunc names fn as a checker.
func NewCheckerFunc(name string, fn func(ctx context.Context) error) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (c *CheckerFunc) Name() string                    { return c.name }
func (c *CheckerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// Manager runs registered checkers and keeps their latest results.
type Manager struct {
	checkers []Checker
	results  map[string]*Check
	timeout  time.Duration
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewManager creates a new health check manager.
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		results: make(map[string]*Check),
		timeout: DefaultCheckTimeout,
		logger:  logger,
	}
}

// Register adds a new health checker.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
	m.logger.WithField("checker", checker.Name()).Debug("Registered health checker")
}

// RunChecks executes all registered checkers concurrently.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	resultsChan := make(chan *Check, len(checkers))

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			resultsChan <- m.run(ctx, c)
		}(checker)
	}

	wg.Wait()
	close(resultsChan)

	results := make(map[string]*Check, len(checkers))
	m.mu.Lock()
	for check := range resultsChan {
		results[check.Name] = check
		m.results[check.Name] = check
	}
	m.mu.Unlock()

	return results
}

func (m *Manager) run(ctx context.Context, c Checker) *Check {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := c.Check(checkCtx)
	duration := time.Since(start)

	check := &Check{
		Name:        c.Name(),
		Status:      StatusOK,
		LastChecked: time.Now(),
		Duration:    duration,
		DurationMS:  float64(duration.Microseconds()) / 1000,
	}

	entry := m.logger.WithFields(logrus.Fields{
		"checker":  c.Name(),
		"duration": duration,
	})
	if err == nil {
		entry.Debug("Health check passed")
		return check
	}

	check.Status = StatusDown
	check.Message = err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		check.Message = "Health check timed out"
	}
	entry.WithError(err).Error("Health check failed")
	return check
}

// GetResults returns copies of the latest health check results.
func (m *Manager) GetResults() map[string]*Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*Check, len(m.results))
	for k, v := range m.results {
		checkCopy := *v
		results[k] = &checkCopy
	}
	return results
}

// GetOverallStatus folds the latest results into one status. With no
// results yet the service reports down.
func (m *Manager) GetOverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return StatusDown
	}

	overall := StatusOK
	for _, check := range m.results {
		switch check.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// StartPeriodicChecks runs the checks every interval until ctx is done.
func (m *Manager) StartPeriodicChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.RunChecks(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunChecks(ctx)
		case <-ctx.Done():
			m.logger.Info("Stopping periodic health checks")
			return
		}
	}
}
