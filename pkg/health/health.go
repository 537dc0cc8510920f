// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package health reports the liveness and readiness of the sssd daemon.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

// Status is the health of a single component or of the whole daemon.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// Report is the aggregate body served by the health endpoint.
type Report struct {
	Status  Status        `json:"status"`
	Version string        `json:"version,omitempty"`
	Uptime  string        `json:"uptime"`
	Checks  []CheckResult `json:"checks"`
}

// CheckFunc inspects one dependency. It must honor ctx cancellation.
type CheckFunc func(ctx context.Context) CheckResult

// Checker holds the registered readiness checks.
type Checker struct {
	mu        sync.RWMutex
	started   bool
	startTime time.Time
	checks    map[string]CheckFunc
}

// NewChecker creates a checker with no checks registered.
func NewChecker() *Checker {
	return &Checker{
		checks:    make(map[string]CheckFunc),
		startTime: time.Now(),
	}
}

// RegisterCheck adds or replaces the check with the given name. A nil
// check is ignored.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Checks returns the registered check names in sorted order.
func (c *Checker) Checks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarkStarted flags initialization as complete.
func (c *Checker) MarkStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
}

// MarkNotStarted clears the started flag, e.g. while draining on shutdown.
func (c *Checker) MarkNotStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
}

// IsStarted reports whether MarkStarted has been called.
func (c *Checker) IsStarted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Live reports that the process is running. It never fails.
func (c *Checker) Live(ctx context.Context) CheckResult {
	return CheckResult{
		Name:    "liveness",
		Status:  StatusHealthy,
		Message: "alive",
	}
}

// Ready runs every registered check in name order. With no checks
// registered a single healthy "default" result is returned. Until the
// checker is started a failing "startup" result is prepended.
func (c *Checker) Ready(ctx context.Context) []CheckResult {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		names = append(names, name)
		checks[name] = check
	}
	started := c.started
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]CheckResult, 0, len(names)+1)
	if !started {
		results = append(results, c.Startup(ctx))
	}
	for _, name := range names {
		start := time.Now()
		result := checks[name](ctx)
		result.Latency = time.Since(start)
		if result.Name == "" {
			result.Name = name
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return []CheckResult{{
			Name:    "default",
			Status:  StatusHealthy,
			Message: "no readiness checks configured",
		}}
	}
	return results
}

// Startup fails until MarkStarted is called.
func (c *Checker) Startup(ctx context.Context) CheckResult {
	c.mu.RLock()
	started := c.started
	startTime := c.startTime
	c.mu.RUnlock()

	if !started {
		return CheckResult{
			Name:    "startup",
			Status:  StatusUnhealthy,
			Message: "initialization not complete",
		}
	}
	return CheckResult{
		Name:    "startup",
		Status:  StatusHealthy,
		Message: fmt.Sprintf("initialized (uptime: %s)", time.Since(startTime).Round(time.Second)),
	}
}

// IsHealthy is true when every readiness result is healthy.
func (c *Checker) IsHealthy(ctx context.Context) bool {
	return AggregateStatus(c.Ready(ctx)) == StatusHealthy
}

// Uptime returns the time since the checker was created.
func (c *Checker) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.startTime)
}

// Report runs the readiness checks and aggregates them.
func (c *Checker) Report(ctx context.Context, version string) Report {
	results := c.Ready(ctx)
	return Report{
		Status:  AggregateStatus(results),
		Version: version,
		Uptime:  c.Uptime().Round(time.Second).String(),
		Checks:  results,
	}
}

// AggregateStatus is unhealthy if any result is unhealthy, degraded if any
// is degraded, healthy otherwise.
func AggregateStatus(results []CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// StorageCheck lists prefix on the backend. A closed or failing backend
// makes the daemon unready.
func StorageCheck(backend storage.Backend, prefix string) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if err := ctx.Err(); err != nil {
			return CheckResult{Name: "storage", Status: StatusUnhealthy, Error: err.Error()}
		}
		keys, err := backend.List(prefix)
		if err != nil {
			return CheckResult{
				Name:    "storage",
				Status:  StatusUnhealthy,
				Message: "share store unavailable",
				Error:   err.Error(),
			}
		}
		return CheckResult{
			Name:    "storage",
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d share files", len(keys)),
		}
	}
}

// RandCheck verifies the randomness source is available and able to
// produce bytes. Seeded sources report degraded since their output is
// reproducible.
func RandCheck(resolver rand.Resolver) CheckFunc {
	return func(ctx context.Context) CheckResult {
		if !resolver.Available() {
			return CheckResult{Name: "rng", Status: StatusUnhealthy, Message: "source unavailable"}
		}
		if _, err := resolver.Rand(16); err != nil {
			return CheckResult{Name: "rng", Status: StatusUnhealthy, Message: "read failed", Error: err.Error()}
		}
		if resolver.Mode() == rand.ModeSeeded {
			return CheckResult{Name: "rng", Status: StatusDegraded, Message: "deterministic seeded source"}
		}
		return CheckResult{Name: "rng", Status: StatusHealthy, Message: string(resolver.Mode())}
	}
}
