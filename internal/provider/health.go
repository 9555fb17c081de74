// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package provider

import (
	"sync"
	"time"

	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// DefaultHealthCooldown is how long a failed generator sits out before
// it becomes eligible for retry.
const DefaultHealthCooldown = 30 * time.Second

// HealthMetrics is a point-in-time snapshot of a tracker's state, safe
// to serialize into status reports.
type HealthMetrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Available     bool       `json:"available"`
}

// HealthTracker decides whether the generator should be called at all.
// The orchestrator treats an unhealthy generator as a signal to serve
// extractive answers, so the tracker errs toward recovery: after one
// full cooldown it reports healthy again and lets the next request
// probe the upstream.
type HealthTracker struct {
	mu          sync.RWMutex
	available   bool
	failures    int64
	lastFailure time.Time
	retryAt     time.Time
	cooldown    time.Duration
	now         func() time.Time // for testing
}

// NewHealthTracker creates a HealthTracker that starts healthy.
// Returns an error if cooldown is zero or negative.
func NewHealthTracker(cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{
		available: true,
		cooldown:  cooldown,
		now:       time.Now,
	}, nil
}

// IsHealthy reports whether the generator may be called: either the
// last call succeeded, or the cooldown from the last failure has
// elapsed and a retry is due.
func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isHealthyLocked()
}

// isHealthyLocked requires at least h.mu.RLock.
func (h *HealthTracker) isHealthyLocked() bool {
	return h.available || !h.now().Before(h.retryAt)
}

// RecordSuccess marks the generator healthy and discards any pending
// cooldown.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.available = true
	h.retryAt = time.Time{}
	h.mu.Unlock()
}

// RecordFailure starts a fresh cooldown window and bumps the
// cumulative failure count.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.available = false
	h.lastFailure = h.now()
	h.retryAt = h.lastFailure.Add(h.cooldown)
	h.failures++
	h.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.now = fn
	h.mu.Unlock()
}

// HealthMetrics snapshots the tracker for status reports.
func (h *HealthTracker) HealthMetrics() HealthMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := HealthMetrics{
		FailureCount: h.failures,
		Available:    h.isHealthyLocked(),
	}
	if h.failures > 0 {
		last := h.lastFailure
		m.LastFailureAt = &last
	}
	if !h.available {
		until := h.retryAt
		m.CooldownUntil = &until
	}
	return m
}
