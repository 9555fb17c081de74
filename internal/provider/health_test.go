// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package provider_test

import (
	"testing"
	"time"

	"github.com/docquery-dev/docquery/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthTrackerStartsHealthy(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)
	assert.True(t, h.IsHealthy())
}

func TestHealthTrackerRejectsNonPositiveCooldown(t *testing.T) {
	_, err := provider.NewHealthTracker(0)
	require.Error(t, err)
	_, err = provider.NewHealthTracker(-time.Second)
	require.Error(t, err)
}

func TestHealthTrackerCooldownCycle(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	now := time.Now()
	h.SetNowFunc(func() time.Time { return now })

	h.RecordFailure()
	assert.False(t, h.IsHealthy())

	// Still inside the cooldown window.
	now = now.Add(10 * time.Second)
	assert.False(t, h.IsHealthy())

	// Cooldown elapsed: eligible for retry.
	now = now.Add(25 * time.Second)
	assert.True(t, h.IsHealthy())

	h.RecordSuccess()
	assert.True(t, h.IsHealthy())
}

func TestHealthTrackerSuccessClearsCooldown(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	now := time.Now()
	h.SetNowFunc(func() time.Time { return now })

	h.RecordFailure()
	require.False(t, h.IsHealthy())

	// A success inside the window ends the cooldown immediately.
	h.RecordSuccess()
	assert.True(t, h.IsHealthy())
	assert.Nil(t, h.HealthMetrics().CooldownUntil)
}

func TestHealthMetricsSnapshot(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	m := h.HealthMetrics()
	assert.True(t, m.Available)
	assert.Zero(t, m.FailureCount)
	assert.Nil(t, m.LastFailureAt)
	assert.Nil(t, m.CooldownUntil)

	h.RecordFailure()
	m = h.HealthMetrics()
	assert.False(t, m.Available)
	assert.Equal(t, int64(1), m.FailureCount)
	require.NotNil(t, m.LastFailureAt)
	require.NotNil(t, m.CooldownUntil)
	assert.True(t, m.CooldownUntil.After(*m.LastFailureAt))
}
