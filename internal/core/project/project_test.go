package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Deployment Type Tests
// =============================================================================

func TestDeploymentType_IsValid(t *testing.T) {
	valid := []DeploymentType{DeployImage, DeployDockerfile, DeployCompose, DeployStaticBuild, DeployService}
	for _, dt := range valid {
		assert.True(t, dt.IsValid(), "expected %q to be valid", dt)
	}

	assert.False(t, DeploymentType("").IsValid())
	assert.False(t, DeploymentType("kubernetes").IsValid())
}

// =============================================================================
// Status Transition Tests
// =============================================================================

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"stopped to deploying", StatusStopped, StatusDeploying, true},
		{"stopped to building", StatusStopped, StatusBuilding, true},
		{"failed to deploying", StatusFailed, StatusDeploying, true},
		{"running to deploying", StatusRunning, StatusDeploying, true},
		{"deploying to running", StatusDeploying, StatusRunning, true},
		{"deploying to failed", StatusDeploying, StatusFailed, true},
		{"building to running", StatusBuilding, StatusRunning, true},
		{"building to failed", StatusBuilding, StatusFailed, true},
		{"stopped to running skips work", StatusStopped, StatusRunning, false},
		{"deploying to stopped", StatusDeploying, StatusStopped, false},
		{"running to stopped", StatusRunning, StatusStopped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestIsStatic(t *testing.T) {
	assert.True(t, (&Project{DeploymentType: DeployStaticBuild}).IsStatic())
	assert.False(t, (&Project{DeploymentType: DeployImage}).IsStatic())
}

// =============================================================================
// Domain TLS State Tests
// =============================================================================

func TestDomain_SSLValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	d := &Domain{SSLEnabled: true, SSLExpiresAt: &future}
	assert.True(t, d.SSLValid(now))

	d = &Domain{SSLEnabled: true, SSLExpiresAt: &past}
	assert.False(t, d.SSLValid(now))

	d = &Domain{SSLEnabled: false, SSLExpiresAt: &future}
	assert.False(t, d.SSLValid(now))

	d = &Domain{SSLEnabled: true}
	assert.False(t, d.SSLValid(now), "missing expiry is never valid")
}

func TestDomain_NeedsRenewal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresIn time.Duration
		want      bool
	}{
		{"expires in 10 days", 10 * 24 * time.Hour, true},
		{"expires in exactly 30 days", 30 * 24 * time.Hour, true},
		{"expires in 60 days", 60 * 24 * time.Hour, false},
		{"already expired", -24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expires := now.Add(tt.expiresIn)
			d := &Domain{SSLEnabled: true, SSLExpiresAt: &expires}
			assert.Equal(t, tt.want, d.NeedsRenewal(now))
		})
	}
}

func TestDomain_NeedsRenewal_NoExpiry(t *testing.T) {
	d := &Domain{SSLEnabled: true}
	assert.False(t, d.NeedsRenewal(time.Now()))
}
