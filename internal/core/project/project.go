// Package project contains the core project and domain records plus the
// validation and naming logic shared by every deployment strategy.
// This is part of the Functional Core - all functions are pure with no I/O.
package project

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnknownDeploymentType = errors.New("unknown deployment type")
	ErrInvalidTransition     = errors.New("invalid status transition")
)

// =============================================================================
// Deployment Type
// =============================================================================

// DeploymentType selects how a project's intent is realized.
type DeploymentType string

const (
	DeployImage       DeploymentType = "image"
	DeployDockerfile  DeploymentType = "dockerfile"
	DeployCompose     DeploymentType = "compose"
	DeployStaticBuild DeploymentType = "static_build"
	DeployService     DeploymentType = "service"
)

// IsValid checks if the deployment type is one of the known strategies.
func (t DeploymentType) IsValid() bool {
	switch t {
	case DeployImage, DeployDockerfile, DeployCompose, DeployStaticBuild, DeployService:
		return true
	default:
		return false
	}
}

// =============================================================================
// Project Status
// =============================================================================

type Status string

const (
	StatusStopped   Status = "stopped"
	StatusDeploying Status = "deploying"
	StatusBuilding  Status = "building"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
)

// CanTransition reports whether moving from the current status to next is a
// legal step within a single deploy attempt. Transitions are monotonic:
// stopped|failed → deploying|building → running|failed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusStopped, StatusFailed, StatusRunning:
		return next == StatusDeploying || next == StatusBuilding || next == StatusStopped
	case StatusDeploying, StatusBuilding:
		return next == StatusRunning || next == StatusFailed
	default:
		return false
	}
}

// =============================================================================
// Project
// =============================================================================

// Project is a declarative deployment intent owned by a user. The web and
// persistence layers load and commit it; this core only reads its fields and
// returns results.
type Project struct {
	ID             int64          `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	DeploymentType DeploymentType `json:"deployment_type" db:"deployment_type"`

	// Source configuration. Only the fields relevant to the active
	// deployment type are populated. For image deployments RepoURL holds
	// the registry image reference instead of a git URL.
	RepoURL        string `json:"repo_url,omitempty" db:"repo_url"`
	Branch         string `json:"branch,omitempty" db:"branch"`
	BuildContext   string `json:"build_context,omitempty" db:"build_context"`
	DockerfilePath string `json:"dockerfile_path,omitempty" db:"dockerfile_path"`
	ComposeFile    string `json:"compose_file,omitempty" db:"compose_file"`
	InstallCommand string `json:"install_command,omitempty" db:"install_command"`
	BuildCommand   string `json:"build_command,omitempty" db:"build_command"`
	StaticDir      string `json:"static_dir,omitempty" db:"static_dir"`
	ServiceType    string `json:"service_type,omitempty" db:"service_type"`

	// Runtime configuration.
	Port    int               `json:"port" db:"port"`
	EnvVars map[string]string `json:"env_vars,omitempty" db:"-"`

	Status       Status     `json:"status" db:"status"`
	WebhookToken string     `json:"webhook_token,omitempty" db:"webhook_token"`
	BuildLogs    string     `json:"build_logs,omitempty" db:"build_logs"`
	LastDeployed *time.Time `json:"last_deployed_at,omitempty" db:"last_deployed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsStatic reports whether the project serves prebuilt files instead of
// proxying to a container.
func (p *Project) IsStatic() bool {
	return p.DeploymentType == DeployStaticBuild
}

// =============================================================================
// Domain
// =============================================================================

// Domain is a custom hostname attached to a project, carrying TLS state.
type Domain struct {
	ID           int64      `json:"id" db:"id"`
	ProjectID    int64      `json:"project_id" db:"project_id"`
	Domain       string     `json:"domain" db:"domain"`
	SSLEnabled   bool       `json:"ssl_enabled" db:"ssl_enabled"`
	SSLProvider  string     `json:"ssl_provider" db:"ssl_provider"`
	SSLIssuedAt  *time.Time `json:"ssl_issued_at,omitempty" db:"ssl_issued_at"`
	SSLExpiresAt *time.Time `json:"ssl_expires_at,omitempty" db:"ssl_expires_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	DNSVerified  bool       `json:"dns_verified" db:"dns_verified"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// RenewalWindow is how far before expiry a certificate becomes due.
const RenewalWindow = 30 * 24 * time.Hour

// SSLValid reports whether the domain has an enabled, unexpired certificate.
func (d *Domain) SSLValid(now time.Time) bool {
	if !d.SSLEnabled || d.SSLExpiresAt == nil {
		return false
	}
	return now.Before(*d.SSLExpiresAt)
}

// NeedsRenewal reports whether the certificate expires within the renewal
// window. Domains without a certificate never need renewal.
func (d *Domain) NeedsRenewal(now time.Time) bool {
	if d.SSLExpiresAt == nil {
		return false
	}
	return d.SSLExpiresAt.Sub(now) <= RenewalWindow
}
