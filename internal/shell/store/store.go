package store

import (
	"context"
	"time"

	"github.com/auraops/auraops/internal/core/project"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for projects and domains.
type Store interface {
	// Project operations
	CreateProject(ctx context.Context, p *project.Project) error
	GetProject(ctx context.Context, id int64) (*project.Project, error)
	GetProjectByToken(ctx context.Context, webhookToken string) (*project.Project, error)
	UpdateProject(ctx context.Context, p *project.Project) error
	UpdateProjectStatus(ctx context.Context, id int64, status project.Status, deployedAt *time.Time) error
	SaveBuildLogs(ctx context.Context, id int64, logs string) error
	DeleteProject(ctx context.Context, id int64) error
	ListProjects(ctx context.Context, opts ListOptions) ([]project.Project, error)

	// Domain operations
	CreateDomain(ctx context.Context, d *project.Domain) error
	GetDomain(ctx context.Context, id int64) (*project.Domain, error)
	GetDomainByName(ctx context.Context, hostname string) (*project.Domain, error)
	UpdateDomain(ctx context.Context, d *project.Domain) error
	DeleteDomain(ctx context.Context, id int64) error
	ListDomains(ctx context.Context, projectID int64) ([]project.Domain, error)

	// ActiveDomain returns the project's active domain, or nil if none.
	ActiveDomain(ctx context.Context, projectID int64) (*project.Domain, error)

	// ListRenewableDomains returns active TLS-enabled domains whose
	// certificates expire at or before the cutoff.
	ListRenewableDomains(ctx context.Context, cutoff time.Time) ([]project.Domain, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
