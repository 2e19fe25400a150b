// Package deploy routes a project's declared intent onto the container
// runtime and reports the outcome as a normalized Result.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// ProxyConfigurator writes and removes reverse proxy configuration.
type ProxyConfigurator interface {
	WriteConfig(ctx context.Context, p *project.Project, d *project.Domain) error
	DeleteConfig(ctx context.Context, projectID int64) error
}

// StaticBuilder runs the static site build pipeline.
type StaticBuilder interface {
	Run(ctx context.Context, p *project.Project) project.Result
	CleanArtifacts(projectID int64) error
}

// ServiceDeployer provisions managed infrastructure services.
type ServiceDeployer interface {
	Deploy(ctx context.Context, p *project.Project) project.Result
	Remove(ctx context.Context, p *project.Project, removeVolumes bool) error
}

// =============================================================================
// Dispatcher
// =============================================================================

// Dispatcher is the single entry point for deploying and stopping projects.
// It selects the strategy for the project's deployment type and normalizes
// every strategy error into a failed Result. It never touches persistence;
// the caller owns status transitions around each call.
type Dispatcher struct {
	docker   docker.Client
	proxy    ProxyConfigurator
	builder  StaticBuilder
	services ServiceDeployer
	logger   *slog.Logger
}

// NewDispatcher creates a deployment Dispatcher.
func NewDispatcher(cli docker.Client, proxy ProxyConfigurator, builder StaticBuilder, services ServiceDeployer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		docker:   cli,
		proxy:    proxy,
		builder:  builder,
		services: services,
		logger:   logger.With("component", "deploy"),
	}
}

// Deploy realizes the project's intent. domain is the project's active
// custom domain, or nil; it only affects the generated proxy config. An
// unrecognized deployment type yields a failed Result, never an error.
func (d *Dispatcher) Deploy(ctx context.Context, proj *project.Project, domain *project.Domain) project.Result {
	d.logger.Info("deploying project",
		"project_id", proj.ID, "name", proj.Name, "type", proj.DeploymentType)

	switch proj.DeploymentType {
	case project.DeployImage:
		return d.deployDirect(ctx, proj, domain, proj.RepoURL)
	case project.DeployDockerfile:
		return d.deployDockerfile(ctx, proj, domain)
	case project.DeployCompose:
		return d.deployCompose(ctx, proj)
	case project.DeployStaticBuild:
		return d.deployStatic(ctx, proj, domain)
	case project.DeployService:
		return d.services.Deploy(ctx, proj)
	default:
		return project.Failure(fmt.Sprintf("unknown deployment type %q", proj.DeploymentType))
	}
}

// Stop halts a project's runtime stack. A container that is already gone is
// reported as success so stop stays idempotent.
func (d *Dispatcher) Stop(ctx context.Context, proj *project.Project) project.Result {
	d.logger.Info("stopping project", "project_id", proj.ID, "type", proj.DeploymentType)

	switch proj.DeploymentType {
	case project.DeployCompose:
		return d.stopCompose(ctx, proj)
	case project.DeployStaticBuild:
		// Static sites have no runtime container; removing the proxy
		// entry takes them offline.
		if err := d.proxy.DeleteConfig(ctx, proj.ID); err != nil {
			d.logger.Warn("failed to remove proxy config", "project_id", proj.ID, "error", err)
		}
		return project.Success("static site taken offline")
	case project.DeployService:
		if err := d.services.Remove(ctx, proj, false); err != nil {
			return project.Failure(fmt.Sprintf("failed to stop service: %v", err))
		}
		return project.Success("service stopped")
	default:
		return d.stopContainer(ctx, project.AppContainerName(proj.ID))
	}
}

// Remove tears a project's runtime stack down completely, including its
// proxy configuration. Named volumes survive unless removeVolumes is set.
func (d *Dispatcher) Remove(ctx context.Context, proj *project.Project, removeVolumes bool) project.Result {
	var res project.Result
	switch proj.DeploymentType {
	case project.DeployCompose:
		res = d.removeCompose(ctx, proj, removeVolumes)
	case project.DeployStaticBuild:
		if err := d.builder.CleanArtifacts(proj.ID); err != nil {
			d.logger.Warn("failed to clean artifacts", "project_id", proj.ID, "error", err)
		}
		res = project.Success("static site removed")
	case project.DeployService:
		if err := d.services.Remove(ctx, proj, removeVolumes); err != nil {
			return project.Failure(fmt.Sprintf("failed to remove service: %v", err))
		}
		res = project.Success("service removed")
	default:
		res = d.stopContainer(ctx, project.AppContainerName(proj.ID))
	}

	if err := d.proxy.DeleteConfig(ctx, proj.ID); err != nil {
		d.logger.Warn("failed to remove proxy config", "project_id", proj.ID, "error", err)
	}
	return res
}

// ContainerStatus reports the runtime state of the project's primary
// container. A missing container maps to "stopped".
func (d *Dispatcher) ContainerStatus(ctx context.Context, proj *project.Project) (string, error) {
	name := project.AppContainerName(proj.ID)
	if proj.DeploymentType == project.DeployService {
		name = project.ServiceContainerName(proj.ID)
	}

	info, err := d.docker.InspectContainer(ctx, name)
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			return "stopped", nil
		}
		return "", err
	}
	return info.State, nil
}

// =============================================================================
// Shared Helpers
// =============================================================================

// stopContainer stops and removes a single container by name. Missing
// containers are success.
func (d *Dispatcher) stopContainer(ctx context.Context, name string) project.Result {
	err := d.docker.RemoveContainer(ctx, name, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return project.Failure(fmt.Sprintf("failed to stop container %s: %v", name, err))
	}
	return project.Success("stopped")
}

// ensurePlatformNetwork creates the shared proxy network if needed.
func (d *Dispatcher) ensurePlatformNetwork(ctx context.Context) error {
	_, err := d.docker.CreateNetwork(ctx, docker.NetworkSpec{Name: project.PlatformNetwork})
	if err != nil && !errors.Is(err, docker.ErrNetworkAlreadyExists) {
		return err
	}
	return nil
}

// writeProxyConfig regenerates the project's proxy entry, tolerating a
// proxy that is not running yet.
func (d *Dispatcher) writeProxyConfig(ctx context.Context, proj *project.Project, domain *project.Domain) {
	if err := d.proxy.WriteConfig(ctx, proj, domain); err != nil {
		d.logger.Warn("proxy config update failed", "project_id", proj.ID, "error", err)
	}
}
