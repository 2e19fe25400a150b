// Package services deploys managed infrastructure services from catalog
// templates with freshly generated credentials.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/auraops/auraops/internal/core/catalog"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Deployer
// =============================================================================

// Deployer provisions managed service containers (databases, caches,
// brokers) from catalog templates.
type Deployer struct {
	docker   docker.Client
	registry *catalog.Registry
	logger   *slog.Logger
}

// NewDeployer creates a managed service Deployer.
func NewDeployer(cli docker.Client, registry *catalog.Registry, logger *slog.Logger) *Deployer {
	return &Deployer{
		docker:   cli,
		registry: registry,
		logger:   logger.With("component", "services"),
	}
}

// Deploy provisions the managed service a project requests. Credentials are
// generated fresh on every deploy; per-project env vars override generated
// ones key by key. The returned Result carries the connection details the
// user needs to reach the service.
func (d *Deployer) Deploy(ctx context.Context, proj *project.Project) project.Result {
	tmpl, err := d.registry.Get(proj.ServiceType)
	if err != nil {
		return project.Failure(fmt.Sprintf("unknown service type %q", proj.ServiceType))
	}

	containerName := project.ServiceContainerName(proj.ID)
	d.logger.Info("deploying managed service",
		"project_id", proj.ID, "service_type", tmpl.Type, "container", containerName)

	env := tmpl.GenerateEnv()
	for k, v := range proj.EnvVars {
		env[k] = v
	}

	if err := d.ensureNetwork(ctx); err != nil {
		return project.Failure(fmt.Sprintf("failed to prepare network: %v", err))
	}

	var mounts []docker.VolumeMount
	for _, v := range tmpl.Volumes {
		volumeName := project.VolumeName(proj.ID, v.Name)
		_, err := d.docker.CreateVolume(ctx, docker.VolumeSpec{
			Name:   volumeName,
			Labels: map[string]string{project.LabelProjectID: fmt.Sprintf("%d", proj.ID)},
		})
		if err != nil && !errors.Is(err, docker.ErrVolumeAlreadyExists) {
			return project.Failure(fmt.Sprintf("failed to create volume %s: %v", volumeName, err))
		}
		mounts = append(mounts, docker.VolumeMount{Source: volumeName, Target: v.MountPath})
	}

	// Redeploys replace the container; named volumes carry the data over.
	err = d.docker.RemoveContainer(ctx, containerName, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return project.Failure(fmt.Sprintf("failed to remove previous container: %v", err))
	}

	if err := d.docker.PullImage(ctx, tmpl.Image); err != nil {
		return project.Failure(fmt.Sprintf("failed to pull image %s: %v", tmpl.Image, err))
	}

	spec := docker.ContainerSpec{
		Name:  containerName,
		Image: tmpl.Image,
		Env:   env,
		Labels: map[string]string{
			project.LabelProjectID:   fmt.Sprintf("%d", proj.ID),
			project.LabelServiceName: tmpl.Type,
		},
		Volumes:       mounts,
		Networks:      []string{project.PlatformNetwork},
		RestartPolicy: "unless-stopped",
	}

	for _, p := range tmpl.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			ContainerPort: p.Number,
			HostPort:      p.Number,
		})
	}

	if cmd := substitutePassword(tmpl.Command, env); cmd != "" {
		spec.Command = strings.Fields(cmd)
	}

	if tmpl.HealthCheck != nil {
		spec.HealthCheck = &docker.HealthCheck{
			Test:     tmpl.HealthCheck.Test,
			Interval: tmpl.HealthCheck.Interval,
			Timeout:  tmpl.HealthCheck.Timeout,
			Retries:  tmpl.HealthCheck.Retries,
		}
	}

	containerID, err := d.docker.CreateContainer(ctx, spec)
	if err != nil {
		return project.Failure(fmt.Sprintf("failed to create container: %v", err))
	}
	if err := d.docker.StartContainer(ctx, containerID); err != nil {
		return project.Failure(fmt.Sprintf("failed to start container: %v", err))
	}

	result := project.Success(fmt.Sprintf("%s deployed", tmpl.Name))
	result.ContainerID = containerID
	result.ConnectionInfo = catalog.ConnectionInfo(tmpl, containerName, env)

	d.logger.Info("managed service running", "project_id", proj.ID, "container_id", containerID)
	return result
}

// Remove stops and removes a project's managed service container.
// removeVolumes also deletes its data volumes.
func (d *Deployer) Remove(ctx context.Context, proj *project.Project, removeVolumes bool) error {
	containerName := project.ServiceContainerName(proj.ID)

	err := d.docker.RemoveContainer(ctx, containerName, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return fmt.Errorf("remove service container: %w", err)
	}

	if !removeVolumes {
		return nil
	}

	tmpl, err := d.registry.Get(proj.ServiceType)
	if err != nil {
		return nil // unknown type has no volumes to clean
	}
	for _, v := range tmpl.Volumes {
		volumeName := project.VolumeName(proj.ID, v.Name)
		err := d.docker.RemoveVolume(ctx, volumeName, true)
		if err != nil && !errors.Is(err, docker.ErrVolumeNotFound) {
			return fmt.Errorf("remove volume %s: %w", volumeName, err)
		}
	}
	return nil
}

// ensureNetwork creates the shared platform network if it does not exist.
func (d *Deployer) ensureNetwork(ctx context.Context) error {
	_, err := d.docker.CreateNetwork(ctx, docker.NetworkSpec{Name: project.PlatformNetwork})
	if err != nil && !errors.Is(err, docker.ErrNetworkAlreadyExists) {
		return err
	}
	return nil
}

// substitutePassword fills the {password} placeholder in a template command
// from the env var carrying the service password. With several candidate
// keys the first in sorted order wins, so repeated deploys pick the same one.
func substitutePassword(cmd string, env map[string]string) string {
	if !strings.Contains(cmd, "{password}") {
		return cmd
	}
	var keys []string
	for k := range env {
		if strings.HasSuffix(k, "_PASSWORD") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return cmd
	}
	sort.Strings(keys)
	return strings.ReplaceAll(cmd, "{password}", env[keys[0]])
}
