package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/auraops/auraops/internal/core/compose"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Compose Orchestration
// =============================================================================

// deployCompose materializes a multi-service stack from the project's
// manifest. Services start in dependency order; one service failing to
// start is logged and orchestration continues, so the Result reports which
// services actually came up.
func (d *Dispatcher) deployCompose(ctx context.Context, proj *project.Project) project.Result {
	manifest, err := compose.Parse(proj.ComposeFile)
	if err != nil {
		return project.Failure(fmt.Sprintf("manifest parse failed: %v", err))
	}

	order, err := compose.DeployOrder(manifest)
	if err != nil {
		return project.Failure(fmt.Sprintf("dependency resolution failed: %v", err))
	}

	labels := map[string]string{project.LabelProjectID: fmt.Sprintf("%d", proj.ID)}
	networkName := project.NetworkName(proj.ID)

	_, err = d.docker.CreateNetwork(ctx, docker.NetworkSpec{Name: networkName, Labels: labels})
	if err != nil && !errors.Is(err, docker.ErrNetworkAlreadyExists) {
		return project.Failure(fmt.Sprintf("failed to create network: %v", err))
	}

	for _, v := range manifest.Volumes {
		volumeName := project.VolumeName(proj.ID, v)
		_, err := d.docker.CreateVolume(ctx, docker.VolumeSpec{Name: volumeName, Labels: labels})
		if err != nil && !errors.Is(err, docker.ErrVolumeAlreadyExists) {
			return project.Failure(fmt.Sprintf("failed to create volume %s: %v", volumeName, err))
		}
	}

	var deployed []string
	var logs []string

	for _, name := range order {
		svc := manifest.Service(name)
		if svc == nil {
			// Referenced by depends_on or links but never declared.
			continue
		}

		if svc.Image == "" {
			if svc.HasBuild {
				d.logger.Warn("build contexts are not supported in manifests", "service", name)
				logs = append(logs, fmt.Sprintf("skipped %s: build contexts are not supported", name))
			} else {
				d.logger.Warn("service has no image", "service", name)
				logs = append(logs, fmt.Sprintf("skipped %s: no image specified", name))
			}
			continue
		}

		if err := d.deployComposeService(ctx, proj, svc, networkName); err != nil {
			d.logger.Error("service deploy failed", "service", name, "error", err)
			logs = append(logs, fmt.Sprintf("failed %s: %v", name, err))
			continue
		}

		deployed = append(deployed, name)
		logs = append(logs, fmt.Sprintf("deployed %s", name))
	}

	result := project.Success(fmt.Sprintf("deployed %d of %d services", len(deployed), len(manifest.Services)))
	result.DeployedServices = deployed
	result.Logs = logs
	return result
}

// deployComposeService starts one service of a compose stack, replacing any
// previous container under its deterministic name.
func (d *Dispatcher) deployComposeService(ctx context.Context, proj *project.Project, svc *compose.Service, networkName string) error {
	containerName := project.ComposeContainerName(proj.ID, svc.Name)

	if err := d.docker.PullImage(ctx, svc.Image); err != nil {
		exists, existsErr := d.docker.ImageExists(ctx, svc.Image)
		if existsErr != nil || !exists {
			return fmt.Errorf("image %s unavailable: %w", svc.Image, err)
		}
	}

	spec := docker.ContainerSpec{
		Name:    containerName,
		Image:   svc.Image,
		Command: svc.Command,
		Env:     svc.Environment,
		Labels: map[string]string{
			project.LabelProjectID:   fmt.Sprintf("%d", proj.ID),
			project.LabelServiceName: svc.Name,
		},
		Networks:      []string{networkName},
		RestartPolicy: svc.Restart,
	}

	for _, p := range svc.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			HostPort:      p.HostPort,
			ContainerPort: p.ContainerPort,
		})
	}

	for _, v := range svc.Volumes {
		source := v.Source
		if v.Named {
			source = project.VolumeName(proj.ID, v.Source)
		}
		spec.Volumes = append(spec.Volumes, docker.VolumeMount{
			Source:   source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}

	err := d.docker.RemoveContainer(ctx, containerName, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return fmt.Errorf("remove previous container: %w", err)
	}

	containerID, err := d.docker.CreateContainer(ctx, spec)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	if err := d.docker.StartContainer(ctx, containerID); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

// stopCompose stops every container carrying the project's label. Resources
// are found by label, never by name pattern.
func (d *Dispatcher) stopCompose(ctx context.Context, proj *project.Project) project.Result {
	containers, err := d.listProjectContainers(ctx, proj.ID)
	if err != nil {
		return project.Failure(fmt.Sprintf("failed to list containers: %v", err))
	}

	var stopped []string
	for _, c := range containers {
		if err := d.docker.StopContainer(ctx, c.ID, nil); err != nil &&
			!errors.Is(err, docker.ErrContainerNotFound) &&
			!errors.Is(err, docker.ErrContainerNotRunning) {
			d.logger.Warn("failed to stop container", "container", c.Name, "error", err)
			continue
		}
		stopped = append(stopped, c.Name)
	}

	result := project.Success(fmt.Sprintf("stopped %d services", len(stopped)))
	result.DeployedServices = stopped
	return result
}

// removeCompose tears down a compose stack. Named volumes are preserved
// unless removeVolumes is set; network removal is best-effort.
func (d *Dispatcher) removeCompose(ctx context.Context, proj *project.Project, removeVolumes bool) project.Result {
	containers, err := d.listProjectContainers(ctx, proj.ID)
	if err != nil {
		return project.Failure(fmt.Sprintf("failed to list containers: %v", err))
	}

	for _, c := range containers {
		err := d.docker.RemoveContainer(ctx, c.ID, docker.RemoveOptions{Force: true})
		if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
			d.logger.Warn("failed to remove container", "container", c.Name, "error", err)
		}
	}

	err = d.docker.RemoveNetwork(ctx, project.NetworkName(proj.ID))
	if err != nil && !errors.Is(err, docker.ErrNetworkNotFound) {
		d.logger.Warn("failed to remove network", "project_id", proj.ID, "error", err)
	}

	if removeVolumes {
		if manifest, perr := compose.Parse(proj.ComposeFile); perr == nil {
			for _, v := range manifest.Volumes {
				volumeName := project.VolumeName(proj.ID, v)
				err := d.docker.RemoveVolume(ctx, volumeName, true)
				if err != nil && !errors.Is(err, docker.ErrVolumeNotFound) {
					d.logger.Warn("failed to remove volume", "volume", volumeName, "error", err)
				}
			}
		}
	}

	return project.Success("stack removed")
}

func (d *Dispatcher) listProjectContainers(ctx context.Context, projectID int64) ([]docker.ContainerInfo, error) {
	return d.docker.ListContainers(ctx, docker.ListOptions{
		All:     true,
		Filters: map[string]string{"label": fmt.Sprintf("%s=%d", project.LabelProjectID, projectID)},
	})
}
