package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Direct Run Strategies
// =============================================================================

// deployDirect runs a single container from an existing image reference.
// Any previous container under the project's name is replaced.
func (d *Dispatcher) deployDirect(ctx context.Context, proj *project.Project, domain *project.Domain, image string) project.Result {
	if image == "" {
		return project.Failure("no image reference configured")
	}

	if err := d.ensurePlatformNetwork(ctx); err != nil {
		return project.Failure(fmt.Sprintf("failed to prepare network: %v", err))
	}

	if err := d.docker.PullImage(ctx, image); err != nil {
		// Locally built images are not in any registry; a pull failure
		// is only fatal when the image is absent locally too.
		exists, existsErr := d.docker.ImageExists(ctx, image)
		if existsErr != nil || !exists {
			return project.Failure(fmt.Sprintf("image %s unavailable: %v", image, err))
		}
	}

	containerName := project.AppContainerName(proj.ID)
	err := d.docker.RemoveContainer(ctx, containerName, docker.RemoveOptions{Force: true})
	if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
		return project.Failure(fmt.Sprintf("failed to remove previous container: %v", err))
	}

	spec := docker.ContainerSpec{
		Name:          containerName,
		Image:         image,
		Env:           proj.EnvVars,
		Labels:        map[string]string{project.LabelProjectID: fmt.Sprintf("%d", proj.ID)},
		Networks:      []string{project.PlatformNetwork},
		RestartPolicy: "unless-stopped",
	}
	if proj.Port > 0 {
		// The proxy reaches the container over the shared network; the
		// port is exposed without a fixed host binding.
		spec.Ports = []docker.PortBinding{{ContainerPort: proj.Port}}
	}

	containerID, err := d.docker.CreateContainer(ctx, spec)
	if err != nil {
		return project.Failure(fmt.Sprintf("failed to create container: %v", err))
	}
	if err := d.docker.StartContainer(ctx, containerID); err != nil {
		return project.Failure(fmt.Sprintf("failed to start container: %v", err))
	}

	d.writeProxyConfig(ctx, proj, domain)

	result := project.Success(fmt.Sprintf("%s deployed", proj.Name))
	result.ContainerID = containerID
	return result
}

// deployDockerfile builds an image from the project's repository and runs
// it. The clone is shallow and the checkout directory is removed whether the
// build succeeds or not.
func (d *Dispatcher) deployDockerfile(ctx context.Context, proj *project.Project, domain *project.Domain) project.Result {
	if proj.RepoURL == "" {
		return project.Failure("no repository configured")
	}

	buildDir, err := os.MkdirTemp("", fmt.Sprintf("%s-build-%d-", project.Platform, proj.ID))
	if err != nil {
		return project.Failure(fmt.Sprintf("failed to create build dir: %v", err))
	}
	defer os.RemoveAll(buildDir)

	branch := proj.Branch
	if branch == "" {
		branch = "main"
	}

	d.logger.Info("cloning repository", "project_id", proj.ID, "repo", proj.RepoURL, "branch", branch)
	clone := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--branch", branch, proj.RepoURL, buildDir)
	if out, err := clone.CombinedOutput(); err != nil {
		return project.Failure(fmt.Sprintf("git clone failed: %s", strings.TrimSpace(string(out))))
	}

	contextDir := filepath.Join(buildDir, strings.TrimPrefix(proj.BuildContext, "/"))
	tag := project.ImageTag(proj.Name)

	d.logger.Info("building image", "project_id", proj.ID, "tag", tag, "context", contextDir)
	err = d.docker.BuildImage(ctx, contextDir, tag, docker.BuildOptions{Dockerfile: proj.DockerfilePath})
	if err != nil {
		return project.Failure(fmt.Sprintf("image build failed: %v", err))
	}

	return d.deployDirect(ctx, proj, domain, tag)
}

// deployStatic builds the project's static bundle and publishes its proxy
// entry. The site has no runtime container.
func (d *Dispatcher) deployStatic(ctx context.Context, proj *project.Project, domain *project.Domain) project.Result {
	result := d.builder.Run(ctx, proj)
	if !result.Succeeded() {
		return result
	}

	d.writeProxyConfig(ctx, proj, domain)
	return result
}
