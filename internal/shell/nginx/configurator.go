// Package nginx manages reverse proxy configuration files and reloads the
// proxy container when they change.
package nginx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/auraops/auraops/internal/core/nginx"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrProxyNotRunning indicates the proxy container could not be found
	// or is not in a running state.
	ErrProxyNotRunning = errors.New("proxy container is not running")

	// ErrConfigInvalid indicates the generated configuration failed
	// validation inside the proxy container. The files on disk keep the
	// new content so the operator can inspect them.
	ErrConfigInvalid = errors.New("nginx configuration validation failed")

	// ErrReloadFailed indicates validation passed but the reload signal
	// itself failed.
	ErrReloadFailed = errors.New("nginx reload failed")
)

// =============================================================================
// Configurator
// =============================================================================

// Configurator writes per-project proxy configuration files into a directory
// mounted by the proxy container and signals the proxy to reload.
type Configurator struct {
	docker     docker.Client
	configDir  string
	staticRoot string
	logger     *slog.Logger
}

// New creates a Configurator. configDir is the host directory the proxy
// container mounts as its conf.d; staticRoot is where built static sites
// live on the host.
func New(cli docker.Client, configDir, staticRoot string, logger *slog.Logger) *Configurator {
	return &Configurator{
		docker:     cli,
		configDir:  configDir,
		staticRoot: staticRoot,
		logger:     logger.With("component", "nginx"),
	}
}

// =============================================================================
// Config File Management
// =============================================================================

// WriteConfig regenerates the full configuration file for a project and
// reloads the proxy. The file is always written whole, never patched, so a
// domain gaining or losing a certificate produces a consistent server block.
func (c *Configurator) WriteConfig(ctx context.Context, p *project.Project, d *project.Domain) error {
	content := nginx.ForProject(p, d, c.staticRoot)
	path := filepath.Join(c.configDir, project.ConfigFileName(p.ID))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config for project %d: %w", p.ID, err)
	}

	c.logger.Info("proxy config written", "project_id", p.ID, "path", path)
	return c.Reload(ctx)
}

// DeleteConfig removes a project's configuration file and reloads the proxy.
// A missing file is not an error.
func (c *Configurator) DeleteConfig(ctx context.Context, projectID int64) error {
	path := filepath.Join(c.configDir, project.ConfigFileName(projectID))

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete config for project %d: %w", projectID, err)
	}

	c.logger.Info("proxy config removed", "project_id", projectID)
	return c.Reload(ctx)
}

// WriteWildcard writes the wildcard subdomain routing config, which maps
// <project>.<base domain> hostnames onto app containers by name.
func (c *Configurator) WriteWildcard(ctx context.Context, baseDomain string, appPort int) error {
	content := nginx.RenderWildcard(nginx.WildcardParams{
		BaseDomain: baseDomain,
		Port:       appPort,
	})
	path := filepath.Join(c.configDir, "wildcard.conf")

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write wildcard config: %w", err)
	}

	c.logger.Info("wildcard config written", "base_domain", baseDomain)
	return c.Reload(ctx)
}

// WritePlatform writes the config serving the management UI and API on the
// platform's own domain.
func (c *Configurator) WritePlatform(ctx context.Context, params nginx.PlatformParams) error {
	content := nginx.RenderPlatform(params)
	path := filepath.Join(c.configDir, "platform.conf")

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write platform config: %w", err)
	}

	c.logger.Info("platform config written", "domain", params.ServerName)
	return c.Reload(ctx)
}

// =============================================================================
// Reload
// =============================================================================

// Reload validates the configuration inside the proxy container and signals
// a reload. Validation runs first so a broken file never takes down the
// running proxy.
func (c *Configurator) Reload(ctx context.Context) error {
	info, err := c.docker.InspectContainer(ctx, project.ProxyContainer)
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			c.logger.Warn("proxy container not found, skipping reload")
			return ErrProxyNotRunning
		}
		return fmt.Errorf("inspect proxy container: %w", err)
	}
	if info.State != "running" {
		return ErrProxyNotRunning
	}

	check, err := c.docker.ExecContainer(ctx, info.ID, []string{"nginx", "-t"})
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if check.ExitCode != 0 {
		c.logger.Error("config validation failed", "output", check.Output)
		return fmt.Errorf("%w: %s", ErrConfigInvalid, check.Output)
	}

	reload, err := c.docker.ExecContainer(ctx, info.ID, []string{"nginx", "-s", "reload"})
	if err != nil {
		return fmt.Errorf("reload proxy: %w", err)
	}
	if reload.ExitCode != 0 {
		c.logger.Error("reload failed", "output", reload.Output)
		return fmt.Errorf("%w: %s", ErrReloadFailed, reload.Output)
	}

	c.logger.Info("proxy reloaded")
	return nil
}
