// Package build runs static site builds inside ephemeral containers and
// collects their output for serving.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/auraops/auraops/internal/core/buildspec"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// BuilderImage is the container image builds run inside.
const BuilderImage = "node:20-alpine"

// workDir is where the repository is cloned inside the build container.
const workDir = "/app"

// errorTailLines bounds how much command output is kept when a step fails.
const errorTailLines = 20

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline builds static sites in a throwaway container. The container is
// kept alive for the duration of the build so each step can run as a
// separate exec, then removed unconditionally.
type Pipeline struct {
	docker     docker.Client
	staticRoot string
	logger     *slog.Logger
}

// NewPipeline creates a build Pipeline. staticRoot is the host directory
// build output is copied into, one subdirectory per project.
func NewPipeline(cli docker.Client, staticRoot string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		docker:     cli,
		staticRoot: staticRoot,
		logger:     logger.With("component", "build"),
	}
}

// Run executes the full build for a static_build project: clone, install,
// build, copy out. The returned Result carries the ordered build log whether
// the build succeeded or failed.
func (p *Pipeline) Run(ctx context.Context, proj *project.Project) project.Result {
	log := &buildLog{}
	containerName := project.BuildContainerName(proj.ID)

	log.info("Starting build for %s", proj.Name)

	// A previous crashed build may have left its container behind.
	p.removeBuildContainer(ctx, containerName)

	if err := p.docker.PullImage(ctx, BuilderImage); err != nil {
		return p.fail(log, "failed to pull builder image: %v", err)
	}

	containerID, err := p.docker.CreateContainer(ctx, docker.ContainerSpec{
		Name:    containerName,
		Image:   BuilderImage,
		Command: []string{"tail", "-f", "/dev/null"},
		Labels:  map[string]string{project.LabelProjectID: fmt.Sprintf("%d", proj.ID)},
	})
	if err != nil {
		return p.fail(log, "failed to create build container: %v", err)
	}
	defer p.removeBuildContainer(context.WithoutCancel(ctx), containerID)

	if err := p.docker.StartContainer(ctx, containerID); err != nil {
		return p.fail(log, "failed to start build container: %v", err)
	}

	log.info("Cloning %s (branch %s)", proj.RepoURL, branchOrDefault(proj.Branch))
	if res := p.step(ctx, log, containerID, "clone",
		"apk add --no-cache git >/dev/null 2>&1 && git clone --depth 1 --branch "+
			shellQuote(branchOrDefault(proj.Branch))+" "+shellQuote(proj.RepoURL)+" "+workDir,
		nil); !res.Succeeded() {
		return res
	}
	log.success("Repository cloned")

	installCmd := proj.InstallCommand
	if installCmd == "" {
		installCmd = buildspec.DefaultInstallCommand
	}
	log.info("Installing dependencies: %s", installCmd)
	if res := p.step(ctx, log, containerID, "install", "cd "+workDir+" && "+installCmd, nil); !res.Succeeded() {
		return res
	}
	log.success("Dependencies installed")

	buildCmd := proj.BuildCommand
	if buildCmd == "" {
		buildCmd = buildspec.DefaultBuildCommand
	}
	log.info("Running build: %s", buildCmd)
	if res := p.step(ctx, log, containerID, "build", "cd "+workDir+" && "+buildCmd, proj.EnvVars); !res.Succeeded() {
		return res
	}
	log.success("Build completed")

	staticDir := proj.StaticDir
	if staticDir == "" {
		staticDir = buildspec.DefaultStaticDir
	}
	outputDir := project.StaticOutputDir(p.staticRoot, proj.ID)

	log.info("Copying %s to static hosting", staticDir)
	if err := p.docker.CopyFromContainer(ctx, containerID, workDir+"/"+staticDir, outputDir); err != nil {
		return p.fail(log, "failed to copy build output %q: %v", staticDir, err)
	}
	log.success("Static files published")

	result := project.Success(fmt.Sprintf("build completed for %s", proj.Name))
	result.Logs = log.lines
	return result
}

// CleanArtifacts removes a project's published static files. Missing
// artifacts are not an error.
func (p *Pipeline) CleanArtifacts(projectID int64) error {
	dir := project.StaticOutputDir(p.staticRoot, projectID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clean artifacts for project %d: %w", projectID, err)
	}
	p.logger.Info("artifacts removed", "project_id", projectID, "dir", dir)
	return nil
}

// =============================================================================
// Steps
// =============================================================================

// step runs one shell command inside the build container. On a non-zero
// exit it records a truncated tail of the output and returns a failed
// Result; callers propagate it unchanged.
func (p *Pipeline) step(ctx context.Context, log *buildLog, containerID, name, script string, env map[string]string) project.Result {
	cmd := []string{"sh", "-c", exportEnv(env) + script}

	res, err := p.docker.ExecContainer(ctx, containerID, cmd)
	if err != nil {
		return p.fail(log, "%s step error: %v", name, err)
	}
	if res.ExitCode != 0 {
		return p.fail(log, "%s failed (exit %d):\n%s", name, res.ExitCode, tail(res.Output, errorTailLines))
	}

	return project.Success("")
}

// fail records the error in the build log and returns a failed Result
// carrying the full log. Container teardown is handled by the caller's
// defer.
func (p *Pipeline) fail(log *buildLog, format string, args ...any) project.Result {
	log.error(format, args...)
	p.logger.Error("build failed", "error", fmt.Sprintf(format, args...))

	result := project.Failure(log.lines[len(log.lines)-1])
	result.Logs = log.lines
	return result
}

func (p *Pipeline) removeBuildContainer(ctx context.Context, nameOrID string) {
	err := p.docker.RemoveContainer(ctx, nameOrID, docker.RemoveOptions{Force: true})
	if err != nil && !isNotFound(err) {
		p.logger.Warn("failed to remove build container", "container", nameOrID, "error", err)
	}
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// =============================================================================
// Helpers
// =============================================================================

func branchOrDefault(branch string) string {
	if branch == "" {
		return "main"
	}
	return branch
}

// exportEnv renders env vars as shell export statements prefixed to a
// command line.
func exportEnv(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	var b strings.Builder
	for k, v := range env {
		b.WriteString("export ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(shellQuote(v))
		b.WriteString(" && ")
	}
	return b.String()
}

// shellQuote single-quotes a value for inclusion in a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// Build Log
// =============================================================================

// buildLog accumulates tagged, ordered build output shown to the user.
type buildLog struct {
	lines []string
}

func (l *buildLog) info(format string, args ...any)    { l.add("[INFO] ", format, args...) }
func (l *buildLog) success(format string, args ...any) { l.add("[SUCCESS] ", format, args...) }
func (l *buildLog) error(format string, args ...any)   { l.add("[ERROR] ", format, args...) }

func (l *buildLog) add(tag, format string, args ...any) {
	l.lines = append(l.lines, tag+fmt.Sprintf(format, args...))
}
