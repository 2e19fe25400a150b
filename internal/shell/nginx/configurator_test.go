package nginx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/docker"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type fakeClient struct {
	proxyState string // "" means no proxy container
	execs      [][]string

	validateExit   int
	validateOutput string
	reloadExit     int
}

func (f *fakeClient) CreateContainer(context.Context, docker.ContainerSpec) (string, error) {
	return "", nil
}

func (f *fakeClient) StartContainer(context.Context, string) error { return nil }

func (f *fakeClient) StopContainer(context.Context, string, *time.Duration) error { return nil }

func (f *fakeClient) RemoveContainer(context.Context, string, docker.RemoveOptions) error {
	return nil
}

func (f *fakeClient) InspectContainer(_ context.Context, nameOrID string) (*docker.ContainerInfo, error) {
	if nameOrID != project.ProxyContainer || f.proxyState == "" {
		return nil, docker.ErrContainerNotFound
	}
	return &docker.ContainerInfo{ID: "proxy-id", Name: nameOrID, State: f.proxyState}, nil
}

func (f *fakeClient) ListContainers(context.Context, docker.ListOptions) ([]docker.ContainerInfo, error) {
	return nil, nil
}

func (f *fakeClient) ExecContainer(_ context.Context, _ string, cmd []string) (*docker.ExecResult, error) {
	f.execs = append(f.execs, cmd)
	if len(cmd) > 1 && cmd[1] == "-t" {
		return &docker.ExecResult{ExitCode: f.validateExit, Output: f.validateOutput}, nil
	}
	return &docker.ExecResult{ExitCode: f.reloadExit}, nil
}

func (f *fakeClient) CopyFromContainer(context.Context, string, string, string) error { return nil }

func (f *fakeClient) CreateNetwork(context.Context, docker.NetworkSpec) (string, error) {
	return "", nil
}

func (f *fakeClient) RemoveNetwork(context.Context, string) error { return nil }

func (f *fakeClient) CreateVolume(context.Context, docker.VolumeSpec) (string, error) {
	return "", nil
}

func (f *fakeClient) RemoveVolume(context.Context, string, bool) error { return nil }

func (f *fakeClient) PullImage(context.Context, string) error { return nil }

func (f *fakeClient) ImageExists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeClient) BuildImage(context.Context, string, string, docker.BuildOptions) error {
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }
func (f *fakeClient) Close() error               { return nil }

func testConfigurator(t *testing.T, cli *fakeClient) (*Configurator, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cli, dir, "/var/www", logger), dir
}

// =============================================================================
// WriteConfig Tests
// =============================================================================

func TestWriteConfig_WritesFileAndReloads(t *testing.T) {
	cli := &fakeClient{proxyState: "running"}
	c, dir := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage, Port: 3000}
	err := c.WriteConfig(context.Background(), p, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "app-42.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "proxy_pass http://auraops-app-42:3000;")

	// validate runs before the reload signal
	require.Len(t, cli.execs, 2)
	assert.Equal(t, []string{"nginx", "-t"}, cli.execs[0])
	assert.Equal(t, []string{"nginx", "-s", "reload"}, cli.execs[1])
}

func TestWriteConfig_ProxyMissing(t *testing.T) {
	cli := &fakeClient{}
	c, dir := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage, Port: 3000}
	err := c.WriteConfig(context.Background(), p, nil)

	assert.ErrorIs(t, err, ErrProxyNotRunning)
	// the file stays on disk so it applies once the proxy comes up
	assert.FileExists(t, filepath.Join(dir, "app-42.conf"))
}

func TestWriteConfig_ProxyStopped(t *testing.T) {
	cli := &fakeClient{proxyState: "exited"}
	c, _ := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage}
	err := c.WriteConfig(context.Background(), p, nil)

	assert.ErrorIs(t, err, ErrProxyNotRunning)
	assert.Empty(t, cli.execs)
}

func TestWriteConfig_ValidationFailureSkipsReload(t *testing.T) {
	cli := &fakeClient{proxyState: "running", validateExit: 1, validateOutput: "unexpected end of file"}
	c, _ := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage}
	err := c.WriteConfig(context.Background(), p, nil)

	require.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "unexpected end of file")
	require.Len(t, cli.execs, 1, "reload must not fire after failed validation")
}

func TestWriteConfig_ReloadFailure(t *testing.T) {
	cli := &fakeClient{proxyState: "running", reloadExit: 1}
	c, _ := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage}
	err := c.WriteConfig(context.Background(), p, nil)

	assert.ErrorIs(t, err, ErrReloadFailed)
}

func TestWriteConfig_SSLFlipOffDropsTLSBlock(t *testing.T) {
	cli := &fakeClient{proxyState: "running"}
	c, dir := testConfigurator(t, cli)

	p := &project.Project{ID: 42, DeploymentType: project.DeployImage, Port: 3000}
	now := time.Now()
	d := &project.Domain{
		Domain:       "shop.example.com",
		SSLEnabled:   true,
		SSLProvider:  "letsencrypt",
		SSLIssuedAt:  &now,
		SSLExpiresAt: &now,
	}

	require.NoError(t, c.WriteConfig(context.Background(), p, d))
	path := filepath.Join(dir, "app-42.conf")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "listen 443 ssl")
	require.Contains(t, string(content), "ssl_certificate")

	// the file is regenerated whole, so flipping TLS off leaves no trace
	d.SSLEnabled = false
	require.NoError(t, c.WriteConfig(context.Background(), p, d))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "443")
	assert.NotContains(t, string(content), "ssl_certificate")
	assert.NotContains(t, string(content), "return 301")
	assert.Contains(t, string(content), "listen 80;")
	assert.Contains(t, string(content), "server_name shop.example.com;")
}

// =============================================================================
// DeleteConfig Tests
// =============================================================================

func TestDeleteConfig_RemovesFileAndReloads(t *testing.T) {
	cli := &fakeClient{proxyState: "running"}
	c, dir := testConfigurator(t, cli)

	path := filepath.Join(dir, "app-7.conf")
	require.NoError(t, os.WriteFile(path, []byte("server {}"), 0o644))

	err := c.DeleteConfig(context.Background(), 7)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
	assert.Len(t, cli.execs, 2)
}

func TestDeleteConfig_MissingFileIsNoop(t *testing.T) {
	cli := &fakeClient{proxyState: "running"}
	c, _ := testConfigurator(t, cli)

	err := c.DeleteConfig(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, cli.execs, "no reload when nothing changed")
}

// =============================================================================
// Wildcard and Platform Tests
// =============================================================================

func TestWriteWildcard(t *testing.T) {
	cli := &fakeClient{proxyState: "running"}
	c, dir := testConfigurator(t, cli)

	err := c.WriteWildcard(context.Background(), "apps.example.com", 3000)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "wildcard.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `\.apps\.example\.com$`)
}
