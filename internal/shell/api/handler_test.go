package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraops/auraops/internal/core/catalog"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/certs"
	"github.com/auraops/auraops/internal/shell/docker"
	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// pingClient satisfies docker.Client for the readiness probe; everything else
// goes through the Deployer interface and never reaches the runtime directly.
type pingClient struct {
	docker.Client

	pingErr error
}

func (p *pingClient) Ping(context.Context) error { return p.pingErr }

type stubDeployer struct {
	deployResult project.Result
	stopResult   project.Result
	removeResult project.Result
	status       string
	statusErr    error

	deployed []int64
	mu       sync.Mutex
}

func (s *stubDeployer) Deploy(_ context.Context, p *project.Project, _ *project.Domain) project.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployed = append(s.deployed, p.ID)
	return s.deployResult
}

func (s *stubDeployer) Stop(context.Context, *project.Project) project.Result {
	return s.stopResult
}

func (s *stubDeployer) Remove(context.Context, *project.Project, bool) project.Result {
	return s.removeResult
}

func (s *stubDeployer) ContainerStatus(context.Context, *project.Project) (string, error) {
	return s.status, s.statusErr
}

type stubProxy struct {
	written []int64
	deleted []int64
	mu      sync.Mutex
}

func (s *stubProxy) WriteConfig(_ context.Context, p *project.Project, _ *project.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, p.ID)
	return nil
}

func (s *stubProxy) DeleteConfig(_ context.Context, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, projectID)
	return nil
}

type stubCerts struct {
	issueErr  error
	revokeErr error
}

func (s *stubCerts) Issue(_ context.Context, d *project.Domain) error {
	if s.issueErr != nil {
		return s.issueErr
	}
	now := time.Now().UTC()
	expires := now.Add(certs.Validity)
	d.SSLEnabled = true
	d.SSLProvider = "letsencrypt"
	d.SSLIssuedAt = &now
	d.SSLExpiresAt = &expires
	return nil
}

func (s *stubCerts) Revoke(_ context.Context, d *project.Domain) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	d.SSLEnabled = false
	d.SSLProvider = ""
	d.SSLIssuedAt = nil
	d.SSLExpiresAt = nil
	return nil
}

func (s *stubCerts) WildcardGuide(baseDomain string) certs.WildcardInstructions {
	return certs.WildcardInstructions{Domain: "*." + baseDomain, Method: "dns-01"}
}

type testEnv struct {
	server   *httptest.Server
	store    store.Store
	deployer *stubDeployer
	proxy    *stubProxy
	certs    *stubCerts
	docker   *pingClient
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A file-backed database: deploys run on background goroutines, and a
	// second pool connection to ":memory:" would see an empty database.
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	env := &testEnv{
		store:    s,
		deployer: &stubDeployer{deployResult: project.Success("deployed"), stopResult: project.Success("stopped"), removeResult: project.Success("removed"), status: "running"},
		proxy:    &stubProxy{},
		certs:    &stubCerts{},
		docker:   &pingClient{},
	}

	h := NewHandler(s, env.docker, env.deployer, env.proxy, env.certs, catalog.NewRegistry(), nil)
	env.server = httptest.NewServer(h.Routes())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) createProject(t *testing.T, name string) *project.Project {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/projects/", ProjectRequest{
		Name:           name,
		DeploymentType: "image",
		RepoURL:        "registry.example.com/" + name + ":latest",
		Port:           3000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decodeBody[project.Project](t, resp)
	return &p
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestReady(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.docker.pingErr = errors.New("connection refused")
	resp = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// =============================================================================
// Project CRUD Tests
// =============================================================================

func TestCreateProject(t *testing.T) {
	env := setupTestEnv(t)

	p := env.createProject(t, "shop")
	assert.NotZero(t, p.ID)
	assert.Equal(t, "shop", p.Name)
	assert.NotEmpty(t, p.WebhookToken)
	assert.Equal(t, project.StatusStopped, p.Status)
}

func TestCreateProject_ValidationErrors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		req  ProjectRequest
	}{
		{"missing name", ProjectRequest{DeploymentType: "image", RepoURL: "x"}},
		{"invalid type", ProjectRequest{Name: "a", DeploymentType: "ftp"}},
		{"image without reference", ProjectRequest{Name: "a", DeploymentType: "image"}},
		{"compose without manifest", ProjectRequest{Name: "a", DeploymentType: "compose"}},
		{"service without type", ProjectRequest{Name: "a", DeploymentType: "service"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/projects/", tt.req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateProject_DuplicateName(t *testing.T) {
	env := setupTestEnv(t)
	env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, "/api/v1/projects/", ProjectRequest{
		Name:           "shop",
		DeploymentType: "image",
		RepoURL:        "registry.example.com/other:latest",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetProject_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/projects/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListProjects(t *testing.T) {
	env := setupTestEnv(t)
	env.createProject(t, "one")
	env.createProject(t, "two")

	resp := env.do(t, http.MethodGet, "/api/v1/projects/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.EqualValues(t, 2, body["count"])
}

func TestDeleteProject_TearsDownRuntime(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", p.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// Deploy Tests
// =============================================================================

func TestDeployProject_AsyncStatusTransitions(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/deploy", p.ID), nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		got, err := env.store.GetProject(context.Background(), p.ID)
		return err == nil && got.Status == project.StatusRunning
	}, 2*time.Second, 10*time.Millisecond)

	got, err := env.store.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastDeployed)
}

func TestDeployProject_FailureRecorded(t *testing.T) {
	env := setupTestEnv(t)
	env.deployer.deployResult = project.Failure("image unavailable")
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/deploy", p.ID), nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		got, err := env.store.GetProject(context.Background(), p.ID)
		return err == nil && got.Status == project.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, err := env.store.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Contains(t, got.BuildLogs, "image unavailable")
}

func TestDeployProject_SkippedWhileInProgress(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	require.NoError(t, env.store.UpdateProjectStatus(context.Background(), p.ID, project.StatusDeploying, nil))

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/deploy", p.ID), nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// the background goroutine bails before reaching the deployer
	time.Sleep(100 * time.Millisecond)
	env.deployer.mu.Lock()
	deployed := len(env.deployer.deployed)
	env.deployer.mu.Unlock()
	assert.Zero(t, deployed)

	got, err := env.store.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusDeploying, got.Status)
}

func TestStopProject(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/stop", p.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := env.store.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusStopped, got.Status)
}

func TestProjectStatus(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/status", p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "running", body["container_state"])
}

func TestProjectStatus_InspectErrorMapsToUnknown(t *testing.T) {
	env := setupTestEnv(t)
	env.deployer.statusErr = errors.New("socket error")
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/status", p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "unknown", body["container_state"])
}

// =============================================================================
// Webhook Tests
// =============================================================================

func TestWebhookDeploy(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, "/webhooks/deploy/"+p.WebhookToken, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		env.deployer.mu.Lock()
		defer env.deployer.mu.Unlock()
		return len(env.deployer.deployed) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookDeploy_UnknownToken(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodPost, "/webhooks/deploy/bogus-token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// Domain Tests
// =============================================================================

func TestAttachDomain(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "  Shop.Example.COM "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	d := decodeBody[project.Domain](t, resp)
	assert.Equal(t, "shop.example.com", d.Domain, "hostnames normalize to lowercase")
	assert.True(t, d.IsActive)

	// attaching routes the hostname immediately
	env.proxy.mu.Lock()
	defer env.proxy.mu.Unlock()
	assert.Equal(t, []int64{p.ID}, env.proxy.written)
}

func TestAttachDomain_Invalid(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "localhost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAttachDomain_Duplicate(t *testing.T) {
	env := setupTestEnv(t)
	p1 := env.createProject(t, "one")
	p2 := env.createProject(t, "two")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p1.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p2.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Contains(t, body.Error, "another project")
}

func TestListDomains_ReportsCertValidity(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[map[string][]DomainView](t, resp)
	require.Len(t, listed["domains"], 1)
	assert.False(t, listed["domains"][0].SSLValid)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed = decodeBody[map[string][]DomainView](t, resp)
	require.Len(t, listed["domains"], 1)
	assert.True(t, listed["domains"][0].SSLValid)
}

func TestDetachDomain(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/domains/%d", p.ID, d.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	domains, err := env.store.ListDomains(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestDomainScopedToProject(t *testing.T) {
	env := setupTestEnv(t)
	p1 := env.createProject(t, "one")
	p2 := env.createProject(t, "two")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p1.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	// another project cannot address the domain
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/domains/%d", p2.ID, d.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// Certificate Tests
// =============================================================================

func TestIssueCertificate(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	issued := decodeBody[project.Domain](t, resp)
	assert.True(t, issued.SSLEnabled)
	assert.Equal(t, "letsencrypt", issued.SSLProvider)

	// persisted, not only echoed
	got, err := env.store.GetDomain(context.Background(), d.ID)
	require.NoError(t, err)
	assert.True(t, got.SSLEnabled)
}

func TestIssueCertificate_WildcardReturnsGuide(t *testing.T) {
	env := setupTestEnv(t)
	env.certs.issueErr = certs.ErrWildcardDomain
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "star.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	guide := decodeBody[certs.WildcardInstructions](t, resp)
	assert.Equal(t, "dns-01", guide.Method)
}

func TestRevokeCertificate(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := env.store.GetDomain(context.Background(), d.ID)
	require.NoError(t, err)
	assert.False(t, got.SSLEnabled)
	assert.Empty(t, got.SSLProvider)
	assert.Nil(t, got.SSLExpiresAt)
}

func TestRevokeCertificate_FailureKeepsState(t *testing.T) {
	env := setupTestEnv(t)
	p := env.createProject(t, "shop")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/", p.ID),
		AttachDomainRequest{Domain: "shop.example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decodeBody[project.Domain](t, resp)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.certs.revokeErr = errors.New("certbot command failed: rate limited")

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/domains/%d/ssl", p.ID, d.ID), nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// recorded certificate state is untouched after the failed revocation
	got, err := env.store.GetDomain(context.Background(), d.ID)
	require.NoError(t, err)
	assert.True(t, got.SSLEnabled)
	assert.Equal(t, "letsencrypt", got.SSLProvider)
	assert.NotNil(t, got.SSLExpiresAt)
}

func TestWildcardGuideEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/ssl/wildcard-guide?domain=example.com", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/ssl/wildcard-guide", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// Template Tests
// =============================================================================

func TestListTemplates(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/templates/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	templates, ok := body["templates"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, templates)
}

func TestGetTemplate(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/templates/postgres", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/templates/oracle", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// Build Suggestion Tests
// =============================================================================

func TestBuildSuggestions(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/build/suggestions?framework=react", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, true, body["known"])
}
