package nginx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/auraops/auraops/internal/core/project"
)

// =============================================================================
// Proxy Rendering Tests
// =============================================================================

func TestRenderProxy_PlainHTTP(t *testing.T) {
	out := RenderProxy(ProxyParams{
		ServerName:    "app.example.com",
		ContainerName: "auraops-app-1",
		Port:          3000,
	})

	assert.Contains(t, out, "listen 80;")
	assert.Contains(t, out, "server_name app.example.com;")
	assert.Contains(t, out, "proxy_pass http://auraops-app-1:3000;")
	assert.NotContains(t, out, "listen 443")
	assert.NotContains(t, out, "return 301")
}

func TestRenderProxy_TLSAddsRedirectAndHTTPSBlock(t *testing.T) {
	out := RenderProxy(ProxyParams{
		ServerName:    "app.example.com",
		ContainerName: "auraops-app-1",
		Port:          8080,
		TLS:           true,
		CertPath:      CertPath("app.example.com"),
		KeyPath:       KeyPath("app.example.com"),
	})

	assert.Contains(t, out, "return 301 https://$host$request_uri;")
	assert.Contains(t, out, "listen 443 ssl http2;")
	assert.Contains(t, out, "ssl_certificate /etc/letsencrypt/live/app.example.com/fullchain.pem;")
	assert.Contains(t, out, "ssl_certificate_key /etc/letsencrypt/live/app.example.com/privkey.pem;")
	assert.Contains(t, out, "proxy_pass http://auraops-app-1:8080;")
}

func TestRenderProxy_WebsocketHeaders(t *testing.T) {
	out := RenderProxy(ProxyParams{ServerName: "x", ContainerName: "c", Port: 1})

	assert.Contains(t, out, `proxy_set_header Upgrade $http_upgrade;`)
	assert.Contains(t, out, `proxy_set_header Connection "upgrade";`)
}

// =============================================================================
// Static Rendering Tests
// =============================================================================

func TestRenderStatic_SPAFallback(t *testing.T) {
	out := RenderStatic(StaticParams{
		ServerName: "site.example.com",
		RootDir:    "/var/www/project-7",
	})

	assert.Contains(t, out, "root /var/www/project-7;")
	assert.Contains(t, out, "try_files $uri $uri/ /index.html;")
	assert.Contains(t, out, "gzip on;")
	assert.NotContains(t, out, "proxy_pass")
}

func TestRenderStatic_TLS(t *testing.T) {
	out := RenderStatic(StaticParams{
		ServerName: "site.example.com",
		RootDir:    "/var/www/project-7",
		TLS:        true,
		CertPath:   CertPath("site.example.com"),
		KeyPath:    KeyPath("site.example.com"),
	})

	assert.Contains(t, out, "listen 443 ssl http2;")
	assert.Contains(t, out, "return 301 https://$host$request_uri;")
}

// =============================================================================
// Wildcard Rendering Tests
// =============================================================================

func TestRenderWildcard_EscapesBaseDomain(t *testing.T) {
	out := RenderWildcard(WildcardParams{BaseDomain: "apps.example.com", Port: 3000})

	assert.Contains(t, out, `server_name ~^(?<project>[a-z0-9-]+)\.apps\.example\.com$;`)
	assert.Contains(t, out, "resolver 127.0.0.11 valid=10s;")
	assert.Contains(t, out, "proxy_pass http://auraops-app-$project:3000;")
}

// =============================================================================
// Platform Rendering Tests
// =============================================================================

func TestRenderPlatform_SplitsAPIAndFrontend(t *testing.T) {
	out := RenderPlatform(PlatformParams{
		ServerName:  "_",
		APIUpstream: "127.0.0.1:8080",
		FrontendDir: "/var/www/frontend",
	})

	assert.Contains(t, out, "listen 80 default_server;")
	assert.Contains(t, out, "proxy_pass http://127.0.0.1:8080;")
	assert.Contains(t, out, "root /var/www/frontend;")
}

// =============================================================================
// ForProject Tests
// =============================================================================

func TestForProject_ProxiedWithDomain(t *testing.T) {
	p := &project.Project{ID: 5, DeploymentType: project.DeployImage, Port: 4000}
	d := &project.Domain{Domain: "shop.example.com"}

	out := ForProject(p, d, "/var/www")

	assert.Contains(t, out, "server_name shop.example.com;")
	assert.Contains(t, out, "proxy_pass http://auraops-app-5:4000;")
	assert.NotContains(t, out, "listen 443")
}

func TestForProject_TLSFollowsDomainState(t *testing.T) {
	p := &project.Project{ID: 5, DeploymentType: project.DeployImage, Port: 4000}
	expires := time.Now().Add(60 * 24 * time.Hour)
	d := &project.Domain{Domain: "shop.example.com", SSLEnabled: true, SSLExpiresAt: &expires}

	out := ForProject(p, d, "/var/www")

	assert.Contains(t, out, "listen 443 ssl http2;")
	assert.Contains(t, out, "ssl_certificate /etc/letsencrypt/live/shop.example.com/fullchain.pem;")
}

func TestForProject_StaticServesBuildOutput(t *testing.T) {
	p := &project.Project{ID: 9, DeploymentType: project.DeployStaticBuild}
	d := &project.Domain{Domain: "docs.example.com"}

	out := ForProject(p, d, "/var/www")

	assert.Contains(t, out, "root /var/www/project-9;")
	assert.NotContains(t, out, "proxy_pass")
}

func TestForProject_NilDomainFallsBackToContainerName(t *testing.T) {
	p := &project.Project{ID: 3, DeploymentType: project.DeployImage, Port: 3000}

	out := ForProject(p, nil, "/var/www")

	assert.Contains(t, out, "server_name auraops-app-3;")
	assert.NotContains(t, out, "listen 443")
}
