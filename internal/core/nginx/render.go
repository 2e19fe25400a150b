// Package nginx renders reverse proxy virtual-host configuration. This is
// part of the Functional Core: rendering is pure; writing files and
// signaling the proxy live in the shell layer.
package nginx

import (
	"strings"
	"text/template"

	"github.com/auraops/auraops/internal/core/project"
)

// =============================================================================
// Render Parameters
// =============================================================================

// ProxyParams describes a proxied (containerized) project vhost.
type ProxyParams struct {
	ServerName    string
	ContainerName string
	Port          int

	// TLS adds an https server block plus an http→https redirect in place
	// of the plain http block.
	TLS      bool
	CertPath string
	KeyPath  string
}

// StaticParams describes a static-site vhost served from a build output
// directory with SPA fallback routing.
type StaticParams struct {
	ServerName string
	RootDir    string
	TLS        bool
	CertPath   string
	KeyPath    string
}

// WildcardParams describes the subdomain-capture vhost: one config entry
// routes arbitrarily many projects by naming convention.
type WildcardParams struct {
	BaseDomain string
	Port       int
}

// PlatformParams describes the fixed base config splitting traffic between
// the API path prefix and the front-end root.
type PlatformParams struct {
	ServerName  string
	APIUpstream string // host:port of the orchestrator API
	FrontendDir string
}

// =============================================================================
// Templates
// =============================================================================

var proxyTmpl = template.Must(template.New("proxy").Parse(`{{if .TLS}}server {
    listen 80;
    server_name {{.ServerName}};
    return 301 https://$host$request_uri;
}

server {
    listen 443 ssl http2;
    server_name {{.ServerName}};

    ssl_certificate {{.CertPath}};
    ssl_certificate_key {{.KeyPath}};
    ssl_protocols TLSv1.2 TLSv1.3;
{{else}}server {
    listen 80;
    server_name {{.ServerName}};
{{end}}
    location / {
        proxy_pass http://{{.ContainerName}}:{{.Port}};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_connect_timeout 60s;
        proxy_send_timeout 60s;
        proxy_read_timeout 60s;
    }
}
`))

var staticTmpl = template.Must(template.New("static").Parse(`{{if .TLS}}server {
    listen 80;
    server_name {{.ServerName}};
    return 301 https://$host$request_uri;
}

server {
    listen 443 ssl http2;
    server_name {{.ServerName}};

    ssl_certificate {{.CertPath}};
    ssl_certificate_key {{.KeyPath}};
    ssl_protocols TLSv1.2 TLSv1.3;
{{else}}server {
    listen 80;
    server_name {{.ServerName}};
{{end}}
    root {{.RootDir}};
    index index.html;

    gzip on;
    gzip_types text/plain text/css application/json application/javascript text/xml application/xml image/svg+xml;

    location / {
        try_files $uri $uri/ /index.html;
    }

    location ~* \.(?:js|css|woff2?|ttf|eot|ico|png|jpe?g|gif|svg|webp)$ {
        expires 1y;
        add_header Cache-Control "public, immutable";
    }
}
`))

var wildcardTmpl = template.Must(template.New("wildcard").Parse(`server {
    listen 80;
    server_name ~^(?<project>[a-z0-9-]+)\.{{.EscapedBase}}$;

    resolver 127.0.0.11 valid=10s;

    location / {
        proxy_pass http://auraops-app-$project:{{.Port}};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`))

var platformTmpl = template.Must(template.New("platform").Parse(`server {
    listen 80 default_server;
    server_name {{.ServerName}};

    location /api/ {
        proxy_pass http://{{.APIUpstream}};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }

    location / {
        root {{.FrontendDir}};
        index index.html;
        try_files $uri $uri/ /index.html;
    }
}
`))

// =============================================================================
// Rendering
// =============================================================================

// RenderProxy renders the containerized-project vhost.
func RenderProxy(p ProxyParams) string {
	return render(proxyTmpl, p)
}

// RenderStatic renders the static-site vhost.
func RenderStatic(p StaticParams) string {
	return render(staticTmpl, p)
}

// RenderWildcard renders the subdomain-capture vhost.
func RenderWildcard(p WildcardParams) string {
	data := struct {
		EscapedBase string
		Port        int
	}{
		EscapedBase: strings.ReplaceAll(p.BaseDomain, ".", `\.`),
		Port:        p.Port,
	}
	return render(wildcardTmpl, data)
}

// RenderPlatform renders the fixed base config.
func RenderPlatform(p PlatformParams) string {
	return render(platformTmpl, p)
}

// ForProject renders the shape matching the project type: static projects
// serve their build output, everything else proxies to the app container.
// A nil domain renders a plain http vhost under the project container name.
func ForProject(p *project.Project, d *project.Domain, staticRoot string) string {
	serverName := project.AppContainerName(p.ID)
	tls := false
	var certPath, keyPath string
	if d != nil {
		serverName = d.Domain
		tls = d.SSLEnabled
		certPath = CertPath(d.Domain)
		keyPath = KeyPath(d.Domain)
	}

	if p.IsStatic() {
		return RenderStatic(StaticParams{
			ServerName: serverName,
			RootDir:    project.StaticOutputDir(staticRoot, p.ID),
			TLS:        tls,
			CertPath:   certPath,
			KeyPath:    keyPath,
		})
	}

	return RenderProxy(ProxyParams{
		ServerName:    serverName,
		ContainerName: project.AppContainerName(p.ID),
		Port:          p.Port,
		TLS:           tls,
		CertPath:      certPath,
		KeyPath:       keyPath,
	})
}

// CertPath is where the ACME tool leaves the certificate chain for a domain.
func CertPath(domain string) string {
	return "/etc/letsencrypt/live/" + domain + "/fullchain.pem"
}

// KeyPath is where the ACME tool leaves the private key for a domain.
func KeyPath(domain string) string {
	return "/etc/letsencrypt/live/" + domain + "/privkey.pem"
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	// Templates are static and data is plain structs; Execute cannot fail.
	_ = t.Execute(&b, data)
	return b.String()
}
