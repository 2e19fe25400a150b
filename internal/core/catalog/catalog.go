// Package catalog holds the managed-service template registry. The registry
// is built once at process start and never mutated afterwards; credential
// generators run fresh on every deployment so secrets are never reused.
package catalog

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrUnknownServiceType means the requested type has no catalog entry.
	ErrUnknownServiceType = errors.New("unknown service type")
)

// =============================================================================
// Template Types
// =============================================================================

// Port is a named container port. The first port in a template is the
// primary one used for connection strings.
type Port struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// VolumeSpec is a named volume mount declared by a template.
type VolumeSpec struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
}

// HealthProbe is a declared container health check. It is informational on
// the direct-run path; enforcement is not implemented there.
type HealthProbe struct {
	Test     []string      `json:"test"`
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
	Retries  int           `json:"retries"`
}

// Template is a catalog entry for a managed infrastructure service.
type Template struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Image       string       `json:"image"`
	Ports       []Port       `json:"ports"`
	Volumes     []VolumeSpec `json:"volumes,omitempty"`

	// Command may contain a {password} placeholder substituted from the
	// generated environment at deploy time.
	Command string `json:"command,omitempty"`

	// GenerateEnv returns a fresh environment with newly generated
	// secrets. Never reuse a previous invocation's result.
	GenerateEnv func() map[string]string `json:"-"`

	HealthCheck *HealthProbe `json:"healthcheck,omitempty"`
}

// PrimaryPort returns the template's primary port number.
func (t Template) PrimaryPort() int {
	if len(t.Ports) == 0 {
		return 0
	}
	return t.Ports[0].Number
}

// Summary is the template view exposed by listing endpoints: no generators,
// no secrets.
type Summary struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Ports       []Port `json:"ports"`
}

// =============================================================================
// Registry
// =============================================================================

// Registry is an immutable lookup of service templates.
type Registry struct {
	templates map[string]Template
	order     []string
}

// NewRegistry builds the default template catalog.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	for _, t := range defaultTemplates() {
		r.templates[t.Type] = t
		r.order = append(r.order, t.Type)
	}
	return r
}

// Get returns the template for a service type.
func (r *Registry) Get(serviceType string) (Template, error) {
	t, ok := r.templates[serviceType]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownServiceType, serviceType)
	}
	return t, nil
}

// List returns template summaries, optionally filtered by category.
func (r *Registry) List(category string) []Summary {
	var out []Summary
	for _, key := range r.order {
		t := r.templates[key]
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, Summary{
			Type:        t.Type,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Image:       t.Image,
			Ports:       t.Ports,
		})
	}
	return out
}

// Categories returns the distinct template categories, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r.templates {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Secret Generation
// =============================================================================

// GenerateSecret returns a URL-safe random secret of n bytes entropy.
func GenerateSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
