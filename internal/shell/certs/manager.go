// Package certs manages TLS certificate lifecycle for custom domains using
// the certbot CLI with HTTP-01 webroot validation.
package certs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/auraops/auraops/internal/core/project"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrWildcardDomain indicates a wildcard domain was requested through
	// the automatic HTTP-01 flow, which cannot validate wildcards.
	ErrWildcardDomain = errors.New("wildcard domains require DNS-01 validation")

	// ErrCertbotFailed indicates the certbot invocation exited non-zero.
	ErrCertbotFailed = errors.New("certbot command failed")
)

// =============================================================================
// Command Runner
// =============================================================================

// Runner executes an external command and returns its combined output.
// Production uses the local certbot binary; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// =============================================================================
// Manager
// =============================================================================

// Validity is how long an issued certificate is good for.
const Validity = 90 * 24 * time.Hour

// WebrootPath is the directory certbot serves HTTP-01 challenges from. The
// proxy container mounts it and routes /.well-known/acme-challenge/ to it.
const WebrootPath = "/var/www/certbot"

// Manager issues, renews, and revokes certificates for project domains.
// Methods mutate the passed Domain on success; persisting the change is the
// caller's responsibility.
type Manager struct {
	runner Runner
	email  string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a certificate Manager. email is the account contact address
// registered with the certificate authority.
func New(email string, logger *slog.Logger) *Manager {
	return &Manager{
		runner: execRunner{},
		email:  email,
		logger: logger.With("component", "certs"),
		now:    time.Now,
	}
}

// NewWithRunner creates a Manager with a custom command runner and clock.
func NewWithRunner(runner Runner, email string, logger *slog.Logger, now func() time.Time) *Manager {
	return &Manager{runner: runner, email: email, logger: logger.With("component", "certs"), now: now}
}

// =============================================================================
// Certificate Operations
// =============================================================================

// Issue obtains a certificate for the domain via webroot validation and
// records the new certificate state on it. Wildcard domains are rejected
// before any external call; use WildcardInstructions for the manual flow.
func (m *Manager) Issue(ctx context.Context, d *project.Domain) error {
	if strings.HasPrefix(d.Domain, "*.") {
		return ErrWildcardDomain
	}

	m.logger.Info("issuing certificate", "domain", d.Domain)

	out, err := m.runner.Run(ctx, "certbot", "certonly",
		"--webroot", "-w", WebrootPath,
		"-d", d.Domain,
		"--non-interactive", "--agree-tos",
		"--email", m.email,
		"--quiet",
	)
	if err != nil {
		m.logger.Error("certificate issuance failed", "domain", d.Domain, "output", out)
		return fmt.Errorf("%w: %s", ErrCertbotFailed, strings.TrimSpace(out))
	}

	now := m.now()
	expires := now.Add(Validity)
	d.SSLEnabled = true
	d.SSLProvider = "letsencrypt"
	d.SSLIssuedAt = &now
	d.SSLExpiresAt = &expires

	m.logger.Info("certificate issued", "domain", d.Domain, "expires_at", expires)
	return nil
}

// Renew renews the domain's certificate and refreshes its recorded validity
// window.
func (m *Manager) Renew(ctx context.Context, d *project.Domain) error {
	m.logger.Info("renewing certificate", "domain", d.Domain)

	out, err := m.runner.Run(ctx, "certbot", "renew",
		"--cert-name", d.Domain,
		"--non-interactive",
		"--quiet",
	)
	if err != nil {
		m.logger.Error("certificate renewal failed", "domain", d.Domain, "output", out)
		return fmt.Errorf("%w: %s", ErrCertbotFailed, strings.TrimSpace(out))
	}

	now := m.now()
	expires := now.Add(Validity)
	d.SSLIssuedAt = &now
	d.SSLExpiresAt = &expires

	m.logger.Info("certificate renewed", "domain", d.Domain, "expires_at", expires)
	return nil
}

// Revoke revokes the domain's certificate and clears its certificate state.
// On failure the domain is left untouched so the recorded state still
// matches what the authority holds.
func (m *Manager) Revoke(ctx context.Context, d *project.Domain) error {
	m.logger.Info("revoking certificate", "domain", d.Domain)

	out, err := m.runner.Run(ctx, "certbot", "revoke",
		"--cert-name", d.Domain,
		"--delete-after-revoke",
		"--non-interactive",
	)
	if err != nil {
		m.logger.Error("certificate revocation failed", "domain", d.Domain, "output", out)
		return fmt.Errorf("%w: %s", ErrCertbotFailed, strings.TrimSpace(out))
	}

	d.SSLEnabled = false
	d.SSLProvider = ""
	d.SSLIssuedAt = nil
	d.SSLExpiresAt = nil

	m.logger.Info("certificate revoked", "domain", d.Domain)
	return nil
}

// =============================================================================
// Wildcard Guidance
// =============================================================================

// WildcardInstructions describes the manual DNS-01 flow for wildcard
// certificates, which cannot be automated over HTTP validation.
type WildcardInstructions struct {
	Domain  string   `json:"domain"`
	Method  string   `json:"method"`
	Command string   `json:"command"`
	Steps   []string `json:"steps"`
}

// WildcardGuide returns the manual steps for obtaining a wildcard
// certificate for the given base domain.
func (m *Manager) WildcardGuide(baseDomain string) WildcardInstructions {
	domain := strings.TrimPrefix(baseDomain, "*.")
	return WildcardInstructions{
		Domain: "*." + domain,
		Method: "dns-01",
		Command: fmt.Sprintf(
			"certbot certonly --manual --preferred-challenges dns -d '*.%s' -d '%s' --agree-tos --email %s",
			domain, domain, m.email,
		),
		Steps: []string{
			"Run the command above on the host",
			"Add the TXT record certbot prints to your DNS zone as _acme-challenge." + domain,
			"Wait for DNS propagation, then continue the certbot prompt",
			"Reload the proxy once the certificate is installed",
		},
	}
}

// =============================================================================
// Renewal Sweep
// =============================================================================

// RenewExpiring renews every domain in the list whose certificate falls
// inside the renewal window. Failures are independent; one domain failing
// never blocks the rest. It returns the domains that were actually renewed.
func (m *Manager) RenewExpiring(ctx context.Context, domains []*project.Domain) []*project.Domain {
	now := m.now()
	var renewed []*project.Domain

	for _, d := range domains {
		if !d.SSLEnabled || !d.NeedsRenewal(now) {
			continue
		}
		if err := m.Renew(ctx, d); err != nil {
			m.logger.Error("renewal sweep entry failed", "domain", d.Domain, "error", err)
			continue
		}
		renewed = append(renewed, d)
	}

	return renewed
}
