// Package workers contains background workers for the orchestrator.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Certificate Renewer
// =============================================================================

// CertRenewerConfig configures the certificate renewal worker.
type CertRenewerConfig struct {
	// Interval is the time between renewal sweep cycles.
	// Default: 12 hours.
	Interval time.Duration

	// DomainTimeout is the per-domain time budget; a sweep's deadline is
	// this scaled by the batch size. Default: 2 minutes.
	DomainTimeout time.Duration
}

// DefaultCertRenewerConfig returns the default configuration.
func DefaultCertRenewerConfig() CertRenewerConfig {
	return CertRenewerConfig{
		Interval:      12 * time.Hour,
		DomainTimeout: 2 * time.Minute,
	}
}

// Renewer sweeps a batch of domains, renewing the ones inside the renewal
// window, and returns the domains actually renewed.
type Renewer interface {
	RenewExpiring(ctx context.Context, domains []*project.Domain) []*project.Domain
}

// ProxyConfigurator regenerates proxy configuration after a renewal.
type ProxyConfigurator interface {
	WriteConfig(ctx context.Context, p *project.Project, d *project.Domain) error
}

// CertRenewer periodically renews certificates approaching expiry. Each
// domain is handled independently; one failure never blocks the sweep.
type CertRenewer struct {
	store  store.Store
	certs  Renewer
	proxy  ProxyConfigurator
	config CertRenewerConfig
	logger *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCertRenewer creates a new certificate renewal worker.
func NewCertRenewer(s store.Store, certs Renewer, proxy ProxyConfigurator, config CertRenewerConfig, logger *slog.Logger) *CertRenewer {
	if config.Interval == 0 {
		config.Interval = 12 * time.Hour
	}
	if config.DomainTimeout == 0 {
		config.DomainTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CertRenewer{
		store:  s,
		certs:  certs,
		proxy:  proxy,
		config: config,
		logger: logger.With("component", "cert_renewer"),
	}
}

// Start begins the renewal background goroutine.
func (c *CertRenewer) Start() {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.run()

	c.logger.Info("certificate renewer started", "interval", c.config.Interval)
}

// Stop gracefully stops the worker, waiting for an in-progress sweep.
func (c *CertRenewer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("certificate renewer stopped")
}

// run is the main loop that sweeps periodically.
func (c *CertRenewer) run() {
	defer c.wg.Done()

	// Run immediately on start
	c.runCycle()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.runCycle()
		}
	}
}

// runCycle sweeps every domain inside the renewal window and persists the
// results.
func (c *CertRenewer) runCycle() {
	cutoff := time.Now().Add(project.RenewalWindow)

	domains, err := c.store.ListRenewableDomains(c.ctx, cutoff)
	if err != nil {
		c.logger.Error("failed to list renewable domains", "error", err)
		return
	}
	if len(domains) == 0 {
		return
	}

	c.logger.Info("renewal sweep starting", "domains", len(domains))

	// DomainTimeout is a per-domain budget, so the whole sweep gets one
	// deadline scaled by batch size.
	ctx, cancel := context.WithTimeout(c.ctx, time.Duration(len(domains))*c.config.DomainTimeout)
	defer cancel()

	refs := make([]*project.Domain, len(domains))
	for i := range domains {
		refs[i] = &domains[i]
	}

	renewed := c.certs.RenewExpiring(ctx, refs)
	for _, d := range renewed {
		c.persistRenewal(ctx, d)
	}

	c.logger.Info("renewal sweep finished", "renewed", len(renewed), "total", len(domains))
}

// persistRenewal records a renewed domain and refreshes its proxy config.
func (c *CertRenewer) persistRenewal(ctx context.Context, d *project.Domain) {
	if err := c.store.UpdateDomain(ctx, d); err != nil {
		c.logger.Error("failed to persist renewal", "domain", d.Domain, "error", err)
		return
	}

	p, err := c.store.GetProject(ctx, d.ProjectID)
	if err != nil {
		c.logger.Warn("failed to load project after renewal", "domain", d.Domain, "error", err)
		return
	}
	if err := c.proxy.WriteConfig(ctx, p, d); err != nil {
		c.logger.Warn("proxy config update failed after renewal", "domain", d.Domain, "error", err)
	}
}
