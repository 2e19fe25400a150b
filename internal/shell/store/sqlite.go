package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/auraops/auraops/internal/core/project"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", 0, "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", 0, "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", 0, err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", 0, "failed to begin transaction", ErrTxFailed)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", 0, fmt.Sprintf("rollback failed after: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", 0, "failed to commit transaction", ErrTxFailed)
	}
	return nil
}

// txStore is the Store view of an open transaction.
type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already inside a transaction; run directly.
	return fn(t)
}

func (t *txStore) Close() error { return nil }

// =============================================================================
// Project Rows
// =============================================================================

// projectRow represents a project row in the database.
type projectRow struct {
	ID             int64   `db:"id"`
	Name           string  `db:"name"`
	DeploymentType string  `db:"deployment_type"`
	RepoURL        string  `db:"repo_url"`
	Branch         string  `db:"branch"`
	BuildContext   string  `db:"build_context"`
	DockerfilePath string  `db:"dockerfile_path"`
	ComposeFile    string  `db:"compose_file"`
	InstallCommand string  `db:"install_command"`
	BuildCommand   string  `db:"build_command"`
	StaticDir      string  `db:"static_dir"`
	ServiceType    string  `db:"service_type"`
	Port           int     `db:"port"`
	EnvVars        *string `db:"env_vars"`
	Status         string  `db:"status"`
	WebhookToken   string  `db:"webhook_token"`
	BuildLogs      string  `db:"build_logs"`
	LastDeployed   *string `db:"last_deployed_at"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
}

func (r *projectRow) toDomain() (*project.Project, error) {
	p := &project.Project{
		ID:             r.ID,
		Name:           r.Name,
		DeploymentType: project.DeploymentType(r.DeploymentType),
		RepoURL:        r.RepoURL,
		Branch:         r.Branch,
		BuildContext:   r.BuildContext,
		DockerfilePath: r.DockerfilePath,
		ComposeFile:    r.ComposeFile,
		InstallCommand: r.InstallCommand,
		BuildCommand:   r.BuildCommand,
		StaticDir:      r.StaticDir,
		ServiceType:    r.ServiceType,
		Port:           r.Port,
		Status:         project.Status(r.Status),
		WebhookToken:   r.WebhookToken,
		BuildLogs:      r.BuildLogs,
	}

	if r.EnvVars != nil && *r.EnvVars != "" {
		if err := json.Unmarshal([]byte(*r.EnvVars), &p.EnvVars); err != nil {
			return nil, NewStoreError("toDomain", "project", r.ID, "failed to parse env vars", ErrInvalidData)
		}
	}

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return nil, NewStoreError("toDomain", "project", r.ID, "invalid created_at", ErrInvalidData)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, r.UpdatedAt); err != nil {
		return nil, NewStoreError("toDomain", "project", r.ID, "invalid updated_at", ErrInvalidData)
	}
	if r.LastDeployed != nil && *r.LastDeployed != "" {
		t, err := time.Parse(time.RFC3339, *r.LastDeployed)
		if err != nil {
			return nil, NewStoreError("toDomain", "project", r.ID, "invalid last_deployed_at", ErrInvalidData)
		}
		p.LastDeployed = &t
	}

	return p, nil
}

func projectArgs(p *project.Project) (map[string]any, error) {
	envJSON, err := json.Marshal(p.EnvVars)
	if err != nil {
		return nil, NewStoreError("projectArgs", "project", p.ID, "failed to serialize env vars", ErrInvalidData)
	}

	var lastDeployed *string
	if p.LastDeployed != nil {
		s := p.LastDeployed.Format(time.RFC3339)
		lastDeployed = &s
	}

	return map[string]any{
		"id":               p.ID,
		"name":             p.Name,
		"deployment_type":  string(p.DeploymentType),
		"repo_url":         p.RepoURL,
		"branch":           p.Branch,
		"build_context":    p.BuildContext,
		"dockerfile_path":  p.DockerfilePath,
		"compose_file":     p.ComposeFile,
		"install_command":  p.InstallCommand,
		"build_command":    p.BuildCommand,
		"static_dir":       p.StaticDir,
		"service_type":     p.ServiceType,
		"port":             p.Port,
		"env_vars":         string(envJSON),
		"status":           string(p.Status),
		"webhook_token":    p.WebhookToken,
		"build_logs":       p.BuildLogs,
		"last_deployed_at": lastDeployed,
		"created_at":       p.CreatedAt.Format(time.RFC3339),
		"updated_at":       p.UpdatedAt.Format(time.RFC3339),
	}, nil
}

const projectColumns = `id, name, deployment_type, repo_url, branch, build_context,
	dockerfile_path, compose_file, install_command, build_command, static_dir,
	service_type, port, env_vars, status, webhook_token, build_logs,
	last_deployed_at, created_at, updated_at`

// =============================================================================
// Project Operations
// =============================================================================

func (s *SQLiteStore) CreateProject(ctx context.Context, p *project.Project) error {
	return createProject(ctx, s.db, p)
}
func (t *txStore) CreateProject(ctx context.Context, p *project.Project) error {
	return createProject(ctx, t.tx, p)
}

func createProject(ctx context.Context, exec executor, p *project.Project) error {
	now := time.Now().UTC().Truncate(time.Second)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	args, err := projectArgs(p)
	if err != nil {
		return err
	}
	delete(args, "id") // assigned by the database

	query := `
		INSERT INTO projects (
			name, deployment_type, repo_url, branch, build_context,
			dockerfile_path, compose_file, install_command, build_command,
			static_dir, service_type, port, env_vars, status, webhook_token,
			build_logs, last_deployed_at, created_at, updated_at
		) VALUES (
			:name, :deployment_type, :repo_url, :branch, :build_context,
			:dockerfile_path, :compose_file, :install_command, :build_command,
			:static_dir, :service_type, :port, :env_vars, :status, :webhook_token,
			:build_logs, :last_deployed_at, :created_at, :updated_at
		)`

	res, err := exec.NamedExecContext(ctx, query, args)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: projects.name") {
			return NewStoreError("CreateProject", "project", 0, "project with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateProject", "project", 0, err.Error(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return NewStoreError("CreateProject", "project", 0, err.Error(), err)
	}
	p.ID = id
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	return getProject(ctx, s.db, id)
}
func (t *txStore) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	return getProject(ctx, t.tx, id)
}

func getProject(ctx context.Context, exec executor, id int64) (*project.Project, error) {
	var row projectRow
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	if err := exec.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetProject", "project", id, "project not found", ErrNotFound)
		}
		return nil, NewStoreError("GetProject", "project", id, err.Error(), err)
	}
	return row.toDomain()
}

func (s *SQLiteStore) GetProjectByToken(ctx context.Context, webhookToken string) (*project.Project, error) {
	return getProjectByToken(ctx, s.db, webhookToken)
}
func (t *txStore) GetProjectByToken(ctx context.Context, webhookToken string) (*project.Project, error) {
	return getProjectByToken(ctx, t.tx, webhookToken)
}

func getProjectByToken(ctx context.Context, exec executor, token string) (*project.Project, error) {
	var row projectRow
	query := `SELECT ` + projectColumns + ` FROM projects WHERE webhook_token = ?`
	if err := exec.GetContext(ctx, &row, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetProjectByToken", "project", 0, "project not found", ErrNotFound)
		}
		return nil, NewStoreError("GetProjectByToken", "project", 0, err.Error(), err)
	}
	return row.toDomain()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *project.Project) error {
	return updateProject(ctx, s.db, p)
}
func (t *txStore) UpdateProject(ctx context.Context, p *project.Project) error {
	return updateProject(ctx, t.tx, p)
}

func updateProject(ctx context.Context, exec executor, p *project.Project) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	args, err := projectArgs(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects SET
			name = :name, deployment_type = :deployment_type,
			repo_url = :repo_url, branch = :branch,
			build_context = :build_context, dockerfile_path = :dockerfile_path,
			compose_file = :compose_file, install_command = :install_command,
			build_command = :build_command, static_dir = :static_dir,
			service_type = :service_type, port = :port, env_vars = :env_vars,
			status = :status, webhook_token = :webhook_token,
			build_logs = :build_logs, last_deployed_at = :last_deployed_at,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := exec.NamedExecContext(ctx, query, args)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: projects.name") {
			return NewStoreError("UpdateProject", "project", p.ID, "project with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("UpdateProject", "project", p.ID, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("UpdateProject", "project", p.ID, "project not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) UpdateProjectStatus(ctx context.Context, id int64, status project.Status, deployedAt *time.Time) error {
	return updateProjectStatus(ctx, s.db, id, status, deployedAt)
}
func (t *txStore) UpdateProjectStatus(ctx context.Context, id int64, status project.Status, deployedAt *time.Time) error {
	return updateProjectStatus(ctx, t.tx, id, status, deployedAt)
}

func updateProjectStatus(ctx context.Context, exec executor, id int64, status project.Status, deployedAt *time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	if deployedAt != nil {
		res, err = exec.ExecContext(ctx,
			`UPDATE projects SET status = ?, last_deployed_at = ?, updated_at = ? WHERE id = ?`,
			string(status), deployedAt.UTC().Format(time.RFC3339), now, id)
	} else {
		res, err = exec.ExecContext(ctx,
			`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return NewStoreError("UpdateProjectStatus", "project", id, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("UpdateProjectStatus", "project", id, "project not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SaveBuildLogs(ctx context.Context, id int64, logs string) error {
	return saveBuildLogs(ctx, s.db, id, logs)
}
func (t *txStore) SaveBuildLogs(ctx context.Context, id int64, logs string) error {
	return saveBuildLogs(ctx, t.tx, id, logs)
}

func saveBuildLogs(ctx context.Context, exec executor, id int64, logs string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := exec.ExecContext(ctx,
		`UPDATE projects SET build_logs = ?, updated_at = ? WHERE id = ?`, logs, now, id)
	if err != nil {
		return NewStoreError("SaveBuildLogs", "project", id, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("SaveBuildLogs", "project", id, "project not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	return deleteProject(ctx, s.db, id)
}
func (t *txStore) DeleteProject(ctx context.Context, id int64) error {
	return deleteProject(ctx, t.tx, id)
}

func deleteProject(ctx context.Context, exec executor, id int64) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteProject", "project", id, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("DeleteProject", "project", id, "project not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, opts ListOptions) ([]project.Project, error) {
	return listProjects(ctx, s.db, opts)
}
func (t *txStore) ListProjects(ctx context.Context, opts ListOptions) ([]project.Project, error) {
	return listProjects(ctx, t.tx, opts)
}

func listProjects(ctx context.Context, exec executor, opts ListOptions) ([]project.Project, error) {
	opts = opts.Normalize()

	var rows []projectRow
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id LIMIT ? OFFSET ?`
	if err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListProjects", "project", 0, err.Error(), err)
	}

	projects := make([]project.Project, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// =============================================================================
// Domain Rows
// =============================================================================

// domainRow represents a domain row in the database.
type domainRow struct {
	ID           int64   `db:"id"`
	ProjectID    int64   `db:"project_id"`
	Domain       string  `db:"domain"`
	SSLEnabled   bool    `db:"ssl_enabled"`
	SSLProvider  string  `db:"ssl_provider"`
	SSLIssuedAt  *string `db:"ssl_issued_at"`
	SSLExpiresAt *string `db:"ssl_expires_at"`
	IsActive     bool    `db:"is_active"`
	DNSVerified  bool    `db:"dns_verified"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

func (r *domainRow) toDomain() (*project.Domain, error) {
	d := &project.Domain{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Domain:      r.Domain,
		SSLEnabled:  r.SSLEnabled,
		SSLProvider: r.SSLProvider,
		IsActive:    r.IsActive,
		DNSVerified: r.DNSVerified,
	}

	parseOptional := func(s *string, field string) (*time.Time, error) {
		if s == nil || *s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, NewStoreError("toDomain", "domain", r.ID, "invalid "+field, ErrInvalidData)
		}
		return &t, nil
	}

	var err error
	if d.SSLIssuedAt, err = parseOptional(r.SSLIssuedAt, "ssl_issued_at"); err != nil {
		return nil, err
	}
	if d.SSLExpiresAt, err = parseOptional(r.SSLExpiresAt, "ssl_expires_at"); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return nil, NewStoreError("toDomain", "domain", r.ID, "invalid created_at", ErrInvalidData)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, r.UpdatedAt); err != nil {
		return nil, NewStoreError("toDomain", "domain", r.ID, "invalid updated_at", ErrInvalidData)
	}
	return d, nil
}

func domainArgs(d *project.Domain) map[string]any {
	formatOptional := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.UTC().Format(time.RFC3339)
		return &s
	}

	return map[string]any{
		"id":             d.ID,
		"project_id":     d.ProjectID,
		"domain":         d.Domain,
		"ssl_enabled":    d.SSLEnabled,
		"ssl_provider":   d.SSLProvider,
		"ssl_issued_at":  formatOptional(d.SSLIssuedAt),
		"ssl_expires_at": formatOptional(d.SSLExpiresAt),
		"is_active":      d.IsActive,
		"dns_verified":   d.DNSVerified,
		"created_at":     d.CreatedAt.Format(time.RFC3339),
		"updated_at":     d.UpdatedAt.Format(time.RFC3339),
	}
}

const domainColumns = `id, project_id, domain, ssl_enabled, ssl_provider,
	ssl_issued_at, ssl_expires_at, is_active, dns_verified, created_at, updated_at`

// =============================================================================
// Domain Operations
// =============================================================================

func (s *SQLiteStore) CreateDomain(ctx context.Context, d *project.Domain) error {
	return createDomain(ctx, s.db, d)
}
func (t *txStore) CreateDomain(ctx context.Context, d *project.Domain) error {
	return createDomain(ctx, t.tx, d)
}

func createDomain(ctx context.Context, exec executor, d *project.Domain) error {
	now := time.Now().UTC().Truncate(time.Second)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	args := domainArgs(d)
	delete(args, "id")

	query := `
		INSERT INTO domains (
			project_id, domain, ssl_enabled, ssl_provider, ssl_issued_at,
			ssl_expires_at, is_active, dns_verified, created_at, updated_at
		) VALUES (
			:project_id, :domain, :ssl_enabled, :ssl_provider, :ssl_issued_at,
			:ssl_expires_at, :is_active, :dns_verified, :created_at, :updated_at
		)`

	res, err := exec.NamedExecContext(ctx, query, args)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: domains.domain") {
			return NewStoreError("CreateDomain", "domain", 0, "domain is already attached", ErrDuplicateDomain)
		}
		return NewStoreError("CreateDomain", "domain", 0, err.Error(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return NewStoreError("CreateDomain", "domain", 0, err.Error(), err)
	}
	d.ID = id
	return nil
}

func (s *SQLiteStore) GetDomain(ctx context.Context, id int64) (*project.Domain, error) {
	return getDomain(ctx, s.db, id)
}
func (t *txStore) GetDomain(ctx context.Context, id int64) (*project.Domain, error) {
	return getDomain(ctx, t.tx, id)
}

func getDomain(ctx context.Context, exec executor, id int64) (*project.Domain, error) {
	var row domainRow
	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = ?`
	if err := exec.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDomain", "domain", id, "domain not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDomain", "domain", id, err.Error(), err)
	}
	return row.toDomain()
}

func (s *SQLiteStore) GetDomainByName(ctx context.Context, hostname string) (*project.Domain, error) {
	return getDomainByName(ctx, s.db, hostname)
}
func (t *txStore) GetDomainByName(ctx context.Context, hostname string) (*project.Domain, error) {
	return getDomainByName(ctx, t.tx, hostname)
}

func getDomainByName(ctx context.Context, exec executor, hostname string) (*project.Domain, error) {
	var row domainRow
	query := `SELECT ` + domainColumns + ` FROM domains WHERE domain = ?`
	if err := exec.GetContext(ctx, &row, query, hostname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDomainByName", "domain", 0, "domain not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDomainByName", "domain", 0, err.Error(), err)
	}
	return row.toDomain()
}

func (s *SQLiteStore) UpdateDomain(ctx context.Context, d *project.Domain) error {
	return updateDomain(ctx, s.db, d)
}
func (t *txStore) UpdateDomain(ctx context.Context, d *project.Domain) error {
	return updateDomain(ctx, t.tx, d)
}

func updateDomain(ctx context.Context, exec executor, d *project.Domain) error {
	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		UPDATE domains SET
			project_id = :project_id, domain = :domain,
			ssl_enabled = :ssl_enabled, ssl_provider = :ssl_provider,
			ssl_issued_at = :ssl_issued_at, ssl_expires_at = :ssl_expires_at,
			is_active = :is_active, dns_verified = :dns_verified,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := exec.NamedExecContext(ctx, query, domainArgs(d))
	if err != nil {
		return NewStoreError("UpdateDomain", "domain", d.ID, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("UpdateDomain", "domain", d.ID, "domain not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteDomain(ctx context.Context, id int64) error {
	return deleteDomain(ctx, s.db, id)
}
func (t *txStore) DeleteDomain(ctx context.Context, id int64) error {
	return deleteDomain(ctx, t.tx, id)
}

func deleteDomain(ctx context.Context, exec executor, id int64) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM domains WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteDomain", "domain", id, err.Error(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewStoreError("DeleteDomain", "domain", id, "domain not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListDomains(ctx context.Context, projectID int64) ([]project.Domain, error) {
	return listDomains(ctx, s.db, projectID)
}
func (t *txStore) ListDomains(ctx context.Context, projectID int64) ([]project.Domain, error) {
	return listDomains(ctx, t.tx, projectID)
}

func listDomains(ctx context.Context, exec executor, projectID int64) ([]project.Domain, error) {
	var rows []domainRow
	query := `SELECT ` + domainColumns + ` FROM domains WHERE project_id = ? ORDER BY id`
	if err := exec.SelectContext(ctx, &rows, query, projectID); err != nil {
		return nil, NewStoreError("ListDomains", "domain", 0, err.Error(), err)
	}
	return domainRows(rows)
}

func (s *SQLiteStore) ActiveDomain(ctx context.Context, projectID int64) (*project.Domain, error) {
	return activeDomain(ctx, s.db, projectID)
}
func (t *txStore) ActiveDomain(ctx context.Context, projectID int64) (*project.Domain, error) {
	return activeDomain(ctx, t.tx, projectID)
}

func activeDomain(ctx context.Context, exec executor, projectID int64) (*project.Domain, error) {
	var row domainRow
	query := `SELECT ` + domainColumns + ` FROM domains
		WHERE project_id = ? AND is_active = 1 ORDER BY id LIMIT 1`
	if err := exec.GetContext(ctx, &row, query, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, NewStoreError("ActiveDomain", "domain", 0, err.Error(), err)
	}
	return row.toDomain()
}

func (s *SQLiteStore) ListRenewableDomains(ctx context.Context, cutoff time.Time) ([]project.Domain, error) {
	return listRenewableDomains(ctx, s.db, cutoff)
}
func (t *txStore) ListRenewableDomains(ctx context.Context, cutoff time.Time) ([]project.Domain, error) {
	return listRenewableDomains(ctx, t.tx, cutoff)
}

func listRenewableDomains(ctx context.Context, exec executor, cutoff time.Time) ([]project.Domain, error) {
	var rows []domainRow
	query := `SELECT ` + domainColumns + ` FROM domains
		WHERE is_active = 1 AND ssl_enabled = 1
		AND ssl_expires_at IS NOT NULL AND ssl_expires_at <= ?
		ORDER BY ssl_expires_at`
	if err := exec.SelectContext(ctx, &rows, query, cutoff.UTC().Format(time.RFC3339)); err != nil {
		return nil, NewStoreError("ListRenewableDomains", "domain", 0, err.Error(), err)
	}
	return domainRows(rows)
}

func domainRows(rows []domainRow) ([]project.Domain, error) {
	domains := make([]project.Domain, 0, len(rows))
	for i := range rows {
		d, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		domains = append(domains, *d)
	}
	return domains, nil
}
