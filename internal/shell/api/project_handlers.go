package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/auraops/auraops/internal/core/buildspec"
	"github.com/auraops/auraops/internal/core/project"
	"github.com/auraops/auraops/internal/shell/store"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// ProjectRequest is the create/update request body.
type ProjectRequest struct {
	Name           string            `json:"name"`
	DeploymentType string            `json:"deployment_type"`
	RepoURL        string            `json:"repo_url,omitempty"`
	Branch         string            `json:"branch,omitempty"`
	BuildContext   string            `json:"build_context,omitempty"`
	DockerfilePath string            `json:"dockerfile_path,omitempty"`
	ComposeFile    string            `json:"compose_file,omitempty"`
	InstallCommand string            `json:"install_command,omitempty"`
	BuildCommand   string            `json:"build_command,omitempty"`
	StaticDir      string            `json:"static_dir,omitempty"`
	ServiceType    string            `json:"service_type,omitempty"`
	Port           int               `json:"port,omitempty"`
	EnvVars        map[string]string `json:"env_vars,omitempty"`
}

func (req *ProjectRequest) apply(p *project.Project) {
	p.Name = strings.TrimSpace(req.Name)
	p.DeploymentType = project.DeploymentType(req.DeploymentType)
	p.RepoURL = req.RepoURL
	p.Branch = req.Branch
	p.BuildContext = req.BuildContext
	p.DockerfilePath = req.DockerfilePath
	p.ComposeFile = req.ComposeFile
	p.InstallCommand = req.InstallCommand
	p.BuildCommand = req.BuildCommand
	p.StaticDir = req.StaticDir
	p.ServiceType = req.ServiceType
	p.Port = req.Port
	p.EnvVars = req.EnvVars
}

func (req *ProjectRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if !project.DeploymentType(req.DeploymentType).IsValid() {
		return errors.New("invalid deployment_type")
	}
	switch project.DeploymentType(req.DeploymentType) {
	case project.DeployImage, project.DeployDockerfile, project.DeployStaticBuild:
		if req.RepoURL == "" {
			return errors.New("repo_url is required for this deployment type")
		}
	case project.DeployCompose:
		if req.ComposeFile == "" {
			return errors.New("compose_file is required for compose projects")
		}
	case project.DeployService:
		if req.ServiceType == "" {
			return errors.New("service_type is required for service projects")
		}
	}
	return nil
}

// =============================================================================
// Project CRUD
// =============================================================================

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &project.Project{
		Status:       project.StatusStopped,
		WebhookToken: uuid.NewString(),
	}
	req.apply(p)
	if p.Port == 0 {
		p.Port = 3000
	}

	if err := h.store.CreateProject(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "project with this name already exists")
			return
		}
		h.logger.Error("failed to create project", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	projects, err := h.store.ListProjects(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.apply(p)
	if err := h.store.UpdateProject(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "project with this name already exists")
			return
		}
		h.logger.Error("failed to update project", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	removeVolumes := r.URL.Query().Get("remove_volumes") == "true"
	if res := h.deployer.Remove(r.Context(), p, removeVolumes); !res.Succeeded() {
		h.logger.Warn("runtime teardown incomplete", "project_id", p.ID, "message", res.Message)
	}

	if err := h.store.DeleteProject(r.Context(), p.ID); err != nil {
		h.logger.Error("failed to delete project", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Deploy / Stop / Status
// =============================================================================

func (h *Handler) handleDeployProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	h.startDeploy(p.ID)
	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"message": "deployment started",
	})
}

func (h *Handler) handleStopProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	result := h.deployer.Stop(r.Context(), p)
	if !result.Succeeded() {
		h.writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	if err := h.store.UpdateProjectStatus(r.Context(), p.ID, project.StatusStopped, nil); err != nil {
		h.logger.Error("failed to persist status", "project_id", p.ID, "error", err)
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	containerState, err := h.deployer.ContainerStatus(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to inspect container", "project_id", p.ID, "error", err)
		containerState = "unknown"
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":          p.Status,
		"container_state": containerState,
		"last_deployed":   p.LastDeployed,
	})
}

func (h *Handler) handleProjectLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"logs": p.BuildLogs})
}

// =============================================================================
// Build Suggestions
// =============================================================================

func (h *Handler) handleBuildSuggestions(w http.ResponseWriter, r *http.Request) {
	framework := r.URL.Query().Get("framework")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"framework":  framework,
		"known":      buildspec.Known(framework),
		"suggestion": buildspec.Suggest(framework),
	})
}

// =============================================================================
// Deploy Execution
// =============================================================================

// startDeploy runs a full deploy in the background. The request that
// triggered it is acknowledged immediately; progress lands in the project's
// status and build logs. The project is re-fetched inside the goroutine so a
// stale snapshot from the triggering request is never deployed.
func (h *Handler) startDeploy(projectID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		p, err := h.store.GetProject(ctx, projectID)
		if err != nil {
			h.logger.Error("deploy aborted, project vanished", "project_id", projectID, "error", err)
			return
		}

		working := project.StatusDeploying
		if p.DeploymentType == project.DeployStaticBuild || p.DeploymentType == project.DeployDockerfile {
			working = project.StatusBuilding
		}
		if !p.Status.CanTransition(working) {
			h.logger.Warn("deploy skipped, another deploy in progress",
				"project_id", p.ID, "status", p.Status)
			return
		}
		if err := h.store.UpdateProjectStatus(ctx, p.ID, working, nil); err != nil {
			h.logger.Error("failed to set working status", "project_id", p.ID, "error", err)
			return
		}

		domain, err := h.store.ActiveDomain(ctx, p.ID)
		if err != nil {
			h.logger.Warn("failed to load active domain", "project_id", p.ID, "error", err)
		}

		result := h.deployer.Deploy(ctx, p, domain)

		final := project.StatusRunning
		if !result.Succeeded() {
			final = project.StatusFailed
		}
		now := time.Now().UTC()
		if err := h.store.UpdateProjectStatus(ctx, p.ID, final, &now); err != nil {
			h.logger.Error("failed to persist final status", "project_id", p.ID, "error", err)
		}

		if len(result.Logs) > 0 || result.Message != "" {
			logs := strings.Join(result.Logs, "\n")
			if logs == "" {
				logs = result.Message
			}
			if err := h.store.SaveBuildLogs(ctx, p.ID, logs); err != nil {
				h.logger.Error("failed to save build logs", "project_id", p.ID, "error", err)
			}
		}

		h.logger.Info("deployment finished",
			"project_id", p.ID, "status", final, "message", result.Message)
	}()
}

// =============================================================================
// Helpers
// =============================================================================

// loadProject resolves the {id} route parameter. On failure it writes the
// error response and returns ok=false.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid project id")
		return nil, false
	}

	p, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "project not found")
			return nil, false
		}
		h.logger.Error("failed to load project", "project_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load project")
		return nil, false
	}
	return p, true
}
