package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vipudev/vipudev/internal/store"
)

// ProjectStore is the persistence surface the project routes need.
type ProjectStore interface {
	CreateProject(ctx context.Context, params store.CreateProjectParams) (*store.Project, error)
	Project(ctx context.Context, id uuid.UUID) (*store.Project, error)
	Projects(ctx context.Context) ([]*store.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, params store.UpdateProjectParams) (*store.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

// projectHandler serves project CRUD.
type projectHandler struct {
	store  ProjectStore
	logger *slog.Logger
}

// projectID parses the {id} path value. A malformed UUID is reported the
// same as a missing record: the resource does not exist.
func projectID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func (h *projectHandler) list(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.Projects(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to list projects", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

type createProjectRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Files       []store.ProjectFile `json:"files"`
}

// validate returns per-field messages for a create payload.
func (req *createProjectRequest) validate() []string {
	var details []string
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, "name is required")
	}
	for i, f := range req.Files {
		if f.Path == "" {
			details = append(details, fmt.Sprintf("files[%d].path is required", i))
		}
	}
	return details
}

func (h *projectHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if details := req.validate(); len(details) > 0 {
		WriteError(w, http.StatusBadRequest, "validation_failed", strings.Join(details, "; "), h.logger)
		return
	}

	project, err := h.store.CreateProject(r.Context(), store.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Files:       req.Files,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to create project", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"project": project})
}

func (h *projectHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
		return
	}

	project, err := h.store.Project(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to load project", h.logger)
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"project": project})
	}
}

type updateProjectRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Files       *[]store.ProjectFile `json:"files"`
}

func (h *projectHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if req.Name == nil && req.Description == nil && req.Files == nil {
		WriteError(w, http.StatusBadRequest, "validation_failed", "at least one field must be provided", h.logger)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "validation_failed", "name must not be empty", h.logger)
		return
	}

	project, err := h.store.UpdateProject(r.Context(), id, store.UpdateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Files:       req.Files,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to update project", h.logger)
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"project": project})
	}
}

func (h *projectHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
		return
	}

	err := h.store.DeleteProject(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "project not found", h.logger)
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to delete project", h.logger)
	default:
		WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
