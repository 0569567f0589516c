package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/haatos/simple-deploy/internal/service"
	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

type ProjectWriter interface {
	CreateProject(
		ctx context.Context,
		name, repository, projectDir string,
		envPresets, webhookURL *string,
	) (*store.Project, error)
	UpdateProject(
		ctx context.Context,
		id int64,
		name, repository, projectDir string,
		envPresets, webhookURL *string,
	) error
	DeleteProject(ctx context.Context, id int64) error
}

type ProjectReader interface {
	GetProjectByID(ctx context.Context, id int64) (*store.Project, error)
	ListProjects(ctx context.Context) ([]*store.Project, error)
	GetProjectGitInfo(ctx context.Context, id int64) (service.GitInfo, error)
	GetWorkspaceStatus(ctx context.Context, id int64) (service.WorkspaceStatus, error)
}

type ProjectServicer interface {
	ProjectWriter
	ProjectReader
}

type ProjectHandler struct {
	projectService ProjectServicer
}

func NewProjectHandler(projectService ProjectServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) GetProjects(c echo.Context) error {
	projects, err := h.projectService.ListProjects(c.Request().Context())
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list projects")
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) PostProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project data")
	}

	pp.Name = strings.TrimSpace(pp.Name)
	pp.Repository = strings.TrimSpace(pp.Repository)
	pp.ProjectDir = strings.TrimSpace(pp.ProjectDir)
	if pp.Name == "" || pp.Repository == "" || pp.ProjectDir == "" {
		return newError(
			nil, http.StatusBadRequest,
			"name, repository and project_dir are required",
		)
	}

	p, err := h.projectService.CreateProject(
		c.Request().Context(),
		pp.Name,
		pp.Repository,
		pp.ProjectDir,
		pp.EnvPresets,
		pp.WebhookURL,
	)
	if err != nil {
		var invalidDir service.InvalidProjectDirError
		if errors.As(err, &invalidDir) {
			return newError(err, http.StatusBadRequest, invalidDir.Error())
		}
		if isUniqueConstraintError(err) {
			return newError(err,
				http.StatusConflict,
				fmt.Sprintf("a project with the name %s already exists", pp.Name),
			)
		}
		return newError(err, http.StatusInternalServerError, "unable to create project")
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	p, err := h.projectService.GetProjectByID(c.Request().Context(), pp.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "project not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read project")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) PatchProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project data")
	}

	pp.Name = strings.TrimSpace(pp.Name)
	pp.Repository = strings.TrimSpace(pp.Repository)
	pp.ProjectDir = strings.TrimSpace(pp.ProjectDir)

	err := h.projectService.UpdateProject(
		c.Request().Context(),
		pp.ProjectID,
		pp.Name,
		pp.Repository,
		pp.ProjectDir,
		pp.EnvPresets,
		pp.WebhookURL,
	)
	if err != nil {
		var invalidDir service.InvalidProjectDirError
		if errors.As(err, &invalidDir) {
			return newError(err, http.StatusBadRequest, invalidDir.Error())
		}
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "project not found")
		}
		if isUniqueConstraintError(err) {
			return newError(err,
				http.StatusConflict,
				fmt.Sprintf("a project with the name %s already exists", pp.Name),
			)
		}
		return newError(err, http.StatusInternalServerError, "unable to update project")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}
	if err := h.projectService.DeleteProject(c.Request().Context(), pp.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "project not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete project")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) GetProjectGitInfo(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	info, err := h.projectService.GetProjectGitInfo(c.Request().Context(), pp.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "project not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read git info")
	}
	return c.JSON(http.StatusOK, info)
}

func (h *ProjectHandler) GetProjectWorkspaceStatus(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	status, err := h.projectService.GetWorkspaceStatus(c.Request().Context(), pp.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "project not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read workspace status")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}
