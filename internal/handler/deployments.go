package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/haatos/simple-deploy/internal/service"
	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

const maxDeploymentsPerPage int64 = 10

type DeploymentWriter interface {
	CreateDeployment(
		ctx context.Context,
		projectID, pipelineID int64,
		branch, commitHash, commitMessage string,
		envVars *string,
	) (*store.Deployment, error)
	DeleteDeployment(ctx context.Context, id int64) error
}

type DeploymentReader interface {
	GetDeploymentByID(ctx context.Context, id int64) (*store.Deployment, error)
	ListProjectDeploymentsPaginated(
		ctx context.Context,
		projectID, limit, offset int64,
	) ([]store.Deployment, error)
	GetProjectDeploymentCount(ctx context.Context, projectID int64) (int64, error)
	GetQueueStatus() service.QueueStatus
}

type DeploymentServicer interface {
	DeploymentWriter
	DeploymentReader
}

type DeploymentHandler struct {
	deploymentService DeploymentServicer
}

func NewDeploymentHandler(deploymentService DeploymentServicer) *DeploymentHandler {
	return &DeploymentHandler{deploymentService: deploymentService}
}

type DeploymentListResponse struct {
	Deployments []store.Deployment `json:"deployments"`
	Page        int64              `json:"page"`
	TotalPages  int64              `json:"total_pages"`
}

func (h *DeploymentHandler) PostDeployment(c echo.Context) error {
	dp := new(DeploymentParams)
	if err := c.Bind(dp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment data")
	}

	dp.Branch = strings.TrimSpace(dp.Branch)
	dp.CommitHash = strings.TrimSpace(dp.CommitHash)
	if dp.Branch == "" || dp.CommitHash == "" {
		return newError(nil, http.StatusBadRequest, "branch and commit_hash are required")
	}

	d, err := h.deploymentService.CreateDeployment(
		c.Request().Context(),
		dp.ProjectID,
		dp.PipelineID,
		dp.Branch,
		dp.CommitHash,
		dp.CommitMessage,
		dp.EnvVars,
	)
	if err != nil {
		if strings.Contains(err.Error(), "invalid environment variables") {
			return newError(err, http.StatusBadRequest, "env_vars must be a JSON object")
		}
		if isForeignKeyConstraintError(err) {
			return newError(err, http.StatusBadRequest, "invalid project or pipeline id")
		}
		return newError(err, http.StatusInternalServerError, "unable to create deployment")
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DeploymentHandler) GetDeployment(c echo.Context) error {
	dp := new(DeploymentParams)
	if err := c.Bind(dp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment id")
	}

	d, err := h.deploymentService.GetDeploymentByID(c.Request().Context(), dp.DeploymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "deployment not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read deployment")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DeploymentHandler) GetDeploymentLog(c echo.Context) error {
	dp := new(DeploymentParams)
	if err := c.Bind(dp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment id")
	}

	d, err := h.deploymentService.GetDeploymentByID(c.Request().Context(), dp.DeploymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "deployment not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read deployment")
	}

	var buildLog string
	if d.BuildLog != nil {
		buildLog = *d.BuildLog
	}
	return c.String(http.StatusOK, buildLog)
}

func (h *DeploymentHandler) GetDeploymentStatus(c echo.Context) error {
	dp := new(DeploymentParams)
	if err := c.Bind(dp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment id")
	}

	d, err := h.deploymentService.GetDeploymentByID(c.Request().Context(), dp.DeploymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "deployment not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read deployment")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(d.Status)})
}

func (h *DeploymentHandler) GetProjectDeployments(c echo.Context) error {
	lp := new(ListDeploymentsParams)
	if err := c.Bind(lp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment query")
	}
	if lp.Page < 1 {
		lp.Page = 1
	}

	deployments, err := h.deploymentService.ListProjectDeploymentsPaginated(
		c.Request().Context(),
		lp.ProjectID,
		maxDeploymentsPerPage,
		(lp.Page-1)*maxDeploymentsPerPage,
	)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list deployments")
	}

	count, err := h.deploymentService.GetProjectDeploymentCount(
		c.Request().Context(),
		lp.ProjectID,
	)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to count deployments")
	}

	totalPages := count / maxDeploymentsPerPage
	if count%maxDeploymentsPerPage != 0 || totalPages == 0 {
		totalPages++
	}

	return c.JSON(http.StatusOK, DeploymentListResponse{
		Deployments: deployments,
		Page:        lp.Page,
		TotalPages:  totalPages,
	})
}

func (h *DeploymentHandler) DeleteDeployment(c echo.Context) error {
	dp := new(DeploymentParams)
	if err := c.Bind(dp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid deployment id")
	}
	if err := h.deploymentService.DeleteDeployment(
		c.Request().Context(), dp.DeploymentID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "deployment not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete deployment")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DeploymentHandler) GetQueueStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.deploymentService.GetQueueStatus())
}
