package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

type PipelineWriter interface {
	CreatePipeline(
		ctx context.Context,
		projectID *int64,
		name, description string,
	) (*store.Pipeline, error)
	CreatePipelineFromTemplate(
		ctx context.Context,
		templateID, projectID int64,
	) (*store.Pipeline, error)
	UpdatePipeline(ctx context.Context, id int64, name, description string) error
	DeletePipeline(ctx context.Context, id int64) error
}

type PipelineReader interface {
	GetPipelineWithSteps(ctx context.Context, id int64) (*store.Pipeline, error)
	ListProjectPipelines(ctx context.Context, projectID int64) ([]*store.Pipeline, error)
	ListTemplatePipelines(ctx context.Context) ([]*store.Pipeline, error)
}

type StepWriter interface {
	CreateStep(
		ctx context.Context,
		pipelineID int64,
		name string,
		order int64,
		script string,
	) (*store.Step, error)
	UpdateStep(ctx context.Context, id int64, name string, order int64, script string) error
	DeleteStep(ctx context.Context, id int64) error
}

type PipelineServicer interface {
	PipelineWriter
	PipelineReader
	StepWriter
}

type PipelineHandler struct {
	pipelineService PipelineServicer
}

func NewPipelineHandler(pipelineService PipelineServicer) *PipelineHandler {
	return &PipelineHandler{pipelineService: pipelineService}
}

func (h *PipelineHandler) GetProjectPipelines(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	pipelines, err := h.pipelineService.ListProjectPipelines(c.Request().Context(), pp.ProjectID)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list pipelines")
	}
	return c.JSON(http.StatusOK, pipelines)
}

func (h *PipelineHandler) GetTemplatePipelines(c echo.Context) error {
	pipelines, err := h.pipelineService.ListTemplatePipelines(c.Request().Context())
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list templates")
	}
	return c.JSON(http.StatusOK, pipelines)
}

func (h *PipelineHandler) PostPipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid pipeline data")
	}

	pp.Name = strings.TrimSpace(pp.Name)
	if pp.Name == "" {
		return newError(nil, http.StatusBadRequest, "pipeline name is required")
	}

	p, err := h.pipelineService.CreatePipeline(
		c.Request().Context(),
		pp.ProjectID,
		pp.Name,
		pp.Description,
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(err, http.StatusBadRequest, "invalid project id")
		}
		return newError(err, http.StatusInternalServerError, "unable to create pipeline")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) PostPipelineFromTemplate(c echo.Context) error {
	tp := new(PipelineFromTemplateParams)
	if err := c.Bind(tp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid template data")
	}

	p, err := h.pipelineService.CreatePipelineFromTemplate(
		c.Request().Context(),
		tp.TemplateID,
		tp.ProjectID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "template not found")
		}
		if isForeignKeyConstraintError(err) {
			return newError(err, http.StatusBadRequest, "invalid project id")
		}
		return newError(err, http.StatusInternalServerError, "unable to create pipeline")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PipelineHandler) GetPipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid pipeline id")
	}

	p, err := h.pipelineService.GetPipelineWithSteps(c.Request().Context(), pp.PipelineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "pipeline not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read pipeline")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PipelineHandler) PatchPipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid pipeline data")
	}

	pp.Name = strings.TrimSpace(pp.Name)

	err := h.pipelineService.UpdatePipeline(
		c.Request().Context(),
		pp.PipelineID,
		pp.Name,
		pp.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "pipeline not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to update pipeline")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PipelineHandler) DeletePipeline(c echo.Context) error {
	pp := new(PipelineParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid pipeline id")
	}
	if err := h.pipelineService.DeletePipeline(c.Request().Context(), pp.PipelineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "pipeline not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete pipeline")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PipelineHandler) PostStep(c echo.Context) error {
	sp := new(StepParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid step data")
	}

	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" || sp.Script == "" {
		return newError(nil, http.StatusBadRequest, "step name and script are required")
	}

	s, err := h.pipelineService.CreateStep(
		c.Request().Context(),
		sp.PipelineID,
		sp.Name,
		sp.StepOrder,
		sp.Script,
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(err, http.StatusBadRequest, "invalid pipeline id")
		}
		return newError(err, http.StatusInternalServerError, "unable to create step")
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *PipelineHandler) PatchStep(c echo.Context) error {
	sp := new(StepParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid step data")
	}

	err := h.pipelineService.UpdateStep(
		c.Request().Context(),
		sp.StepID,
		strings.TrimSpace(sp.Name),
		sp.StepOrder,
		sp.Script,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "step not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to update step")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PipelineHandler) DeleteStep(c echo.Context) error {
	sp := new(StepParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid step id")
	}
	if err := h.pipelineService.DeleteStep(c.Request().Context(), sp.StepID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "step not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete step")
	}
	return c.NoContent(http.StatusNoContent)
}
