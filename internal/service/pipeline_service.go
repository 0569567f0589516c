package service

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/haatos/simple-deploy/internal/store"
)

type PipelineService struct {
	pipelineStore store.PipelineStore
}

func NewPipelineService(pipelineStore store.PipelineStore) *PipelineService {
	return &PipelineService{pipelineStore: pipelineStore}
}

// InitializeTemplates seeds the default template pipelines on first start.
// Templates are pipelines with no owning project.
func (s *PipelineService) InitializeTemplates(ctx context.Context) error {
	existing, err := s.ListTemplatePipelines(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	templates, err := LoadPipelineTemplates()
	if err != nil {
		return err
	}
	for _, t := range templates {
		p, err := s.pipelineStore.CreatePipeline(ctx, nil, t.Name, t.Description)
		if err != nil {
			return err
		}
		for _, ts := range t.Steps {
			if _, err := s.pipelineStore.CreateStep(
				ctx,
				p.PipelineID,
				ts.Name,
				ts.Order,
				ts.Script,
			); err != nil {
				return err
			}
		}
		log.Printf("created pipeline template %q\n", t.Name)
	}
	return nil
}

func (s *PipelineService) CreatePipeline(
	ctx context.Context,
	projectID *int64,
	name, description string,
) (*store.Pipeline, error) {
	return s.pipelineStore.CreatePipeline(ctx, projectID, name, description)
}

// CreatePipelineFromTemplate copies a template pipeline and its steps into a
// new pipeline owned by the given project.
func (s *PipelineService) CreatePipelineFromTemplate(
	ctx context.Context,
	templateID, projectID int64,
) (*store.Pipeline, error) {
	template, err := s.pipelineStore.ReadPipelineWithSteps(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template.PipelineProjectID != nil {
		return nil, errors.New("pipeline is not a template")
	}

	p, err := s.pipelineStore.CreatePipeline(ctx, &projectID, template.Name, template.Description)
	if err != nil {
		return nil, err
	}
	for _, step := range template.Steps {
		if _, err := s.pipelineStore.CreateStep(
			ctx,
			p.PipelineID,
			step.Name,
			step.StepOrder,
			step.Script,
		); err != nil {
			return nil, err
		}
	}
	return s.pipelineStore.ReadPipelineWithSteps(ctx, p.PipelineID)
}

func (s *PipelineService) GetPipelineByID(ctx context.Context, id int64) (*store.Pipeline, error) {
	return s.pipelineStore.ReadPipelineByID(ctx, id)
}

func (s *PipelineService) GetPipelineWithSteps(
	ctx context.Context,
	id int64,
) (*store.Pipeline, error) {
	return s.pipelineStore.ReadPipelineWithSteps(ctx, id)
}

func (s *PipelineService) UpdatePipeline(
	ctx context.Context,
	id int64,
	name, description string,
) error {
	return s.pipelineStore.UpdatePipeline(ctx, id, name, description)
}

func (s *PipelineService) DeletePipeline(ctx context.Context, id int64) error {
	return s.pipelineStore.SoftDeletePipeline(ctx, id)
}

func (s *PipelineService) ListProjectPipelines(
	ctx context.Context,
	projectID int64,
) ([]*store.Pipeline, error) {
	pipelines, err := s.pipelineStore.ListProjectPipelines(ctx, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return pipelines, nil
}

func (s *PipelineService) ListTemplatePipelines(ctx context.Context) ([]*store.Pipeline, error) {
	pipelines, err := s.pipelineStore.ListTemplatePipelines(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return pipelines, nil
}

func (s *PipelineService) CreateStep(
	ctx context.Context,
	pipelineID int64,
	name string,
	order int64,
	script string,
) (*store.Step, error) {
	return s.pipelineStore.CreateStep(ctx, pipelineID, name, order, script)
}

func (s *PipelineService) UpdateStep(
	ctx context.Context,
	id int64,
	name string,
	order int64,
	script string,
) error {
	return s.pipelineStore.UpdateStep(ctx, id, name, order, script)
}

func (s *PipelineService) DeleteStep(ctx context.Context, id int64) error {
	return s.pipelineStore.SoftDeleteStep(ctx, id)
}
