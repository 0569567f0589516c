package store

import (
	"context"
	"time"
)

type Pipeline struct {
	PipelineID int64 `param:"pipeline_id" json:"pipeline_id"`
	// Owning project; null means the pipeline is a reusable template
	PipelineProjectID *int64    `json:"project_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CreatedOn         time.Time `json:"created_on"`
	Valid             bool      `json:"-"`

	// Valid steps ordered ascending by step_order, populated by
	// ReadPipelineWithSteps
	Steps []Step `db:"-" json:"steps,omitempty"`
}

type Step struct {
	StepID         int64  `param:"step_id" json:"step_id"`
	StepPipelineID int64  `json:"pipeline_id"`
	Name           string `json:"name"`
	// Execution position within the pipeline; steps run in ascending order
	StepOrder int64 `json:"step_order"`
	// Shell script text, may span multiple lines
	Script string `json:"script"`
	Valid  bool   `json:"-"`
}

type PipelineStore interface {
	CreatePipeline(context.Context, *int64, string, string) (*Pipeline, error)
	ReadPipelineByID(context.Context, int64) (*Pipeline, error)
	ReadPipelineWithSteps(context.Context, int64) (*Pipeline, error)
	UpdatePipeline(context.Context, int64, string, string) error
	SoftDeletePipeline(context.Context, int64) error
	ListProjectPipelines(context.Context, int64) ([]*Pipeline, error)
	ListTemplatePipelines(context.Context) ([]*Pipeline, error)

	CreateStep(context.Context, int64, string, int64, string) (*Step, error)
	ReadStepByID(context.Context, int64) (*Step, error)
	UpdateStep(context.Context, int64, string, int64, string) error
	SoftDeleteStep(context.Context, int64) error
	ListPipelineSteps(context.Context, int64) ([]Step, error)
}
