package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type PipelineSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewPipelineSQLiteStore(rdb, rwdb *sql.DB) *PipelineSQLiteStore {
	return &PipelineSQLiteStore{rdb, rwdb}
}

func (store *PipelineSQLiteStore) CreatePipeline(
	ctx context.Context,
	projectID *int64,
	name, description string,
) (*Pipeline, error) {
	p := &Pipeline{
		PipelineProjectID: projectID,
		Name:              name,
		Description:       description,
	}
	query := `insert into pipelines (
		pipeline_project_id,
		name,
		description
	)
	values ($1, $2, $3)
	returning pipeline_id, created_on, valid`
	if err := sqlscan.Get(
		ctx, store.rwdb, p, query,
		p.PipelineProjectID,
		p.Name,
		p.Description,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *PipelineSQLiteStore) ReadPipelineByID(
	ctx context.Context,
	id int64,
) (*Pipeline, error) {
	p := &Pipeline{PipelineID: id}
	query := "select * from pipelines where pipeline_id = $1 and valid = 1"
	if err := sqlscan.Get(ctx, store.rdb, p, query, p.PipelineID); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadPipelineWithSteps loads a pipeline together with its valid steps,
// ordered ascending by step_order. Only these steps participate in a run.
func (store *PipelineSQLiteStore) ReadPipelineWithSteps(
	ctx context.Context,
	id int64,
) (*Pipeline, error) {
	p, err := store.ReadPipelineByID(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := store.ListPipelineSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Steps = steps
	return p, nil
}

func (store *PipelineSQLiteStore) UpdatePipeline(
	ctx context.Context,
	id int64,
	name, description string,
) error {
	query := `update pipelines
	set name = $1,
		description = $2
	where pipeline_id = $3`
	_, err := store.rwdb.ExecContext(ctx, query, name, description, id)
	return err
}

func (store *PipelineSQLiteStore) SoftDeletePipeline(ctx context.Context, id int64) error {
	query := "update pipelines set valid = 0 where pipeline_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *PipelineSQLiteStore) ListProjectPipelines(
	ctx context.Context,
	projectID int64,
) ([]*Pipeline, error) {
	query := `select * from pipelines
	where pipeline_project_id = $1 and valid = 1
	order by created_on`
	pipelines := make([]*Pipeline, 0)
	err := sqlscan.Select(ctx, store.rdb, &pipelines, query, projectID)
	return pipelines, err
}

func (store *PipelineSQLiteStore) ListTemplatePipelines(ctx context.Context) ([]*Pipeline, error) {
	query := `select * from pipelines
	where pipeline_project_id is null and valid = 1
	order by created_on`
	pipelines := make([]*Pipeline, 0)
	err := sqlscan.Select(ctx, store.rdb, &pipelines, query)
	return pipelines, err
}

func (store *PipelineSQLiteStore) CreateStep(
	ctx context.Context,
	pipelineID int64,
	name string,
	order int64,
	script string,
) (*Step, error) {
	s := &Step{
		StepPipelineID: pipelineID,
		Name:           name,
		StepOrder:      order,
		Script:         script,
	}
	query := `insert into steps (
		step_pipeline_id,
		name,
		step_order,
		script
	)
	values ($1, $2, $3, $4)
	returning step_id, valid`
	if err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.StepPipelineID,
		s.Name,
		s.StepOrder,
		s.Script,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *PipelineSQLiteStore) ReadStepByID(ctx context.Context, id int64) (*Step, error) {
	s := &Step{StepID: id}
	query := "select * from steps where step_id = $1 and valid = 1"
	if err := sqlscan.Get(ctx, store.rdb, s, query, s.StepID); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *PipelineSQLiteStore) UpdateStep(
	ctx context.Context,
	id int64,
	name string,
	order int64,
	script string,
) error {
	query := `update steps
	set name = $1,
		step_order = $2,
		script = $3
	where step_id = $4`
	_, err := store.rwdb.ExecContext(ctx, query, name, order, script, id)
	return err
}

func (store *PipelineSQLiteStore) SoftDeleteStep(ctx context.Context, id int64) error {
	query := "update steps set valid = 0 where step_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *PipelineSQLiteStore) ListPipelineSteps(
	ctx context.Context,
	pipelineID int64,
) ([]Step, error) {
	query := `select * from steps
	where step_pipeline_id = $1 and valid = 1
	order by step_order asc`
	steps := make([]Step, 0)
	err := sqlscan.Select(ctx, store.rdb, &steps, query, pipelineID)
	return steps, err
}
