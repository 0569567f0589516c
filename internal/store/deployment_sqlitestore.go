package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-deploy/internal"
)

type DeploymentSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewDeploymentSQLiteStore(rdb, rwdb *sql.DB) *DeploymentSQLiteStore {
	return &DeploymentSQLiteStore{rdb, rwdb}
}

func (store *DeploymentSQLiteStore) CreateDeployment(
	ctx context.Context,
	projectID, pipelineID int64,
	branch, commitHash, commitMessage string,
	envVars *string,
) (*Deployment, error) {
	d := &Deployment{
		DeploymentProjectID:  projectID,
		DeploymentPipelineID: pipelineID,
		Branch:               branch,
		CommitHash:           commitHash,
		CommitMessage:        commitMessage,
		EnvVars:              envVars,
		Status:               StatusPending,
	}
	query := `insert into deployments (
		deployment_project_id,
		deployment_pipeline_id,
		branch,
		commit_hash,
		commit_message,
		env_vars,
		status
	)
	values ($1, $2, $3, $4, $5, $6, $7)
	returning deployment_id, created_on, valid`
	if err := sqlscan.Get(
		ctx, store.rwdb, d, query,
		d.DeploymentProjectID,
		d.DeploymentPipelineID,
		d.Branch,
		d.CommitHash,
		d.CommitMessage,
		d.EnvVars,
		d.Status,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ReadDeploymentByID(
	ctx context.Context,
	id int64,
) (*Deployment, error) {
	d := &Deployment{DeploymentID: id}
	query := "select * from deployments where deployment_id = $1 and valid = 1"
	if err := sqlscan.Get(ctx, store.rdb, d, query, d.DeploymentID); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ListPendingDeployments(
	ctx context.Context,
) ([]PendingDeployment, error) {
	query := `select deployment_id, deployment_pipeline_id from deployments
	where status = $1 and valid = 1
	order by created_on asc, deployment_id asc`
	pending := make([]PendingDeployment, 0)
	err := sqlscan.Select(ctx, store.rdb, &pending, query, StatusPending)
	return pending, err
}

func (store *DeploymentSQLiteStore) UpdateDeploymentStartedOn(
	ctx context.Context,
	id int64,
	status DeploymentStatus,
	buildLog string,
	startedOn *time.Time,
) error {
	query := `update deployments
	set status = $1,
		build_log = $2,
		started_on = $3
	where deployment_id = $4`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		buildLog,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *DeploymentSQLiteStore) UpdateDeploymentLog(
	ctx context.Context,
	id int64,
	buildLog string,
) error {
	query := `update deployments
	set build_log = $1
	where deployment_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, buildLog, id)
	return err
}

func (store *DeploymentSQLiteStore) UpdateDeploymentFinishedOn(
	ctx context.Context,
	id int64,
	status DeploymentStatus,
	buildLog string,
	finishedOn *time.Time,
) error {
	query := `update deployments
	set status = $1,
		build_log = $2,
		finished_on = $3
	where deployment_id = $4`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		buildLog,
		finishedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *DeploymentSQLiteStore) SoftDeleteDeployment(ctx context.Context, id int64) error {
	query := "update deployments set valid = 0 where deployment_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *DeploymentSQLiteStore) ListProjectDeploymentsPaginated(
	ctx context.Context,
	projectID, limit, offset int64,
) ([]Deployment, error) {
	query := `select
		deployment_id,
		deployment_project_id,
		deployment_pipeline_id,
		branch,
		commit_hash,
		commit_message,
		status,
		env_vars,
		created_on,
		started_on,
		finished_on,
		valid
	from deployments
	where deployment_project_id = $1 and valid = 1
	order by created_on desc limit $2 offset $3`
	deployments := make([]Deployment, 0)
	err := sqlscan.Select(ctx, store.rdb, &deployments, query, projectID, limit, offset)
	return deployments, err
}

func (store *DeploymentSQLiteStore) CountProjectDeployments(
	ctx context.Context,
	projectID int64,
) (int64, error) {
	var count int64
	query := `select count(*) from deployments
	where deployment_project_id = $1 and valid = 1`
	err := sqlscan.Get(ctx, store.rdb, &count, query, projectID)
	return count, err
}
