package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ProjectSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewProjectSQLiteStore(rdb, rwdb *sql.DB) *ProjectSQLiteStore {
	return &ProjectSQLiteStore{rdb, rwdb}
}

func (store *ProjectSQLiteStore) CreateProject(
	ctx context.Context,
	name, repository, projectDir string,
	envPresets, webhookURL *string,
) (*Project, error) {
	p := &Project{
		Name:       name,
		Repository: repository,
		ProjectDir: projectDir,
		EnvPresets: envPresets,
		WebhookURL: webhookURL,
	}
	query := `insert into projects (
		name,
		repository,
		project_dir,
		env_presets,
		webhook_url
	)
	values ($1, $2, $3, $4, $5)
	returning project_id, created_on, valid`
	if err := sqlscan.Get(
		ctx, store.rwdb, p, query,
		p.Name,
		p.Repository,
		p.ProjectDir,
		p.EnvPresets,
		p.WebhookURL,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) ReadProjectByID(ctx context.Context, id int64) (*Project, error) {
	p := &Project{ProjectID: id}
	query := "select * from projects where project_id = $1 and valid = 1"
	if err := sqlscan.Get(ctx, store.rdb, p, query, p.ProjectID); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) UpdateProject(
	ctx context.Context,
	id int64,
	name, repository, projectDir string,
	envPresets, webhookURL *string,
) error {
	query := `update projects
	set name = $1,
		repository = $2,
		project_dir = $3,
		env_presets = $4,
		webhook_url = $5
	where project_id = $6`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		name,
		repository,
		projectDir,
		envPresets,
		webhookURL,
		id,
	)
	return err
}

func (store *ProjectSQLiteStore) SoftDeleteProject(ctx context.Context, id int64) error {
	query := "update projects set valid = 0 where project_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *ProjectSQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	query := "select * from projects where valid = 1 order by created_on desc"
	projects := make([]*Project, 0)
	err := sqlscan.Select(ctx, store.rdb, &projects, query)
	return projects, err
}
