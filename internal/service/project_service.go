package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haatos/simple-deploy/internal/store"
)

type ProjectService struct {
	projectStore store.ProjectStore
	workspace    *GitWorkspace
}

func NewProjectService(projectStore store.ProjectStore, workspace *GitWorkspace) *ProjectService {
	return &ProjectService{projectStore: projectStore, workspace: workspace}
}

func (s *ProjectService) CreateProject(
	ctx context.Context,
	name, repository, projectDir string,
	envPresets, webhookURL *string,
) (*store.Project, error) {
	if err := ValidateProjectDir(projectDir); err != nil {
		return nil, err
	}
	return s.projectStore.CreateProject(ctx, name, repository, projectDir, envPresets, webhookURL)
}

func (s *ProjectService) GetProjectByID(ctx context.Context, id int64) (*store.Project, error) {
	return s.projectStore.ReadProjectByID(ctx, id)
}

func (s *ProjectService) UpdateProject(
	ctx context.Context,
	id int64,
	name, repository, projectDir string,
	envPresets, webhookURL *string,
) error {
	if err := ValidateProjectDir(projectDir); err != nil {
		return err
	}
	return s.projectStore.UpdateProject(ctx, id, name, repository, projectDir, envPresets, webhookURL)
}

func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	return s.projectStore.SoftDeleteProject(ctx, id)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]*store.Project, error) {
	projects, err := s.projectStore.ListProjects(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return projects, nil
}

// GetProjectGitInfo reports the current checkout of the project workspace
// for display; it never mutates the tree and degrades to an empty result.
func (s *ProjectService) GetProjectGitInfo(ctx context.Context, id int64) (GitInfo, error) {
	p, err := s.projectStore.ReadProjectByID(ctx, id)
	if err != nil {
		return GitInfo{}, err
	}
	return s.workspace.GetGitInfo(ctx, p.ProjectDir), nil
}

func (s *ProjectService) GetWorkspaceStatus(
	ctx context.Context,
	id int64,
) (WorkspaceStatus, error) {
	p, err := s.projectStore.ReadProjectByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.workspace.CheckWorkspaceStatus(p.ProjectDir)
}
