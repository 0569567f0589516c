package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/haatos/simple-deploy/internal/store"
)

type DeploymentService struct {
	deploymentStore store.DeploymentStore
	queue           *ExecutionQueue
}

func NewDeploymentService(
	deploymentStore store.DeploymentStore,
	queue *ExecutionQueue,
) *DeploymentService {
	return &DeploymentService{deploymentStore: deploymentStore, queue: queue}
}

// CreateDeployment persists a pending deployment and admits it to the
// execution queue. If the queue is momentarily full the row stays pending
// and the periodic poll re-admits it.
func (s *DeploymentService) CreateDeployment(
	ctx context.Context,
	projectID, pipelineID int64,
	branch, commitHash, commitMessage string,
	envVars *string,
) (*store.Deployment, error) {
	if envVars != nil && *envVars != "" {
		overrides := make(map[string]string)
		if err := json.Unmarshal([]byte(*envVars), &overrides); err != nil {
			return nil, fmt.Errorf("invalid environment variables: %w", err)
		}
	}

	d, err := s.deploymentStore.CreateDeployment(
		ctx,
		projectID,
		pipelineID,
		branch,
		commitHash,
		commitMessage,
		envVars,
	)
	if err != nil {
		return nil, err
	}

	if err := s.queue.AddTask(d.DeploymentID, d.DeploymentPipelineID); err != nil {
		log.Printf("deployment %d created but not queued: %+v\n", d.DeploymentID, err)
	}
	return d, nil
}

func (s *DeploymentService) GetDeploymentByID(
	ctx context.Context,
	id int64,
) (*store.Deployment, error) {
	return s.deploymentStore.ReadDeploymentByID(ctx, id)
}

func (s *DeploymentService) DeleteDeployment(ctx context.Context, id int64) error {
	return s.deploymentStore.SoftDeleteDeployment(ctx, id)
}

func (s *DeploymentService) ListProjectDeploymentsPaginated(
	ctx context.Context,
	projectID, limit, offset int64,
) ([]store.Deployment, error) {
	deployments, err := s.deploymentStore.ListProjectDeploymentsPaginated(
		ctx,
		projectID,
		limit,
		offset,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return deployments, nil
}

func (s *DeploymentService) GetProjectDeploymentCount(
	ctx context.Context,
	projectID int64,
) (int64, error) {
	return s.deploymentStore.CountProjectDeployments(ctx, projectID)
}

func (s *DeploymentService) GetQueueStatus() QueueStatus {
	return s.queue.GetQueueStatus()
}
