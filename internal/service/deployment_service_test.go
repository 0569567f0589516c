package service

import (
	"context"
	"testing"
	"time"

	"github.com/haatos/simple-deploy/internal/store"
	"github.com/haatos/simple-deploy/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDeploymentStore struct {
	mock.Mock
}

func (m *MockDeploymentStore) CreateDeployment(
	ctx context.Context,
	projectID, pipelineID int64,
	branch, commitHash, commitMessage string,
	envVars *string,
) (*store.Deployment, error) {
	args := m.Called(ctx, projectID, pipelineID, branch, commitHash, commitMessage, envVars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) ReadDeploymentByID(
	ctx context.Context,
	id int64,
) (*store.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) ListPendingDeployments(
	ctx context.Context,
) ([]store.PendingDeployment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.PendingDeployment), args.Error(1)
}

func (m *MockDeploymentStore) UpdateDeploymentStartedOn(
	ctx context.Context,
	id int64,
	status store.DeploymentStatus,
	buildLog string,
	startedOn *time.Time,
) error {
	args := m.Called(ctx, id, status, buildLog, startedOn)
	return args.Error(0)
}

func (m *MockDeploymentStore) UpdateDeploymentLog(
	ctx context.Context,
	id int64,
	buildLog string,
) error {
	args := m.Called(ctx, id, buildLog)
	return args.Error(0)
}

func (m *MockDeploymentStore) UpdateDeploymentFinishedOn(
	ctx context.Context,
	id int64,
	status store.DeploymentStatus,
	buildLog string,
	finishedOn *time.Time,
) error {
	args := m.Called(ctx, id, status, buildLog, finishedOn)
	return args.Error(0)
}

func (m *MockDeploymentStore) SoftDeleteDeployment(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeploymentStore) ListProjectDeploymentsPaginated(
	ctx context.Context,
	projectID, limit, offset int64,
) ([]store.Deployment, error) {
	args := m.Called(ctx, projectID, limit, offset)
	return args.Get(0).([]store.Deployment), args.Error(1)
}

func (m *MockDeploymentStore) CountProjectDeployments(
	ctx context.Context,
	projectID int64,
) (int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Error(1)
}

func TestDeploymentService_CreateDeployment(t *testing.T) {
	t.Run("success - deployment is persisted and queued", func(t *testing.T) {
		// arrange
		ms := new(MockDeploymentStore)
		ms.On(
			"CreateDeployment",
			mock.Anything, int64(1), int64(2), "main", "abc123", "initial", (*string)(nil),
		).Return(&store.Deployment{
			DeploymentID:         7,
			DeploymentPipelineID: 2,
			Status:               store.StatusPending,
		}, nil)
		queue := NewExecutionQueue(new(MockQueueDeploymentStore), &recordingRunner{}, 10, 0)
		s := NewDeploymentService(ms, queue)

		// act
		d, err := s.CreateDeployment(context.Background(), 1, 2, "main", "abc123", "initial", nil)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(7), d.DeploymentID)
		assert.Equal(t, 1, queue.GetQueueStatus().PendingCount)
	})
	t.Run("success - full queue does not fail the request", func(t *testing.T) {
		// arrange
		ms := new(MockDeploymentStore)
		ms.On(
			"CreateDeployment",
			mock.Anything, int64(1), int64(2),
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		).Return(&store.Deployment{DeploymentID: 7, DeploymentPipelineID: 2}, nil)
		queue := NewExecutionQueue(new(MockQueueDeploymentStore), &recordingRunner{}, 0, 0)
		s := NewDeploymentService(ms, queue)

		// act
		d, err := s.CreateDeployment(context.Background(), 1, 2, "main", "abc123", "", nil)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, d)
		assert.Equal(t, 0, queue.GetQueueStatus().PendingCount)
	})
	t.Run("success - valid environment overrides", func(t *testing.T) {
		// arrange
		ms := new(MockDeploymentStore)
		envVars := util.AsPtr(`{"NODE_ENV": "production"}`)
		ms.On(
			"CreateDeployment",
			mock.Anything, int64(1), int64(2), "main", "abc123", "", envVars,
		).Return(&store.Deployment{DeploymentID: 7, DeploymentPipelineID: 2}, nil)
		queue := NewExecutionQueue(new(MockQueueDeploymentStore), &recordingRunner{}, 10, 0)
		s := NewDeploymentService(ms, queue)

		// act
		_, err := s.CreateDeployment(context.Background(), 1, 2, "main", "abc123", "", envVars)

		// assert
		assert.NoError(t, err)
		ms.AssertExpectations(t)
	})
	t.Run("failure - malformed environment overrides", func(t *testing.T) {
		// arrange
		ms := new(MockDeploymentStore)
		queue := NewExecutionQueue(new(MockQueueDeploymentStore), &recordingRunner{}, 10, 0)
		s := NewDeploymentService(ms, queue)

		// act
		d, err := s.CreateDeployment(
			context.Background(),
			1, 2, "main", "abc123", "",
			util.AsPtr(`{not json`),
		)

		// assert
		assert.ErrorContains(t, err, "invalid environment variables")
		assert.Nil(t, d)
		ms.AssertNotCalled(t, "CreateDeployment")
	})
}

func TestDeploymentService_ListProjectDeploymentsPaginated(t *testing.T) {
	t.Run("success - empty history returns no error", func(t *testing.T) {
		// arrange
		ms := new(MockDeploymentStore)
		ms.On("ListProjectDeploymentsPaginated", mock.Anything, int64(1), int64(10), int64(0)).
			Return([]store.Deployment{}, nil)
		queue := NewExecutionQueue(new(MockQueueDeploymentStore), &recordingRunner{}, 10, 0)
		s := NewDeploymentService(ms, queue)

		// act
		deployments, err := s.ListProjectDeploymentsPaginated(context.Background(), 1, 10, 0)

		// assert
		assert.NoError(t, err)
		assert.Empty(t, deployments)
	})
}
