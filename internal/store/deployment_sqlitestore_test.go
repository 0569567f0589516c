package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/haatos/simple-deploy/internal/util"
	"github.com/stretchr/testify/assert"
)

func generateDeployment(t *testing.T, projectID, pipelineID int64) *Deployment {
	t.Helper()
	d, err := deploymentStore.CreateDeployment(
		context.Background(),
		projectID,
		pipelineID,
		"main",
		"abc123def456",
		"test commit",
		nil,
	)
	assert.NoError(t, err)
	return d
}

func TestDeploymentSQLiteStore_CreateDeployment(t *testing.T) {
	t.Run("success - deployment starts out pending", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		envVars := util.AsPtr(`{"APP_ENV":"production"}`)

		// act
		d, err := deploymentStore.CreateDeployment(
			context.Background(),
			project.ProjectID,
			pipeline.PipelineID,
			"main",
			"abc123",
			"deploy it",
			envVars,
		)

		// assert
		assert.NoError(t, err)
		assert.NotEqual(t, 0, d.DeploymentID)
		assert.Equal(t, StatusPending, d.Status)
		assert.Equal(t, "main", d.Branch)
		assert.Equal(t, "abc123", d.CommitHash)
		assert.Equal(t, *envVars, *d.EnvVars)
		assert.Nil(t, d.StartedOn)
		assert.Nil(t, d.FinishedOn)
	})
	t.Run("failure - unknown pipeline id", func(t *testing.T) {
		// arrange
		project := generateProject(t)

		// act
		d, err := deploymentStore.CreateDeployment(
			context.Background(),
			project.ProjectID,
			77777,
			"main",
			"abc123",
			"",
			nil,
		)

		// assert
		assert.Error(t, err)
		assert.Nil(t, d)
	})
}

func TestDeploymentSQLiteStore_ListPendingDeployments(t *testing.T) {
	t.Run("success - pending listed oldest first, others excluded", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		first := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		second := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		finished := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		assert.NoError(t, deploymentStore.UpdateDeploymentFinishedOn(
			context.Background(),
			finished.DeploymentID,
			StatusSuccess,
			"",
			util.AsPtr(time.Now().UTC()),
		))

		// act
		pending, err := deploymentStore.ListPendingDeployments(context.Background())

		// assert
		assert.NoError(t, err)
		ids := make([]int64, 0, len(pending))
		for _, p := range pending {
			ids = append(ids, p.DeploymentID)
		}
		assert.Contains(t, ids, first.DeploymentID)
		assert.Contains(t, ids, second.DeploymentID)
		assert.NotContains(t, ids, finished.DeploymentID)
		firstIdx := indexOf(ids, first.DeploymentID)
		secondIdx := indexOf(ids, second.DeploymentID)
		assert.Less(t, firstIdx, secondIdx)
	})
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestDeploymentSQLiteStore_UpdateDeploymentStartedOn(t *testing.T) {
	t.Run("success - status, log and start time persist", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		d := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		startedOn := time.Now().UTC()

		// act
		updateErr := deploymentStore.UpdateDeploymentStartedOn(
			context.Background(),
			d.DeploymentID,
			StatusRunning,
			"[2026-01-01T00:00:00.000Z] starting\n",
			&startedOn,
		)
		stored, readErr := deploymentStore.ReadDeploymentByID(
			context.Background(),
			d.DeploymentID,
		)

		// assert
		assert.NoError(t, updateErr)
		assert.NoError(t, readErr)
		assert.Equal(t, StatusRunning, stored.Status)
		assert.NotNil(t, stored.BuildLog)
		assert.Contains(t, *stored.BuildLog, "starting")
		assert.NotNil(t, stored.StartedOn)
	})
}

func TestDeploymentSQLiteStore_UpdateDeploymentFinishedOn(t *testing.T) {
	t.Run("success - terminal status and finish time persist", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		d := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		finishedOn := time.Now().UTC()

		// act
		updateErr := deploymentStore.UpdateDeploymentFinishedOn(
			context.Background(),
			d.DeploymentID,
			StatusFailed,
			"[2026-01-01T00:00:00.000Z] Error: step failed\n",
			&finishedOn,
		)
		stored, readErr := deploymentStore.ReadDeploymentByID(
			context.Background(),
			d.DeploymentID,
		)

		// assert
		assert.NoError(t, updateErr)
		assert.NoError(t, readErr)
		assert.Equal(t, StatusFailed, stored.Status)
		assert.Contains(t, *stored.BuildLog, "Error: step failed")
		assert.NotNil(t, stored.FinishedOn)
	})
}

func TestDeploymentSQLiteStore_ListProjectDeploymentsPaginated(t *testing.T) {
	t.Run("success - page excludes the build log", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		d := generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		assert.NoError(t, deploymentStore.UpdateDeploymentLog(
			context.Background(),
			d.DeploymentID,
			"a very large build log",
		))

		// act
		deployments, err := deploymentStore.ListProjectDeploymentsPaginated(
			context.Background(),
			project.ProjectID,
			10,
			0,
		)

		// assert
		assert.NoError(t, err)
		assert.Len(t, deployments, 1)
		assert.Equal(t, d.DeploymentID, deployments[0].DeploymentID)
		assert.Nil(t, deployments[0].BuildLog)
	})
	t.Run("success - limit and offset page the list", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		for range 5 {
			generateDeployment(t, project.ProjectID, pipeline.PipelineID)
		}

		// act
		firstPage, err1 := deploymentStore.ListProjectDeploymentsPaginated(
			context.Background(), project.ProjectID, 3, 0,
		)
		secondPage, err2 := deploymentStore.ListProjectDeploymentsPaginated(
			context.Background(), project.ProjectID, 3, 3,
		)
		count, countErr := deploymentStore.CountProjectDeployments(
			context.Background(), project.ProjectID,
		)

		// assert
		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.NoError(t, countErr)
		assert.Len(t, firstPage, 3)
		assert.Len(t, secondPage, 2)
		assert.Equal(t, int64(5), count)
	})
}

func TestDeploymentSQLiteStore_SoftDeleteDeployment(t *testing.T) {
	t.Run("success - deployment is hidden after delete", func(t *testing.T) {
		// arrange
		project := generateProject(t)
		pipeline := generatePipeline(t, &project.ProjectID)
		d := generateDeployment(t, project.ProjectID, pipeline.PipelineID)

		// act
		deleteErr := deploymentStore.SoftDeleteDeployment(context.Background(), d.DeploymentID)
		stored, readErr := deploymentStore.ReadDeploymentByID(
			context.Background(),
			d.DeploymentID,
		)

		// assert
		assert.NoError(t, deleteErr)
		assert.Error(t, readErr)
		assert.True(t, errors.Is(readErr, sql.ErrNoRows))
		assert.Nil(t, stored)
	})
}
