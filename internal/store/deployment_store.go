package store

import (
	"context"
	"time"
)

type DeploymentStatus string

const (
	StatusPending DeploymentStatus = "pending"
	StatusRunning DeploymentStatus = "running"
	StatusSuccess DeploymentStatus = "success"
	StatusFailed  DeploymentStatus = "failed"
)

type Deployment struct {
	DeploymentID         int64            `param:"deployment_id" json:"deployment_id"`
	DeploymentProjectID  int64            `json:"project_id"`
	DeploymentPipelineID int64            `json:"pipeline_id"`
	Branch               string           `json:"branch"`
	CommitHash           string           `json:"commit_hash"`
	CommitMessage        string           `json:"commit_message"`
	Status               DeploymentStatus `json:"status"`
	// Full build log text, rewritten wholesale on every update; lines are
	// newline-joined "[timestamp] message" entries
	BuildLog *string `json:"build_log,omitempty"`
	// Optional user-supplied environment overrides, JSON object text
	EnvVars    *string    `json:"env_vars"`
	CreatedOn  time.Time  `json:"created_on"`
	StartedOn  *time.Time `json:"started_on"`
	FinishedOn *time.Time `json:"finished_on"`
	Valid      bool       `json:"-"`
}

// PendingDeployment is the projection the execution queue recovers and polls.
type PendingDeployment struct {
	DeploymentID         int64
	DeploymentPipelineID int64
}

type DeploymentStore interface {
	CreateDeployment(
		context.Context,
		int64, int64,
		string, string, string, *string,
	) (*Deployment, error)
	ReadDeploymentByID(context.Context, int64) (*Deployment, error)
	ListPendingDeployments(context.Context) ([]PendingDeployment, error)
	UpdateDeploymentStartedOn(context.Context, int64, DeploymentStatus, string, *time.Time) error
	UpdateDeploymentLog(context.Context, int64, string) error
	UpdateDeploymentFinishedOn(context.Context, int64, DeploymentStatus, string, *time.Time) error
	SoftDeleteDeployment(context.Context, int64) error
	ListProjectDeploymentsPaginated(context.Context, int64, int64, int64) ([]Deployment, error)
	CountProjectDeployments(context.Context, int64) (int64, error)
}
