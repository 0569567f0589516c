package store

import (
	"context"
	"time"
)

type Project struct {
	ProjectID int64  `param:"project_id" json:"project_id"`
	Name      string `json:"name"`
	// Git repository remote URL
	Repository string `json:"repository"`
	// Absolute local path of the project workspace. One fixed directory per
	// project; at most one run may touch it at a time.
	ProjectDir string `json:"project_dir"`
	// Optional JSON object of default environment variables applied to every
	// deployment of the project
	EnvPresets *string `json:"env_presets"`
	// Optional URL notified when a deployment fails
	WebhookURL *string   `json:"webhook_url"`
	CreatedOn  time.Time `json:"created_on"`
	Valid      bool      `json:"-"`
}

type ProjectStore interface {
	CreateProject(context.Context, string, string, string, *string, *string) (*Project, error)
	ReadProjectByID(context.Context, int64) (*Project, error)
	UpdateProject(context.Context, int64, string, string, string, *string, *string) error
	SoftDeleteProject(context.Context, int64) error
	ListProjects(context.Context) ([]*Project, error)
}
