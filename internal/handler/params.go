package handler

type ProjectParams struct {
	ProjectID  int64   `param:"project_id"`
	Name       string  `json:"name"`
	Repository string  `json:"repository"`
	ProjectDir string  `json:"project_dir"`
	EnvPresets *string `json:"env_presets"`
	WebhookURL *string `json:"webhook_url"`
}

type PipelineParams struct {
	PipelineID  int64  `param:"pipeline_id"`
	ProjectID   *int64 `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PipelineFromTemplateParams struct {
	TemplateID int64 `json:"template_id"`
	ProjectID  int64 `json:"project_id"`
}

type StepParams struct {
	PipelineID int64  `param:"pipeline_id"`
	StepID     int64  `param:"step_id"`
	Name       string `json:"name"`
	StepOrder  int64  `json:"step_order"`
	Script     string `json:"script"`
}

type DeploymentParams struct {
	DeploymentID  int64   `param:"deployment_id"`
	ProjectID     int64   `param:"project_id"    json:"project_id"`
	PipelineID    int64   `json:"pipeline_id"`
	Branch        string  `json:"branch"`
	CommitHash    string  `json:"commit_hash"`
	CommitMessage string  `json:"commit_message"`
	EnvVars       *string `json:"env_vars"`
}

type ListDeploymentsParams struct {
	ProjectID int64 `param:"project_id"`
	Page      int64 `query:"page"`
}

type LoginParams struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type ConfigParams struct {
	SessionExpiresHours  int64 `json:"session_expires_hours"`
	QueueSize            int64 `json:"queue_size"`
	PollIntervalSeconds  int64 `json:"poll_interval_seconds"`
	TaskDelayMillis      int64 `json:"task_delay_millis"`
	WebhookTimeoutMillis int64 `json:"webhook_timeout_millis"`
}

type GitListParams struct {
	ProjectID int64  `param:"project_id"`
	SHA       string `query:"sha"`
	Page      int64  `query:"page"`
	Limit     int64  `query:"limit"`
}
