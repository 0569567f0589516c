package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/haatos/simple-deploy/internal"
	"github.com/haatos/simple-deploy/internal/store"
	"github.com/haatos/simple-deploy/internal/util"
)

type RunnerProjectStore interface {
	ReadProjectByID(context.Context, int64) (*store.Project, error)
}

type RunnerPipelineStore interface {
	ReadPipelineWithSteps(context.Context, int64) (*store.Pipeline, error)
}

type RunnerDeploymentStore interface {
	UpdateDeploymentStartedOn(context.Context, int64, store.DeploymentStatus, string, *time.Time) error
	UpdateDeploymentLog(context.Context, int64, string) error
	UpdateDeploymentFinishedOn(context.Context, int64, store.DeploymentStatus, string, *time.Time) error
}

type WorkspacePreparer interface {
	EnsureDirectory(dir string) error
	EnsureGitRepository(ctx context.Context, dir, repository string) error
	PullRepository(ctx context.Context, dir, branch, commitHash string) error
}

type StepRunner interface {
	ExecuteStep(ctx context.Context, dir, script string, env []string) (*StepResult, error)
}

type FailureNotifier interface {
	Send(ctx context.Context, url string, payload WebhookPayload, timeout time.Duration) error
}

// PipelineRunner drives one deployment through workspace preparation and
// ordered step execution. The build log and status are persisted at every
// transition so a log viewer sees progress while the run is still going.
type PipelineRunner struct {
	projectStore    RunnerProjectStore
	pipelineStore   RunnerPipelineStore
	deploymentStore RunnerDeploymentStore
	workspace       WorkspacePreparer
	executor        StepRunner
	notifier        FailureNotifier
}

func NewPipelineRunner(
	projectStore RunnerProjectStore,
	pipelineStore RunnerPipelineStore,
	deploymentStore RunnerDeploymentStore,
	workspace WorkspacePreparer,
	executor StepRunner,
	notifier FailureNotifier,
) *PipelineRunner {
	return &PipelineRunner{
		projectStore:    projectStore,
		pipelineStore:   pipelineStore,
		deploymentStore: deploymentStore,
		workspace:       workspace,
		executor:        executor,
		notifier:        notifier,
	}
}

// Run executes the deployment's pipeline. Missing project or pipeline rows
// abort before any status mutation; any later failure transitions the
// deployment to failed with the error appended to the log, and the error is
// returned so the queue can log it too.
func (r *PipelineRunner) Run(ctx context.Context, deployment *store.Deployment) error {
	project, err := r.projectStore.ReadProjectByID(ctx, deployment.DeploymentProjectID)
	if err != nil {
		return fmt.Errorf("project %d not found: %w", deployment.DeploymentProjectID, err)
	}
	pipeline, err := r.pipelineStore.ReadPipelineWithSteps(ctx, deployment.DeploymentPipelineID)
	if err != nil {
		return fmt.Errorf("pipeline %d not found: %w", deployment.DeploymentPipelineID, err)
	}

	logs := newLogBuffer()

	if err := r.execute(ctx, deployment, project, pipeline, logs); err != nil {
		logs.Addf("Error: %s", err.Error())
		if dbErr := r.deploymentStore.UpdateDeploymentFinishedOn(
			context.Background(),
			deployment.DeploymentID,
			store.StatusFailed,
			logs.String(),
			util.AsPtr(time.Now().UTC()),
		); dbErr != nil {
			log.Println("err updating deployment status to failed:", errors.Join(err, dbErr))
		}
		r.notifyFailure(project, deployment, err)
		return err
	}
	return nil
}

func (r *PipelineRunner) execute(
	ctx context.Context,
	deployment *store.Deployment,
	project *store.Project,
	pipeline *store.Pipeline,
	logs *logBuffer,
) error {
	if err := r.prepareWorkspace(ctx, deployment, project, logs); err != nil {
		return err
	}

	// first durable checkpoint: the deployment is now visibly running
	if err := r.deploymentStore.UpdateDeploymentStartedOn(
		ctx,
		deployment.DeploymentID,
		store.StatusRunning,
		logs.String(),
		util.AsPtr(time.Now().UTC()),
	); err != nil {
		return err
	}

	presets := make(map[string]string)
	if project.EnvPresets != nil && *project.EnvPresets != "" {
		if err := json.Unmarshal([]byte(*project.EnvPresets), &presets); err != nil {
			logs.Addf("failed to parse project environment presets, continuing without presets: %s", err.Error())
		}
	}
	overrides := make(map[string]string)
	if deployment.EnvVars != nil && *deployment.EnvVars != "" {
		if err := json.Unmarshal([]byte(*deployment.EnvVars), &overrides); err != nil {
			// a malformed override map degrades, it does not abort the run
			logs.Addf("failed to parse deployment environment variables, continuing without overrides: %s", err.Error())
		}
	}
	env := mergeEnvironment(project, deployment, presets, overrides)

	total := len(pipeline.Steps)
	for i, step := range pipeline.Steps {
		progress := fmt.Sprintf("[%d/%d]", i+1, total)

		logs.Addf("%s starting: %s", progress, step.Name)
		if err := r.persistLog(ctx, deployment.DeploymentID, logs); err != nil {
			return err
		}

		res, err := r.executor.ExecuteStep(ctx, project.ProjectDir, step.Script, env)
		if res != nil {
			logs.AddLines(res.Stdout)
			logs.AddLines(res.Stderr)
		}
		if err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name, err)
		}

		logs.Addf("%s complete: %s", progress, step.Name)
		if err := r.persistLog(ctx, deployment.DeploymentID, logs); err != nil {
			return err
		}
	}

	return r.deploymentStore.UpdateDeploymentFinishedOn(
		ctx,
		deployment.DeploymentID,
		store.StatusSuccess,
		logs.String(),
		util.AsPtr(time.Now().UTC()),
	)
}

func (r *PipelineRunner) prepareWorkspace(
	ctx context.Context,
	deployment *store.Deployment,
	project *store.Project,
	logs *logBuffer,
) error {
	logs.Addf("preparing workspace...")

	if project.Repository == "" {
		return errors.New("project repository URL is not configured")
	}
	if deployment.Branch == "" || deployment.CommitHash == "" {
		return errors.New("deployment branch or commit hash is not specified")
	}

	if err := r.workspace.EnsureDirectory(project.ProjectDir); err != nil {
		return err
	}
	logs.Addf("project directory ready: %s", project.ProjectDir)

	if err := r.workspace.EnsureGitRepository(ctx, project.ProjectDir, project.Repository); err != nil {
		return err
	}
	logs.Addf("git repository ready: %s", project.Repository)

	if err := r.workspace.PullRepository(
		ctx,
		project.ProjectDir,
		deployment.Branch,
		deployment.CommitHash,
	); err != nil {
		return err
	}
	logs.Addf("checked out commit %s on branch %s", deployment.CommitHash, deployment.Branch)

	return nil
}

func (r *PipelineRunner) persistLog(ctx context.Context, deploymentID int64, logs *logBuffer) error {
	return r.deploymentStore.UpdateDeploymentLog(ctx, deploymentID, logs.String())
}

// notifyFailure is fire-and-forget: a slow or broken webhook endpoint must
// never change the deployment's recorded status or stall the worker.
func (r *PipelineRunner) notifyFailure(
	project *store.Project,
	deployment *store.Deployment,
	runErr error,
) {
	if r.notifier == nil || project.WebhookURL == nil || *project.WebhookURL == "" {
		return
	}
	url := *project.WebhookURL
	payload := BuildFailurePayload(project.Name, deployment.DeploymentID, runErr.Error())
	timeout := 10 * time.Second
	if internal.Config != nil {
		timeout = time.Duration(internal.Config.WebhookTimeoutMS)
	}
	go func() {
		if err := r.notifier.Send(context.Background(), url, payload, timeout); err != nil {
			log.Println("err sending failure webhook:", err)
		}
	}()
}

// mergeEnvironment layers the ambient process environment, then the
// project's environment presets, then the deployment context variables, then
// the per-deployment overrides. Later layers win.
func mergeEnvironment(
	project *store.Project,
	deployment *store.Deployment,
	presets, overrides map[string]string,
) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}

	for k, v := range presets {
		merged[k] = v
	}

	merged["REPOSITORY_URL"] = project.Repository
	merged["PROJECT_NAME"] = project.Name
	merged["BRANCH_NAME"] = deployment.Branch
	merged["COMMIT_HASH"] = deployment.CommitHash
	merged["WORKSPACE"] = project.ProjectDir

	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
