package service

import (
	"bytes"
	"context"
	"os/exec"
)

type StepResult struct {
	Stdout string
	Stderr string
}

// ShellExecutor runs one step script in a subprocess with the project
// workspace as the working directory. The script goes through bash -c so
// multi-line scripts, loops and conditionals work. A non-zero exit is
// returned as an error together with whatever output was captured; the
// caller decides what it means for the pipeline.
type ShellExecutor struct{}

func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{}
}

func (se *ShellExecutor) ExecuteStep(
	ctx context.Context,
	dir, script string,
	env []string,
) (*StepResult, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, "bash", "-c", script)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	res := &StepResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, err
	}
	return res, nil
}
