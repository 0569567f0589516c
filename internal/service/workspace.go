package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type WorkspaceStatus string

const (
	// directory does not exist
	WorkspaceNotCreated WorkspaceStatus = "not_created"
	// directory exists but is empty
	WorkspaceEmpty WorkspaceStatus = "empty"
	// directory exists, is non-empty, but has no .git
	WorkspaceNoGit WorkspaceStatus = "no_git"
	// directory exists and contains a git repository
	WorkspaceReady WorkspaceStatus = "ready"
)

type GitInfo struct {
	Branch            string `json:"branch"`
	LastCommit        string `json:"last_commit"`
	LastCommitMessage string `json:"last_commit_message"`
}

// GitWorkspace brings a project directory to an exact commit on an exact
// branch, regardless of the directory's starting state. The policy is
// init-and-always-fetch: the directory is never deleted or re-cloned, so
// build caches inside it survive between runs.
type GitWorkspace struct{}

func NewGitWorkspace() *GitWorkspace {
	return &GitWorkspace{}
}

func (gw *GitWorkspace) CheckWorkspaceStatus(dir string) (WorkspaceStatus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceNotCreated, nil
		}
		return "", err
	}
	if !info.IsDir() {
		return WorkspaceNotCreated, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return WorkspaceEmpty, nil
	}

	gitInfo, err := os.Stat(filepath.Join(dir, ".git"))
	if err == nil && gitInfo.IsDir() {
		return WorkspaceReady, nil
	}
	return WorkspaceNoGit, nil
}

func (gw *GitWorkspace) EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("err creating directory %s: %w", dir, err)
	}
	return nil
}

// EnsureGitRepository initializes the directory as a git repository with the
// project's remote when it is empty. A non-empty directory without .git is a
// configuration conflict and is never overwritten.
func (gw *GitWorkspace) EnsureGitRepository(
	ctx context.Context,
	dir, repository string,
) error {
	status, err := gw.CheckWorkspaceStatus(dir)
	if err != nil {
		return err
	}

	switch status {
	case WorkspaceReady:
		return nil
	case WorkspaceNoGit:
		return WorkspaceConflictError{Dir: dir}
	case WorkspaceNotCreated:
		if err := gw.EnsureDirectory(dir); err != nil {
			return err
		}
	}

	if _, err := gw.runGit(ctx, dir, "init"); err != nil {
		return err
	}
	if _, err := gw.runGit(ctx, dir, "remote", "add", "origin", repository); err != nil {
		return err
	}
	return nil
}

// PullRepository fetches the target branch and checks out the exact commit,
// discarding any local modifications. After it returns, HEAD equals
// commitHash, not merely the branch tip.
func (gw *GitWorkspace) PullRepository(
	ctx context.Context,
	dir, branch, commitHash string,
) error {
	if _, err := gw.runGit(ctx, dir, "fetch", "origin", branch); err != nil {
		return err
	}
	if _, err := gw.runGit(ctx, dir, "checkout", "--force", commitHash); err != nil {
		return err
	}
	return nil
}

// GetGitInfo is read-only and degrades to an empty result on any git failure.
func (gw *GitWorkspace) GetGitInfo(ctx context.Context, dir string) GitInfo {
	branch, err := gw.runGit(ctx, dir, "branch", "--show-current")
	if err != nil {
		return GitInfo{}
	}
	commit, err := gw.runGit(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return GitInfo{}
	}
	message, err := gw.runGit(ctx, dir, "log", "-1", "--pretty=%B")
	if err != nil {
		return GitInfo{}
	}
	return GitInfo{
		Branch:            branch,
		LastCommit:        commit,
		LastCommitMessage: message,
	}
}

func (gw *GitWorkspace) runGit(
	ctx context.Context,
	dir string,
	args ...string,
) (string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf(
			"git %s: %s: %w",
			strings.Join(args, " "),
			strings.TrimSpace(stderr.String()),
			err,
		)
	}
	return strings.TrimSpace(stdout.String()), nil
}
