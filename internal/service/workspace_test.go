package service

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGitWorkspace_CheckWorkspaceStatus(t *testing.T) {
	gw := NewGitWorkspace()

	t.Run("success - missing directory is not_created", func(t *testing.T) {
		// arrange
		dir := filepath.Join(t.TempDir(), "missing")

		// act
		status, err := gw.CheckWorkspaceStatus(dir)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, WorkspaceNotCreated, status)
	})
	t.Run("success - empty directory is empty", func(t *testing.T) {
		// arrange
		dir := t.TempDir()

		// act
		status, err := gw.CheckWorkspaceStatus(dir)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, WorkspaceEmpty, status)
	})
	t.Run("success - populated directory without .git is no_git", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o644))

		// act
		status, err := gw.CheckWorkspaceStatus(dir)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, WorkspaceNoGit, status)
	})
	t.Run("success - directory with .git is ready", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		assert.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

		// act
		status, err := gw.CheckWorkspaceStatus(dir)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, WorkspaceReady, status)
	})
}

func TestGitWorkspace_EnsureGitRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	gw := NewGitWorkspace()

	t.Run("success - missing directory is created and initialized", func(t *testing.T) {
		// arrange
		dir := filepath.Join(t.TempDir(), "workspace")

		// act
		err := gw.EnsureGitRepository(
			context.Background(),
			dir,
			"https://gitea.example.com/example/example.git",
		)

		// assert
		assert.NoError(t, err)
		status, statusErr := gw.CheckWorkspaceStatus(dir)
		assert.NoError(t, statusErr)
		assert.Equal(t, WorkspaceReady, status)
	})
	t.Run("success - existing repository is left alone", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		assert.NoError(t, gw.EnsureGitRepository(
			context.Background(), dir, "https://gitea.example.com/example/example.git",
		))

		// act: a second call must not fail on the existing remote
		err := gw.EnsureGitRepository(
			context.Background(), dir, "https://gitea.example.com/example/example.git",
		)

		// assert
		assert.NoError(t, err)
	})
	t.Run("failure - populated non-git directory conflicts", func(t *testing.T) {
		// arrange
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("x"), 0o644))

		// act
		err := gw.EnsureGitRepository(
			context.Background(), dir, "https://gitea.example.com/example/example.git",
		)

		// assert
		assert.Error(t, err)
		var conflict WorkspaceConflictError
		assert.True(t, errors.As(err, &conflict))
		assert.Equal(t, dir, conflict.Dir)
	})
}

// initUpstream creates a local git repository with two commits on main and
// returns its path and both commit hashes, oldest first.
func initUpstream(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
		return string(out)
	}
	run("init", "-b", "main")

	hashes := make([]string, 0, 2)
	for _, content := range []string{"first", "second"} {
		if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		run("add", ".")
		run("commit", "-m", content)
		hashes = append(hashes, run("rev-parse", "HEAD")[:40])
	}
	return dir, hashes
}

func TestGitWorkspace_PullRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	gw := NewGitWorkspace()

	t.Run("success - checks out the exact commit, not the branch tip", func(t *testing.T) {
		// arrange
		upstream, hashes := initUpstream(t)
		dir := filepath.Join(t.TempDir(), "workspace")
		assert.NoError(t, gw.EnsureGitRepository(context.Background(), dir, upstream))

		// act: deploy the older commit while main points at the newer one
		err := gw.PullRepository(context.Background(), dir, "main", hashes[0])

		// assert
		assert.NoError(t, err)
		content, readErr := os.ReadFile(filepath.Join(dir, "file.txt"))
		assert.NoError(t, readErr)
		assert.Equal(t, "first", string(content))
	})
	t.Run("success - local modifications are discarded", func(t *testing.T) {
		// arrange
		upstream, hashes := initUpstream(t)
		dir := filepath.Join(t.TempDir(), "workspace")
		assert.NoError(t, gw.EnsureGitRepository(context.Background(), dir, upstream))
		assert.NoError(t, gw.PullRepository(context.Background(), dir, "main", hashes[1]))
		assert.NoError(t, os.WriteFile(
			filepath.Join(dir, "file.txt"), []byte("local edit"), 0o644,
		))

		// act
		err := gw.PullRepository(context.Background(), dir, "main", hashes[1])

		// assert
		assert.NoError(t, err)
		content, readErr := os.ReadFile(filepath.Join(dir, "file.txt"))
		assert.NoError(t, readErr)
		assert.Equal(t, "second", string(content))
	})
	t.Run("failure - unknown branch", func(t *testing.T) {
		// arrange
		upstream, hashes := initUpstream(t)
		dir := filepath.Join(t.TempDir(), "workspace")
		assert.NoError(t, gw.EnsureGitRepository(context.Background(), dir, upstream))

		// act
		err := gw.PullRepository(context.Background(), dir, "does-not-exist", hashes[0])

		// assert
		assert.Error(t, err)
	})
}

func TestGitWorkspace_GetGitInfo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	gw := NewGitWorkspace()

	t.Run("success - reports branch and last commit", func(t *testing.T) {
		// arrange
		upstream, _ := initUpstream(t)

		// act
		info := gw.GetGitInfo(context.Background(), upstream)

		// assert
		assert.Equal(t, "main", info.Branch)
		assert.NotEmpty(t, info.LastCommit)
		assert.Equal(t, "second", info.LastCommitMessage)
	})
	t.Run("success - degrades to empty info outside a repository", func(t *testing.T) {
		// act
		info := gw.GetGitInfo(context.Background(), t.TempDir())

		// assert
		assert.Equal(t, GitInfo{}, info)
	})
}
