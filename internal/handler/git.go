package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/haatos/simple-deploy/internal/service"
	"github.com/haatos/simple-deploy/internal/store"
	"github.com/labstack/echo/v4"
)

const defaultCommitsPerPage int64 = 20

type GiteaRepoServicer interface {
	ListBranches(ctx context.Context, accessToken, owner, repo string) ([]service.GiteaBranch, error)
	ListCommits(
		ctx context.Context,
		accessToken, owner, repo, sha string,
		page, limit int64,
	) ([]service.GiteaCommit, error)
}

type TokenUserServicer interface {
	GetUserAccessToken(u *store.User) (string, error)
}

type GitProjectReader interface {
	GetProjectByID(ctx context.Context, id int64) (*store.Project, error)
}

// GitHandler serves branch and commit listings for a project's repository,
// proxied through the Gitea API with the logged in user's token.
type GitHandler struct {
	projectService GitProjectReader
	userService    TokenUserServicer
	giteaClient    GiteaRepoServicer
}

func NewGitHandler(
	projectService GitProjectReader,
	userService TokenUserServicer,
	giteaClient GiteaRepoServicer,
) *GitHandler {
	return &GitHandler{projectService, userService, giteaClient}
}

func (h *GitHandler) GetProjectBranches(c echo.Context) error {
	gp := new(GitListParams)
	if err := c.Bind(gp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}

	owner, repo, token, err := h.repoAccess(c, gp.ProjectID)
	if err != nil {
		return err
	}

	branches, err := h.giteaClient.ListBranches(c.Request().Context(), token, owner, repo)
	if err != nil {
		return newError(err, http.StatusBadGateway, "unable to list branches")
	}
	return c.JSON(http.StatusOK, branches)
}

func (h *GitHandler) GetProjectCommits(c echo.Context) error {
	gp := new(GitListParams)
	if err := c.Bind(gp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid project id")
	}
	if gp.Page < 1 {
		gp.Page = 1
	}
	if gp.Limit < 1 {
		gp.Limit = defaultCommitsPerPage
	}

	owner, repo, token, err := h.repoAccess(c, gp.ProjectID)
	if err != nil {
		return err
	}

	commits, err := h.giteaClient.ListCommits(
		c.Request().Context(), token, owner, repo, gp.SHA, gp.Page, gp.Limit,
	)
	if err != nil {
		return newError(err, http.StatusBadGateway, "unable to list commits")
	}
	return c.JSON(http.StatusOK, commits)
}

func (h *GitHandler) repoAccess(c echo.Context, projectID int64) (string, string, string, error) {
	p, err := h.projectService.GetProjectByID(c.Request().Context(), projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", "", newError(err, http.StatusNotFound, "project not found")
		}
		return "", "", "", newError(err, http.StatusInternalServerError, "unable to read project")
	}

	owner, repo, err := parseOwnerRepo(p.Repository)
	if err != nil {
		return "", "", "", newError(err, http.StatusBadRequest, "unable to parse repository url")
	}

	token, err := h.userService.GetUserAccessToken(getCtxUser(c))
	if err != nil {
		return "", "", "", newError(err, http.StatusForbidden, "no gitea access token")
	}
	return owner, repo, token, nil
}

// parseOwnerRepo extracts the owner and repository name from an HTTP or SSH
// clone URL.
func parseOwnerRepo(repository string) (string, string, error) {
	s := strings.TrimSuffix(repository, ".git")
	if i := strings.LastIndex(s, ":"); i != -1 && !strings.Contains(s[i:], "/") {
		return "", "", errors.New("no owner/repo path in repository url")
	}
	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	} else if i := strings.LastIndex(s, ":"); i != -1 {
		s = s[i+1:]
	}
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 2 {
		return "", "", errors.New("no owner/repo path in repository url")
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
