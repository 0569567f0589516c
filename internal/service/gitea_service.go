package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haatos/simple-deploy/internal/settings"
)

type GiteaToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type GiteaUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type GiteaBranch struct {
	Name   string `json:"name"`
	Commit struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"commit"`
}

type GiteaCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// GiteaClient is a thin wrapper over the Gitea HTTP API: the OAuth token
// exchange plus the read-only branch/commit listings the deploy UI needs.
type GiteaClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	client       *http.Client
}

func NewGiteaClient() *GiteaClient {
	return &GiteaClient{
		baseURL:      strings.TrimSuffix(settings.Settings.GiteaURL, "/"),
		clientID:     settings.Settings.GiteaClientID,
		clientSecret: settings.Settings.GiteaClientSecret,
		redirectURI:  settings.Settings.GiteaRedirectURI,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GiteaClient) AuthorizeURL(state string) string {
	params := make(url.Values)
	params.Add("client_id", g.clientID)
	params.Add("redirect_uri", g.redirectURI)
	params.Add("response_type", "code")
	params.Add("state", state)
	return g.baseURL + "/login/oauth/authorize?" + params.Encode()
}

func (g *GiteaClient) GetAccessToken(ctx context.Context, code string) (*GiteaToken, error) {
	body := map[string]string{
		"client_id":     g.clientID,
		"client_secret": g.clientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  g.redirectURI,
	}
	token := new(GiteaToken)
	if err := g.doJSON(
		ctx,
		http.MethodPost,
		g.baseURL+"/login/oauth/access_token",
		"",
		body,
		token,
	); err != nil {
		return nil, err
	}
	return token, nil
}

func (g *GiteaClient) GetUserInfo(ctx context.Context, accessToken string) (*GiteaUser, error) {
	u := new(GiteaUser)
	if err := g.doJSON(
		ctx,
		http.MethodGet,
		g.baseURL+"/api/v1/user",
		accessToken,
		nil,
		u,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func (g *GiteaClient) ListBranches(
	ctx context.Context,
	accessToken, owner, repo string,
) ([]GiteaBranch, error) {
	branches := make([]GiteaBranch, 0)
	endpoint := fmt.Sprintf("%s/api/v1/repos/%s/%s/branches", g.baseURL, owner, repo)
	if err := g.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

func (g *GiteaClient) ListCommits(
	ctx context.Context,
	accessToken, owner, repo, sha string,
	page, limit int64,
) ([]GiteaCommit, error) {
	params := make(url.Values)
	if sha != "" {
		params.Add("sha", sha)
	}
	params.Add("page", strconv.FormatInt(page, 10))
	params.Add("limit", strconv.FormatInt(limit, 10))

	commits := make([]GiteaCommit, 0)
	endpoint := fmt.Sprintf(
		"%s/api/v1/repos/%s/%s/commits?%s",
		g.baseURL, owner, repo, params.Encode(),
	)
	if err := g.doJSON(ctx, http.MethodGet, endpoint, accessToken, nil, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (g *GiteaClient) doJSON(
	ctx context.Context,
	method, endpoint, accessToken string,
	body, out any,
) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "token "+accessToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gitea request %s failed with status: %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
