package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/utils/request"
)

const defaultAPIURL = "https://api.github.com"

// Options locates the data repository.
type Options struct {
	APIURL          string
	User            string
	Repo            string
	Branch          string
	ProjectsPath    string
	AllocationsPath string
	Token           string
}

// GitHubSource reads project records through the GitHub contents API.
type GitHubSource struct {
	baseURL         string
	branch          string
	projectsPath    string
	allocationsPath string
	token           string
	httpClient      *resty.Client
}

func NewGitHubSource(opts Options) *GitHubSource {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &GitHubSource{
		baseURL:         fmt.Sprintf("%s/repos/%s/%s/contents", strings.TrimRight(apiURL, "/"), opts.User, opts.Repo),
		branch:          opts.Branch,
		projectsPath:    strings.Trim(opts.ProjectsPath, "/"),
		allocationsPath: strings.Trim(opts.AllocationsPath, "/"),
		token:           opts.Token,
		httpClient:      request.Request,
	}
}

func (g *GitHubSource) Name() string {
	return "github"
}

func (g *GitHubSource) get(ctx context.Context, path string) (*resty.Response, error) {
	req := g.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json")
	if g.branch != "" {
		req.SetQueryParam("ref", g.branch)
	}
	if g.token != "" {
		req.SetAuthToken(g.token)
	}

	resp, err := req.Get(g.baseURL + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, data.ErrNotFound)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
}

// ListProjects implements ProjectSource interface
func (g *GitHubSource) ListProjects(ctx context.Context) ([]string, error) {
	resp, err := g.get(ctx, g.projectsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var entries []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			continue
		}
		if strings.HasSuffix(e.Name, ".json") {
			names = append(names, strings.TrimSuffix(e.Name, ".json"))
		}
	}
	return names, nil
}

// FetchProject implements ProjectSource interface
func (g *GitHubSource) FetchProject(ctx context.Context, name string) ([]byte, error) {
	return g.fetchFile(ctx, fmt.Sprintf("%s/%s.json", g.projectsPath, name))
}

// FetchGenesis implements ProjectSource interface
func (g *GitHubSource) FetchGenesis(ctx context.Context, name string) ([]byte, error) {
	return g.fetchFile(ctx, fmt.Sprintf("%s/%s/genesis.json", g.allocationsPath, name))
}

// FetchVesting implements ProjectSource interface
func (g *GitHubSource) FetchVesting(ctx context.Context, name string) ([]byte, error) {
	return g.fetchFile(ctx, fmt.Sprintf("%s/%s/vesting-schedule.json", g.allocationsPath, name))
}

// fetchFile returns the decoded body of a file from the contents API.
func (g *GitHubSource) fetchFile(ctx context.Context, path string) ([]byte, error) {
	resp, err := g.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	var file struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.Unmarshal(resp.Body(), &file); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if file.Content == "" {
		return nil, fmt.Errorf("no content in response for %s", path)
	}
	if file.Encoding != "" && file.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported encoding %q for %s", file.Encoding, path)
	}

	// GitHub 返回的 base64 内容按 60 字符换行
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return decoded, nil
}
