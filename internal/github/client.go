// Package github is the gateway's port to the GitHub REST API.
package github

import (
	"context"
	"strings"
	"time"

	gh "github.com/google/go-github/v74/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// DefaultUserAgent identifies the gateway to GitHub
const DefaultUserAgent = "mcp-github-server/1.0.0"

// Client is the set of remote operations the gateway exposes.
// Implementations must be safe for concurrent use.
type Client interface {
	ListRepos(ctx context.Context, visibility string, page PageRequest) (*Page[Repository], error)
	GetFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error)
	CreateFile(ctx context.Context, w FileWrite) (*FileCommit, error)
	UpdateFile(ctx context.Context, w FileWrite) (*FileCommit, error)
	CreateIssue(ctx context.Context, issue NewIssue) (*CreatedIssue, error)
	ListIssues(ctx context.Context, query IssueQuery) (*Page[Issue], error)
	CreatePullRequest(ctx context.Context, pr NewPullRequest) (*PullRequest, error)
	MergePullRequest(ctx context.Context, merge MergeRequest) (*MergeResult, error)
	DispatchWorkflow(ctx context.Context, dispatch WorkflowDispatch) error
}

// ClientConfig configures a RESTClient
type ClientConfig struct {
	Token string
	// BaseURL points at a GitHub Enterprise API; empty means github.com.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// RESTClient implements Client on top of go-github.
type RESTClient struct {
	client *gh.Client
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a token-authenticated client
func NewRESTClient(cfg ClientConfig) (*RESTClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	client := gh.NewClient(httpClient)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		var err error
		client, err = client.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, errors.Wrap(err, "invalid GitHub API URL")
		}
	}

	client.UserAgent = cfg.UserAgent
	if client.UserAgent == "" {
		client.UserAgent = DefaultUserAgent
	}

	return &RESTClient{client: client}, nil
}

// NewRESTClientFromGitHub wraps an existing go-github client
func NewRESTClientFromGitHub(client *gh.Client) *RESTClient {
	return &RESTClient{client: client}
}

// BaseURL returns the API root requests are sent to
func (c *RESTClient) BaseURL() string {
	return c.client.BaseURL.String()
}

func listOptions(p PageRequest) gh.ListOptions {
	return gh.ListOptions{Page: p.Page, PerPage: p.PerPage}
}

func nextPage(resp *gh.Response) int {
	if resp == nil {
		return 0
	}
	return resp.NextPage
}

func formatTime(ts gh.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
