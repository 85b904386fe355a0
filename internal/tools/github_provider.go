package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/developer-mesh/mcp-github-server/internal/github"
	"github.com/developer-mesh/mcp-github-server/internal/models"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
	"github.com/developer-mesh/mcp-github-server/internal/validation"
)

const defaultPerPage = 100

// GitHubProvider exposes the github.* methods
type GitHubProvider struct {
	client github.Client
	logger observability.Logger
}

// NewGitHubProvider creates a provider backed by client
func NewGitHubProvider(client github.Client, logger observability.Logger) *GitHubProvider {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &GitHubProvider{
		client: client,
		logger: logger.WithPrefix("github-provider"),
	}
}

// GetDefinitions returns the github.* method definitions
func (p *GitHubProvider) GetDefinitions() []ToolDefinition {
	repoProps := func(extra map[string]interface{}) map[string]interface{} {
		props := map[string]interface{}{
			"owner": stringProp("Repository owner"),
			"repo":  stringProp("Repository name"),
		}
		for k, v := range extra {
			props[k] = v
		}
		return props
	}

	return []ToolDefinition{
		{
			Name:        MethodListRepos,
			Description: "List repositories of the authenticated user",
			InputSchema: objectSchema(paginationProps(map[string]interface{}{
				"visibility": enumProp("Repository visibility", "all", "public", "private"),
			})),
			Handler: p.handleListRepos,
		},
		{
			Name:        MethodGetFile,
			Description: "Read a file from a repository",
			Required:    []string{"owner", "repo", "path"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"path": stringProp("File path"),
				"ref":  stringProp("Branch, tag or commit"),
			})),
			Handler: p.handleGetFile,
		},
		{
			Name:        MethodCreateFile,
			Description: "Create a file in a repository",
			Required:    []string{"owner", "repo", "path", "content"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"path":    stringProp("File path"),
				"content": stringProp("File content as UTF-8 text"),
				"message": stringProp("Commit message (default: create <path>)"),
				"branch":  stringProp("Target branch"),
			})),
			Handler: p.handleCreateFile,
		},
		{
			Name:        MethodUpdateFile,
			Description: "Replace a file in a repository",
			Required:    []string{"owner", "repo", "path", "content"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"path":    stringProp("File path"),
				"content": stringProp("New file content as UTF-8 text"),
				"message": stringProp("Commit message (default: update <path>)"),
				"branch":  stringProp("Target branch"),
				"sha":     stringProp("Blob sha being replaced; fetched when omitted"),
			})),
			Handler: p.handleUpdateFile,
		},
		{
			Name:        MethodCreateIssue,
			Description: "Open an issue",
			Required:    []string{"owner", "repo", "title"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"title": stringProp("Issue title"),
				"body":  stringProp("Issue body"),
				"labels": map[string]interface{}{
					"type":        "array",
					"description": "Label names",
					"items":       map[string]interface{}{"type": "string"},
				},
			})),
			Handler: p.handleCreateIssue,
		},
		{
			Name:        MethodListIssues,
			Description: "List issues of a repository",
			Required:    []string{"owner", "repo"},
			InputSchema: objectSchema(paginationProps(repoProps(map[string]interface{}{
				"state": enumProp("Issue state", "open", "closed", "all"),
			}))),
			Handler: p.handleListIssues,
		},
		{
			Name:        MethodCreatePullRequest,
			Description: "Open a pull request",
			Required:    []string{"owner", "repo", "title", "head", "base"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"title": stringProp("Pull request title"),
				"head":  stringProp("Branch containing the changes"),
				"base":  stringProp("Branch to merge into"),
				"body":  stringProp("Pull request body"),
				"draft": boolProp("Open as draft"),
			})),
			Handler: p.handleCreatePullRequest,
		},
		{
			Name:        MethodMergePullRequest,
			Description: "Merge a pull request",
			Required:    []string{"owner", "repo", "pull_number"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"pull_number":    positiveIntProp("Pull request number"),
				"merge_method":   enumProp("Merge method (default squash)", "merge", "squash", "rebase"),
				"commit_title":   stringProp("Title of the merge commit"),
				"commit_message": stringProp("Message of the merge commit"),
				"sha":            stringProp("Head sha the pull request must match"),
			})),
			Handler: p.handleMergePullRequest,
		},
		{
			Name:        MethodDispatchWorkflow,
			Description: "Trigger a workflow_dispatch event",
			Required:    []string{"owner", "repo", "workflow_id", "ref"},
			InputSchema: objectSchema(repoProps(map[string]interface{}{
				"workflow_id": map[string]interface{}{
					"type":        []interface{}{"string", "integer"},
					"description": "Workflow file name or numeric ID",
					"minLength":   1,
					"minimum":     1,
				},
				"ref": stringProp("Branch or tag to run on"),
				"inputs": map[string]interface{}{
					"type":        "object",
					"description": "Workflow inputs",
				},
			})),
			Handler: p.handleDispatchWorkflow,
		},
	}
}

func pageRequest(params Params) github.PageRequest {
	return github.PageRequest{
		Page:    params.IntOr("page", 1),
		PerPage: params.IntOr("per_page", defaultPerPage),
	}
}

func (p *GitHubProvider) handleListRepos(ctx context.Context, params Params) (interface{}, error) {
	page := pageRequest(params)
	if err := validation.ValidateStruct(page); err != nil {
		return nil, err
	}
	return p.client.ListRepos(ctx, params.StringOr("visibility", "all"), page)
}

func (p *GitHubProvider) handleGetFile(ctx context.Context, params Params) (interface{}, error) {
	return p.client.GetFile(ctx, params.String("owner"), params.String("repo"), params.String("path"), params.String("ref"))
}

func (p *GitHubProvider) handleCreateFile(ctx context.Context, params Params) (interface{}, error) {
	path := params.String("path")
	w := github.FileWrite{
		Owner:   params.String("owner"),
		Repo:    params.String("repo"),
		Path:    path,
		Content: params.String("content"),
		Message: params.StringOr("message", "create "+path),
		Branch:  params.String("branch"),
	}
	if err := validation.ValidateStruct(w); err != nil {
		return nil, err
	}
	return p.client.CreateFile(ctx, w)
}

// handleUpdateFile uses the caller's sha when given. Without one it reads the
// current sha first; a write landing between the read and the update makes
// the update fail with a conflict rather than overwrite it.
func (p *GitHubProvider) handleUpdateFile(ctx context.Context, params Params) (interface{}, error) {
	w := github.FileWrite{
		Owner:   params.String("owner"),
		Repo:    params.String("repo"),
		Path:    params.String("path"),
		Content: params.String("content"),
		Branch:  params.String("branch"),
		SHA:     params.String("sha"),
	}
	w.Message = params.StringOr("message", "update "+w.Path)
	if err := validation.ValidateStruct(w); err != nil {
		return nil, err
	}

	if w.SHA == "" {
		current, err := p.client.GetFile(ctx, w.Owner, w.Repo, w.Path, w.Branch)
		if err != nil {
			return nil, err
		}
		w.SHA = current.SHA
		p.logger.Debug("Fetched current sha for update", map[string]interface{}{
			"repo": w.Owner + "/" + w.Repo,
			"path": w.Path,
			"sha":  w.SHA,
		})
	}

	return p.client.UpdateFile(ctx, w)
}

func (p *GitHubProvider) handleCreateIssue(ctx context.Context, params Params) (interface{}, error) {
	issue := github.NewIssue{
		Owner:  params.String("owner"),
		Repo:   params.String("repo"),
		Title:  params.String("title"),
		Body:   params.String("body"),
		Labels: params.StringSlice("labels"),
	}
	if err := validation.ValidateStruct(issue); err != nil {
		return nil, err
	}
	return p.client.CreateIssue(ctx, issue)
}

func (p *GitHubProvider) handleListIssues(ctx context.Context, params Params) (interface{}, error) {
	query := github.IssueQuery{
		Owner:       params.String("owner"),
		Repo:        params.String("repo"),
		State:       params.StringOr("state", "open"),
		PageRequest: pageRequest(params),
	}
	if err := validation.ValidateStruct(query); err != nil {
		return nil, err
	}
	return p.client.ListIssues(ctx, query)
}

func (p *GitHubProvider) handleCreatePullRequest(ctx context.Context, params Params) (interface{}, error) {
	pr := github.NewPullRequest{
		Owner: params.String("owner"),
		Repo:  params.String("repo"),
		Title: params.String("title"),
		Head:  params.String("head"),
		Base:  params.String("base"),
		Body:  params.String("body"),
		Draft: params.Bool("draft"),
	}
	if err := validation.ValidateStruct(pr); err != nil {
		return nil, err
	}
	return p.client.CreatePullRequest(ctx, pr)
}

func (p *GitHubProvider) handleMergePullRequest(ctx context.Context, params Params) (interface{}, error) {
	merge := github.MergeRequest{
		Owner:         params.String("owner"),
		Repo:          params.String("repo"),
		Number:        params.Int("pull_number"),
		Method:        params.StringOr("merge_method", "squash"),
		CommitTitle:   params.String("commit_title"),
		CommitMessage: params.String("commit_message"),
		SHA:           params.String("sha"),
	}
	if err := validation.ValidateStruct(merge); err != nil {
		return nil, err
	}
	return p.client.MergePullRequest(ctx, merge)
}

func (p *GitHubProvider) handleDispatchWorkflow(ctx context.Context, params Params) (interface{}, error) {
	workflow := params.String("workflow_id")
	if workflow == "" {
		if id := params.Int("workflow_id"); id > 0 {
			workflow = strconv.Itoa(id)
		}
	}
	if workflow == "" {
		return nil, models.NewMissingParametersError([]string{"workflow_id"})
	}
	ref := params.String("ref")

	dispatch := github.WorkflowDispatch{
		Owner:    params.String("owner"),
		Repo:     params.String("repo"),
		Workflow: workflow,
		Ref:      ref,
		Inputs:   params.Map("inputs"),
	}
	if err := validation.ValidateStruct(dispatch); err != nil {
		return nil, err
	}
	if err := p.client.DispatchWorkflow(ctx, dispatch); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"ok":      true,
		"message": fmt.Sprintf("Workflow %s dispatched on %s", workflow, ref),
	}, nil
}
