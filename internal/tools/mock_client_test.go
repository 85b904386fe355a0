package tools

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/developer-mesh/mcp-github-server/internal/github"
)

type MockClient struct {
	mock.Mock
}

var _ github.Client = (*MockClient)(nil)

func (m *MockClient) ListRepos(ctx context.Context, visibility string, page github.PageRequest) (*github.Page[github.Repository], error) {
	args := m.Called(ctx, visibility, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Page[github.Repository]), args.Error(1)
}

func (m *MockClient) GetFile(ctx context.Context, owner, repo, path, ref string) (*github.FileContent, error) {
	args := m.Called(ctx, owner, repo, path, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.FileContent), args.Error(1)
}

func (m *MockClient) CreateFile(ctx context.Context, w github.FileWrite) (*github.FileCommit, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.FileCommit), args.Error(1)
}

func (m *MockClient) UpdateFile(ctx context.Context, w github.FileWrite) (*github.FileCommit, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.FileCommit), args.Error(1)
}

func (m *MockClient) CreateIssue(ctx context.Context, issue github.NewIssue) (*github.CreatedIssue, error) {
	args := m.Called(ctx, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.CreatedIssue), args.Error(1)
}

func (m *MockClient) ListIssues(ctx context.Context, query github.IssueQuery) (*github.Page[github.Issue], error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.Page[github.Issue]), args.Error(1)
}

func (m *MockClient) CreatePullRequest(ctx context.Context, pr github.NewPullRequest) (*github.PullRequest, error) {
	args := m.Called(ctx, pr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.PullRequest), args.Error(1)
}

func (m *MockClient) MergePullRequest(ctx context.Context, merge github.MergeRequest) (*github.MergeResult, error) {
	args := m.Called(ctx, merge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*github.MergeResult), args.Error(1)
}

func (m *MockClient) DispatchWorkflow(ctx context.Context, dispatch github.WorkflowDispatch) error {
	args := m.Called(ctx, dispatch)
	return args.Error(0)
}
