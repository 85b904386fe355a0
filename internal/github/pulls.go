package github

import (
	"context"
	"strconv"

	gh "github.com/google/go-github/v74/github"
)

// CreatePullRequest opens a pull request
func (c *RESTClient) CreatePullRequest(ctx context.Context, pr NewPullRequest) (*PullRequest, error) {
	req := &gh.NewPullRequest{
		Title: gh.Ptr(pr.Title),
		Head:  gh.Ptr(pr.Head),
		Base:  gh.Ptr(pr.Base),
		Draft: gh.Ptr(pr.Draft),
	}
	if pr.Body != "" {
		req.Body = gh.Ptr(pr.Body)
	}

	created, resp, err := c.client.PullRequests.Create(ctx, pr.Owner, pr.Repo, req)
	if err != nil {
		return nil, classify("creating pull request", resp, err)
	}

	return &PullRequest{
		Number:    created.GetNumber(),
		URL:       created.GetHTMLURL(),
		Title:     created.GetTitle(),
		State:     created.GetState(),
		Draft:     created.GetDraft(),
		Author:    created.GetUser().GetLogin(),
		CreatedAt: formatTime(created.GetCreatedAt()),
	}, nil
}

// MergePullRequest merges a pull request
func (c *RESTClient) MergePullRequest(ctx context.Context, merge MergeRequest) (*MergeResult, error) {
	opts := &gh.PullRequestOptions{
		CommitTitle: merge.CommitTitle,
		SHA:         merge.SHA,
		MergeMethod: merge.Method,
	}

	res, resp, err := c.client.PullRequests.Merge(ctx, merge.Owner, merge.Repo, merge.Number, merge.CommitMessage, opts)
	if err != nil {
		return nil, classify("merging pull request #"+strconv.Itoa(merge.Number), resp, err)
	}

	return &MergeResult{
		Merged:  res.GetMerged(),
		SHA:     res.GetSHA(),
		Message: res.GetMessage(),
	}, nil
}
