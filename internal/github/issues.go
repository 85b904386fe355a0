package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v74/github"
)

// CreateIssue opens an issue
func (c *RESTClient) CreateIssue(ctx context.Context, issue NewIssue) (*CreatedIssue, error) {
	req := &gh.IssueRequest{Title: gh.Ptr(issue.Title)}
	if issue.Body != "" {
		req.Body = gh.Ptr(issue.Body)
	}
	if len(issue.Labels) > 0 {
		labels := append([]string(nil), issue.Labels...)
		req.Labels = &labels
	}

	created, resp, err := c.client.Issues.Create(ctx, issue.Owner, issue.Repo, req)
	if err != nil {
		return nil, classify("creating issue", resp, err)
	}

	return &CreatedIssue{
		Number:    created.GetNumber(),
		URL:       created.GetHTMLURL(),
		Title:     created.GetTitle(),
		State:     created.GetState(),
		CreatedAt: formatTime(created.GetCreatedAt()),
	}, nil
}

// issuePayload decodes only what a listing needs. Labels are decoded
// leniently because they may arrive as objects or bare names.
type issuePayload struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt time.Time  `json:"created_at"`
	User      *gh.User   `json:"user"`
	Labels    []labelRef `json:"labels"`
}

type labelRef string

func (l *labelRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*l = labelRef(name)
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = labelRef(obj.Name)
	return nil
}

// ListIssues lists a repository's issues in one state
func (c *RESTClient) ListIssues(ctx context.Context, query IssueQuery) (*Page[Issue], error) {
	params := url.Values{}
	params.Set("state", query.State)
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(query.PerPage))
	}
	u := fmt.Sprintf("repos/%s/%s/issues?%s", url.PathEscape(query.Owner), url.PathEscape(query.Repo), params.Encode())

	req, err := c.client.NewRequest("GET", u, nil)
	if err != nil {
		return nil, classify("listing issues", nil, err)
	}

	var payload []issuePayload
	resp, err := c.client.Do(ctx, req, &payload)
	if err != nil {
		return nil, classify("listing issues", resp, err)
	}

	out := &Page[Issue]{
		Items:    make([]Issue, 0, len(payload)),
		Page:     query.Page,
		PerPage:  query.PerPage,
		NextPage: nextPage(resp),
	}
	for _, p := range payload {
		labels := make([]string, 0, len(p.Labels))
		for _, l := range p.Labels {
			labels = append(labels, string(l))
		}
		out.Items = append(out.Items, Issue{
			Number:    p.Number,
			Title:     p.Title,
			State:     p.State,
			URL:       p.HTMLURL,
			Author:    p.User.GetLogin(),
			CreatedAt: formatTime(gh.Timestamp{Time: p.CreatedAt}),
			Labels:    labels,
		})
	}
	return out, nil
}
