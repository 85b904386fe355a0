package github

import (
	"context"

	gh "github.com/google/go-github/v74/github"
	"github.com/pkg/errors"
)

// ListRepos lists repositories of the authenticated user
func (c *RESTClient) ListRepos(ctx context.Context, visibility string, page PageRequest) (*Page[Repository], error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  visibility,
		ListOptions: listOptions(page),
	}

	repos, resp, err := c.client.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, classify("listing repositories", resp, err)
	}

	out := &Page[Repository]{
		Items:    make([]Repository, 0, len(repos)),
		Page:     page.Page,
		PerPage:  page.PerPage,
		NextPage: nextPage(resp),
	}
	for _, r := range repos {
		out.Items = append(out.Items, Repository{
			Name:            r.GetName(),
			FullName:        r.GetFullName(),
			Private:         r.GetPrivate(),
			DefaultBranch:   r.GetDefaultBranch(),
			HTMLURL:         r.GetHTMLURL(),
			Description:     r.Description,
			Language:        r.Language,
			StargazersCount: r.GetStargazersCount(),
		})
	}
	return out, nil
}

// GetFile reads a file, or lists a directory, at an optional ref
func (c *RESTClient) GetFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}

	file, dir, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, classify("getting file", resp, err)
	}

	if file == nil {
		entries := make([]string, 0, len(dir))
		for _, entry := range dir {
			entries = append(entries, entry.GetName())
		}
		return &FileContent{
			Path:    path,
			Type:    "dir",
			Entries: entries,
		}, nil
	}

	out := &FileContent{
		Path:     file.GetPath(),
		SHA:      file.GetSHA(),
		Size:     file.GetSize(),
		Encoding: file.GetEncoding(),
		Type:     file.GetType(),
	}

	// Symlinks and submodules carry no decodable content; files over 1MB
	// come back with encoding "none".
	if out.Type == "file" && out.Encoding != "none" {
		text, err := file.GetContent()
		if err != nil {
			return nil, classify("decoding file", resp, err)
		}
		out.Content = &text
	}
	return out, nil
}

// CreateFile commits a new file
func (c *RESTClient) CreateFile(ctx context.Context, w FileWrite) (*FileCommit, error) {
	if w.SHA != "" {
		return nil, errors.New("create must not carry a sha")
	}
	res, resp, err := c.client.Repositories.CreateFile(ctx, w.Owner, w.Repo, w.Path, fileOptions(w))
	if err != nil {
		return nil, classify("creating file", resp, err)
	}
	return fileCommit(res), nil
}

// UpdateFile replaces a file. w.SHA must name the blob being replaced; a
// stale sha is reported with the conflict code and never retried.
func (c *RESTClient) UpdateFile(ctx context.Context, w FileWrite) (*FileCommit, error) {
	res, resp, err := c.client.Repositories.UpdateFile(ctx, w.Owner, w.Repo, w.Path, fileOptions(w))
	if err != nil {
		return nil, classify("updating file", resp, err)
	}
	return fileCommit(res), nil
}

func fileOptions(w FileWrite) *gh.RepositoryContentFileOptions {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(w.Message),
		Content: []byte(w.Content),
	}
	if w.Branch != "" {
		opts.Branch = gh.Ptr(w.Branch)
	}
	if w.SHA != "" {
		opts.SHA = gh.Ptr(w.SHA)
	}
	return opts
}

func fileCommit(res *gh.RepositoryContentResponse) *FileCommit {
	if res == nil {
		return &FileCommit{}
	}
	return &FileCommit{
		CommitSHA:  res.Commit.GetSHA(),
		ContentSHA: res.Content.GetSHA(),
		HTMLURL:    res.Content.GetHTMLURL(),
	}
}
