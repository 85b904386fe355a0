package github

// Page is one page of a list operation.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	// NextPage is omitted when the remote reports no further page.
	NextPage int `json:"next_page,omitempty"`
}

// PageRequest selects a page of a list operation
type PageRequest struct {
	Page    int `param:"page" validate:"min=1"`
	PerPage int `param:"per_page" validate:"min=1,max=100"`
}

// Repository summarises a repository visible to the token
type Repository struct {
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Private         bool    `json:"private"`
	DefaultBranch   string  `json:"default_branch"`
	HTMLURL         string  `json:"html_url"`
	Description     *string `json:"description"`
	Language        *string `json:"language"`
	StargazersCount int     `json:"stargazers_count"`
}

// FileContent is a file or directory read from a repository
type FileContent struct {
	Path     string  `json:"path"`
	SHA      string  `json:"sha"`
	Content  *string `json:"content"`
	Size     int     `json:"size"`
	Encoding string  `json:"encoding"`
	Type     string  `json:"type"`
	// Entries lists child names when Type is "dir".
	Entries []string `json:"entries,omitempty"`
}

// FileWrite describes a create or update of a single file
type FileWrite struct {
	Owner   string `param:"owner" validate:"required"`
	Repo    string `param:"repo" validate:"required"`
	Path    string `param:"path" validate:"required"`
	Content string `param:"content"`
	Message string `param:"message" validate:"required"`
	Branch  string `param:"branch"`
	// SHA is the blob the update expects to replace; empty for creates.
	SHA string `param:"sha"`
}

// FileCommit is the outcome of a file write
type FileCommit struct {
	CommitSHA  string `json:"commitSha"`
	ContentSHA string `json:"contentSha"`
	HTMLURL    string `json:"html_url"`
}

// NewIssue describes an issue to open
type NewIssue struct {
	Owner  string   `param:"owner" validate:"required"`
	Repo   string   `param:"repo" validate:"required"`
	Title  string   `param:"title" validate:"required"`
	Body   string   `param:"body"`
	Labels []string `param:"labels" validate:"dive,required"`
}

// CreatedIssue is the outcome of opening an issue
type CreatedIssue struct {
	Number    int    `json:"number"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
}

// IssueQuery filters a repository's issues
type IssueQuery struct {
	Owner string `param:"owner" validate:"required"`
	Repo  string `param:"repo" validate:"required"`
	State string `param:"state" validate:"oneof=open closed all"`
	PageRequest
}

// Issue is one entry of an issue listing
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	URL       string   `json:"url"`
	Author    string   `json:"author"`
	CreatedAt string   `json:"created_at"`
	Labels    []string `json:"labels"`
}

// NewPullRequest describes a pull request to open
type NewPullRequest struct {
	Owner string `param:"owner" validate:"required"`
	Repo  string `param:"repo" validate:"required"`
	Title string `param:"title" validate:"required"`
	Head  string `param:"head" validate:"required"`
	Base  string `param:"base" validate:"required"`
	Body  string `param:"body"`
	Draft bool   `param:"draft"`
}

// PullRequest is an opened pull request
type PullRequest struct {
	Number    int    `json:"number"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	State     string `json:"state"`
	Draft     bool   `json:"draft"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

// MergeRequest describes a pull request merge
type MergeRequest struct {
	Owner         string `param:"owner" validate:"required"`
	Repo          string `param:"repo" validate:"required"`
	Number        int    `param:"pull_number" validate:"required,gt=0"`
	Method        string `param:"merge_method" validate:"oneof=merge squash rebase"`
	CommitTitle   string `param:"commit_title"`
	CommitMessage string `param:"commit_message"`
	SHA           string `param:"sha"`
}

// MergeResult is the remote outcome of a merge
type MergeResult struct {
	Merged  bool   `json:"merged"`
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// WorkflowDispatch triggers a workflow run
type WorkflowDispatch struct {
	Owner string `param:"owner" validate:"required"`
	Repo  string `param:"repo" validate:"required"`
	// Workflow is a file name such as "ci.yml" or a numeric workflow ID.
	Workflow string                 `param:"workflow_id" validate:"required"`
	Ref      string                 `param:"ref" validate:"required"`
	Inputs   map[string]interface{} `param:"inputs"`
}
