package gitrepo

import (
	"context"
	"strings"
)

// Repository is the read-only description of a repository handed to the patcher.
type Repository struct {
	Owner         string
	Name          string
	DefaultBranch string
	HTMLURL       string
	Archived      bool
	Fork          bool
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// FileContent represents a file retrieved from a git hosting provider.
type FileContent struct {
	Path     string
	SHA      string
	Content  string // decoded content (not base64)
	Encoding string // transport encoding reported by the host, e.g. "base64"
}

// Branch is a branch name and the SHA of its head commit.
type Branch struct {
	Name string
	SHA  string
}

// Ref is a git reference as returned by the host after creating it.
type Ref struct {
	Ref string // fully qualified, e.g. "refs/heads/fix"
	SHA string
}

// BranchName strips the refs/heads/ prefix.
func (r Ref) BranchName() string {
	return strings.TrimPrefix(r.Ref, "refs/heads/")
}

// PutFileRequest describes a single-file commit through the contents API.
type PutFileRequest struct {
	Path    string
	SHA     string // blob SHA of the file being replaced
	Branch  string
	Content string // decoded content; the adapter handles transport encoding
	Message string
}

// Commit is the commit created by PutFile.
type Commit struct {
	SHA     string
	HTMLURL string
}

// PullRequest represents a pull request on a git hosting provider.
type PullRequest struct {
	Number  int
	HTMLURL string
}

// CreatePRRequest is the request body for creating a pull request.
type CreatePRRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// Client is the port the patcher depends on to read and mutate a repository.
//
// Implementations return NotFoundError, BranchExistsError and
// PullRequestExistsError for the conditions they describe. Every other error
// is a transport failure.
type Client interface {
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)
	// GetFile reads path at ref. An empty ref means the default branch.
	GetFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error)
	ListBranches(ctx context.Context, owner, repo string) ([]Branch, error)
	CreateBranch(ctx context.Context, owner, repo, name, sha string) (*Ref, error)
	PutFile(ctx context.Context, owner, repo string, req PutFileRequest) (*Commit, error)
	CreatePR(ctx context.Context, owner, repo string, req CreatePRRequest) (*PullRequest, error)
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
}
