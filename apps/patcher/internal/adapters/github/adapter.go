// Package github implements the gitrepo.Client port using the official
// go-github library. Wire it up with an authenticated *github.Client from
// apps/patcher/internal/platform/github.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
)

const branchesPerPage = 100

// Adapter wraps a go-github client and implements gitrepo.Client.
type Adapter struct {
	gh *gogithub.Client
}

// New creates an Adapter from an authenticated *github.Client.
func New(gh *gogithub.Client) *Adapter {
	return &Adapter{gh: gh}
}

// GetRepository fetches the repository metadata the patcher filters on.
func (a *Adapter) GetRepository(ctx context.Context, owner, repo string) (*gitrepo.Repository, error) {
	r, _, err := a.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, gitrepo.NotFoundError{Owner: owner, Repo: repo}
		}
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}
	return &gitrepo.Repository{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
		Archived:      r.GetArchived(),
		Fork:          r.GetFork(),
	}, nil
}

// GetFile fetches a single file at ref and returns its decoded content.
func (a *Adapter) GetFile(ctx context.Context, owner, repo, path, ref string) (*gitrepo.FileContent, error) {
	var opts *gogithub.RepositoryContentGetOptions
	if ref != "" {
		opts = &gogithub.RepositoryContentGetOptions{Ref: ref}
	}
	fc, _, _, err := a.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, gitrepo.NotFoundError{Owner: owner, Repo: repo, Path: path}
		}
		return nil, fmt.Errorf("get contents %s/%s/%s: %w", owner, repo, path, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("path %s is a directory, not a file", path)
	}
	if fc.GetSHA() == "" {
		return nil, gitrepo.NotFoundError{Owner: owner, Repo: repo, Path: path}
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content %s: %w", path, err)
	}
	return &gitrepo.FileContent{
		Path:     path,
		SHA:      fc.GetSHA(),
		Content:  content,
		Encoding: fc.GetEncoding(),
	}, nil
}

// ListBranches returns every branch of the repository, following pagination.
func (a *Adapter) ListBranches(ctx context.Context, owner, repo string) ([]gitrepo.Branch, error) {
	opts := &gogithub.BranchListOptions{
		ListOptions: gogithub.ListOptions{PerPage: branchesPerPage},
	}
	var out []gitrepo.Branch
	for {
		page, resp, err := a.gh.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list branches %s/%s: %w", owner, repo, err)
		}
		for _, b := range page {
			out = append(out, gitrepo.Branch{Name: b.GetName(), SHA: b.GetCommit().GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateBranch creates refs/heads/name pointing at sha.
func (a *Adapter) CreateBranch(ctx context.Context, owner, repo, name, sha string) (*gitrepo.Ref, error) {
	ref, _, err := a.gh.Git.CreateRef(ctx, owner, repo, gogithub.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: sha,
	})
	if err != nil {
		if isReferenceExists(err) {
			return nil, gitrepo.BranchExistsError{Branch: name}
		}
		return nil, fmt.Errorf("create branch %s: %w", name, err)
	}
	return &gitrepo.Ref{Ref: ref.GetRef(), SHA: ref.GetObject().GetSHA()}, nil
}

// PutFile creates or replaces a single file through the contents API.
// go-github base64-encodes the content on the wire.
func (a *Adapter) PutFile(ctx context.Context, owner, repo string, req gitrepo.PutFileRequest) (*gitrepo.Commit, error) {
	opts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr(req.Message),
		Content: []byte(req.Content),
	}
	// An empty SHA creates the file.
	if req.SHA != "" {
		opts.SHA = gogithub.Ptr(req.SHA)
	}
	if req.Branch != "" {
		opts.Branch = gogithub.Ptr(req.Branch)
	}
	res, _, err := a.gh.Repositories.UpdateFile(ctx, owner, repo, req.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("update file %s/%s/%s: %w", owner, repo, req.Path, err)
	}
	return &gitrepo.Commit{
		SHA:     res.Commit.GetSHA(),
		HTMLURL: res.Commit.GetHTMLURL(),
	}, nil
}

// CreatePR opens a pull request from req.Head into req.Base.
func (a *Adapter) CreatePR(ctx context.Context, owner, repo string, req gitrepo.CreatePRRequest) (*gitrepo.PullRequest, error) {
	newPR := &gogithub.NewPullRequest{
		Title: gogithub.Ptr(req.Title),
		Head:  gogithub.Ptr(req.Head),
		Base:  gogithub.Ptr(req.Base),
	}
	if req.Body != "" {
		newPR.Body = gogithub.Ptr(req.Body)
	}
	pr, _, err := a.gh.PullRequests.Create(ctx, owner, repo, newPR)
	if err != nil {
		if isPullRequestExists(err) {
			return nil, gitrepo.PullRequestExistsError{Head: req.Head}
		}
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	return &gitrepo.PullRequest{
		Number:  pr.GetNumber(),
		HTMLURL: pr.GetHTMLURL(),
	}, nil
}

// AddLabels attaches labels to the issue or pull request with the given number.
func (a *Adapter) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	if _, _, err := a.gh.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels); err != nil {
		return fmt.Errorf("add labels to #%d: %w", number, err)
	}
	return nil
}

func statusCode(err error) int {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// isReferenceExists matches the 422 GitHub returns from POST /git/refs when
// the ref is already there. Other 422s (bad SHA, invalid name) are not matched.
func isReferenceExists(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	return ghErr.Response.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(ghErr.Message, "Reference already exists")
}

func isPullRequestExists(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	if ghErr.Response.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	for _, e := range ghErr.Errors {
		if strings.Contains(e.Message, "A pull request already exists") {
			return true
		}
	}
	return false
}
