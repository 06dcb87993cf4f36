package github

import (
	"context"
	"crypto/sha1" //nolint:gosec // mirrors git blob ids, not used for security
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
)

// Op names recorded by InMem, one per gitrepo.Client method.
const (
	OpGetRepository = "GetRepository"
	OpGetFile       = "GetFile"
	OpListBranches  = "ListBranches"
	OpCreateBranch  = "CreateBranch"
	OpPutFile       = "PutFile"
	OpCreatePR      = "CreatePR"
	OpAddLabels     = "AddLabels"
)

// MutatingOps are the operations that write to the repository host.
var MutatingOps = []string{OpCreateBranch, OpPutFile, OpCreatePR, OpAddLabels}

// InMem is an in-memory gitrepo.Client for unit tests. Files live per branch;
// a new branch starts as a copy of the branch whose head SHA it points at.
type InMem struct {
	mu       sync.Mutex
	repos    map[string]gitrepo.Repository // "owner/repo"
	files    map[string]map[string]string  // "owner/repo/branch" -> path -> content
	heads    map[string]string             // "owner/repo/branch" -> head sha
	prs      map[string][]gitrepo.CreatePRRequest
	labels   map[string][]string // "owner/repo#n"
	puts     []gitrepo.PutFileRequest
	calls    []string
	failures map[string]error
	nextN    int
	commits  int
}

// NewInMem creates an empty InMem client.
func NewInMem() *InMem {
	return &InMem{
		repos:    make(map[string]gitrepo.Repository),
		files:    make(map[string]map[string]string),
		heads:    make(map[string]string),
		prs:      make(map[string][]gitrepo.CreatePRRequest),
		labels:   make(map[string][]string),
		failures: make(map[string]error),
		nextN:    1,
	}
}

// AddRepo registers a repository and its default branch. DefaultBranch
// defaults to "main".
func (m *InMem) AddRepo(r gitrepo.Repository) gitrepo.Repository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	if r.HTMLURL == "" {
		r.HTMLURL = "https://github.com/" + r.FullName()
	}
	m.repos[r.FullName()] = r
	key := r.FullName() + "/" + r.DefaultBranch
	if m.files[key] == nil {
		m.files[key] = make(map[string]string)
	}
	if _, ok := m.heads[key]; !ok {
		m.heads[key] = m.nextCommitSHA()
	}
	return r
}

// SetFile seeds a file on a branch. The branch is created if it does not exist.
func (m *InMem) SetFile(owner, repo, branch, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := owner + "/" + repo + "/" + branch
	if m.files[key] == nil {
		m.files[key] = make(map[string]string)
		m.heads[key] = m.nextCommitSHA()
	}
	m.files[key][path] = content
}

// File returns the current content of path on branch.
func (m *InMem) File(owner, repo, branch, path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[owner+"/"+repo+"/"+branch][path]
	return content, ok
}

// FailOn makes every subsequent call to op return err.
func (m *InMem) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns the operation names invoked so far, in order.
func (m *InMem) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times op was invoked.
func (m *InMem) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Puts returns every successful PutFile request.
func (m *InMem) Puts() []gitrepo.PutFileRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gitrepo.PutFileRequest(nil), m.puts...)
}

// PRs returns all pull requests created in owner/repo.
func (m *InMem) PRs(owner, repo string) []gitrepo.CreatePRRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]gitrepo.CreatePRRequest(nil), m.prs[owner+"/"+repo]...)
}

// Labels returns the labels attached to pull request number.
func (m *InMem) Labels(owner, repo string, number int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.labels[fmt.Sprintf("%s/%s#%d", owner, repo, number)]...)
}

// GetRepository returns the registered repository.
func (m *InMem) GetRepository(_ context.Context, owner, repo string) (*gitrepo.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetRepository); err != nil {
		return nil, err
	}
	r, ok := m.repos[owner+"/"+repo]
	if !ok {
		return nil, gitrepo.NotFoundError{Owner: owner, Repo: repo}
	}
	return &r, nil
}

// GetFile returns the file at path on ref, or NotFoundError.
func (m *InMem) GetFile(_ context.Context, owner, repo, path, ref string) (*gitrepo.FileContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetFile); err != nil {
		return nil, err
	}
	if ref == "" {
		ref = m.repos[owner+"/"+repo].DefaultBranch
	}
	content, ok := m.files[owner+"/"+repo+"/"+ref][path]
	if !ok {
		return nil, gitrepo.NotFoundError{Owner: owner, Repo: repo, Path: path}
	}
	return &gitrepo.FileContent{
		Path:     path,
		SHA:      blobSHA(content),
		Content:  content,
		Encoding: "base64",
	}, nil
}

// ListBranches returns every branch with its head SHA.
func (m *InMem) ListBranches(_ context.Context, owner, repo string) ([]gitrepo.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpListBranches); err != nil {
		return nil, err
	}
	prefix := owner + "/" + repo + "/"
	var out []gitrepo.Branch
	for key, sha := range m.heads {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, gitrepo.Branch{Name: key[len(prefix):], SHA: sha})
		}
	}
	return out, nil
}

// CreateBranch copies the files of the branch whose head is sha.
func (m *InMem) CreateBranch(_ context.Context, owner, repo, name, sha string) (*gitrepo.Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateBranch); err != nil {
		return nil, err
	}
	key := owner + "/" + repo + "/" + name
	if _, ok := m.heads[key]; ok {
		return nil, gitrepo.BranchExistsError{Branch: name}
	}
	var source map[string]string
	for k, head := range m.heads {
		if head == sha {
			source = m.files[k]
			break
		}
	}
	if source == nil {
		return nil, fmt.Errorf("create branch %s: unknown sha %s", name, sha)
	}
	files := make(map[string]string, len(source))
	for p, c := range source {
		files[p] = c
	}
	m.files[key] = files
	m.heads[key] = sha
	return &gitrepo.Ref{Ref: "refs/heads/" + name, SHA: sha}, nil
}

// PutFile writes path on req.Branch, enforcing the blob SHA like GitHub does.
// An empty SHA creates a file that does not exist yet.
func (m *InMem) PutFile(_ context.Context, owner, repo string, req gitrepo.PutFileRequest) (*gitrepo.Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpPutFile); err != nil {
		return nil, err
	}
	branch := req.Branch
	if branch == "" {
		branch = m.repos[owner+"/"+repo].DefaultBranch
	}
	key := owner + "/" + repo + "/" + branch
	files, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("update file: branch %s not found", branch)
	}
	current, exists := files[req.Path]
	switch {
	case exists && blobSHA(current) != req.SHA:
		return nil, fmt.Errorf("update file: %s does not match %s", req.Path, req.SHA)
	case !exists && req.SHA != "":
		return nil, fmt.Errorf("create file: %s does not exist, sha must be empty", req.Path)
	}
	files[req.Path] = req.Content
	sha := m.nextCommitSHA()
	m.heads[key] = sha
	m.puts = append(m.puts, req)
	return &gitrepo.Commit{
		SHA:     sha,
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/commit/%s", owner, repo, sha),
	}, nil
}

// CreatePR records a pull request. A second PR for the same head is rejected.
func (m *InMem) CreatePR(_ context.Context, owner, repo string, req gitrepo.CreatePRRequest) (*gitrepo.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreatePR); err != nil {
		return nil, err
	}
	key := owner + "/" + repo
	for _, pr := range m.prs[key] {
		if pr.Head == req.Head {
			return nil, gitrepo.PullRequestExistsError{Head: req.Head}
		}
	}
	m.prs[key] = append(m.prs[key], req)
	n := m.nextN
	m.nextN++
	return &gitrepo.PullRequest{
		Number:  n,
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, repo, n),
	}, nil
}

// AddLabels records labels against a pull request number.
func (m *InMem) AddLabels(_ context.Context, owner, repo string, number int, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpAddLabels); err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	m.labels[key] = append(m.labels[key], labels...)
	return nil
}

// record must be called with mu held.
func (m *InMem) record(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

// nextCommitSHA must be called with mu held.
func (m *InMem) nextCommitSHA() string {
	m.commits++
	return fmt.Sprintf("%040x", m.commits)
}

func blobSHA(content string) string {
	h := sha1.New() //nolint:gosec // see import
	fmt.Fprintf(h, "blob %d\x00%s", len(content), content)
	return hex.EncodeToString(h.Sum(nil))
}
