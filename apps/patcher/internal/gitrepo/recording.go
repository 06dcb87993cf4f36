package gitrepo

import (
	"context"
	"fmt"
	"sync"
)

// RecordingClient wraps a real Client for dry runs. Reads are forwarded to the
// real client; mutations are captured and answered with synthetic results
// without making any network call.
//
// Writes are kept in an overlay so a later GetFile on a branch created during
// the same dry run sees the content that would have been committed.
type RecordingClient struct {
	real Client

	mu       sync.Mutex
	branches map[string]string // "owner/repo/branch" -> sha
	overlay  map[string]string // "owner/repo/branch/path" -> content
	puts     []RecordedPut
	prs      []CreatePRRequest
	labels   map[int][]string
	nextPR   int
}

// RecordedPut is a PutFile call captured by a RecordingClient.
type RecordedPut struct {
	Owner string
	Repo  string
	PutFileRequest
}

// NewRecordingClient creates a RecordingClient backed by the given real client.
func NewRecordingClient(real Client) *RecordingClient {
	return &RecordingClient{
		real:     real,
		branches: make(map[string]string),
		overlay:  make(map[string]string),
		labels:   make(map[int][]string),
		nextPR:   1,
	}
}

// GetRepository forwards to the real client unchanged.
func (r *RecordingClient) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	return r.real.GetRepository(ctx, owner, repo)
}

// GetFile checks content written earlier in the dry run before calling the
// real client. Reads on a branch that only exists in the dry run fall back to
// the default branch, which is what the branch would have pointed at.
func (r *RecordingClient) GetFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	r.mu.Lock()
	content, written := r.overlay[owner+"/"+repo+"/"+ref+"/"+path]
	_, fakeBranch := r.branches[owner+"/"+repo+"/"+ref]
	r.mu.Unlock()

	if written {
		return &FileContent{Path: path, SHA: "dry-run", Content: content, Encoding: "base64"}, nil
	}
	if fakeBranch {
		ref = ""
	}
	return r.real.GetFile(ctx, owner, repo, path, ref)
}

// ListBranches forwards to the real client unchanged.
func (r *RecordingClient) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	return r.real.ListBranches(ctx, owner, repo)
}

// CreateBranch records the branch and echoes it back as if the host created it.
// A branch that already exists on the host, or earlier in the dry run, yields
// BranchExistsError just like a real run would.
func (r *RecordingClient) CreateBranch(ctx context.Context, owner, repo, name, sha string) (*Ref, error) {
	key := owner + "/" + repo + "/" + name
	r.mu.Lock()
	_, recorded := r.branches[key]
	r.mu.Unlock()
	if recorded {
		return nil, BranchExistsError{Branch: name}
	}

	remote, err := r.real.ListBranches(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	for _, b := range remote {
		if b.Name == name {
			return nil, BranchExistsError{Branch: name}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.branches[key]; ok {
		return nil, BranchExistsError{Branch: name}
	}
	r.branches[key] = sha
	return &Ref{Ref: "refs/heads/" + name, SHA: sha}, nil
}

// PutFile records the write and returns a synthetic commit.
func (r *RecordingClient) PutFile(_ context.Context, owner, repo string, req PutFileRequest) (*Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlay[owner+"/"+repo+"/"+req.Branch+"/"+req.Path] = req.Content
	r.puts = append(r.puts, RecordedPut{Owner: owner, Repo: repo, PutFileRequest: req})
	return &Commit{
		SHA:     "dry-run",
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/commit/dry-run", owner, repo),
	}, nil
}

// CreatePR returns a fake pull request without making any network call.
func (r *RecordingClient) CreatePR(_ context.Context, owner, repo string, req CreatePRRequest) (*PullRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prs = append(r.prs, req)
	n := r.nextPR
	r.nextPR++
	return &PullRequest{
		Number:  n,
		HTMLURL: fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, repo, n),
	}, nil
}

// AddLabels records the labels against the fake pull request number.
func (r *RecordingClient) AddLabels(_ context.Context, _, _ string, number int, labels []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[number] = append(r.labels[number], labels...)
	return nil
}

// Puts returns every PutFile call captured so far.
func (r *RecordingClient) Puts() []RecordedPut {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedPut, len(r.puts))
	copy(out, r.puts)
	return out
}

// PullRequests returns every CreatePR call captured so far.
func (r *RecordingClient) PullRequests() []CreatePRRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CreatePRRequest, len(r.prs))
	copy(out, r.prs)
	return out
}

// Labels returns the labels recorded for a fake pull request number.
func (r *RecordingClient) Labels(number int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels[number]...)
}
