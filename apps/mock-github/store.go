package main

import (
	"crypto/sha1" //nolint:gosec // git object ids, not used for security
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

const (
	stateOpen   = "open"
	stateMerged = "merged"
)

var (
	errNotFound       = errors.New("not found")
	errRefExists      = errors.New("reference already exists")
	errSHAMismatch    = errors.New("sha does not match")
	errPRExists       = errors.New("a pull request already exists")
	errUnknownCommit  = errors.New("object does not exist")
	errNothingToMerge = errors.New("pull request is not open")
)

// Repo is the repository metadata served by GET /repos/:owner/:repo.
type Repo struct {
	Owner         string
	Name          string
	DefaultBranch string
	Archived      bool
	Fork          bool
}

func (r Repo) FullName() string { return r.Owner + "/" + r.Name }

type branch struct {
	head  string
	files map[string]string
}

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	Number  int      `json:"number"`
	HTMLURL string   `json:"html_url"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Head    string   `json:"head"`
	Base    string   `json:"base"`
	State   string   `json:"state"`
	Labels  []string `json:"labels"`
	Repo    string   `json:"repo"`
}

// store holds repositories, their branches and pull requests, keyed by "owner/repo".
type store struct {
	mu       sync.RWMutex
	baseURL  string
	repos    map[string]Repo
	branches map[string]map[string]*branch // repo key → branch name → branch
	prs      map[string][]PullRequest
	commits  int
}

func newStore(baseURL string) *store {
	return &store{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		repos:    make(map[string]Repo),
		branches: make(map[string]map[string]*branch),
		prs:      make(map[string][]PullRequest),
	}
}

// addRepo registers r with files on its default branch ("main" when unset).
func (s *store) addRepo(r Repo, files map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	s.repos[r.FullName()] = r
	copied := make(map[string]string, len(files))
	for p, c := range files {
		copied[p] = c
	}
	s.branches[r.FullName()] = map[string]*branch{
		r.DefaultBranch: {head: s.nextCommit(), files: copied},
	}
}

func (s *store) repo(owner, name string) (Repo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repos[owner+"/"+name]
	return r, ok
}

func (s *store) listRepos() []Repo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Repo, 0, len(s.repos))
	for _, r := range s.repos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}

// branchFor resolves ref (empty means the default branch). Must be called with mu held.
func (s *store) branchFor(key, ref string) (*branch, string, bool) {
	r, ok := s.repos[key]
	if !ok {
		return nil, "", false
	}
	if ref == "" {
		ref = r.DefaultBranch
	}
	b, ok := s.branches[key][ref]
	return b, ref, ok
}

// getFile returns the content and blob sha of path on ref.
func (s *store) getFile(owner, repo, path, ref string) (content, sha string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, _, ok := s.branchFor(owner+"/"+repo, ref)
	if !ok {
		return "", "", errNotFound
	}
	content, ok = b.files[path]
	if !ok {
		return "", "", errNotFound
	}
	return content, blobSHA(content), nil
}

// putFile writes path on ref and returns the new commit sha. A non-empty sha
// must match the current blob, as on GitHub.
func (s *store) putFile(owner, repo, path, ref, sha, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, _, ok := s.branchFor(owner+"/"+repo, ref)
	if !ok {
		return "", errNotFound
	}
	if current, exists := b.files[path]; exists && blobSHA(current) != sha {
		return "", errSHAMismatch
	}
	b.files[path] = content
	b.head = s.nextCommit()
	return b.head, nil
}

type branchInfo struct {
	Name string
	SHA  string
}

func (s *store) listBranches(owner, repo string) ([]branchInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := owner + "/" + repo
	if _, ok := s.repos[key]; !ok {
		return nil, errNotFound
	}
	out := make([]branchInfo, 0, len(s.branches[key]))
	for name, b := range s.branches[key] {
		out = append(out, branchInfo{Name: name, SHA: b.head})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// createBranch creates name from the branch whose head is sha.
func (s *store) createBranch(owner, repo, name, sha string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	branches, ok := s.branches[key]
	if !ok {
		return errNotFound
	}
	if _, exists := branches[name]; exists {
		return errRefExists
	}
	for _, b := range branches {
		if b.head != sha {
			continue
		}
		files := make(map[string]string, len(b.files))
		for p, c := range b.files {
			files[p] = c
		}
		branches[name] = &branch{head: sha, files: files}
		return nil
	}
	return errUnknownCommit
}

func (s *store) createPR(owner, repo, title, body, head, base string) (PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	if _, ok := s.branches[key][head]; !ok {
		return PullRequest{}, errNotFound
	}
	for _, pr := range s.prs[key] {
		if pr.Head == head && pr.State == stateOpen {
			return PullRequest{}, errPRExists
		}
	}
	num := len(s.prs[key]) + 1
	pr := PullRequest{
		Number:  num,
		HTMLURL: fmt.Sprintf("%s/%s/pull/%d", s.baseURL, key, num),
		Title:   title,
		Body:    body,
		Head:    head,
		Base:    base,
		State:   stateOpen,
		Repo:    key,
	}
	s.prs[key] = append(s.prs[key], pr)
	return pr, nil
}

func (s *store) addLabels(owner, repo string, number int, labels []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	for i := range s.prs[key] {
		if s.prs[key][i].Number != number {
			continue
		}
		for _, l := range labels {
			if !slices.Contains(s.prs[key][i].Labels, l) {
				s.prs[key][i].Labels = append(s.prs[key][i].Labels, l)
			}
		}
		return append([]string(nil), s.prs[key][i].Labels...), nil
	}
	return nil, errNotFound
}

func (s *store) getPR(owner, repo string, number int) (PullRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pr := range s.prs[owner+"/"+repo] {
		if pr.Number == number {
			return pr, true
		}
	}
	return PullRequest{}, false
}

// merge fast-forwards the base branch to the head branch contents.
func (s *store) merge(owner, repo string, number int) (PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	for i, pr := range s.prs[key] {
		if pr.Number != number {
			continue
		}
		if pr.State != stateOpen {
			return PullRequest{}, errNothingToMerge
		}
		head, ok := s.branches[key][pr.Head]
		base, ok2 := s.branches[key][pr.Base]
		if !ok || !ok2 {
			return PullRequest{}, errNotFound
		}
		for p, c := range head.files {
			base.files[p] = c
		}
		base.head = s.nextCommit()
		s.prs[key][i].State = stateMerged
		return s.prs[key][i], nil
	}
	return PullRequest{}, errNotFound
}

func (s *store) listAllPRs() []PullRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []PullRequest
	for _, prs := range s.prs {
		all = append(all, prs...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Repo != all[j].Repo {
			return all[i].Repo < all[j].Repo
		}
		return all[i].Number < all[j].Number
	})
	return all
}

// nextCommit must be called with mu held.
func (s *store) nextCommit() string {
	s.commits++
	h := sha1.New() //nolint:gosec // see import
	fmt.Fprintf(h, "commit %d", s.commits)
	return hex.EncodeToString(h.Sum(nil))
}

func blobSHA(content string) string {
	h := sha1.New() //nolint:gosec // see import
	fmt.Fprintf(h, "blob %d\x00%s", len(content), content)
	return hex.EncodeToString(h.Sum(nil))
}

// changedFiles returns the files whose content on the PR head differs from its base.
func (s *store) changedFiles(owner, repo string, pr PullRequest) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := owner + "/" + repo
	head, ok := s.branches[key][pr.Head]
	if !ok {
		return nil
	}
	base := s.branches[key][pr.Base]
	out := make(map[string]string)
	for p, c := range head.files {
		if base == nil || base.files[p] != c {
			out[p] = c
		}
	}
	return out
}
