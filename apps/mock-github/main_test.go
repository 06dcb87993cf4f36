package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gogithub "github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*gogithub.Client, *store, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewUnstartedServer(nil)
	s := newStore("http://" + srv.Listener.Addr().String())
	seedRepos(s)
	srv.Config.Handler = newRouter(s, slog.New(slog.DiscardHandler))
	srv.Start()
	t.Cleanup(srv.Close)

	gh := gogithub.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base
	return gh, s, srv
}

func TestGetRepository(t *testing.T) {
	gh, _, _ := newTestServer(t)
	ctx := context.Background()

	repo, _, err := gh.Repositories.Get(ctx, "octoherd", "archived-site")
	require.NoError(t, err)
	assert.Equal(t, "octoherd", repo.GetOwner().GetLogin())
	assert.Equal(t, "main", repo.GetDefaultBranch())
	assert.True(t, repo.GetArchived())
	assert.False(t, repo.GetFork())

	_, resp, err := gh.Repositories.Get(ctx, "octoherd", "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContents_GetAndPut(t *testing.T) {
	gh, s, _ := newTestServer(t)
	ctx := context.Background()

	fc, _, _, err := gh.Repositories.GetContents(ctx, "octoherd", "legacy-site", workflowPath, nil)
	require.NoError(t, err)
	content, err := fc.GetContent()
	require.NoError(t, err)
	assert.Equal(t, legacyWorkflow, content)

	updated := strings.ReplaceAll(content, "dependabot/npm_and_yarn", "renovate")
	res, _, err := gh.Repositories.UpdateFile(ctx, "octoherd", "legacy-site", workflowPath, &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr("ci: fix"),
		Content: []byte(updated),
		SHA:     fc.SHA,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Commit.GetSHA())
	assert.Contains(t, res.Commit.GetHTMLURL(), "/octoherd/legacy-site/commit/")

	got, _, err := s.getFile("octoherd", "legacy-site", workflowPath, "")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	// The old blob sha is stale now.
	_, resp, err := gh.Repositories.UpdateFile(ctx, "octoherd", "legacy-site", workflowPath, &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr("again"),
		Content: []byte("x"),
		SHA:     fc.SHA,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestContents_MissingFile(t *testing.T) {
	gh, _, _ := newTestServer(t)

	_, _, resp, err := gh.Repositories.GetContents(context.Background(), "octoherd", "no-workflow", workflowPath, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBranchAndPullRequestFlow(t *testing.T) {
	gh, s, _ := newTestServer(t)
	ctx := context.Background()
	const owner, repo, branch = "octoherd", "legacy-trunk", "fix-update-prettier-workflow"

	branches, _, err := gh.Repositories.ListBranches(ctx, owner, repo, nil)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "trunk", branches[0].GetName())
	base := branches[0].GetCommit().GetSHA()

	ref, _, err := gh.Git.CreateRef(ctx, owner, repo, gogithub.CreateRef{Ref: "refs/heads/" + branch, SHA: base})
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/"+branch, ref.GetRef())

	_, resp, err := gh.Git.CreateRef(ctx, owner, repo, gogithub.CreateRef{Ref: "refs/heads/" + branch, SHA: base})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var ghErr *gogithub.ErrorResponse
	require.ErrorAs(t, err, &ghErr)
	assert.Contains(t, ghErr.Message, "Reference already exists")

	fc, _, _, err := gh.Repositories.GetContents(ctx, owner, repo, workflowPath,
		&gogithub.RepositoryContentGetOptions{Ref: branch})
	require.NoError(t, err)
	_, _, err = gh.Repositories.UpdateFile(ctx, owner, repo, workflowPath, &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr("ci: fix"),
		Content: []byte(fixedWorkflow),
		SHA:     fc.SHA,
		Branch:  gogithub.Ptr(branch),
	})
	require.NoError(t, err)

	onTrunk, _, err := s.getFile(owner, repo, workflowPath, "trunk")
	require.NoError(t, err)
	assert.Equal(t, legacyWorkflow, onTrunk, "default branch untouched until merge")

	pr, _, err := gh.PullRequests.Create(ctx, owner, repo, &gogithub.NewPullRequest{
		Title: gogithub.Ptr("ci: fix"),
		Head:  gogithub.Ptr(branch),
		Base:  gogithub.Ptr("trunk"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pr.GetNumber())

	_, _, err = gh.PullRequests.Create(ctx, owner, repo, &gogithub.NewPullRequest{
		Title: gogithub.Ptr("ci: fix"),
		Head:  gogithub.Ptr(branch),
		Base:  gogithub.Ptr("trunk"),
	})
	require.ErrorAs(t, err, &ghErr)
	require.NotEmpty(t, ghErr.Errors)
	assert.Contains(t, ghErr.Errors[0].Message, "A pull request already exists")

	labels, _, err := gh.Issues.AddLabelsToIssue(ctx, owner, repo, pr.GetNumber(), []string{"maintenance"})
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "maintenance", labels[0].GetName())

	_, err = s.merge(owner, repo, pr.GetNumber())
	require.NoError(t, err)
	onTrunk, _, err = s.getFile(owner, repo, workflowPath, "trunk")
	require.NoError(t, err)
	assert.Equal(t, fixedWorkflow, onTrunk)
}

func TestDashboard(t *testing.T) {
	_, s, srv := newTestServer(t)
	err := s.createBranch("octoherd", "legacy-site", "fix", mustHead(t, s, "octoherd", "legacy-site"))
	require.NoError(t, err)
	_, err = s.createPR("octoherd", "legacy-site", "ci: <fix>", "", "fix", "main")
	require.NoError(t, err)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ci: &lt;fix&gt;")
	assert.Contains(t, string(body), "/octoherd/legacy-site/pull/1")
	assert.Contains(t, string(body), "octoherd/archived-site")
}

func mustHead(t *testing.T, s *store, owner, repo string) string {
	t.Helper()
	branches, err := s.listBranches(owner, repo)
	require.NoError(t, err)
	require.NotEmpty(t, branches)
	return branches[0].SHA
}
