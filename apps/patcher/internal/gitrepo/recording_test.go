package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	githubadapter "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/adapters/github"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
)

var _ gitrepo.Client = (*gitrepo.RecordingClient)(nil)

const workflowPath = ".github/workflows/update-prettier.yml"

func TestRecordingClient_MutationsNeverReachRealClient(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "site"})
	gh.SetFile("acme", "site", "main", workflowPath, "old")
	rec := gitrepo.NewRecordingClient(gh)
	ctx := context.Background()

	ref, err := rec.CreateBranch(ctx, "acme", "site", "fix", "sha")
	require.NoError(t, err)
	assert.Equal(t, "fix", ref.BranchName())

	commit, err := rec.PutFile(ctx, "acme", "site", gitrepo.PutFileRequest{
		Path: workflowPath, Branch: "fix", Content: "new", Message: "msg",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, commit.HTMLURL)

	pr, err := rec.CreatePR(ctx, "acme", "site", gitrepo.CreatePRRequest{Head: "fix", Base: "main"})
	require.NoError(t, err)
	require.NoError(t, rec.AddLabels(ctx, "acme", "site", pr.Number, []string{"maintenance"}))

	for _, op := range githubadapter.MutatingOps {
		assert.Zero(t, gh.CallCount(op), "unexpected %s call", op)
	}
	onMain, _ := gh.File("acme", "site", "main", workflowPath)
	assert.Equal(t, "old", onMain)

	require.Len(t, rec.Puts(), 1)
	assert.Equal(t, "acme", rec.Puts()[0].Owner)
	assert.Equal(t, "new", rec.Puts()[0].Content)
	assert.Len(t, rec.PullRequests(), 1)
	assert.Equal(t, []string{"maintenance"}, rec.Labels(pr.Number))
}

func TestRecordingClient_GetFile_SeesOverlay(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "site"})
	gh.SetFile("acme", "site", "main", workflowPath, "old")
	rec := gitrepo.NewRecordingClient(gh)
	ctx := context.Background()

	_, err := rec.CreateBranch(ctx, "acme", "site", "fix", "sha")
	require.NoError(t, err)

	// A branch that only exists in the dry run reads through to the default branch.
	fc, err := rec.GetFile(ctx, "acme", "site", workflowPath, "fix")
	require.NoError(t, err)
	assert.Equal(t, "old", fc.Content)

	_, err = rec.PutFile(ctx, "acme", "site", gitrepo.PutFileRequest{Path: workflowPath, Branch: "fix", Content: "new"})
	require.NoError(t, err)

	fc, err = rec.GetFile(ctx, "acme", "site", workflowPath, "fix")
	require.NoError(t, err)
	assert.Equal(t, "new", fc.Content)
}

func TestRecordingClient_CreateBranchTwice(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "site"})
	rec := gitrepo.NewRecordingClient(gh)
	ctx := context.Background()

	_, err := rec.CreateBranch(ctx, "acme", "site", "fix", "sha")
	require.NoError(t, err)
	_, err = rec.CreateBranch(ctx, "acme", "site", "fix", "sha")
	assert.True(t, gitrepo.IsBranchExists(err))
}

func TestRecordingClient_CreateBranch_ExistsOnHost(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "site"})
	gh.SetFile("acme", "site", "fix", workflowPath, "on branch")
	rec := gitrepo.NewRecordingClient(gh)
	ctx := context.Background()

	_, err := rec.CreateBranch(ctx, "acme", "site", "fix", "sha")
	assert.True(t, gitrepo.IsBranchExists(err))
	assert.Zero(t, gh.CallCount(githubadapter.OpCreateBranch))

	// Reads on the existing branch go to the host.
	fc, err := rec.GetFile(ctx, "acme", "site", workflowPath, "fix")
	require.NoError(t, err)
	assert.Equal(t, "on branch", fc.Content)
}

func TestRecordingClient_CreateBranch_ListFailure(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.FailOn(githubadapter.OpListBranches, errors.New("timeout"))
	rec := gitrepo.NewRecordingClient(gh)

	_, err := rec.CreateBranch(context.Background(), "acme", "site", "fix", "sha")
	require.Error(t, err)
	assert.False(t, gitrepo.IsBranchExists(err))
}

func TestErrorKinds(t *testing.T) {
	wrapped := func(err error) error { return errors.Join(errors.New("context"), err) }

	assert.True(t, gitrepo.IsNotFound(wrapped(gitrepo.NotFoundError{Owner: "a", Repo: "b", Path: "c"})))
	assert.True(t, gitrepo.IsBranchExists(wrapped(gitrepo.BranchExistsError{Branch: "x"})))
	assert.True(t, gitrepo.IsPullRequestExists(wrapped(gitrepo.PullRequestExistsError{Head: "x"})))
	assert.False(t, gitrepo.IsNotFound(errors.New("500")))

	assert.Equal(t, "c not found in a/b", gitrepo.NotFoundError{Owner: "a", Repo: "b", Path: "c"}.Error())
	assert.Equal(t, "a/b not found", gitrepo.NotFoundError{Owner: "a", Repo: "b"}.Error())
}
