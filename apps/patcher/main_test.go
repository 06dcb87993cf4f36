package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	githubadapter "github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/adapters/github"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/cli"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/gitrepo"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"
)

const legacyWorkflow = "on:\n  push:\n    branches:\n      - dependabot/npm_and_yarn/prettier-*\n"

func TestPatchAll(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "site"})
	gh.SetFile("acme", "site", "main", patcher.DefaultTargetPath, legacyWorkflow)
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "old", Archived: true})

	p, err := patcher.New(gh, patcher.Config{Publish: patcher.PublishDirect}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	repos := []cli.RepoRef{
		{Owner: "acme", Name: "site"},
		{Owner: "acme", Name: "old"},
		{Owner: "acme", Name: "missing"},
	}
	failed := patchAll(context.Background(), gh, p, repos, slog.New(slog.DiscardHandler))

	assert.Equal(t, 1, failed, "unknown repository counts as a failure")
	got, _ := gh.File("acme", "site", "main", patcher.DefaultTargetPath)
	assert.Contains(t, got, "renovate/prettier-*")
	assert.Equal(t, 1, gh.CallCount(githubadapter.OpPutFile))
}

func TestPatchAll_PatchErrorContinues(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "a"})
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "b"})
	gh.FailOn(githubadapter.OpGetFile, errors.New("boom"))

	p, err := patcher.New(gh, patcher.Config{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	failed := patchAll(context.Background(), gh, p,
		[]cli.RepoRef{{Owner: "acme", Name: "a"}, {Owner: "acme", Name: "b"}},
		slog.New(slog.DiscardHandler))

	assert.Equal(t, 2, failed)
	assert.Equal(t, 2, gh.CallCount(githubadapter.OpGetFile))
}

func TestPatchAll_Cancelled(t *testing.T) {
	gh := githubadapter.NewInMem()
	gh.AddRepo(gitrepo.Repository{Owner: "acme", Name: "a"})

	p, err := patcher.New(gh, patcher.Config{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	failed := patchAll(ctx, gh, p, []cli.RepoRef{{Owner: "acme", Name: "a"}}, slog.New(slog.DiscardHandler))

	assert.Equal(t, 1, failed)
	assert.Empty(t, gh.Calls())
}

func TestNewLogger_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=json\nLOG_LEVEL=debug\n"), 0o600))
	t.Chdir(dir)
	for _, k := range []string{"LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	log, err := newLogger()
	require.NoError(t, err)
	assert.IsType(t, &slog.JSONHandler{}, log.Handler())
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}
