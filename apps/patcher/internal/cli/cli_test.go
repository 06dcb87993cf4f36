package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/cli"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/config"
	"github.com/wolfy1339/octoherd-script-fix-prettier-update/apps/patcher/internal/patcher"
)

func TestParse_Repos(t *testing.T) {
	opts, err := cli.Parse([]string{"acme/site", "https://github.com/acme/docs.git"}, &bytes.Buffer{})
	require.NoError(t, err)

	require.Len(t, opts.Repos, 2)
	assert.Equal(t, cli.RepoRef{Owner: "acme", Name: "site"}, opts.Repos[0])
	assert.Equal(t, "acme/docs", opts.Repos[1].String())
}

func TestParse_NoRepos(t *testing.T) {
	var out bytes.Buffer
	_, err := cli.Parse(nil, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage: patcher")
}

func TestParse_Help(t *testing.T) {
	_, err := cli.Parse([]string{"--help"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, cli.ErrHelp)
}

func TestParse_UnknownFlag(t *testing.T) {
	_, err := cli.Parse([]string{"--force", "acme/site"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseRepoRef_Invalid(t *testing.T) {
	for _, s := range []string{"", "acme", "/site", "acme/", "acme/site/extra"} {
		_, err := cli.ParseRepoRef(s)
		assert.Error(t, err, s)
	}
}

func TestApply_OnlyChangedFlagsOverride(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{
		"PATCH_CHECK":    "substring",
		"PATCH_REFORMAT": "true",
	})
	require.NoError(t, err)

	opts, err := cli.Parse([]string{"--publish=direct", "--include-forks", "-n", "acme/site"}, &bytes.Buffer{})
	require.NoError(t, err)
	opts.Apply(env)

	cfg := env.PatcherConfig()
	assert.Equal(t, patcher.CheckSubstring, cfg.Check, "unset flag keeps env value")
	assert.True(t, cfg.Reformat, "unset flag keeps env value")
	assert.Equal(t, patcher.PublishDirect, cfg.Publish)
	assert.False(t, cfg.SkipForks)
	assert.True(t, env.Patch.DryRun)
}

func TestApply_ExplicitFalse(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{"PATCH_DRY_RUN": "true"})
	require.NoError(t, err)

	opts, err := cli.Parse([]string{"--dry-run=false", "acme/site"}, &bytes.Buffer{})
	require.NoError(t, err)
	opts.Apply(env)

	assert.False(t, env.Patch.DryRun)
}

func TestApply_FlagOverridesInvalidEnv(t *testing.T) {
	env, err := config.LoadFrom(context.Background(), map[string]string{"PATCH_CHECK": "bogus"})
	require.NoError(t, err)

	opts, err := cli.Parse([]string{"--check", "yaml", "acme/site"}, &bytes.Buffer{})
	require.NoError(t, err)
	opts.Apply(env)

	cfg := env.PatcherConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, patcher.CheckYAML, cfg.Check)
}
